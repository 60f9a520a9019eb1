// Package events defines the application's events on top of the platform bus.
package events

import (
	platform "compliance_backend/platform/events"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = platform.Event
	Bus         = platform.Bus
	Handler     = platform.Handler
	HandlerFunc = platform.HandlerFunc
	BaseEvent   = platform.BaseEvent
	InMemoryBus = platform.InMemoryBus
)

var NewBaseEvent = platform.NewBaseEvent

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platform.NewInMemoryBus(log)
}

// AuditRecorded is published for every mutating action, including sweep
// outcomes. Subscribers are fire-and-forget; publishers never wait on them.
type AuditRecorded struct {
	BaseEvent
	OrganizationID uuid.UUID  `json:"organizationId"`
	UserID         uuid.UUID  `json:"userId"` // uuid.Nil for scheduled jobs
	Action         string     `json:"action"`
	ResourceType   string     `json:"resourceType"`
	ResourceID     *uuid.UUID `json:"resourceId,omitempty"`
	Details        string     `json:"details,omitempty"`
}

func (e AuditRecorded) EventName() string { return "audit.recorded" }
