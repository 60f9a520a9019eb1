package audit

import (
	"context"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/events"
	"compliance_backend/internal/lifecycle"
)

// Publisher turns audit entries into AuditRecorded events. Publishing never blocks the caller
// and never fails it: the bus runs subscribers on their own goroutines.
type Publisher struct {
	bus events.Bus
	now func() time.Time
}

// NewPublisher creates a publisher on bus.
func NewPublisher(bus events.Bus) *Publisher {
	return &Publisher{bus: bus, now: time.Now}
}

var _ lifecycle.Auditor = (*Publisher)(nil)

// Record publishes entry.
func (p *Publisher) Record(ctx context.Context, entry domain.AuditEntry) {
	p.bus.Publish(ctx, events.AuditRecorded{
		BaseEvent:      events.NewBaseEvent(p.now()),
		OrganizationID: entry.OrganizationID,
		UserID:         entry.UserID,
		Action:         entry.Action,
		ResourceType:   entry.ResourceType,
		ResourceID:     entry.ResourceID,
		Details:        entry.Details,
	})
}
