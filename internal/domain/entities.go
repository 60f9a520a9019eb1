// Package domain holds the entities, closed enums and pure rules of the equipment
// compliance engine. Nothing in here touches storage or the clock.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant root.
type Organization struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Customer belongs to one organization and carries the agreement that governs its sites' equipment.
type Customer struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Name            string
	AgreementStatus AgreementStatus
	ContractEndDate *time.Time
	Deletion        Deletion
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ContractLapsed reports whether a covered contract ended before today.
func (c Customer) ContractLapsed(today time.Time) bool {
	return c.AgreementStatus == AgreementCovered &&
		c.ContractEndDate != nil &&
		c.ContractEndDate.Before(today)
}

// Site belongs to one customer.
type Site struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	OrganizationID uuid.UUID // derived from the customer, read-only
	Name           string
	Address        *string
	ContactName    *string
	ContactPhone   *string
	Metadata       map[string]string
	Deletion       Deletion
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EquipmentType is a tenant catalog entry.
type EquipmentType struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Description    *string
	DisplayOrder   int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Equipment is a serviced item. OrganizationID is the tenant column and is kept even when
// the item is linked to a site; Owner says whether it currently hangs off a site.
type Equipment struct {
	ID                   uuid.UUID
	OrganizationID       uuid.UUID
	Owner                Ownership
	EquipmentTypeID      *uuid.UUID
	SerialNumber         string
	CustAssetID          *string
	QRCodeValue          string
	AgreementStatus      AgreementStatus
	LifecycleStatus      LifecycleStatus
	ServiceCycle         ServiceCycle
	LastService          *time.Time
	NextService          *time.Time
	NextServiceOverride  bool
	Provisional          bool
	ProvisionalExpiresAt *time.Time
	PredecessorID        *uuid.UUID
	Deletion             Deletion
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProvisionalExpired reports whether a provisional item's expiry lies strictly before now.
func (e Equipment) ProvisionalExpired(now time.Time) bool {
	return e.Provisional && e.ProvisionalExpiresAt != nil && e.ProvisionalExpiresAt.Before(now)
}

// Orphan clears the site link while keeping organization ownership.
func (e *Equipment) Orphan() {
	e.Owner = Owned{OrganizationID: e.OrganizationID}
}

// RecordService stamps lastService and, unless the next date is pinned, advances nextService
// by one cycle from today.
func (e *Equipment) RecordService(now, today time.Time) {
	serviced := now
	e.LastService = &serviced
	if e.NextServiceOverride {
		return
	}
	next := e.ServiceCycle.NextServiceDate(today)
	e.NextService = &next
}

// ServiceRecord is an immutable record of a service visit.
type ServiceRecord struct {
	ID          uuid.UUID
	EquipmentID uuid.UUID
	ServicedBy  uuid.UUID
	ServicedAt  time.Time
	ReasonCode  *ReasonCode
	CreatedAt   time.Time
}

// Snapshot is an equipment row together with the agreement of the customer behind its
// linked site. CustomerAgreement is nil when the equipment is not linked to a site.
type Snapshot struct {
	Equipment         Equipment
	CustomerAgreement *AgreementStatus
}

// AuditEntry describes one mutating action for the append-only audit sink.
type AuditEntry struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID // uuid.Nil for scheduled jobs
	Action         string
	ResourceType   string
	ResourceID     *uuid.UUID
	Details        string
}

// Audit resource types.
const (
	ResourceCustomer      = "Customer"
	ResourceSite          = "Site"
	ResourceEquipment     = "Equipment"
	ResourceEquipmentType = "EquipmentType"
)
