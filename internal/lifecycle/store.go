// Package lifecycle is the compliance engine: cascading soft deletes, predecessor linking,
// service recording and the two periodic sweeps. Every mutation runs inside one Store
// transaction; audit notifications are sent only after the transaction committed.
package lifecycle

import (
	"context"
	"time"

	"compliance_backend/internal/domain"

	"github.com/google/uuid"
)

// Store runs transactions and the cross-tenant sweep finders.
type Store interface {
	// InTx runs fn in one transaction. Returning an error rolls everything back.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// FindProvisionalExpiredBefore returns ids of provisional equipment whose expiry is
	// strictly before cutoff, across all organizations.
	FindProvisionalExpiredBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	// FindByAgreementStatusAndContractEndBefore returns ids of non-deleted customers with the
	// given status whose contract ended strictly before date, across all organizations.
	FindByAgreementStatusAndContractEndBefore(ctx context.Context, status domain.AgreementStatus, date time.Time) ([]uuid.UUID, error)
}

// Tx is the set of row operations available inside a transaction.
// Tenant-scoped lookups return apperr.NotFound for rows of other organizations.
// Save* methods compare the row's Version, fail with apperr.Conflict when it moved,
// and bump Version on success.
type Tx interface {
	domain.SiteOrganizationLookup

	CustomerByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Customer, error)
	CustomerByIDAnyTenant(ctx context.Context, id uuid.UUID) (domain.Customer, error)
	SaveCustomer(ctx context.Context, c *domain.Customer) error

	SiteByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Site, error)
	ActiveSitesByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Site, error)
	SaveSite(ctx context.Context, s *domain.Site) error

	EquipmentByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Snapshot, error)
	EquipmentByIDAnyTenant(ctx context.Context, id uuid.UUID) (domain.Equipment, error)
	ActiveEquipmentByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Equipment, error)
	ActiveEquipmentByAssetID(ctx context.Context, tenantID uuid.UUID, assetID string) (domain.Equipment, bool, error)
	EquipmentTypeExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	OrphanEquipmentBySite(ctx context.Context, siteID uuid.UUID) (int, error)
	SaveEquipment(ctx context.Context, e *domain.Equipment) error
	// HardDeleteEquipment removes the row and clears predecessor links pointing at it.
	HardDeleteEquipment(ctx context.Context, id uuid.UUID) error

	InsertServiceRecord(ctx context.Context, r domain.ServiceRecord) error
	DeleteServiceRecordsByEquipment(ctx context.Context, equipmentID uuid.UUID) (int, error)
}

// Auditor receives fire-and-forget notifications. Implementations must not block.
type Auditor interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}

// Clock supplies "now" and the business time zone used to derive "today".
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock returns a clock backed by time.Now.
func SystemClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

// Today is the calendar date of t in the business zone.
func (c Clock) Today(t time.Time) time.Time {
	return domain.DateOf(t, c.Location)
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
