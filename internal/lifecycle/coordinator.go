package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
)

// Audit action names emitted by the engine.
const (
	ActionCustomerDeleted            = "CUSTOMER_DELETED"
	ActionSiteDeleted                = "SITE_DELETED"
	ActionEquipmentDeleted           = "EQUIPMENT_DELETED"
	ActionEquipmentUpdated           = "EQUIPMENT_UPDATED"
	ActionEquipmentPredecessorLinked = "EQUIPMENT_PREDECESSOR_LINKED"
	ActionEquipmentServiced          = "EQUIPMENT_SERVICED"
	ActionEquipmentBulkDelete        = "EQUIPMENT_BULK_DELETE"
	ActionEquipmentBulkStatus        = "EQUIPMENT_BULK_UPDATE_STATUS"
	ActionEquipmentBulkCycle         = "EQUIPMENT_BULK_UPDATE_CYCLE"
	ActionProvisionalPurged          = "PROVISIONAL_EQUIPMENT_PURGED"
	ActionAgreementExpired           = "AGREEMENT_EXPIRED"
)

const (
	msgCustomerNotFound      = "customer not found"
	msgSiteNotFound          = "site not found"
	msgEquipmentNotFound     = "equipment not found"
	msgEquipmentTypeNotFound = "equipment type not found"
	msgStaleVersion          = "equipment was modified by another request"
)

// Coordinator owns the cascading mutations of the customer -> site -> equipment hierarchy.
type Coordinator struct {
	store Store
	audit Auditor
	clock Clock
	log   *logger.Logger
}

// NewCoordinator wires a coordinator.
func NewCoordinator(store Store, audit Auditor, clock Clock, log *logger.Logger) *Coordinator {
	return &Coordinator{store: store, audit: audit, clock: clock, log: log.Named("cascade")}
}

// DeleteCustomer soft-deletes the customer and each of its active sites, and orphans the
// equipment of those sites. Returns the number of sites deleted.
func (c *Coordinator) DeleteCustomer(ctx context.Context, tenantID, userID, customerID uuid.UUID) (int, error) {
	now := c.clock.now()
	var sitesDeleted, orphaned int

	err := c.store.InTx(ctx, func(tx Tx) error {
		customer, err := tx.CustomerByID(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		if customer.Deletion.IsDeleted() {
			return apperr.NotFound(msgCustomerNotFound)
		}

		customer.Deletion = domain.DeletedAt(now)
		if err := tx.SaveCustomer(ctx, &customer); err != nil {
			return err
		}

		sites, err := tx.ActiveSitesByCustomer(ctx, customer.ID)
		if err != nil {
			return err
		}
		for i := range sites {
			n, err := deleteSiteInTx(ctx, tx, &sites[i], now)
			if err != nil {
				return err
			}
			orphaned += n
		}
		sitesDeleted = len(sites)
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.log.WithContext(ctx).Info("customer deleted", "customerId", customerID, "sites", sitesDeleted, "orphanedEquipment", orphaned)
	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionCustomerDeleted,
		ResourceType:   domain.ResourceCustomer,
		ResourceID:     &customerID,
		Details:        fmt.Sprintf("Cascaded soft-delete to %d sites", sitesDeleted),
	})
	return sitesDeleted, nil
}

// DeleteSite soft-deletes the site and orphans its equipment. Returns the number of
// equipment rows orphaned.
func (c *Coordinator) DeleteSite(ctx context.Context, tenantID, userID, siteID uuid.UUID) (int, error) {
	now := c.clock.now()
	var orphaned int

	err := c.store.InTx(ctx, func(tx Tx) error {
		site, err := tx.SiteByID(ctx, tenantID, siteID)
		if err != nil {
			return err
		}
		if site.Deletion.IsDeleted() {
			return apperr.NotFound(msgSiteNotFound)
		}
		orphaned, err = deleteSiteInTx(ctx, tx, &site, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.log.WithContext(ctx).Info("site deleted", "siteId", siteID, "orphanedEquipment", orphaned)
	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionSiteDeleted,
		ResourceType:   domain.ResourceSite,
		ResourceID:     &siteID,
		Details:        fmt.Sprintf("Orphaned %d equipment", orphaned),
	})
	return orphaned, nil
}

func deleteSiteInTx(ctx context.Context, tx Tx, site *domain.Site, now time.Time) (int, error) {
	site.Deletion = domain.DeletedAt(now)
	if err := tx.SaveSite(ctx, site); err != nil {
		return 0, err
	}
	return tx.OrphanEquipmentBySite(ctx, site.ID)
}

// DeleteEquipment soft-deletes one item. Nothing cascades.
func (c *Coordinator) DeleteEquipment(ctx context.Context, tenantID, userID, equipmentID uuid.UUID) error {
	now := c.clock.now()

	err := c.store.InTx(ctx, func(tx Tx) error {
		snap, err := tx.EquipmentByID(ctx, tenantID, equipmentID)
		if err != nil {
			return err
		}
		e := snap.Equipment
		if e.Deletion.IsDeleted() {
			return apperr.NotFound(msgEquipmentNotFound)
		}
		e.Deletion = domain.DeletedAt(now)
		return tx.SaveEquipment(ctx, &e)
	})
	if err != nil {
		return err
	}

	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentDeleted,
		ResourceType:   domain.ResourceEquipment,
		ResourceID:     &equipmentID,
	})
	return nil
}

// EquipmentPatch is a partial equipment update. Nil fields are left unchanged.
type EquipmentPatch struct {
	// ExpectedVersion, when set, must match the stored version or the update fails with a conflict.
	ExpectedVersion *int64
	// CustAssetID set to "" clears the asset id.
	CustAssetID     *string
	QRCodeValue     *string
	AgreementStatus *domain.AgreementStatus
	LifecycleStatus *domain.LifecycleStatus
	ServiceCycle    *domain.ServiceCycle
	EquipmentTypeID *uuid.UUID
	SiteID          *uuid.UUID
	// Detach clears the site link. Ignored when SiteID is set.
	Detach bool
	// NextService pins the next due date. The pin flag follows NextServiceOverride and
	// defaults to true.
	NextService *time.Time
	// NextServiceOverride without NextService sets or clears the pin on its own.
	NextServiceOverride *bool
	// Formalize turns a provisional item into a regular one.
	Formalize bool
}

// UpdateEquipmentAssetID changes only the customer asset id, applying predecessor linking.
func (c *Coordinator) UpdateEquipmentAssetID(ctx context.Context, tenantID, userID, equipmentID uuid.UUID, newAssetID string) (domain.Snapshot, error) {
	return c.UpdateEquipment(ctx, tenantID, userID, equipmentID, EquipmentPatch{CustAssetID: &newAssetID})
}

// UpdateEquipment applies patch in one transaction. When the new asset id is held by another
// active item of the same organization, that item is soft-deleted and becomes the
// predecessor of the updated one.
func (c *Coordinator) UpdateEquipment(ctx context.Context, tenantID, userID, equipmentID uuid.UUID, patch EquipmentPatch) (domain.Snapshot, error) {
	now := c.clock.now()
	var (
		result      domain.Snapshot
		predecessor *uuid.UUID
	)

	err := c.store.InTx(ctx, func(tx Tx) error {
		snap, err := tx.EquipmentByID(ctx, tenantID, equipmentID)
		if err != nil {
			return err
		}
		e := snap.Equipment
		if e.Deletion.IsDeleted() {
			return apperr.NotFound(msgEquipmentNotFound)
		}
		if patch.ExpectedVersion != nil && *patch.ExpectedVersion != e.Version {
			return apperr.Conflict(msgStaleVersion)
		}

		if patch.CustAssetID != nil {
			predecessor, err = relinkAssetID(ctx, tx, &e, strings.TrimSpace(*patch.CustAssetID), now)
			if err != nil {
				return err
			}
		}
		if err := applyPatch(ctx, tx, tenantID, &e, patch); err != nil {
			return err
		}
		if err := tx.SaveEquipment(ctx, &e); err != nil {
			return err
		}

		result, err = tx.EquipmentByID(ctx, tenantID, equipmentID)
		return err
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	if predecessor != nil {
		c.log.WithContext(ctx).Info("asset id taken over", "equipmentId", equipmentID, "predecessorId", *predecessor)
		c.audit.Record(ctx, domain.AuditEntry{
			OrganizationID: tenantID,
			UserID:         userID,
			Action:         ActionEquipmentPredecessorLinked,
			ResourceType:   domain.ResourceEquipment,
			ResourceID:     &equipmentID,
			Details:        "Replaced " + predecessor.String(),
		})
	}
	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentUpdated,
		ResourceType:   domain.ResourceEquipment,
		ResourceID:     &equipmentID,
	})
	return result, nil
}

// relinkAssetID sets the new asset id and, on collision, retires the current holder.
// Returns the retired holder's id when one was linked.
func relinkAssetID(ctx context.Context, tx Tx, e *domain.Equipment, newAssetID string, now time.Time) (*uuid.UUID, error) {
	if newAssetID == "" {
		e.CustAssetID = nil
		return nil, nil
	}
	if e.CustAssetID != nil && *e.CustAssetID == newAssetID {
		return nil, nil
	}

	var linked *uuid.UUID
	holder, found, err := tx.ActiveEquipmentByAssetID(ctx, e.OrganizationID, newAssetID)
	if err != nil {
		return nil, err
	}
	if found && holder.ID != e.ID {
		holder.Deletion = domain.DeletedAt(now)
		if err := tx.SaveEquipment(ctx, &holder); err != nil {
			return nil, err
		}
		id := holder.ID
		e.PredecessorID = &id
		linked = &id
	}

	e.CustAssetID = &newAssetID
	return linked, nil
}

func applyPatch(ctx context.Context, tx Tx, tenantID uuid.UUID, e *domain.Equipment, patch EquipmentPatch) error {
	if patch.QRCodeValue != nil {
		qr := strings.TrimSpace(*patch.QRCodeValue)
		if qr == "" {
			qr = e.SerialNumber
		}
		e.QRCodeValue = qr
	}
	if patch.AgreementStatus != nil {
		if !patch.AgreementStatus.Valid() {
			return apperr.BusinessRule("invalid agreement status")
		}
		e.AgreementStatus = *patch.AgreementStatus
	}
	if patch.LifecycleStatus != nil {
		if !patch.LifecycleStatus.Valid() {
			return apperr.BusinessRule("invalid lifecycle status")
		}
		e.LifecycleStatus = *patch.LifecycleStatus
	}
	if patch.ServiceCycle != nil {
		if !patch.ServiceCycle.Valid() {
			return apperr.BusinessRule("invalid service cycle")
		}
		e.ServiceCycle = *patch.ServiceCycle
	}
	if patch.EquipmentTypeID != nil {
		ok, err := tx.EquipmentTypeExists(ctx, tenantID, *patch.EquipmentTypeID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(msgEquipmentTypeNotFound)
		}
		typeID := *patch.EquipmentTypeID
		e.EquipmentTypeID = &typeID
	}

	switch {
	case patch.SiteID != nil:
		owner := domain.SitedOwned{SiteID: *patch.SiteID}
		org, err := domain.ResolveOrganization(ctx, owner, tx)
		if err != nil {
			return err
		}
		if org != tenantID {
			return apperr.NotFound(msgSiteNotFound)
		}
		e.Owner = owner
	case patch.Detach:
		e.Orphan()
	}

	if patch.NextService != nil {
		next := domain.DateOf(*patch.NextService, time.UTC)
		e.NextService = &next
		e.NextServiceOverride = true
		if patch.NextServiceOverride != nil {
			e.NextServiceOverride = *patch.NextServiceOverride
		}
	} else if patch.NextServiceOverride != nil {
		e.NextServiceOverride = *patch.NextServiceOverride
	}

	if patch.Formalize {
		e.Provisional = false
		e.ProvisionalExpiresAt = nil
	}
	return nil
}
