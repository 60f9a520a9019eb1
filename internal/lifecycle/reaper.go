package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
)

// JobProvisionalCleanup names the reaper in logs and metrics.
const JobProvisionalCleanup = "provisional_cleanup"

// ProvisionalReaper hard-deletes provisional equipment whose expiry has passed, together with
// its service records. This is the only hard delete in the system and cannot be undone.
type ProvisionalReaper struct {
	store Store
	audit Auditor
	log   *logger.Logger
}

// NewProvisionalReaper wires the reaper.
func NewProvisionalReaper(store Store, audit Auditor, log *logger.Logger) *ProvisionalReaper {
	return &ProvisionalReaper{store: store, audit: audit, log: log.Named("provisional-reaper")}
}

// Run sweeps all organizations. Each row is deleted in its own transaction; a failing row is
// logged and skipped. Cancellation stops between rows and keeps what was committed.
func (r *ProvisionalReaper) Run(ctx context.Context, now time.Time) (result SweepResult, err error) {
	defer func() { recordSweep(JobProvisionalCleanup, result, err) }()

	ids, err := r.store.FindProvisionalExpiredBefore(ctx, now)
	if err != nil {
		return result, fmt.Errorf("select expired provisional equipment: %w", err)
	}
	result.Selected = len(ids)
	r.log.Info("provisional cleanup started", "candidates", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			r.log.Warn("provisional cleanup interrupted", "processed", result.Processed, "error", err)
			return result, err
		}

		purged, removedRecords, err := r.reap(ctx, id, now)
		switch {
		case errors.Is(err, errRowChanged):
			result.Skipped++
		case err != nil:
			result.Failed++
			r.log.Error("failed to delete provisional equipment", "equipmentId", id, "error", err)
		default:
			result.Processed++
			r.log.Debug("deleted expired provisional equipment",
				"equipmentId", id, "serial", purged.SerialNumber, "expiresAt", purged.ProvisionalExpiresAt)
			r.audit.Record(ctx, domain.AuditEntry{
				OrganizationID: purged.OrganizationID,
				Action:         ActionProvisionalPurged,
				ResourceType:   domain.ResourceEquipment,
				ResourceID:     &purged.ID,
				Details:        fmt.Sprintf("Removed %d service records", removedRecords),
			})
		}
	}

	r.log.Info("provisional cleanup complete",
		"deleted", result.Processed, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (r *ProvisionalReaper) reap(ctx context.Context, id uuid.UUID, now time.Time) (domain.Equipment, int, error) {
	var (
		purged  domain.Equipment
		removed int
	)
	err := r.store.InTx(ctx, func(tx Tx) error {
		e, err := tx.EquipmentByIDAnyTenant(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			return errRowChanged
		}
		if err != nil {
			return err
		}
		if !e.ProvisionalExpired(now) {
			return errRowChanged
		}

		removed, err = tx.DeleteServiceRecordsByEquipment(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.HardDeleteEquipment(ctx, id); err != nil {
			return err
		}
		purged = e
		return nil
	})
	return purged, removed, err
}
