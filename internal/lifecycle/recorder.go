package lifecycle

import (
	"context"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
)

const msgReasonRequired = "reason code is required when servicing equipment with RED status"

// Recorder records service visits.
type Recorder struct {
	store Store
	audit Auditor
	clock Clock
	log   *logger.Logger
}

// NewRecorder wires a service recorder.
func NewRecorder(store Store, audit Auditor, clock Clock, log *logger.Logger) *Recorder {
	return &Recorder{store: store, audit: audit, clock: clock, log: log.Named("service-recorder")}
}

// MarkServiced records a service by userID. The status is computed before anything changes:
// RED equipment requires a reason code, and without one nothing is written.
func (r *Recorder) MarkServiced(ctx context.Context, tenantID, userID, equipmentID uuid.UUID, reason *domain.ReasonCode) (domain.ServiceRecord, error) {
	if userID == uuid.Nil {
		return domain.ServiceRecord{}, apperr.Validation("servicing user is required")
	}
	if reason != nil && !reason.Valid() {
		return domain.ServiceRecord{}, apperr.BusinessRule("invalid reason code")
	}

	now := r.clock.now()
	today := r.clock.Today(now)
	var (
		record domain.ServiceRecord
		status domain.Stoplight
	)

	err := r.store.InTx(ctx, func(tx Tx) error {
		snap, err := tx.EquipmentByID(ctx, tenantID, equipmentID)
		if err != nil {
			return err
		}
		if snap.Equipment.Deletion.IsDeleted() {
			return apperr.NotFound(msgEquipmentNotFound)
		}

		status = domain.CalculateStatus(snap, today)
		if status == domain.StoplightRed && reason == nil {
			return apperr.BusinessRule(msgReasonRequired)
		}

		record = domain.ServiceRecord{
			ID:          uuid.New(),
			EquipmentID: equipmentID,
			ServicedBy:  userID,
			ServicedAt:  now,
			ReasonCode:  reason,
			CreatedAt:   now,
		}
		if err := tx.InsertServiceRecord(ctx, record); err != nil {
			return err
		}

		e := snap.Equipment
		e.RecordService(now, today)
		return tx.SaveEquipment(ctx, &e)
	})
	if err != nil {
		return domain.ServiceRecord{}, err
	}

	details := ""
	if reason != nil {
		details = "Reason: " + string(*reason)
	}
	r.log.WithContext(ctx).Info("equipment serviced", "equipmentId", equipmentID, "previousStatus", status, "reason", details)
	r.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentServiced,
		ResourceType:   domain.ResourceEquipment,
		ResourceID:     &equipmentID,
		Details:        details,
	})
	return record, nil
}
