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

// JobAgreementReconciliation names the reconciler in logs and metrics.
const JobAgreementReconciliation = "agreement_reconciliation"

// AgreementReconciler moves customers whose contract ended from COVERED to PENDING.
// It never touches the contract end date, sites or equipment.
type AgreementReconciler struct {
	store Store
	audit Auditor
	clock Clock
	log   *logger.Logger
}

// NewAgreementReconciler wires the reconciler.
func NewAgreementReconciler(store Store, audit Auditor, clock Clock, log *logger.Logger) *AgreementReconciler {
	return &AgreementReconciler{store: store, audit: audit, clock: clock, log: log.Named("agreement-reconciler")}
}

// Run sweeps all organizations as of now. Per-customer failures are logged and skipped;
// the next run picks them up again.
func (r *AgreementReconciler) Run(ctx context.Context, now time.Time) (result SweepResult, err error) {
	defer func() { recordSweep(JobAgreementReconciliation, result, err) }()

	today := r.clock.Today(now)
	ids, err := r.store.FindByAgreementStatusAndContractEndBefore(ctx, domain.AgreementCovered, today)
	if err != nil {
		return result, fmt.Errorf("select lapsed agreements: %w", err)
	}
	result.Selected = len(ids)
	r.log.Info("agreement reconciliation started", "candidates", len(ids), "today", today.Format(time.DateOnly))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			r.log.Warn("agreement reconciliation interrupted", "processed", result.Processed, "error", err)
			return result, err
		}

		customer, err := r.expire(ctx, id, today)
		switch {
		case errors.Is(err, errRowChanged):
			result.Skipped++
		case err != nil:
			result.Failed++
			r.log.Error("failed to expire agreement", "customerId", id, "error", err)
		default:
			result.Processed++
			r.log.Info("customer moved to pending after contract end",
				"customerId", id, "contractEndDate", customer.ContractEndDate.Format(time.DateOnly))
			r.audit.Record(ctx, domain.AuditEntry{
				OrganizationID: customer.OrganizationID,
				Action:         ActionAgreementExpired,
				ResourceType:   domain.ResourceCustomer,
				ResourceID:     &customer.ID,
				Details:        "Contract ended " + customer.ContractEndDate.Format(time.DateOnly),
			})
		}
	}

	r.log.Info("agreement reconciliation complete",
		"transitioned", result.Processed, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (r *AgreementReconciler) expire(ctx context.Context, id uuid.UUID, today time.Time) (domain.Customer, error) {
	var customer domain.Customer
	err := r.store.InTx(ctx, func(tx Tx) error {
		c, err := tx.CustomerByIDAnyTenant(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			return errRowChanged
		}
		if err != nil {
			return err
		}
		if c.Deletion.IsDeleted() || !c.ContractLapsed(today) {
			return errRowChanged
		}

		c.AgreementStatus = domain.AgreementPending
		if err := tx.SaveCustomer(ctx, &c); err != nil {
			return err
		}
		customer = c
		return nil
	})
	return customer, err
}
