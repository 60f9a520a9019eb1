package lifecycle

import (
	"context"
	"fmt"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"

	"github.com/google/uuid"
)

// BulkResult reports how many of the requested ids were changed. Ids that do not exist,
// are deleted or belong to another organization count as failures.
type BulkResult struct {
	Success int    `json:"successCount"`
	Failure int    `json:"failureCount"`
	Message string `json:"message"`
}

// BulkDelete soft-deletes every listed item of the tenant in one transaction.
func (c *Coordinator) BulkDelete(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID) (BulkResult, error) {
	now := c.clock.now()
	result, err := c.bulk(ctx, tenantID, ids, func(e *domain.Equipment) {
		e.Deletion = domain.DeletedAt(now)
	})
	if err != nil {
		return BulkResult{}, err
	}
	result.Message = fmt.Sprintf("Successfully deleted %d equipment", result.Success)

	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentBulkDelete,
		ResourceType:   domain.ResourceEquipment,
		Details:        fmt.Sprintf("Deleted %d items", result.Success),
	})
	return result, nil
}

// BulkUpdateAgreement sets the equipment's own agreement status.
func (c *Coordinator) BulkUpdateAgreement(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, status domain.AgreementStatus) (BulkResult, error) {
	if !status.Valid() {
		return BulkResult{}, apperr.BusinessRule("invalid agreement status")
	}
	result, err := c.bulk(ctx, tenantID, ids, func(e *domain.Equipment) {
		e.AgreementStatus = status
	})
	if err != nil {
		return BulkResult{}, err
	}
	result.Message = fmt.Sprintf("Successfully updated %d equipment", result.Success)

	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentBulkStatus,
		ResourceType:   domain.ResourceEquipment,
		Details:        fmt.Sprintf("Updated %d items to %s", result.Success, status),
	})
	return result, nil
}

// BulkUpdateCycle sets the service cycle. nextService is not recomputed until the next service.
func (c *Coordinator) BulkUpdateCycle(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, cycle domain.ServiceCycle) (BulkResult, error) {
	if !cycle.Valid() {
		return BulkResult{}, apperr.BusinessRule("invalid service cycle")
	}
	result, err := c.bulk(ctx, tenantID, ids, func(e *domain.Equipment) {
		e.ServiceCycle = cycle
	})
	if err != nil {
		return BulkResult{}, err
	}
	result.Message = fmt.Sprintf("Successfully updated %d equipment", result.Success)

	c.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentBulkCycle,
		ResourceType:   domain.ResourceEquipment,
		Details:        fmt.Sprintf("Updated %d items to %s", result.Success, cycle),
	})
	return result, nil
}

func (c *Coordinator) bulk(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, mutate func(e *domain.Equipment)) (BulkResult, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return BulkResult{}, apperr.Validation("no equipment ids given")
	}

	var success int
	err := c.store.InTx(ctx, func(tx Tx) error {
		items, err := tx.ActiveEquipmentByIDs(ctx, tenantID, unique)
		if err != nil {
			return err
		}
		for i := range items {
			mutate(&items[i])
			if err := tx.SaveEquipment(ctx, &items[i]); err != nil {
				return err
			}
		}
		success = len(items)
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}
	return BulkResult{Success: success, Failure: len(unique) - success}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
