package repository

import (
	"context"
	"errors"
	"fmt"

	"compliance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Writes that attach a row to a parent take FOR SHARE on the parent in the same
// transaction. The cascades lock the parent FOR UPDATE before soft-deleting it, so
// either the cascade waits and then orphans the new child, or the child insert
// waits and then sees the parent as deleted.

// RowQuerier is satisfied by pgx.Tx and *pgxpool.Pool.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const LockActiveSiteQuery = `
		SELECT c.organization_id
		FROM sites s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1 AND s.deleted_at IS NULL
		FOR SHARE OF s`

// LockActiveSite returns the organization of a non-deleted site and holds a share
// lock on it until q's transaction ends.
func LockActiveSite(ctx context.Context, q RowQuerier, siteID uuid.UUID) (uuid.UUID, error) {
	var org uuid.UUID
	if err := q.QueryRow(ctx, LockActiveSiteQuery, siteID).Scan(&org); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperr.NotFound(siteNotFoundMessage)
		}
		return uuid.Nil, fmt.Errorf("lock site: %w", err)
	}
	return org, nil
}

const LockActiveCustomerQuery = `
		SELECT id FROM customers
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		FOR SHARE`

// LockActiveCustomer fails with NotFound unless the customer is live in the tenant,
// and holds a share lock on it until q's transaction ends.
func LockActiveCustomer(ctx context.Context, q RowQuerier, organizationID, customerID uuid.UUID) error {
	var id uuid.UUID
	if err := q.QueryRow(ctx, LockActiveCustomerQuery, customerID, organizationID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(customerNotFoundMessage)
		}
		return fmt.Errorf("lock customer: %w", err)
	}
	return nil
}
