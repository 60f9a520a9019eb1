package repository

import (
	"context"
	"fmt"

	"compliance_backend/internal/domain"
	lrepo "compliance_backend/internal/lifecycle/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the rows the dashboard aggregates.
type Repository interface {
	Snapshots(ctx context.Context, organizationID uuid.UUID) ([]domain.Snapshot, error)
	CountCustomers(ctx context.Context, organizationID uuid.UUID) (int, error)
	CountSites(ctx context.Context, organizationID uuid.UUID) (int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new dashboard repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const snapshotsQuery = `SELECT ` + lrepo.SnapshotColumns + `
		FROM ` + lrepo.SnapshotFrom + `
		WHERE e.organization_id = $1 AND e.deleted_at IS NULL`

func (r *Repo) Snapshots(ctx context.Context, organizationID uuid.UUID) ([]domain.Snapshot, error) {
	rows, err := r.pool.Query(ctx, snapshotsQuery, organizationID)
	if err != nil {
		return nil, fmt.Errorf("query dashboard equipment: %w", err)
	}
	snaps, err := lrepo.CollectSnapshots(rows)
	if err != nil {
		return nil, fmt.Errorf("scan dashboard equipment: %w", err)
	}
	return snaps, nil
}

const countCustomersQuery = `
		SELECT COUNT(*) FROM customers
		WHERE organization_id = $1 AND deleted_at IS NULL`

func (r *Repo) CountCustomers(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countCustomersQuery, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

const countSitesQuery = `
		SELECT COUNT(*) FROM sites s
		JOIN customers c ON c.id = s.customer_id
		WHERE c.organization_id = $1 AND s.deleted_at IS NULL`

func (r *Repo) CountSites(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countSitesQuery, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sites: %w", err)
	}
	return n, nil
}
