package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LogEntry is one row of audit_logs.
type LogEntry struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	Action         string
	ResourceType   string
	ResourceID     *uuid.UUID
	Details        *string
	CreatedAt      time.Time
}

// ListParams selects one page of a tenant's log.
type ListParams struct {
	OrganizationID uuid.UUID
	Action         string
	ResourceType   string
	ResourceID     *uuid.UUID
	Offset         int
	Limit          int
}

// Repository is the audit_logs store. Rows are never updated or deleted.
type Repository interface {
	Insert(ctx context.Context, entry LogEntry) error
	List(ctx context.Context, params ListParams) ([]LogEntry, int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const insertQuery = `
		INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *Repo) Insert(ctx context.Context, e LogEntry) error {
	if _, err := r.pool.Exec(ctx, insertQuery,
		e.ID, e.OrganizationID, e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Details, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// filters: $1 organization, $2 action, $3 resource type, $4 resource id; empty values match all
const listWhere = `
		WHERE organization_id = $1
			AND ($2 = '' OR action = $2)
			AND ($3 = '' OR resource_type = $3)
			AND ($4::uuid IS NULL OR resource_id = $4)`

const countQuery = `SELECT COUNT(*) FROM audit_logs` + listWhere

const listQuery = `
		SELECT id, organization_id, user_id, action, resource_type, resource_id, details, created_at
		FROM audit_logs` + listWhere + `
		ORDER BY created_at DESC, id
		LIMIT $5 OFFSET $6`

func (r *Repo) List(ctx context.Context, p ListParams) ([]LogEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, p.OrganizationID, p.Action, p.ResourceType, p.ResourceID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := r.pool.Query(ctx, listQuery, p.OrganizationID, p.Action, p.ResourceType, p.ResourceID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (LogEntry, error) {
		var e LogEntry
		err := row.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan audit logs: %w", err)
	}
	return items, total, nil
}
