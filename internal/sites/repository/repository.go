package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compliance_backend/internal/domain"
	lrepo "compliance_backend/internal/lifecycle/repository"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const siteNotFoundMessage = "site not found"

// ListParams defines filters for listing sites.
type ListParams struct {
	OrganizationID uuid.UUID
	CustomerID     *uuid.UUID
	Search         string
	Offset         int
	Limit          int
}

// Repository reads and writes non-deleted sites. The organization of a site is always the
// organization of its customer. Create and Update fail with NotFound unless the target
// customer is live in s.OrganizationID.
type Repository interface {
	CustomerExists(ctx context.Context, organizationID, customerID uuid.UUID) (bool, error)
	Create(ctx context.Context, s domain.Site) (domain.Site, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Site, error)
	List(ctx context.Context, params ListParams) ([]domain.Site, int, error)
	Update(ctx context.Context, s *domain.Site) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new sites repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const customerExistsQuery = `
		SELECT EXISTS (
			SELECT 1 FROM customers
			WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		)`

func (r *Repo) CustomerExists(ctx context.Context, organizationID, customerID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, customerExistsQuery, customerID, organizationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

const createQuery = `
		WITH s AS (
			INSERT INTO sites (id, customer_id, name, address, contact_name, contact_phone, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT ` + lrepo.SiteColumns + `
		FROM s JOIN customers c ON c.id = s.customer_id`

// Create inserts the site under a customer that is share-locked and re-checked in the
// same transaction, so a concurrent customer delete cannot miss it.
func (r *Repo) Create(ctx context.Context, s domain.Site) (domain.Site, error) {
	var created domain.Site
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lrepo.LockActiveCustomer(ctx, tx, s.OrganizationID, s.CustomerID); err != nil {
			return err
		}
		var err error
		created, err = lrepo.ScanSite(tx.QueryRow(ctx, createQuery,
			s.ID, s.CustomerID, s.Name, s.Address, s.ContactName, s.ContactPhone, metadataColumn(s.Metadata),
		))
		if err != nil {
			if db.IsUniqueViolation(err) {
				return lrepo.MapUniqueViolation(err)
			}
			return fmt.Errorf("create site: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Site{}, err
	}
	return created, nil
}

const getByIDQuery = `SELECT ` + lrepo.SiteColumns + `
		FROM sites s JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1 AND c.organization_id = $2 AND s.deleted_at IS NULL`

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Site, error) {
	s, err := lrepo.ScanSite(r.pool.QueryRow(ctx, getByIDQuery, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Site{}, apperr.NotFound(siteNotFoundMessage)
		}
		return domain.Site{}, fmt.Errorf("get site by id: %w", err)
	}
	return s, nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Site, int, error) {
	whereClauses := []string{"c.organization_id = $1", "s.deleted_at IS NULL"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.CustomerID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("s.customer_id = $%d", argIdx))
		args = append(args, *params.CustomerID)
		argIdx++
	}
	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(s.name ILIKE $%d OR s.address ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	from := "sites s JOIN customers c ON c.id = s.customer_id"
	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+from+" WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sites: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY s.name, s.id LIMIT $%d OFFSET $%d`,
		lrepo.SiteColumns, from, whereClause, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var items []domain.Site
	for rows.Next() {
		s, err := lrepo.ScanSite(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan site: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sites: %w", err)
	}
	return items, total, nil
}

const updateQuery = `
		UPDATE sites
		SET customer_id = $3,
			name = $4,
			address = $5,
			contact_name = $6,
			contact_phone = $7,
			metadata = $8,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
		RETURNING version, updated_at`

// Update writes the editable columns when the version still matches. The target
// customer is share-locked first, which also covers a move to another customer.
func (r *Repo) Update(ctx context.Context, s *domain.Site) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lrepo.LockActiveCustomer(ctx, tx, s.OrganizationID, s.CustomerID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, updateQuery,
			s.ID, s.Version, s.CustomerID, s.Name, s.Address, s.ContactName, s.ContactPhone, metadataColumn(s.Metadata),
		).Scan(&s.Version, &s.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.Conflict("site was modified by another request")
			}
			if db.IsUniqueViolation(err) {
				return lrepo.MapUniqueViolation(err)
			}
			return fmt.Errorf("update site: %w", err)
		}
		return nil
	})
}

func metadataColumn(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
