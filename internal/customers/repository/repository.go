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

const customerNotFoundMessage = "customer not found"

// ListParams defines filters for listing customers.
type ListParams struct {
	OrganizationID  uuid.UUID
	Search          string
	AgreementStatus *domain.AgreementStatus
	Offset          int
	Limit           int
	SortBy          string
	SortOrder       string
}

// Repository reads and writes non-deleted customers. Deletion goes through the lifecycle engine.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (domain.Customer, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Customer, error)
	List(ctx context.Context, params ListParams) ([]domain.Customer, int, error)
	ListAll(ctx context.Context, organizationID uuid.UUID) ([]domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new customers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const createQuery = `
		INSERT INTO customers AS c (id, organization_id, name, agreement_status, contract_end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + lrepo.CustomerColumns

func (r *Repo) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	created, err := lrepo.ScanCustomer(r.pool.QueryRow(ctx, createQuery,
		c.ID, c.OrganizationID, c.Name, string(c.AgreementStatus), c.ContractEndDate,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return domain.Customer{}, lrepo.MapUniqueViolation(err)
		}
		return domain.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

const getByIDQuery = `SELECT ` + lrepo.CustomerColumns + `
		FROM customers c
		WHERE c.id = $1 AND c.organization_id = $2 AND c.deleted_at IS NULL`

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Customer, error) {
	c, err := lrepo.ScanCustomer(r.pool.QueryRow(ctx, getByIDQuery, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return domain.Customer{}, fmt.Errorf("get customer by id: %w", err)
	}
	return c, nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Customer, int, error) {
	whereClauses := []string{"c.organization_id = $1", "c.deleted_at IS NULL"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("c.name ILIKE $%d", argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.AgreementStatus != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("c.agreement_status = $%d", argIdx))
		args = append(args, string(*params.AgreementStatus))
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers c WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM customers c WHERE %s ORDER BY %s %s, c.id LIMIT $%d OFFSET $%d`,
		lrepo.CustomerColumns, whereClause, sortColumn(params.SortBy), sortDirection(params.SortOrder), argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

const listAllQuery = `SELECT ` + lrepo.CustomerColumns + `
		FROM customers c
		WHERE c.organization_id = $1 AND c.deleted_at IS NULL
		ORDER BY c.name`

func (r *Repo) ListAll(ctx context.Context, organizationID uuid.UUID) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx, listAllQuery, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list all customers: %w", err)
	}
	return collect(rows)
}

const updateQuery = `
		UPDATE customers
		SET name = $4,
			agreement_status = $5,
			contract_end_date = $6,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND version = $3 AND deleted_at IS NULL
		RETURNING version, updated_at`

// Update writes name, agreement status and contract end date when the version still matches.
func (r *Repo) Update(ctx context.Context, c *domain.Customer) error {
	err := r.pool.QueryRow(ctx, updateQuery,
		c.ID, c.OrganizationID, c.Version, c.Name, string(c.AgreementStatus), c.ContractEndDate,
	).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.Conflict("customer was modified by another request")
		}
		if db.IsUniqueViolation(err) {
			return lrepo.MapUniqueViolation(err)
		}
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

func collect(rows pgx.Rows) ([]domain.Customer, error) {
	defer rows.Close()
	var items []domain.Customer
	for rows.Next() {
		c, err := lrepo.ScanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func sortColumn(sortBy string) string {
	switch sortBy {
	case "agreementStatus":
		return "c.agreement_status"
	case "contractEndDate":
		return "c.contract_end_date"
	case "createdAt":
		return "c.created_at"
	default:
		return "c.name"
	}
}

func sortDirection(order string) string {
	if strings.EqualFold(order, "desc") {
		return "DESC"
	}
	return "ASC"
}
