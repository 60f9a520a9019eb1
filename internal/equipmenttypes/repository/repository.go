package repository

import (
	"context"
	"errors"
	"fmt"

	"compliance_backend/internal/domain"
	lrepo "compliance_backend/internal/lifecycle/repository"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const equipmentTypeNotFoundMessage = "equipment type not found"

const typeColumns = `id, organization_id, name, description, display_order, is_active, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new equipment types repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves an equipment type by its ID.
func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.EquipmentType, error) {
	query := `SELECT ` + typeColumns + ` FROM equipment_types WHERE id = $1 AND organization_id = $2`

	et, err := scanType(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EquipmentType{}, apperr.NotFound(equipmentTypeNotFoundMessage)
		}
		return domain.EquipmentType{}, fmt.Errorf("get equipment type by id: %w", err)
	}
	return et, nil
}

// ListAll retrieves every equipment type in display order.
func (r *Repo) ListAll(ctx context.Context, organizationID uuid.UUID) ([]domain.EquipmentType, error) {
	query := `SELECT ` + typeColumns + ` FROM equipment_types
		WHERE organization_id = $1
		ORDER BY display_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list equipment types: %w", err)
	}
	defer rows.Close()

	return scanTypes(rows)
}

// ListActive retrieves only active equipment types in display order.
func (r *Repo) ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.EquipmentType, error) {
	query := `SELECT ` + typeColumns + ` FROM equipment_types
		WHERE organization_id = $1 AND is_active = true
		ORDER BY display_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list active equipment types: %w", err)
	}
	defer rows.Close()

	return scanTypes(rows)
}

// ListWithFilters retrieves equipment types with search, active filter, pagination, and sorting.
func (r *Repo) ListWithFilters(ctx context.Context, params ListParams) ([]domain.EquipmentType, int, error) {
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}
	var isActiveParam interface{}
	if params.IsActive != nil {
		isActiveParam = *params.IsActive
	}

	sortBy := "displayOrder"
	if params.SortBy != "" {
		switch params.SortBy {
		case "name", "displayOrder", "isActive", "createdAt":
			sortBy = params.SortBy
		default:
			return nil, 0, apperr.Validation("invalid sort field")
		}
	}

	sortOrder := "asc"
	if params.SortOrder != "" {
		switch params.SortOrder {
		case "asc", "desc":
			sortOrder = params.SortOrder
		default:
			return nil, 0, apperr.Validation("invalid sort order")
		}
	}

	args := []interface{}{params.OrganizationID, searchParam, isActiveParam}

	countQuery := `
		SELECT COUNT(*)
		FROM equipment_types
		WHERE organization_id = $1
			AND ($2::text IS NULL OR name ILIKE $2 OR description ILIKE $2)
			AND ($3::boolean IS NULL OR is_active = $3)
	`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count equipment types: %w", err)
	}

	query := `
		SELECT ` + typeColumns + `
		FROM equipment_types
		WHERE organization_id = $1
			AND ($2::text IS NULL OR name ILIKE $2 OR description ILIKE $2)
			AND ($3::boolean IS NULL OR is_active = $3)
		ORDER BY
			CASE WHEN $4 = 'name' AND $5 = 'asc' THEN name END ASC,
			CASE WHEN $4 = 'name' AND $5 = 'desc' THEN name END DESC,
			CASE WHEN $4 = 'displayOrder' AND $5 = 'asc' THEN display_order END ASC,
			CASE WHEN $4 = 'displayOrder' AND $5 = 'desc' THEN display_order END DESC,
			CASE WHEN $4 = 'isActive' AND $5 = 'asc' THEN is_active END ASC,
			CASE WHEN $4 = 'isActive' AND $5 = 'desc' THEN is_active END DESC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'asc' THEN created_at END ASC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'desc' THEN created_at END DESC,
			name ASC
		LIMIT $6 OFFSET $7
	`

	args = append(args, sortBy, sortOrder, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list equipment types: %w", err)
	}
	defer rows.Close()

	items, err := scanTypes(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Count returns the number of equipment types of the organization.
func (r *Repo) Count(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM equipment_types WHERE organization_id = $1`, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count equipment types: %w", err)
	}
	return n, nil
}

// InUse checks whether any equipment row, deleted or not, still references the type.
func (r *Repo) InUse(ctx context.Context, organizationID, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM equipment WHERE equipment_type_id = $1 AND organization_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id, organizationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check equipment type usage: %w", err)
	}
	return exists, nil
}

// Create creates a new equipment type.
func (r *Repo) Create(ctx context.Context, params CreateParams) (domain.EquipmentType, error) {
	query := `
		INSERT INTO equipment_types (id, organization_id, name, description, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + typeColumns

	et, err := scanType(r.pool.QueryRow(ctx, query,
		params.ID, params.OrganizationID, params.Name, params.Description, params.DisplayOrder,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return domain.EquipmentType{}, lrepo.MapUniqueViolation(err)
		}
		return domain.EquipmentType{}, fmt.Errorf("create equipment type: %w", err)
	}
	return et, nil
}

// Update updates an existing equipment type.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (domain.EquipmentType, error) {
	query := `
		UPDATE equipment_types SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			display_order = COALESCE($4, display_order),
			is_active = COALESCE($5, is_active),
			updated_at = now()
		WHERE id = $1 AND organization_id = $6
		RETURNING ` + typeColumns

	et, err := scanType(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Description, params.DisplayOrder, params.IsActive, params.OrganizationID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EquipmentType{}, apperr.NotFound(equipmentTypeNotFoundMessage)
		}
		if db.IsUniqueViolation(err) {
			return domain.EquipmentType{}, lrepo.MapUniqueViolation(err)
		}
		return domain.EquipmentType{}, fmt.Errorf("update equipment type: %w", err)
	}
	return et, nil
}

// Delete removes an equipment type by ID (hard delete).
// Use SetActive(false) for types still referenced by equipment.
func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM equipment_types WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete equipment type: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(equipmentTypeNotFoundMessage)
	}
	return nil
}

// SetActive sets the is_active flag for an equipment type.
func (r *Repo) SetActive(ctx context.Context, organizationID, id uuid.UUID, isActive bool) error {
	query := `UPDATE equipment_types SET is_active = $3, updated_at = now() WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query, id, organizationID, isActive)
	if err != nil {
		return fmt.Errorf("set equipment type active: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(equipmentTypeNotFoundMessage)
	}
	return nil
}

// Reorder sets display_order to each id's position in orderedIDs. Unknown ids roll back.
func (r *Repo) Reorder(ctx context.Context, organizationID uuid.UUID, orderedIDs []uuid.UUID) error {
	query := `UPDATE equipment_types SET display_order = $3, updated_at = now() WHERE id = $1 AND organization_id = $2`

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for i, id := range orderedIDs {
			result, err := tx.Exec(ctx, query, id, organizationID, i)
			if err != nil {
				return fmt.Errorf("reorder equipment types: %w", err)
			}
			if result.RowsAffected() == 0 {
				return apperr.NotFound(equipmentTypeNotFoundMessage)
			}
		}
		return nil
	})
}

func scanType(row pgx.Row) (domain.EquipmentType, error) {
	var et domain.EquipmentType
	err := row.Scan(
		&et.ID, &et.OrganizationID, &et.Name, &et.Description, &et.DisplayOrder,
		&et.IsActive, &et.CreatedAt, &et.UpdatedAt,
	)
	return et, err
}

// scanTypes is a helper to scan multiple rows into an EquipmentType slice.
func scanTypes(rows pgx.Rows) ([]domain.EquipmentType, error) {
	var results []domain.EquipmentType
	for rows.Next() {
		et, err := scanType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment type: %w", err)
		}
		results = append(results, et)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment types: %w", err)
	}
	return results, nil
}
