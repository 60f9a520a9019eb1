package repository

import (
	"context"

	"compliance_backend/internal/domain"

	"github.com/google/uuid"
)

// CreateParams contains parameters for creating an equipment type.
type CreateParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Description    *string
	DisplayOrder   int
}

// UpdateParams contains parameters for updating an equipment type. Nil fields are left as is.
type UpdateParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           *string
	Description    *string
	DisplayOrder   *int
	IsActive       *bool
}

// ListParams defines filters for the admin list.
type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	IsActive       *bool
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

// EquipmentTypeReader provides read operations for equipment types.
type EquipmentTypeReader interface {
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.EquipmentType, error)
	ListAll(ctx context.Context, organizationID uuid.UUID) ([]domain.EquipmentType, error)
	ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.EquipmentType, error)
	ListWithFilters(ctx context.Context, params ListParams) ([]domain.EquipmentType, int, error)
	Count(ctx context.Context, organizationID uuid.UUID) (int, error)
	InUse(ctx context.Context, organizationID, id uuid.UUID) (bool, error)
}

// EquipmentTypeWriter provides write operations for equipment types.
type EquipmentTypeWriter interface {
	Create(ctx context.Context, params CreateParams) (domain.EquipmentType, error)
	Update(ctx context.Context, params UpdateParams) (domain.EquipmentType, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	SetActive(ctx context.Context, organizationID, id uuid.UUID, isActive bool) error
	// Reorder assigns display orders 0..n-1 following orderedIDs, atomically.
	Reorder(ctx context.Context, organizationID uuid.UUID, orderedIDs []uuid.UUID) error
}

// Repository combines all equipment type repository operations.
type Repository interface {
	EquipmentTypeReader
	EquipmentTypeWriter
}
