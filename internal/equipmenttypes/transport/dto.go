package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateEquipmentTypeRequest contains data for creating a new equipment type.
// Without DisplayOrder the type is appended after the existing ones.
type CreateEquipmentTypeRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

// UpdateEquipmentTypeRequest contains data for updating an existing equipment type.
type UpdateEquipmentTypeRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// ReorderRequest lists every id in the new display order.
type ReorderRequest struct {
	OrderedIDs []uuid.UUID `json:"orderedIds" validate:"required,min=1,unique"`
}

// ListEquipmentTypesRequest are the admin list query parameters.
type ListEquipmentTypesRequest struct {
	Search    string `form:"search" validate:"max=100"`
	IsActive  *bool  `form:"isActive"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=name displayOrder isActive createdAt"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// EquipmentTypeResponse represents an equipment type in API responses.
type EquipmentTypeResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EquipmentTypeListResponse wraps a list of equipment types.
type EquipmentTypeListResponse struct {
	Items      []EquipmentTypeResponse `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	TotalPages int                     `json:"totalPages"`
}

// DeleteEquipmentTypeResponse says whether the type was removed or only deactivated.
type DeleteEquipmentTypeResponse struct {
	Status string `json:"status"`
}
