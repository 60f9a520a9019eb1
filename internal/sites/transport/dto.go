package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateSiteRequest struct {
	CustomerID   uuid.UUID         `json:"customerId" validate:"required"`
	Name         string            `json:"name" validate:"required,min=1,max=255"`
	Address      *string           `json:"address" validate:"omitempty,max=500"`
	ContactName  *string           `json:"contactName" validate:"omitempty,max=255"`
	ContactPhone *string           `json:"contactPhone" validate:"omitempty,max=50"`
	Metadata     map[string]string `json:"metadata" validate:"omitempty,max=50,dive,keys,min=1,max=64,endkeys,max=500"`
}

// UpdateSiteRequest patches a site. Setting CustomerID moves the site to another customer
// of the same organization.
type UpdateSiteRequest struct {
	CustomerID   *uuid.UUID        `json:"customerId"`
	Name         *string           `json:"name" validate:"omitempty,min=1,max=255"`
	Address      *string           `json:"address" validate:"omitempty,max=500"`
	ContactName  *string           `json:"contactName" validate:"omitempty,max=255"`
	ContactPhone *string           `json:"contactPhone" validate:"omitempty,max=50"`
	Metadata     map[string]string `json:"metadata" validate:"omitempty,max=50,dive,keys,min=1,max=64,endkeys,max=500"`
	Version      int64             `json:"version" validate:"min=0"`
}

type ListSitesRequest struct {
	CustomerID string `form:"customerId" validate:"omitempty,uuid"`
	Search     string `form:"search" validate:"max=100"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type SiteResponse struct {
	ID           uuid.UUID         `json:"id"`
	CustomerID   uuid.UUID         `json:"customerId"`
	Name         string            `json:"name"`
	Address      *string           `json:"address,omitempty"`
	ContactName  *string           `json:"contactName,omitempty"`
	ContactPhone *string           `json:"contactPhone,omitempty"`
	Metadata     map[string]string `json:"metadata"`
	Version      int64             `json:"version"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type SiteListResponse struct {
	Items      []SiteResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// DeleteSiteResponse reports how many equipment items were unlinked from the site.
type DeleteSiteResponse struct {
	EquipmentOrphaned int `json:"equipmentOrphaned"`
}
