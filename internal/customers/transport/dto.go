package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCustomerRequest creates a customer. ContractEndDate is a YYYY-MM-DD date.
type CreateCustomerRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	AgreementStatus string  `json:"agreementStatus" validate:"required,agreement_status"`
	ContractEndDate *string `json:"contractEndDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateCustomerRequest patches a customer. Version must match the stored row.
type UpdateCustomerRequest struct {
	Name                 *string `json:"name" validate:"omitempty,min=1,max=255"`
	AgreementStatus      *string `json:"agreementStatus" validate:"omitempty,agreement_status"`
	ContractEndDate      *string `json:"contractEndDate" validate:"omitempty,datetime=2006-01-02"`
	ClearContractEndDate bool    `json:"clearContractEndDate"`
	Version              int64   `json:"version" validate:"min=0"`
}

// ListCustomersRequest are the query parameters of the customer list.
type ListCustomersRequest struct {
	Search          string `form:"search" validate:"max=100"`
	AgreementStatus string `form:"agreementStatus" validate:"omitempty,agreement_status"`
	Page            int    `form:"page" validate:"omitempty,min=1"`
	PageSize        int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy          string `form:"sortBy" validate:"omitempty,oneof=name agreementStatus contractEndDate createdAt"`
	SortOrder       string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type CustomerResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	AgreementStatus string    `json:"agreementStatus"`
	ContractEndDate *string   `json:"contractEndDate,omitempty"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CustomerListResponse struct {
	Items      []CustomerResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// DeleteCustomerResponse reports how far the cascade reached.
type DeleteCustomerResponse struct {
	SitesDeleted int `json:"sitesDeleted"`
}
