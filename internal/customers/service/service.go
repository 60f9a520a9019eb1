package service

import (
	"context"
	"fmt"
	"time"

	"compliance_backend/internal/customers/repository"
	"compliance_backend/internal/customers/transport"
	"compliance_backend/internal/domain"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/internal/shared/paging"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	ActionCustomerCreated = "CUSTOMER_CREATED"
	ActionCustomerUpdated = "CUSTOMER_UPDATED"

	msgNameRequired = "customer name is required"
)

// Deleter cascades a customer delete through its sites and equipment.
type Deleter interface {
	DeleteCustomer(ctx context.Context, tenantID, userID, customerID uuid.UUID) (int, error)
}

// Service provides business logic for customers.
type Service struct {
	repo    repository.Repository
	deleter Deleter
	audit   lifecycle.Auditor
	log     *logger.Logger
}

// New creates a new customers service.
func New(repo repository.Repository, deleter Deleter, audit lifecycle.Auditor, log *logger.Logger) *Service {
	return &Service{repo: repo, deleter: deleter, audit: audit, log: log}
}

// Create stores a new customer. Names are unique per organization.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateCustomerRequest) (transport.CustomerResponse, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return transport.CustomerResponse{}, apperr.Validation(msgNameRequired)
	}
	status, err := domain.ParseAgreementStatus(req.AgreementStatus)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	end, err := parseDate(req.ContractEndDate)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	c, err := s.repo.Create(ctx, domain.Customer{
		ID:              uuid.New(),
		OrganizationID:  tenantID,
		Name:            name,
		AgreementStatus: status,
		ContractEndDate: end,
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.log.WithContext(ctx).Info("customer created", "id", c.ID, "name", c.Name)
	s.record(ctx, userID, c, ActionCustomerCreated, "Created customer "+c.Name)
	return ToResponse(c), nil
}

// GetByID returns a non-deleted customer of the tenant.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.CustomerResponse, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return ToResponse(c), nil
}

// List returns one page of non-deleted customers.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListCustomersRequest) (transport.CustomerListResponse, error) {
	window := paging.Normalize(req.Page, req.PageSize)
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         sanitize.Text(req.Search),
		Offset:         window.Offset(),
		Limit:          window.PageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	if req.AgreementStatus != "" {
		status, err := domain.ParseAgreementStatus(req.AgreementStatus)
		if err != nil {
			return transport.CustomerListResponse{}, err
		}
		params.AgreementStatus = &status
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CustomerListResponse{}, err
	}

	return transport.CustomerListResponse{
		Items:      toResponses(items),
		Total:      total,
		Page:       window.Page,
		PageSize:   window.PageSize,
		TotalPages: window.TotalPages(total),
	}, nil
}

// ListAll returns every non-deleted customer, for pickers.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]transport.CustomerResponse, error) {
	items, err := s.repo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// Update patches name, agreement status and contract end date.
func (s *Service) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req transport.UpdateCustomerRequest) (transport.CustomerResponse, error) {
	c, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	if c.Version != req.Version {
		return transport.CustomerResponse{}, apperr.Conflict("customer was modified by another request")
	}

	if req.Name != nil {
		name := sanitize.Name(*req.Name)
		if name == "" {
			return transport.CustomerResponse{}, apperr.Validation(msgNameRequired)
		}
		c.Name = name
	}
	if req.AgreementStatus != nil {
		status, err := domain.ParseAgreementStatus(*req.AgreementStatus)
		if err != nil {
			return transport.CustomerResponse{}, err
		}
		c.AgreementStatus = status
	}
	switch {
	case req.ClearContractEndDate:
		c.ContractEndDate = nil
	case req.ContractEndDate != nil:
		end, err := parseDate(req.ContractEndDate)
		if err != nil {
			return transport.CustomerResponse{}, err
		}
		c.ContractEndDate = end
	}

	if err := s.repo.Update(ctx, &c); err != nil {
		return transport.CustomerResponse{}, err
	}

	s.log.WithContext(ctx).Info("customer updated", "id", c.ID, "version", c.Version)
	s.record(ctx, userID, c, ActionCustomerUpdated, "Updated customer "+c.Name)
	return ToResponse(c), nil
}

// Delete soft-deletes the customer and cascades to its sites.
func (s *Service) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) (transport.DeleteCustomerResponse, error) {
	n, err := s.deleter.DeleteCustomer(ctx, tenantID, userID, id)
	if err != nil {
		return transport.DeleteCustomerResponse{}, err
	}
	return transport.DeleteCustomerResponse{SitesDeleted: n}, nil
}

func (s *Service) record(ctx context.Context, userID uuid.UUID, c domain.Customer, action, details string) {
	id := c.ID
	s.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: c.OrganizationID,
		UserID:         userID,
		Action:         action,
		ResourceType:   domain.ResourceCustomer,
		ResourceID:     &id,
		Details:        details,
	})
}

// ToResponse maps a customer to its JSON form. Dates render as YYYY-MM-DD.
func ToResponse(c domain.Customer) transport.CustomerResponse {
	resp := transport.CustomerResponse{
		ID:              c.ID,
		Name:            c.Name,
		AgreementStatus: string(c.AgreementStatus),
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.ContractEndDate != nil {
		end := c.ContractEndDate.Format(time.DateOnly)
		resp.ContractEndDate = &end
	}
	return resp
}

func toResponses(items []domain.Customer) []transport.CustomerResponse {
	out := make([]transport.CustomerResponse, len(items))
	for i, item := range items {
		out[i] = ToResponse(item)
	}
	return out
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, *raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", *raw))
	}
	return &d, nil
}
