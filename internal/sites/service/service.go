package service

import (
	"context"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/internal/shared/paging"
	"compliance_backend/internal/sites/repository"
	"compliance_backend/internal/sites/transport"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/phone"
	"compliance_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	ActionSiteCreated = "SITE_CREATED"
	ActionSiteUpdated = "SITE_UPDATED"

	msgCustomerNotFound = "customer not found"
	msgNameRequired     = "site name is required"
)

// Deleter soft-deletes a site and orphans its equipment.
type Deleter interface {
	DeleteSite(ctx context.Context, tenantID, userID, siteID uuid.UUID) (int, error)
}

// Service provides business logic for sites.
type Service struct {
	repo        repository.Repository
	deleter     Deleter
	audit       lifecycle.Auditor
	phoneRegion string
	log         *logger.Logger
}

// New creates a new sites service. Contact phones without a country prefix are read as
// numbers of phoneRegion.
func New(repo repository.Repository, deleter Deleter, audit lifecycle.Auditor, phoneRegion string, log *logger.Logger) *Service {
	return &Service{repo: repo, deleter: deleter, audit: audit, phoneRegion: phoneRegion, log: log}
}

func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateSiteRequest) (transport.SiteResponse, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return transport.SiteResponse{}, apperr.Validation(msgNameRequired)
	}
	if err := s.requireCustomer(ctx, tenantID, req.CustomerID); err != nil {
		return transport.SiteResponse{}, err
	}

	site, err := s.repo.Create(ctx, domain.Site{
		ID:             uuid.New(),
		CustomerID:     req.CustomerID,
		OrganizationID: tenantID,
		Name:           name,
		Address:        sanitize.TextPtr(req.Address),
		ContactName:    sanitize.TextPtr(req.ContactName),
		ContactPhone:   phone.NormalizePtr(req.ContactPhone, s.phoneRegion),
		Metadata:       cleanMetadata(req.Metadata),
	})
	if err != nil {
		return transport.SiteResponse{}, err
	}

	s.log.WithContext(ctx).Info("site created", "id", site.ID, "customerId", site.CustomerID)
	s.record(ctx, userID, site, ActionSiteCreated, "Created site "+site.Name)
	return ToResponse(site), nil
}

func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.SiteResponse, error) {
	site, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.SiteResponse{}, err
	}
	return ToResponse(site), nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListSitesRequest) (transport.SiteListResponse, error) {
	window := paging.Normalize(req.Page, req.PageSize)
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         sanitize.Text(req.Search),
		Offset:         window.Offset(),
		Limit:          window.PageSize,
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return transport.SiteListResponse{}, apperr.Validation("invalid customer id")
		}
		params.CustomerID = &id
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.SiteListResponse{}, err
	}

	responses := make([]transport.SiteResponse, len(items))
	for i, item := range items {
		responses[i] = ToResponse(item)
	}
	return transport.SiteListResponse{
		Items:      responses,
		Total:      total,
		Page:       window.Page,
		PageSize:   window.PageSize,
		TotalPages: window.TotalPages(total),
	}, nil
}

// Update patches a site. Moving it to another customer keeps its equipment linked.
func (s *Service) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req transport.UpdateSiteRequest) (transport.SiteResponse, error) {
	site, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.SiteResponse{}, err
	}
	if site.Version != req.Version {
		return transport.SiteResponse{}, apperr.Conflict("site was modified by another request")
	}

	if req.CustomerID != nil && *req.CustomerID != site.CustomerID {
		if err := s.requireCustomer(ctx, tenantID, *req.CustomerID); err != nil {
			return transport.SiteResponse{}, err
		}
		site.CustomerID = *req.CustomerID
	}
	if req.Name != nil {
		name := sanitize.Name(*req.Name)
		if name == "" {
			return transport.SiteResponse{}, apperr.Validation(msgNameRequired)
		}
		site.Name = name
	}
	if req.Address != nil {
		site.Address = sanitize.TextPtr(req.Address)
	}
	if req.ContactName != nil {
		site.ContactName = sanitize.TextPtr(req.ContactName)
	}
	if req.ContactPhone != nil {
		site.ContactPhone = phone.NormalizePtr(req.ContactPhone, s.phoneRegion)
	}
	if req.Metadata != nil {
		site.Metadata = cleanMetadata(req.Metadata)
	}

	if err := s.repo.Update(ctx, &site); err != nil {
		return transport.SiteResponse{}, err
	}

	s.log.WithContext(ctx).Info("site updated", "id", site.ID, "version", site.Version)
	s.record(ctx, userID, site, ActionSiteUpdated, "Updated site "+site.Name)
	return ToResponse(site), nil
}

// Delete soft-deletes the site; its equipment stays with the organization, unlinked.
func (s *Service) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) (transport.DeleteSiteResponse, error) {
	n, err := s.deleter.DeleteSite(ctx, tenantID, userID, id)
	if err != nil {
		return transport.DeleteSiteResponse{}, err
	}
	return transport.DeleteSiteResponse{EquipmentOrphaned: n}, nil
}

func (s *Service) requireCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	ok, err := s.repo.CustomerExists(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(msgCustomerNotFound)
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID uuid.UUID, site domain.Site, action, details string) {
	id := site.ID
	s.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: site.OrganizationID,
		UserID:         userID,
		Action:         action,
		ResourceType:   domain.ResourceSite,
		ResourceID:     &id,
		Details:        details,
	})
}

func cleanMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		key := sanitize.Text(k)
		if key == "" {
			continue
		}
		out[key] = sanitize.Text(v)
	}
	return out
}

func ToResponse(site domain.Site) transport.SiteResponse {
	return transport.SiteResponse{
		ID:           site.ID,
		CustomerID:   site.CustomerID,
		Name:         site.Name,
		Address:      site.Address,
		ContactName:  site.ContactName,
		ContactPhone: site.ContactPhone,
		Metadata:     site.Metadata,
		Version:      site.Version,
		CreatedAt:    site.CreatedAt,
		UpdatedAt:    site.UpdatedAt,
	}
}
