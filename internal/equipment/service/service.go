package service

import (
	"context"
	"fmt"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/equipment/repository"
	"compliance_backend/internal/equipment/transport"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/internal/shared/paging"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/sanitize"
	"compliance_backend/platform/storage"

	"github.com/google/uuid"
)

const ActionEquipmentCreated = "EQUIPMENT_CREATED"

const (
	msgSiteNotFound          = "site not found"
	msgEquipmentTypeNotFound = "equipment type not found"
	msgSerialRequired        = "serial number is required"
)

// Engine is the part of the lifecycle coordinator the equipment endpoints delegate to.
type Engine interface {
	UpdateEquipment(ctx context.Context, tenantID, userID, equipmentID uuid.UUID, patch lifecycle.EquipmentPatch) (domain.Snapshot, error)
	UpdateEquipmentAssetID(ctx context.Context, tenantID, userID, equipmentID uuid.UUID, newAssetID string) (domain.Snapshot, error)
	DeleteEquipment(ctx context.Context, tenantID, userID, equipmentID uuid.UUID) error
	BulkDelete(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID) (lifecycle.BulkResult, error)
	BulkUpdateAgreement(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, status domain.AgreementStatus) (lifecycle.BulkResult, error)
	BulkUpdateCycle(ctx context.Context, tenantID, userID uuid.UUID, ids []uuid.UUID, cycle domain.ServiceCycle) (lifecycle.BulkResult, error)
}

// ServiceRecorder records service visits.
type ServiceRecorder interface {
	MarkServiced(ctx context.Context, tenantID, userID, equipmentID uuid.UUID, reason *domain.ReasonCode) (domain.ServiceRecord, error)
}

// Options are the tunables of the equipment service.
type Options struct {
	// ProvisionalTTL is the default lifetime of provisional equipment.
	ProvisionalTTL time.Duration
	// LabelBucket is where QR labels are stored when object storage is configured.
	LabelBucket string
}

// Service provides business logic for equipment.
type Service struct {
	repo     repository.Repository
	engine   Engine
	recorder ServiceRecorder
	labels   storage.ObjectStore // nil when object storage is not configured
	audit    lifecycle.Auditor
	clock    lifecycle.Clock
	opts     Options
	log      *logger.Logger
}

// New creates a new equipment service. labels may be nil.
func New(repo repository.Repository, engine Engine, recorder ServiceRecorder, labels storage.ObjectStore,
	audit lifecycle.Auditor, clock lifecycle.Clock, opts Options, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		recorder: recorder,
		labels:   labels,
		audit:    audit,
		clock:    clock,
		opts:     opts,
		log:      log,
	}
}

// Create registers a new equipment item, either held by the organization or installed at a site.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateEquipmentRequest) (transport.EquipmentResponse, error) {
	now := s.now()

	serial := sanitize.Identifier(req.SerialNumber)
	if serial == "" {
		return transport.EquipmentResponse{}, apperr.Validation(msgSerialRequired)
	}
	agreement, err := domain.ParseAgreementStatus(req.AgreementStatus)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	cycle, err := domain.ParseServiceCycle(req.ServiceCycle)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}

	var owner domain.Ownership = domain.Owned{OrganizationID: tenantID}
	if req.SiteID != nil {
		owner = domain.SitedOwned{SiteID: *req.SiteID}
	}
	org, err := domain.ResolveOrganization(ctx, owner, s.repo)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	if org != tenantID {
		return transport.EquipmentResponse{}, apperr.NotFound(msgSiteNotFound)
	}

	if req.EquipmentTypeID != nil {
		ok, err := s.repo.EquipmentTypeExists(ctx, tenantID, *req.EquipmentTypeID)
		if err != nil {
			return transport.EquipmentResponse{}, err
		}
		if !ok {
			return transport.EquipmentResponse{}, apperr.NotFound(msgEquipmentTypeNotFound)
		}
	}

	e := domain.Equipment{
		ID:              uuid.New(),
		OrganizationID:  tenantID,
		Owner:           owner,
		EquipmentTypeID: req.EquipmentTypeID,
		SerialNumber:    serial,
		QRCodeValue:     serial,
		AgreementStatus: agreement,
		LifecycleStatus: domain.LifecycleActive,
		ServiceCycle:    cycle,
	}
	if req.CustAssetID != nil {
		if asset := sanitize.Identifier(*req.CustAssetID); asset != "" {
			e.CustAssetID = &asset
		}
	}
	if req.QRCodeValue != nil {
		if qr := sanitize.Identifier(*req.QRCodeValue); qr != "" {
			e.QRCodeValue = qr
		}
	}
	if req.NextService != nil {
		next, err := parseDate(*req.NextService)
		if err != nil {
			return transport.EquipmentResponse{}, err
		}
		e.NextService = &next
		e.NextServiceOverride = true
	}
	if req.Provisional {
		expires := now.Add(s.opts.ProvisionalTTL)
		if req.ProvisionalExpiresAt != nil {
			expires = *req.ProvisionalExpiresAt
		}
		e.Provisional = true
		e.ProvisionalExpiresAt = &expires
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return transport.EquipmentResponse{}, err
	}
	snap, err := s.repo.GetByID(ctx, tenantID, e.ID)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}

	s.log.WithContext(ctx).Info("equipment created", "id", e.ID, "serial", e.SerialNumber, "provisional", e.Provisional)
	s.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         ActionEquipmentCreated,
		ResourceType:   domain.ResourceEquipment,
		ResourceID:     &e.ID,
	})
	return s.toResponse(snap, now), nil
}

// GetByID returns a non-deleted equipment item with its current stoplight.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.EquipmentResponse, error) {
	snap, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	return s.toResponse(snap, s.now()), nil
}

// Lookup finds equipment by serial number or asset id, falling back to the QR value.
func (s *Service) Lookup(ctx context.Context, tenantID uuid.UUID, query string) (transport.EquipmentResponse, error) {
	q := sanitize.Identifier(query)
	if q == "" {
		return transport.EquipmentResponse{}, apperr.Validation("lookup query is required")
	}
	snap, err := s.repo.FindByIdentifier(ctx, tenantID, q)
	if err != nil {
		return transport.EquipmentResponse{}, err
	}
	return s.toResponse(snap, s.now()), nil
}

// List returns one page of equipment matching the filters.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListEquipmentRequest) (transport.EquipmentListResponse, error) {
	window := paging.Normalize(req.Page, req.PageSize)
	params, err := listParams(tenantID, req)
	if err != nil {
		return transport.EquipmentListResponse{}, err
	}
	params.Offset = window.Offset()
	params.Limit = window.PageSize

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.EquipmentListResponse{}, err
	}

	now := s.now()
	responses := make([]transport.EquipmentResponse, len(items))
	for i, item := range items {
		responses[i] = s.toResponse(item, now)
	}
	return transport.EquipmentListResponse{
		Items:      responses,
		Total:      total,
		Page:       window.Page,
		PageSize:   window.PageSize,
		TotalPages: window.TotalPages(total),
	}, nil
}

// CountOrphaned counts active equipment without a site.
func (s *Service) CountOrphaned(ctx context.Context, tenantID uuid.UUID) (transport.OrphanCountResponse, error) {
	n, err := s.repo.CountOrphaned(ctx, tenantID)
	if err != nil {
		return transport.OrphanCountResponse{}, err
	}
	return transport.OrphanCountResponse{Count: n}, nil
}

// History returns the service visits of one equipment item.
func (s *Service) History(ctx context.Context, tenantID, id uuid.UUID) (transport.HistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, tenantID, id); err != nil {
		return transport.HistoryResponse{}, err
	}
	records, err := s.repo.ServiceRecords(ctx, id)
	if err != nil {
		return transport.HistoryResponse{}, err
	}
	return BuildHistory(records, s.now(), s.clock.Location), nil
}

func listParams(tenantID uuid.UUID, req transport.ListEquipmentRequest) (repository.ListParams, error) {
	params := repository.ListParams{
		OrganizationID: tenantID,
		Search:         sanitize.Identifier(req.Search),
		OrphanedOnly:   req.OrphanedOnly,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}
	if req.AgreementStatus != "" {
		v, err := domain.ParseAgreementStatus(req.AgreementStatus)
		if err != nil {
			return params, err
		}
		params.AgreementStatus = &v
	}
	if req.ServiceCycle != "" {
		v, err := domain.ParseServiceCycle(req.ServiceCycle)
		if err != nil {
			return params, err
		}
		params.ServiceCycle = &v
	}
	if req.LifecycleStatus != "" {
		v, err := domain.ParseLifecycleStatus(req.LifecycleStatus)
		if err != nil {
			return params, err
		}
		params.LifecycleStatus = &v
	}
	for _, f := range []struct {
		raw string
		dst **time.Time
	}{
		{req.NextServiceFrom, &params.NextServiceFrom},
		{req.NextServiceTo, &params.NextServiceTo},
	} {
		if f.raw == "" {
			continue
		}
		d, err := parseDate(f.raw)
		if err != nil {
			return params, err
		}
		*f.dst = &d
	}
	for _, f := range []struct {
		raw string
		dst **uuid.UUID
	}{
		{req.CustomerID, &params.CustomerID},
		{req.SiteID, &params.SiteID},
		{req.EquipmentTypeID, &params.EquipmentTypeID},
	} {
		if f.raw == "" {
			continue
		}
		id, err := uuid.Parse(f.raw)
		if err != nil {
			return params, apperr.Validation(fmt.Sprintf("invalid id %q", f.raw))
		}
		*f.dst = &id
	}
	return params, nil
}

func (s *Service) toResponse(snap domain.Snapshot, now time.Time) transport.EquipmentResponse {
	e := snap.Equipment
	resp := transport.EquipmentResponse{
		ID:                   e.ID,
		SerialNumber:         e.SerialNumber,
		CustAssetID:          e.CustAssetID,
		QRCodeValue:          e.QRCodeValue,
		EquipmentTypeID:      e.EquipmentTypeID,
		AgreementStatus:      string(e.AgreementStatus),
		EffectiveAgreement:   string(domain.EffectiveAgreement(snap)),
		LifecycleStatus:      string(e.LifecycleStatus),
		ServiceCycle:         string(e.ServiceCycle),
		LastService:          e.LastService,
		NextServiceOverride:  e.NextServiceOverride,
		StoplightStatus:      string(domain.CalculateStatus(snap, s.clock.Today(now))),
		Provisional:          e.Provisional,
		ProvisionalExpiresAt: e.ProvisionalExpiresAt,
		PredecessorID:        e.PredecessorID,
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
	if siteID, ok := domain.SiteOf(e.Owner); ok {
		resp.SiteID = &siteID
	}
	if e.NextService != nil {
		next := e.NextService.Format(time.DateOnly)
		resp.NextService = &next
	}
	return resp
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return d, nil
}

func (s *Service) now() time.Time {
	if s.clock.Now == nil {
		return time.Now()
	}
	return s.clock.Now()
}
