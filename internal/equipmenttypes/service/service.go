package service

import (
	"context"
	"fmt"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/equipmenttypes/repository"
	"compliance_backend/internal/equipmenttypes/transport"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/internal/shared/paging"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionCreated     = "EQUIPMENT_TYPE_CREATED"
	ActionUpdated     = "EQUIPMENT_TYPE_UPDATED"
	ActionDeleted     = "EQUIPMENT_TYPE_DELETED"
	ActionDeactivated = "EQUIPMENT_TYPE_DEACTIVATED"
	ActionReordered   = "EQUIPMENT_TYPES_REORDERED"
)

// Service provides business logic for equipment types.
type Service struct {
	repo  repository.Repository
	audit lifecycle.Auditor
	log   *logger.Logger
}

// New creates a new equipment types service.
func New(repo repository.Repository, audit lifecycle.Auditor, log *logger.Logger) *Service {
	return &Service{repo: repo, audit: audit, log: log}
}

// GetByID retrieves an equipment type by ID.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.EquipmentTypeResponse, error) {
	et, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.EquipmentTypeResponse{}, err
	}
	return toResponse(et), nil
}

// ListWithFilters retrieves equipment types with search, filters, and pagination (admin).
func (s *Service) ListWithFilters(ctx context.Context, tenantID uuid.UUID, req transport.ListEquipmentTypesRequest) (transport.EquipmentTypeListResponse, error) {
	window := paging.Normalize(req.Page, req.PageSize)

	items, total, err := s.repo.ListWithFilters(ctx, repository.ListParams{
		OrganizationID: tenantID,
		Search:         sanitize.Text(req.Search),
		IsActive:       req.IsActive,
		Offset:         window.Offset(),
		Limit:          window.PageSize,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	})
	if err != nil {
		return transport.EquipmentTypeListResponse{}, err
	}

	return transport.EquipmentTypeListResponse{
		Items:      toResponses(items),
		Total:      total,
		Page:       window.Page,
		PageSize:   window.PageSize,
		TotalPages: window.TotalPages(total),
	}, nil
}

// ListAll retrieves every equipment type in display order.
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID) ([]transport.EquipmentTypeResponse, error) {
	items, err := s.repo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// ListActive retrieves only active equipment types, for pickers.
func (s *Service) ListActive(ctx context.Context, tenantID uuid.UUID) ([]transport.EquipmentTypeResponse, error) {
	items, err := s.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

// Create creates a new equipment type.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateEquipmentTypeRequest) (transport.EquipmentTypeResponse, error) {
	name := sanitize.Name(req.Name)
	if name == "" {
		return transport.EquipmentTypeResponse{}, apperr.Validation("equipment type name is required")
	}

	displayOrder := 0
	if req.DisplayOrder != nil {
		displayOrder = *req.DisplayOrder
	} else {
		count, err := s.repo.Count(ctx, tenantID)
		if err != nil {
			return transport.EquipmentTypeResponse{}, err
		}
		displayOrder = count
	}

	et, err := s.repo.Create(ctx, repository.CreateParams{
		ID:             uuid.New(),
		OrganizationID: tenantID,
		Name:           name,
		Description:    sanitize.TextPtr(req.Description),
		DisplayOrder:   displayOrder,
	})
	if err != nil {
		return transport.EquipmentTypeResponse{}, err
	}

	s.log.Info("equipment type created", "id", et.ID, "name", et.Name)
	s.record(ctx, tenantID, userID, ActionCreated, &et.ID, "")
	return toResponse(et), nil
}

// Update updates an existing equipment type.
func (s *Service) Update(ctx context.Context, tenantID, userID, id uuid.UUID, req transport.UpdateEquipmentTypeRequest) (transport.EquipmentTypeResponse, error) {
	params := repository.UpdateParams{
		ID:             id,
		OrganizationID: tenantID,
		Description:    sanitize.TextPtr(req.Description),
		DisplayOrder:   req.DisplayOrder,
		IsActive:       req.IsActive,
	}
	if req.Name != nil {
		name := sanitize.Name(*req.Name)
		if name == "" {
			return transport.EquipmentTypeResponse{}, apperr.Validation("equipment type name is required")
		}
		params.Name = &name
	}

	et, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.EquipmentTypeResponse{}, err
	}

	s.log.Info("equipment type updated", "id", et.ID, "name", et.Name)
	s.record(ctx, tenantID, userID, ActionUpdated, &et.ID, "")
	return toResponse(et), nil
}

// Delete removes an equipment type, or deactivates it while equipment still references it.
func (s *Service) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) (transport.DeleteEquipmentTypeResponse, error) {
	used, err := s.repo.InUse(ctx, tenantID, id)
	if err != nil {
		return transport.DeleteEquipmentTypeResponse{}, err
	}

	if used {
		if err := s.repo.SetActive(ctx, tenantID, id, false); err != nil {
			return transport.DeleteEquipmentTypeResponse{}, err
		}
		s.log.Info("equipment type deactivated", "id", id)
		s.record(ctx, tenantID, userID, ActionDeactivated, &id, "Still referenced by equipment")
		return transport.DeleteEquipmentTypeResponse{Status: "deactivated"}, nil
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return transport.DeleteEquipmentTypeResponse{}, err
	}

	s.log.Info("equipment type deleted", "id", id)
	s.record(ctx, tenantID, userID, ActionDeleted, &id, "")
	return transport.DeleteEquipmentTypeResponse{Status: "deleted"}, nil
}

// ToggleActive toggles the is_active flag for an equipment type.
func (s *Service) ToggleActive(ctx context.Context, tenantID, userID, id uuid.UUID) (transport.EquipmentTypeResponse, error) {
	et, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return transport.EquipmentTypeResponse{}, err
	}

	active := !et.IsActive
	return s.Update(ctx, tenantID, userID, id, transport.UpdateEquipmentTypeRequest{IsActive: &active})
}

// Reorder rewrites the display order of the listed equipment types.
func (s *Service) Reorder(ctx context.Context, tenantID, userID uuid.UUID, req transport.ReorderRequest) error {
	if err := s.repo.Reorder(ctx, tenantID, req.OrderedIDs); err != nil {
		return err
	}

	s.log.Info("equipment types reordered", "count", len(req.OrderedIDs))
	s.record(ctx, tenantID, userID, ActionReordered, nil, fmt.Sprintf("Reordered %d equipment types", len(req.OrderedIDs)))
	return nil
}

func (s *Service) record(ctx context.Context, tenantID, userID uuid.UUID, action string, id *uuid.UUID, details string) {
	s.audit.Record(ctx, domain.AuditEntry{
		OrganizationID: tenantID,
		UserID:         userID,
		Action:         action,
		ResourceType:   domain.ResourceEquipmentType,
		ResourceID:     id,
		Details:        details,
	})
}

func toResponse(et domain.EquipmentType) transport.EquipmentTypeResponse {
	return transport.EquipmentTypeResponse{
		ID:           et.ID,
		Name:         et.Name,
		Description:  et.Description,
		DisplayOrder: et.DisplayOrder,
		IsActive:     et.IsActive,
		CreatedAt:    et.CreatedAt,
		UpdatedAt:    et.UpdatedAt,
	}
}

func toResponses(items []domain.EquipmentType) []transport.EquipmentTypeResponse {
	out := make([]transport.EquipmentTypeResponse, len(items))
	for i, item := range items {
		out[i] = toResponse(item)
	}
	return out
}
