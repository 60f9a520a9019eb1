package service

import (
	"context"
	"time"

	"compliance_backend/internal/audit/repository"
	"compliance_backend/internal/audit/transport"
	"compliance_backend/internal/events"
	"compliance_backend/internal/shared/paging"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
)

// Service appends and reads the audit trail.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new audit service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Append stores one recorded event. Scheduled jobs record uuid.Nil as user, stored as NULL.
func (s *Service) Append(ctx context.Context, e events.AuditRecorded) error {
	entry := repository.LogEntry{
		ID:             uuid.New(),
		OrganizationID: e.OrganizationID,
		Action:         e.Action,
		ResourceType:   e.ResourceType,
		ResourceID:     e.ResourceID,
		CreatedAt:      e.OccurredAt(),
	}
	if e.UserID != uuid.Nil {
		user := e.UserID
		entry.UserID = &user
	}
	if e.Details != "" {
		details := e.Details
		entry.Details = &details
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.WithContext(ctx).Error("failed to write audit log", "action", e.Action, "resourceId", e.ResourceID, "error", err)
		return err
	}
	return nil
}

// List returns one page of the tenant's audit log.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, req transport.ListAuditLogsRequest) (transport.AuditLogListResponse, error) {
	window := paging.Normalize(req.Page, req.PageSize)
	params := repository.ListParams{
		OrganizationID: tenantID,
		Action:         req.Action,
		ResourceType:   req.ResourceType,
		Offset:         window.Offset(),
		Limit:          window.PageSize,
	}
	if req.ResourceID != "" {
		id, err := uuid.Parse(req.ResourceID)
		if err != nil {
			return transport.AuditLogListResponse{}, apperr.Validation("resourceId must be a UUID")
		}
		params.ResourceID = &id
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.AuditLogListResponse{}, err
	}

	responses := make([]transport.AuditLogResponse, len(items))
	for i, item := range items {
		responses[i] = transport.AuditLogResponse{
			ID:           item.ID,
			UserID:       item.UserID,
			Action:       item.Action,
			ResourceType: item.ResourceType,
			ResourceID:   item.ResourceID,
			Details:      item.Details,
			CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		}
	}
	return transport.AuditLogListResponse{
		Items:      responses,
		Total:      total,
		Page:       window.Page,
		PageSize:   window.PageSize,
		TotalPages: window.TotalPages(total),
	}, nil
}
