package transport

import "github.com/google/uuid"

// ListAuditLogsRequest are the query parameters of the audit log list.
type ListAuditLogsRequest struct {
	Action       string `form:"action" validate:"omitempty,max=64"`
	ResourceType string `form:"resourceType" validate:"omitempty,max=64"`
	ResourceID   string `form:"resourceId" validate:"omitempty,uuid"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// AuditLogResponse is one audit entry.
type AuditLogResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	Action       string     `json:"action"`
	ResourceType string     `json:"resourceType"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	Details      *string    `json:"details,omitempty"`
	CreatedAt    string     `json:"createdAt"`
}

// AuditLogListResponse is one page of audit entries, newest first.
type AuditLogListResponse struct {
	Items      []AuditLogResponse `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}
