package handler

import (
	"net/http"

	"compliance_backend/internal/audit/service"
	"compliance_backend/internal/audit/transport"
	"compliance_backend/platform/httpkit"
	"compliance_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves the audit log.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new audit handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns the tenant's audit log, newest first.
// GET /api/v1/admin/audit-logs
func (h *Handler) List(c *gin.Context) {
	var req transport.ListAuditLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
