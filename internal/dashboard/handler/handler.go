package handler

import (
	"compliance_backend/internal/dashboard/service"
	"compliance_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the dashboard.
type Handler struct {
	svc *service.Service
}

// New creates a new dashboard handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Summary returns the compliance overview of the caller's organization.
// GET /api/v1/dashboard/summary
func (h *Handler) Summary(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Summary(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
