package handler

import (
	"net/http"

	"compliance_backend/internal/equipmenttypes/service"
	"compliance_backend/internal/equipmenttypes/transport"
	"compliance_backend/platform/httpkit"
	"compliance_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for equipment types.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid equipment type ID"
)

// New creates a new equipment types handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves equipment types with filters (admin only).
// GET /api/v1/admin/equipment-types
func (h *Handler) List(c *gin.Context) {
	var req transport.ListEquipmentTypesRequest
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

	result, err := h.svc.ListWithFilters(c.Request.Context(), tenantID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListActive retrieves only active equipment types.
// GET /api/v1/equipment-types
func (h *Handler) ListActive(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.ListActive(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAll retrieves every equipment type including inactive ones.
// GET /api/v1/equipment-types/all
func (h *Handler) ListAll(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.ListAll(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves an equipment type by ID.
// GET /api/v1/equipment-types/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create creates a new equipment type.
// POST /api/v1/admin/equipment-types
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateEquipmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), tenantID, userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update updates an existing equipment type.
// PUT /api/v1/admin/equipment-types/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.UpdateEquipmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), tenantID, userID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes or deactivates an equipment type.
// DELETE /api/v1/admin/equipment-types/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Delete(c.Request.Context(), tenantID, userID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ToggleActive flips the active flag.
// PATCH /api/v1/admin/equipment-types/:id/toggle-active
func (h *Handler) ToggleActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.ToggleActive(c.Request.Context(), tenantID, userID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reorder rewrites the display order.
// PUT /api/v1/admin/equipment-types/reorder
func (h *Handler) Reorder(c *gin.Context) {
	var req transport.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	if err := h.svc.Reorder(c.Request.Context(), tenantID, userID, req); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}
