package handler

import (
	"net/http"

	"compliance_backend/internal/equipment/service"
	"compliance_backend/internal/equipment/transport"
	"compliance_backend/platform/httpkit"
	"compliance_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for equipment.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidID        = "invalid equipment id"
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new equipment handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// bindJSON decodes and validates a JSON body. It writes the error response itself.
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// List returns a page of equipment with computed stoplights.
// GET /api/v1/equipment
func (h *Handler) List(c *gin.Context) {
	var req transport.ListEquipmentRequest
	if !h.bindQuery(c, &req) {
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

// Lookup finds equipment by a scanned or typed identifier.
// GET /api/v1/equipment/lookup?q=
func (h *Handler) Lookup(c *gin.Context) {
	var req transport.LookupRequest
	if !h.bindQuery(c, &req) {
		return
	}
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.Lookup(c.Request.Context(), tenantID, req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CountOrphaned returns the number of active equipment items without a site.
// GET /api/v1/equipment/orphaned/count
func (h *Handler) CountOrphaned(c *gin.Context) {
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.CountOrphaned(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns one equipment item.
// GET /api/v1/equipment/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
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

// History returns the service history of one equipment item.
// GET /api/v1/equipment/:id/history
func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.History(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Label renders the QR label as PNG.
// GET /api/v1/equipment/:id/label
func (h *Handler) Label(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	png, err := h.svc.Label(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", "inline; filename=\""+id.String()+".png\"")
	c.Data(http.StatusOK, "image/png", png)
}

// PublishLabel stores the QR label and returns a download link.
// POST /api/v1/equipment/:id/label
func (h *Handler) PublishLabel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	_, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.PublishLabel(c.Request.Context(), tenantID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create registers an equipment item.
// POST /api/v1/equipment
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateEquipmentRequest
	if !h.bindJSON(c, &req) {
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

// MarkServiced records a service visit.
// POST /api/v1/equipment/:id/service
func (h *Handler) MarkServiced(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.MarkServicedRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.MarkServiced(c.Request.Context(), tenantID, userID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update patches an equipment item.
// PUT /api/v1/admin/equipment/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateEquipmentRequest
	if !h.bindJSON(c, &req) {
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

// UpdateAssetID changes the customer asset id, linking a predecessor on collision.
// PUT /api/v1/admin/equipment/:id/asset-id
func (h *Handler) UpdateAssetID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateAssetIDRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.UpdateAssetID(c.Request.Context(), tenantID, userID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete soft-deletes an equipment item.
// DELETE /api/v1/admin/equipment/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, userID, id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// BulkDelete soft-deletes several items at once.
// POST /api/v1/admin/equipment/bulk/delete
func (h *Handler) BulkDelete(c *gin.Context) {
	var req transport.BulkDeleteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.BulkDelete(c.Request.Context(), tenantID, userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkUpdateAgreement sets the agreement status of several items.
// POST /api/v1/admin/equipment/bulk/status
func (h *Handler) BulkUpdateAgreement(c *gin.Context) {
	var req transport.BulkUpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.BulkUpdateAgreement(c.Request.Context(), tenantID, userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkUpdateCycle sets the service cycle of several items.
// POST /api/v1/admin/equipment/bulk/cycle
func (h *Handler) BulkUpdateCycle(c *gin.Context) {
	var req transport.BulkUpdateCycleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, tenantID, ok := httpkit.MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.svc.BulkUpdateCycle(c.Request.Context(), tenantID, userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
