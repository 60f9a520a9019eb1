// Package equipmenttypes provides the equipment type catalog module.
// Types are tenant-scoped, ordered for pickers and deactivated rather than deleted while in use.
package equipmenttypes

import (
	"compliance_backend/internal/equipmenttypes/handler"
	"compliance_backend/internal/equipmenttypes/repository"
	"compliance_backend/internal/equipmenttypes/service"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the equipment types bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the equipment types module with all its dependencies.
func NewModule(pool *pgxpool.Pool, audit lifecycle.Auditor, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), audit, log.Named("equipment-types"))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "equipment-types"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts equipment type routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Protected read-only endpoints (tenant-scoped)
	ctx.Protected.GET("/equipment-types", m.handler.ListActive)
	ctx.Protected.GET("/equipment-types/all", m.handler.ListAll)
	ctx.Protected.GET("/equipment-types/:id", m.handler.GetByID)

	// Admin-only CRUD endpoints
	adminGroup := ctx.Admin.Group("/equipment-types")
	adminGroup.GET("", m.handler.List)
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/reorder", m.handler.Reorder)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
	adminGroup.PATCH("/:id/toggle-active", m.handler.ToggleActive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
