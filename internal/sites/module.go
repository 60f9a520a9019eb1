// Package sites provides the sites bounded context module.
package sites

import (
	apphttp "compliance_backend/internal/http"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/internal/sites/handler"
	"compliance_backend/internal/sites/repository"
	"compliance_backend/internal/sites/service"
	"compliance_backend/platform/config"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the sites bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the sites module with all its dependencies.
func NewModule(pool *pgxpool.Pool, coordinator *lifecycle.Coordinator, audit lifecycle.Auditor, cfg config.DomainConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), coordinator, audit, cfg.GetDefaultPhoneRegion(), log.Named("sites"))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "sites"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts site routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/sites", m.handler.List)
	ctx.Protected.GET("/sites/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/sites")
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
}

var _ apphttp.Module = (*Module)(nil)
