// Package customers provides the customers bounded context module.
// Deletion cascades through the lifecycle coordinator; everything else is plain CRUD.
package customers

import (
	"compliance_backend/internal/customers/handler"
	"compliance_backend/internal/customers/repository"
	"compliance_backend/internal/customers/service"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the customers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the customers module with all its dependencies.
func NewModule(pool *pgxpool.Pool, coordinator *lifecycle.Coordinator, audit lifecycle.Auditor, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), coordinator, audit, log.Named("customers"))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts customer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/customers", m.handler.List)
	ctx.Protected.GET("/customers/all", m.handler.ListAll)
	ctx.Protected.GET("/customers/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/customers")
	adminGroup.POST("", m.handler.Create)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
