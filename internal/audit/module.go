// Package audit provides the append-only audit trail module.
// Every mutating action reaches it as an events.AuditRecorded published on the bus.
package audit

import (
	"context"

	"compliance_backend/internal/audit/handler"
	"compliance_backend/internal/audit/repository"
	"compliance_backend/internal/audit/service"
	"compliance_backend/internal/events"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the audit bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the audit module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log.Named("audit"))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "audit"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts audit routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/audit-logs", m.handler.List)
}

// RegisterHandlers subscribes the audit writer to the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AuditRecorded{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.AuditRecorded:
		return m.service.Append(ctx, e)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
