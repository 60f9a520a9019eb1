// Package dashboard provides the compliance summary module.
// Summaries are cached per organization and dropped whenever an audited change happens.
package dashboard

import (
	"context"
	"time"

	"compliance_backend/internal/dashboard/handler"
	"compliance_backend/internal/dashboard/repository"
	"compliance_backend/internal/dashboard/service"
	"compliance_backend/internal/events"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dashboard bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the dashboard module. cache may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, cache service.Cache, loc *time.Location, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), cache, loc, log.Named("dashboard"))

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dashboard"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts dashboard routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/dashboard/summary", m.handler.Summary)
}

// RegisterHandlers drops cached summaries when something auditable changes.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AuditRecorded{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if e, ok := event.(events.AuditRecorded); ok {
		m.service.Invalidate(ctx, e.OrganizationID)
	}
	return nil
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
