// Package equipment provides the equipment bounded context module.
// Reads go straight to the repository; every write that touches lifecycle state goes
// through the lifecycle coordinator or recorder.
package equipment

import (
	"compliance_backend/internal/equipment/handler"
	"compliance_backend/internal/equipment/repository"
	"compliance_backend/internal/equipment/service"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/platform/config"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/storage"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config combines the settings the equipment module reads.
type Config interface {
	config.DomainConfig
	GetMinioBucketLabels() string
}

// Module is the equipment bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the equipment module with all its dependencies.
// labels may be nil when object storage is not configured.
func NewModule(
	pool *pgxpool.Pool,
	coordinator *lifecycle.Coordinator,
	recorder *lifecycle.Recorder,
	audit lifecycle.Auditor,
	labels storage.ObjectStore,
	cfg Config,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	opts := service.Options{
		ProvisionalTTL: cfg.GetProvisionalTTL(),
		LabelBucket:    cfg.GetMinioBucketLabels(),
	}
	clock := lifecycle.SystemClock(cfg.GetBusinessLocation())
	svc := service.New(repository.New(pool), coordinator, recorder, labels, audit, clock, opts, log.Named("equipment"))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "equipment"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts equipment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/equipment")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/lookup", m.handler.Lookup)
	group.GET("/orphaned/count", m.handler.CountOrphaned)
	group.GET("/:id", m.handler.GetByID)
	group.GET("/:id/history", m.handler.History)
	group.GET("/:id/label", m.handler.Label)
	group.POST("/:id/label", m.handler.PublishLabel)
	group.POST("/:id/service", m.handler.MarkServiced)

	adminGroup := ctx.Admin.Group("/equipment")
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.PUT("/:id/asset-id", m.handler.UpdateAssetID)
	adminGroup.DELETE("/:id", m.handler.Delete)
	adminGroup.POST("/bulk/delete", m.handler.BulkDelete)
	adminGroup.POST("/bulk/status", m.handler.BulkUpdateAgreement)
	adminGroup.POST("/bulk/cycle", m.handler.BulkUpdateCycle)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
