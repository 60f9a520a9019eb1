package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compliance_backend/internal/audit"
	"compliance_backend/internal/customers"
	"compliance_backend/internal/dashboard"
	dashboardcache "compliance_backend/internal/dashboard/cache"
	dashboardservice "compliance_backend/internal/dashboard/service"
	"compliance_backend/internal/domain"
	"compliance_backend/internal/equipment"
	"compliance_backend/internal/equipmenttypes"
	"compliance_backend/internal/events"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/internal/http/router"
	"compliance_backend/internal/jobs"
	"compliance_backend/internal/lifecycle"
	lrepo "compliance_backend/internal/lifecycle/repository"
	"compliance_backend/internal/scheduler"
	"compliance_backend/internal/sites"
	"compliance_backend/migrations"
	"compliance_backend/platform/cache"
	"compliance_backend/platform/config"
	"compliance_backend/platform/db"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/storage"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	defer log.Sync()
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator with the domain enums registered as tags
	val := validator.New(
		validator.Enum("agreement_status", domain.AgreementStatuses...),
		validator.Enum("service_cycle", domain.ServiceCycles...),
		validator.Enum("lifecycle_status", domain.LifecycleStatuses...),
		validator.Enum("reason_code", domain.ReasonCodes...),
	)

	labelStore := initLabelStore(ctx, cfg, log)
	summaryCache, closeCache := initSummaryCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}
	sweepQueue, closeQueue := initSweepQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// ========================================================================
	// Lifecycle Engine
	// ========================================================================

	clock := lifecycle.SystemClock(cfg.GetBusinessLocation())
	store := lrepo.New(pool)
	auditor := audit.NewPublisher(eventBus)
	coordinator := lifecycle.NewCoordinator(store, auditor, clock, log)
	recorder := lifecycle.NewRecorder(store, auditor, clock, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// the router subscribes audit and dashboard to the bus
	auditModule := audit.NewModule(pool, val, log)
	dashboardModule := dashboard.NewModule(pool, summaryCache, cfg.GetBusinessLocation(), log)

	customersModule := customers.NewModule(pool, coordinator, auditor, val, log)
	sitesModule := sites.NewModule(pool, coordinator, auditor, cfg, val, log)
	equipmentTypesModule := equipmenttypes.NewModule(pool, auditor, val, log)
	equipmentModule := equipment.NewModule(pool, coordinator, recorder, auditor, labelStore, cfg, val, log)

	modules := []apphttp.Module{
		customersModule,
		sitesModule,
		equipmentTypesModule,
		equipmentModule,
		dashboardModule,
		auditModule,
	}
	if sweepQueue != nil {
		modules = append(modules, jobs.NewModule(sweepQueue, log))
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		// let in-flight audit events reach the log before exit
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initLabelStore connects to MinIO when configured. Without it labels are still rendered
// but cannot be published.
func initLabelStore(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; label publishing disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	bucket := cfg.GetMinioBucketLabels()
	if err := withRetry(ctx, log, "ensure labels bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "labelsBucket", bucket)
	return storageSvc
}

// initSummaryCache returns a nil cache when Redis is absent or unreachable; the dashboard
// then computes every request.
func initSummaryCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (dashboardservice.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; dashboard cache disabled")
		return nil, nil
	}

	client, err := cache.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to connect dashboard cache", "error", err)
		return nil, nil
	}
	return dashboardcache.NewRedisCache(client, cfg.GetDashboardCacheTTL()), func() {
		_ = client.Close()
	}
}

func initSweepQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; manual sweep triggers disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize sweep queue client", "error", err)
		return nil, nil
	}
	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
