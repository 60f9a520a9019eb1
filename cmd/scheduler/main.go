package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compliance_backend/internal/audit"
	"compliance_backend/internal/dashboard"
	dashboardcache "compliance_backend/internal/dashboard/cache"
	"compliance_backend/internal/events"
	"compliance_backend/internal/lifecycle"
	lrepo "compliance_backend/internal/lifecycle/repository"
	"compliance_backend/internal/scheduler"
	"compliance_backend/platform/cache"
	"compliance_backend/platform/config"
	"compliance_backend/platform/db"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.RequireRedis(); err != nil {
		panic("scheduler: " + err.Error())
	}

	log := logger.New(cfg.Env)
	defer log.Sync()
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	// Sweep audits are persisted here and drop cached dashboards, same as in the API.
	audit.NewModule(pool, validator.New(), log).RegisterHandlers(eventBus)
	redisClient, err := cache.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Warn("dashboard cache unavailable; cached summaries expire on their own", "error", err)
	} else {
		defer func() { _ = redisClient.Close() }()
		summaryCache := dashboardcache.NewRedisCache(redisClient, cfg.GetDashboardCacheTTL())
		dashboard.NewModule(pool, summaryCache, cfg.GetBusinessLocation(), log).RegisterHandlers(eventBus)
	}

	clock := lifecycle.SystemClock(cfg.GetBusinessLocation())
	store := lrepo.New(pool)
	auditor := audit.NewPublisher(eventBus)
	reaper := lifecycle.NewProvisionalReaper(store, auditor, log)
	reconciler := lifecycle.NewAgreementReconciler(store, auditor, clock, log)

	worker, err := scheduler.NewWorker(cfg, reaper, reconciler, log.Named("worker"))
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	periodic, err := scheduler.NewPeriodic(cfg, cfg.GetBusinessLocation(), log.Named("periodic"))
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return periodic.Run(gctx) })
	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	eventBus.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
