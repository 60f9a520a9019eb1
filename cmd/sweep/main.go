// sweep runs the lifecycle sweeps once, for operators and external cron.
//
// Usage: go run ./cmd/sweep [-job=all|provisional|agreement] [-at=2026-01-31T00:00:00Z] [-enqueue]
//
// Flags:
//
//	-job      Which sweep to run (default: all)
//	-at       Evaluate as of this RFC 3339 time instead of now
//	-enqueue  Queue the sweeps on the asynq worker instead of running them here
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
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
)

var jobTasks = map[string][]string{
	"all":         scheduler.TaskTypes,
	"provisional": {scheduler.TaskProvisionalCleanup},
	"agreement":   {scheduler.TaskAgreementReconciliation},
}

func main() {
	job := flag.String("job", "all", "Sweep to run: all, provisional or agreement")
	at := flag.String("at", "", "Evaluate as of this RFC 3339 time instead of now")
	enqueue := flag.Bool("enqueue", false, "Queue the sweeps on the worker instead of running them here")
	flag.Parse()

	tasks, ok := jobTasks[*job]
	if !ok {
		fmt.Fprintf(os.Stderr, "Usage: %s [-job=all|provisional|agreement] [-at=RFC3339] [-enqueue]\n", os.Args[0])
		os.Exit(2)
	}
	now := time.Now()
	if *at != "" {
		parsed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -at value %q: %v\n", *at, err)
			os.Exit(2)
		}
		now = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// run returns instead of exiting so its deferred cleanup always completes.
	if err := run(cfg, tasks, now, *enqueue); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, tasks []string, now time.Time, enqueue bool) error {
	log := logger.New(cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if enqueue {
		if err := enqueueTasks(ctx, cfg, tasks, log); err != nil {
			log.Error("enqueue failed", "error", err)
			return err
		}
		return nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Same subscribers as the scheduler: audits are persisted and drop cached dashboards.
	audit.NewModule(pool, validator.New(), log).RegisterHandlers(eventBus)
	closeCache := subscribeDashboard(ctx, cfg, pool, eventBus, log)
	defer closeCache()
	// Deferred last so pending handlers finish before Redis and the pool close.
	defer eventBus.Wait()

	store := lrepo.New(pool)
	auditor := audit.NewPublisher(eventBus)
	sweepers := map[string]scheduler.Sweeper{
		scheduler.TaskProvisionalCleanup:      lifecycle.NewProvisionalReaper(store, auditor, log),
		scheduler.TaskAgreementReconciliation: lifecycle.NewAgreementReconciler(store, auditor, lifecycle.SystemClock(cfg.GetBusinessLocation()), log),
	}
	return runSweeps(ctx, sweepers, tasks, now, log)
}

// subscribeDashboard invalidates cached dashboard summaries on every audit event. Without
// Redis it is a no-op and cached summaries expire on their own.
func subscribeDashboard(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) func() {
	if cfg.GetRedisURL() == "" {
		return func() {}
	}
	client, err := cache.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Warn("dashboard cache unavailable; cached summaries expire on their own", "error", err)
		return func() {}
	}
	summaryCache := dashboardcache.NewRedisCache(client, cfg.GetDashboardCacheTTL())
	dashboard.NewModule(pool, summaryCache, cfg.GetBusinessLocation(), log).RegisterHandlers(bus)
	return func() { _ = client.Close() }
}

// runSweeps runs every task even when an earlier one fails and reports whether any failed.
func runSweeps(ctx context.Context, sweepers map[string]scheduler.Sweeper, tasks []string, now time.Time, log *logger.Logger) error {
	var failed []string
	for _, task := range tasks {
		result, err := sweepers[task].Run(ctx, now)
		if err != nil {
			log.Error("sweep failed", "task", task, "error", err)
			failed = append(failed, task)
			continue
		}
		log.Info("sweep finished", "task", task, "at", now.Format(time.RFC3339),
			"selected", result.Selected, "processed", result.Processed,
			"skipped", result.Skipped, "failed", result.Failed)
	}
	if len(failed) > 0 {
		return fmt.Errorf("sweeps failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

func enqueueTasks(ctx context.Context, cfg *config.Config, tasks []string, log *logger.Logger) error {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, task := range tasks {
		id, err := client.Enqueue(ctx, task)
		if err != nil {
			return err
		}
		log.Info("sweep queued", "task", task, "id", id)
	}
	return nil
}
