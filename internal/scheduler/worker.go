package scheduler

import (
	"context"
	"time"

	"compliance_backend/internal/lifecycle"
	"compliance_backend/platform/config"
	"compliance_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Sweeper is one periodic job of the lifecycle engine.
type Sweeper interface {
	Run(ctx context.Context, now time.Time) (lifecycle.SweepResult, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker builds the asynq server processing both sweeps.
func NewWorker(cfg config.SchedulerConfig, reaper, reconciler Sweeper, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	return &Worker{
		server: server,
		mux:    NewServeMux(reaper, reconciler, log),
		log:    log,
	}, nil
}

// NewServeMux routes each sweep task type to its sweeper.
func NewServeMux(reaper, reconciler Sweeper, log *logger.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskProvisionalCleanup, sweepHandler(TaskProvisionalCleanup, reaper, time.Now, log))
	mux.HandleFunc(TaskAgreementReconciliation, sweepHandler(TaskAgreementReconciliation, reconciler, time.Now, log))
	return mux
}

func sweepHandler(taskType string, sweeper Sweeper, now func() time.Time, log *logger.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		started := now()
		result, err := sweeper.Run(ctx, started)
		if err != nil {
			log.Error("sweep failed", "task", taskType, "error", err, "processed", result.Processed, "failed", result.Failed)
			return err
		}
		log.Info("sweep finished",
			"task", taskType,
			"selected", result.Selected,
			"processed", result.Processed,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return nil
	}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
