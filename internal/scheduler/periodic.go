package scheduler

import (
	"context"
	"fmt"
	"time"

	"compliance_backend/platform/config"
	"compliance_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues each sweep on its own cron schedule, evaluated in the business time zone.
type Periodic struct {
	scheduler *asynq.Scheduler
	entries   map[string]string // task type -> asynq entry id
	log       *logger.Logger
}

// NewPeriodic registers both sweeps. An empty cron spec disables that sweep.
func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	p := &Periodic{entries: map[string]string{}, log: log}
	p.scheduler = asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: loc,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				p.log.Warn("periodic enqueue failed", "error", err)
				return
			}
			p.log.Info("periodic sweep enqueued", "task", info.Type, "id", info.ID)
		},
	})

	specs := map[string]string{
		TaskProvisionalCleanup:      cfg.GetProvisionalCleanupCron(),
		TaskAgreementReconciliation: cfg.GetAgreementReconciliationCron(),
	}
	queue := queueName(cfg)
	for _, taskType := range TaskTypes {
		spec := specs[taskType]
		if spec == "" {
			log.Warn("sweep not scheduled", "task", taskType)
			continue
		}
		task, err := NewSweepTask(taskType)
		if err != nil {
			return nil, err
		}
		id, err := p.scheduler.Register(spec, task, asynq.Queue(queue), asynq.Unique(uniqueWindow))
		if err != nil {
			return nil, fmt.Errorf("register %s with %q: %w", taskType, spec, err)
		}
		p.entries[taskType] = id
		log.Info("sweep scheduled", "task", taskType, "cron", spec, "location", loc.String())
	}
	return p, nil
}

// Scheduled reports whether taskType got a cron entry.
func (p *Periodic) Scheduled(taskType string) bool {
	_, ok := p.entries[taskType]
	return ok
}

// Run enqueues on schedule until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
