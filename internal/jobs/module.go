// Package jobs lets administrators queue a sweep outside its cron schedule.
package jobs

import (
	"context"
	"errors"
	"net/http"

	apphttp "compliance_backend/internal/http"
	"compliance_backend/internal/scheduler"
	"compliance_backend/platform/httpkit"
	"compliance_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// Enqueuer queues a sweep by task type.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string) (string, error)
}

// jobNames maps URL names to task types.
var jobNames = map[string]string{
	"provisional-cleanup":      scheduler.TaskProvisionalCleanup,
	"agreement-reconciliation": scheduler.TaskAgreementReconciliation,
}

type runResponse struct {
	TaskID   string `json:"taskId"`
	TaskType string `json:"taskType"`
}

// Module implements http.Module for the sweep trigger endpoint.
type Module struct {
	queue Enqueuer
	log   *logger.Logger
}

func NewModule(queue Enqueuer, log *logger.Logger) *Module {
	return &Module{queue: queue, log: log.Named("jobs")}
}

func (m *Module) Name() string {
	return "jobs"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/jobs/:name/run", m.run)
}

// run queues a sweep.
// POST /api/v1/admin/jobs/:name/run
func (m *Module) run(c *gin.Context) {
	taskType, ok := jobNames[c.Param("name")]
	if !ok {
		httpkit.Error(c, http.StatusNotFound, "unknown job", nil)
		return
	}

	id, err := m.queue.Enqueue(c.Request.Context(), taskType)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		httpkit.Error(c, http.StatusConflict, "job is already queued", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	m.log.WithContext(c.Request.Context()).Info("sweep queued manually", "task", taskType, "id", id)
	httpkit.Accepted(c, runResponse{TaskID: id, TaskType: taskType})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
