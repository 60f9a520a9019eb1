package scheduler

import (
	"fmt"
	"time"

	"compliance_backend/internal/lifecycle"

	"github.com/hibiken/asynq"
)

const TaskProvisionalCleanup = "compliance:" + lifecycle.JobProvisionalCleanup

const TaskAgreementReconciliation = "compliance:" + lifecycle.JobAgreementReconciliation

const (
	// taskTimeout bounds one sweep run.
	taskTimeout = 30 * time.Minute
	// uniqueWindow keeps a second trigger from queueing while a run is still pending.
	uniqueWindow = 10 * time.Minute
	maxRetry     = 3
)

// TaskTypes lists the sweeps in a stable order.
var TaskTypes = []string{TaskProvisionalCleanup, TaskAgreementReconciliation}

// NewSweepTask builds a task for one of TaskTypes. Sweeps carry no payload: they always
// work on "now" as seen by the worker.
func NewSweepTask(taskType string) (*asynq.Task, error) {
	if !IsSweepTask(taskType) {
		return nil, fmt.Errorf("unknown sweep task %q", taskType)
	}
	return asynq.NewTask(taskType, nil,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
	), nil
}

// IsSweepTask reports whether taskType names a sweep.
func IsSweepTask(taskType string) bool {
	for _, t := range TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}
