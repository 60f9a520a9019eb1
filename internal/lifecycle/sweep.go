package lifecycle

import (
	"context"
	"errors"

	"compliance_backend/platform/metrics"
)

// SweepResult summarizes one run of a periodic sweep.
type SweepResult struct {
	Selected  int `json:"selected"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// errRowChanged aborts a per-row transaction when the row no longer matches the selection.
var errRowChanged = errors.New("row no longer matches sweep predicate")

func recordSweep(job string, result SweepResult, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	}
	metrics.SweepRuns.WithLabelValues(job, outcome).Inc()
	metrics.SweepItems.WithLabelValues(job, "processed").Add(float64(result.Processed))
	metrics.SweepItems.WithLabelValues(job, "skipped").Add(float64(result.Skipped))
	metrics.SweepItems.WithLabelValues(job, "failed").Add(float64(result.Failed))
}
