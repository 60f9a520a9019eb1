package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"compliance_backend/internal/audit"
	dashboardcache "compliance_backend/internal/dashboard/cache"
	"compliance_backend/internal/domain"
	"compliance_backend/internal/events"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/internal/scheduler"
	"compliance_backend/platform/config"
	"compliance_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSweeper struct {
	calls int
	err   error
}

func (s *stubSweeper) Run(context.Context, time.Time) (lifecycle.SweepResult, error) {
	s.calls++
	return lifecycle.SweepResult{Selected: 1, Processed: 1}, s.err
}

func TestRunSweepsContinuesAfterFailure(t *testing.T) {
	broken := &stubSweeper{err: errors.New("select failed")}
	healthy := &stubSweeper{}
	sweepers := map[string]scheduler.Sweeper{
		scheduler.TaskProvisionalCleanup:      broken,
		scheduler.TaskAgreementReconciliation: healthy,
	}

	err := runSweeps(context.Background(), sweepers, jobTasks["all"], time.Now(), logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), scheduler.TaskProvisionalCleanup)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, healthy.calls)

	assert.NoError(t, runSweeps(context.Background(), sweepers, jobTasks["agreement"], time.Now(), logger.NewNop()))
}

func TestSweepAuditsInvalidateCachedDashboards(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisURL: "redis://" + mr.Addr(), DashboardCacheTTL: time.Minute}
	org, other := uuid.New(), uuid.New()
	require.NoError(t, mr.Set(dashboardcache.Key(org), "{}"))
	require.NoError(t, mr.Set(dashboardcache.Key(other), "{}"))

	bus := events.NewInMemoryBus(logger.NewNop())
	closeCache := subscribeDashboard(context.Background(), cfg, nil, bus, logger.NewNop())
	defer closeCache()

	audit.NewPublisher(bus).Record(context.Background(), domain.AuditEntry{
		OrganizationID: org,
		Action:         lifecycle.ActionAgreementExpired,
		ResourceType:   domain.ResourceCustomer,
	})
	bus.Wait()

	assert.False(t, mr.Exists(dashboardcache.Key(org)))
	assert.True(t, mr.Exists(dashboardcache.Key(other)))
}

func TestSubscribeDashboardWithoutRedisIsNoop(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewNop())
	closeCache := subscribeDashboard(context.Background(), &config.Config{}, nil, bus, logger.NewNop())
	closeCache()

	cfg := &config.Config{RedisURL: "redis://127.0.0.1:1"}
	closeCache = subscribeDashboard(context.Background(), cfg, nil, bus, logger.NewNop())
	closeCache()
}
