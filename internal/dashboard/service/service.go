package service

import (
	"context"
	"time"

	"compliance_backend/internal/dashboard/repository"
	"compliance_backend/internal/dashboard/transport"
	"compliance_backend/internal/domain"
	"compliance_backend/platform/logger"
	"compliance_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Cache stores computed summaries. Implementations may fail; the service then
// falls back to computing from the database.
type Cache interface {
	Get(ctx context.Context, organizationID uuid.UUID) (transport.SummaryResponse, bool, error)
	Set(ctx context.Context, organizationID uuid.UUID, summary transport.SummaryResponse) error
	Invalidate(ctx context.Context, organizationID uuid.UUID) error
}

// Service computes the per-organization compliance summary.
type Service struct {
	repo  repository.Repository
	cache Cache // nil disables caching
	now   func() time.Time
	loc   *time.Location
	log   *logger.Logger
}

// New creates a new dashboard service. cache may be nil.
func New(repo repository.Repository, cache Cache, loc *time.Location, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now, loc: loc, log: log}
}

// Summary returns the cached summary when present, otherwise computes and caches it.
func (s *Service) Summary(ctx context.Context, tenantID uuid.UUID) (transport.SummaryResponse, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, tenantID)
		switch {
		case err != nil:
			metrics.DashboardCache.WithLabelValues("error").Inc()
			s.log.WithContext(ctx).Warn("dashboard cache read failed", "error", err)
		case ok:
			metrics.DashboardCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.DashboardCache.WithLabelValues("miss").Inc()
		}
	}

	summary, err := s.compute(ctx, tenantID)
	if err != nil {
		return transport.SummaryResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenantID, summary); err != nil {
			s.log.WithContext(ctx).Warn("dashboard cache write failed", "error", err)
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary of an organization. Failures are only logged.
func (s *Service) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		s.log.Warn("dashboard cache invalidation failed", "organization_id", tenantID, "error", err)
	}
}

func (s *Service) compute(ctx context.Context, tenantID uuid.UUID) (transport.SummaryResponse, error) {
	var (
		snaps     []domain.Snapshot
		customers int
		sites     int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snaps, err = s.repo.Snapshots(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = s.repo.CountCustomers(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		sites, err = s.repo.CountSites(gctx, tenantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.SummaryResponse{}, err
	}

	now := s.now()
	summary := Summarize(snaps, domain.DateOf(now, s.loc))
	summary.TotalCustomers = customers
	summary.TotalSites = sites
	summary.GeneratedAt = now.UTC()
	return summary, nil
}
