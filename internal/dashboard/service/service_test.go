package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"compliance_backend/internal/dashboard/transport"
	"compliance_backend/internal/domain"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := today.AddDate(0, 0, offset)
	return &d
}

func snapshot(agreement domain.AgreementStatus, next *time.Time) domain.Snapshot {
	org := uuid.New()
	return domain.Snapshot{Equipment: domain.Equipment{
		ID:              uuid.New(),
		OrganizationID:  org,
		Owner:           domain.Owned{OrganizationID: org},
		AgreementStatus: agreement,
		NextService:     next,
	}}
}

func TestSummarizeCountsAndPercentage(t *testing.T) {
	sited := snapshot(domain.AgreementCovered, day(40))
	sited.Equipment.Owner = domain.SitedOwned{SiteID: uuid.New()}
	sited.CustomerAgreement = ptrAgreement(domain.AgreementCovered)

	provisional := snapshot(domain.AgreementCovered, nil)
	provisional.Equipment.Provisional = true

	snaps := []domain.Snapshot{
		sited,
		provisional,
		snapshot(domain.AgreementCovered, day(0)),  // due today: yellow, warning
		snapshot(domain.AgreementCovered, day(15)), // edge of the window: yellow, warning
		snapshot(domain.AgreementCovered, day(-1)), // overdue
		snapshot(domain.AgreementPending, day(60)), // red by agreement
		snapshot(domain.AgreementOutOfScope, nil),  // red by agreement
	}

	s := Summarize(snaps, today)
	assert.Equal(t, 7, s.TotalEquipment)
	assert.Equal(t, 2, s.Green)
	assert.Equal(t, 2, s.Yellow)
	assert.Equal(t, 3, s.Red)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 2, s.Warning)
	assert.Equal(t, 6, s.Orphaned)
	assert.Equal(t, 1, s.Provisional)
	assert.Equal(t, 28.57, s.CompliancePercentage)
}

func TestSummarizeEmptyIsFullyCompliant(t *testing.T) {
	s := Summarize(nil, today)
	assert.Equal(t, 0, s.TotalEquipment)
	assert.Equal(t, 100.0, s.CompliancePercentage)
}

func ptrAgreement(a domain.AgreementStatus) *domain.AgreementStatus { return &a }

type countingRepo struct {
	calls atomic.Int32
	snaps []domain.Snapshot
	err   error
}

func (r *countingRepo) Snapshots(context.Context, uuid.UUID) ([]domain.Snapshot, error) {
	r.calls.Add(1)
	return r.snaps, r.err
}

func (r *countingRepo) CountCustomers(context.Context, uuid.UUID) (int, error) { return 3, nil }
func (r *countingRepo) CountSites(context.Context, uuid.UUID) (int, error)     { return 5, nil }

type mapCache struct {
	entries map[uuid.UUID]transport.SummaryResponse
	failing bool
}

func (c *mapCache) Get(_ context.Context, org uuid.UUID) (transport.SummaryResponse, bool, error) {
	if c.failing {
		return transport.SummaryResponse{}, false, errors.New("connection refused")
	}
	s, ok := c.entries[org]
	return s, ok, nil
}

func (c *mapCache) Set(_ context.Context, org uuid.UUID, s transport.SummaryResponse) error {
	if c.failing {
		return errors.New("connection refused")
	}
	c.entries[org] = s
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, org uuid.UUID) error {
	delete(c.entries, org)
	return nil
}

func newTestService(repo *countingRepo, cache Cache) *Service {
	svc := New(repo, cache, time.UTC, logger.NewNop())
	svc.now = func() time.Time { return today.Add(10 * time.Hour) }
	return svc
}

func TestSummaryUsesCacheUntilInvalidated(t *testing.T) {
	repo := &countingRepo{snaps: []domain.Snapshot{snapshot(domain.AgreementCovered, nil)}}
	cache := &mapCache{entries: map[uuid.UUID]transport.SummaryResponse{}}
	svc := newTestService(repo, cache)
	ctx := context.Background()
	org := uuid.New()

	first, err := svc.Summary(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalEquipment)
	assert.Equal(t, 3, first.TotalCustomers)
	assert.Equal(t, 5, first.TotalSites)

	_, err = svc.Summary(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.calls.Load())

	svc.Invalidate(ctx, org)
	_, err = svc.Summary(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestSummaryDegradesWhenCacheFails(t *testing.T) {
	repo := &countingRepo{}
	svc := newTestService(repo, &mapCache{failing: true})

	s, err := svc.Summary(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.CompliancePercentage)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestSummaryPropagatesRepositoryErrors(t *testing.T) {
	repo := &countingRepo{err: errors.New("db down")}
	svc := newTestService(repo, nil)

	_, err := svc.Summary(context.Background(), uuid.New())
	assert.Error(t, err)
}
