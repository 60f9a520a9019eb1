package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"compliance_backend/internal/audit/repository"
	"compliance_backend/internal/audit/transport"
	"compliance_backend/internal/events"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	entries []repository.LogEntry
	last    repository.ListParams
	err     error
}

func (m *memRepo) Insert(_ context.Context, e repository.LogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRepo) List(_ context.Context, p repository.ListParams) ([]repository.LogEntry, int, error) {
	m.last = p
	return m.entries, len(m.entries), nil
}

func TestAppendStoresJobEntriesWithoutUser(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo, logger.NewNop())
	resource := uuid.New()
	at := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	err := svc.Append(context.Background(), events.AuditRecorded{
		BaseEvent:      events.NewBaseEvent(at),
		OrganizationID: uuid.New(),
		Action:         "PROVISIONAL_EQUIPMENT_PURGED",
		ResourceType:   "Equipment",
		ResourceID:     &resource,
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	assert.Nil(t, entry.UserID)
	assert.Nil(t, entry.Details)
	assert.Equal(t, at, entry.CreatedAt)
	assert.Equal(t, &resource, entry.ResourceID)
}

func TestAppendReturnsStoreErrors(t *testing.T) {
	repo := &memRepo{err: errors.New("connection reset")}
	svc := New(repo, logger.NewNop())

	err := svc.Append(context.Background(), events.AuditRecorded{OrganizationID: uuid.New(), Action: "X"})
	assert.Error(t, err)
}

func TestListNormalizesPaging(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo, logger.NewNop())
	tenant := uuid.New()

	res, err := svc.List(context.Background(), tenant, transport.ListAuditLogsRequest{Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.last.Limit)
	assert.Equal(t, 200, repo.last.Offset)
	assert.Equal(t, tenant, repo.last.OrganizationID)
	assert.Equal(t, 3, res.Page)
}

func TestListFiltersByResourceID(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo, logger.NewNop())
	resource := uuid.New()

	_, err := svc.List(context.Background(), uuid.New(), transport.ListAuditLogsRequest{ResourceID: resource.String()})
	require.NoError(t, err)
	require.NotNil(t, repo.last.ResourceID)
	assert.Equal(t, resource, *repo.last.ResourceID)
}

func TestListRejectsMalformedResourceID(t *testing.T) {
	repo := &memRepo{}
	svc := New(repo, logger.NewNop())

	_, err := svc.List(context.Background(), uuid.New(), transport.ListAuditLogsRequest{ResourceID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, repo.last.Limit, "repository must not be queried")
}
