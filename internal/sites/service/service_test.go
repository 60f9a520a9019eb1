package service

import (
	"context"
	"testing"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/sites/repository"
	"compliance_backend/internal/sites/transport"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	customers map[uuid.UUID]uuid.UUID // customer -> organization
	sites     map[uuid.UUID]domain.Site
}

func newMemRepo() *memRepo {
	return &memRepo{customers: map[uuid.UUID]uuid.UUID{}, sites: map[uuid.UUID]domain.Site{}}
}

func (r *memRepo) CustomerExists(_ context.Context, organizationID, customerID uuid.UUID) (bool, error) {
	org, ok := r.customers[customerID]
	return ok && org == organizationID, nil
}

func (r *memRepo) Create(_ context.Context, s domain.Site) (domain.Site, error) {
	s.OrganizationID = r.customers[s.CustomerID]
	s.Version = 1
	r.sites[s.ID] = s
	return s, nil
}

func (r *memRepo) GetByID(_ context.Context, organizationID, id uuid.UUID) (domain.Site, error) {
	s, ok := r.sites[id]
	if !ok || s.OrganizationID != organizationID || s.Deletion.IsDeleted() {
		return domain.Site{}, apperr.NotFound("site not found")
	}
	return s, nil
}

func (r *memRepo) List(_ context.Context, params repository.ListParams) ([]domain.Site, int, error) {
	var out []domain.Site
	for _, s := range r.sites {
		if s.OrganizationID != params.OrganizationID {
			continue
		}
		if params.CustomerID != nil && s.CustomerID != *params.CustomerID {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, s *domain.Site) error {
	stored := r.sites[s.ID]
	if stored.Version != s.Version {
		return apperr.Conflict("site was modified by another request")
	}
	s.Version++
	s.OrganizationID = r.customers[s.CustomerID]
	r.sites[s.ID] = *s
	return nil
}

type fakeDeleter struct{ orphaned int }

func (d fakeDeleter) DeleteSite(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (int, error) {
	return d.orphaned, nil
}

type recordingAuditor struct{ entries []domain.AuditEntry }

func (a *recordingAuditor) Record(_ context.Context, entry domain.AuditEntry) {
	a.entries = append(a.entries, entry)
}

func ptr[T any](v T) *T { return &v }

func TestCreateNormalizesContactAndAudits(t *testing.T) {
	repo := newMemRepo()
	audit := &recordingAuditor{}
	svc := New(repo, fakeDeleter{}, audit, "NL", logger.NewNop())
	tenant, customer := uuid.New(), uuid.New()
	repo.customers[customer] = tenant

	resp, err := svc.Create(context.Background(), tenant, uuid.New(), transport.CreateSiteRequest{
		CustomerID:   customer,
		Name:         " Main   Plant ",
		Address:      ptr("<b>Dam 1</b>"),
		ContactPhone: ptr("020 555 0123"),
		Metadata:     map[string]string{"floor": " 3 ", " ": "dropped"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Main Plant", resp.Name)
	assert.Equal(t, "Dam 1", *resp.Address)
	assert.Equal(t, "+31205550123", *resp.ContactPhone)
	assert.Equal(t, map[string]string{"floor": "3"}, resp.Metadata)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, ActionSiteCreated, audit.entries[0].Action)
	assert.Equal(t, tenant, audit.entries[0].OrganizationID)
}

func TestCreateRequiresCustomerOfTenant(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, fakeDeleter{}, &recordingAuditor{}, "NL", logger.NewNop())
	foreign := uuid.New()
	repo.customers[foreign] = uuid.New()

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), transport.CreateSiteRequest{
		CustomerID: foreign,
		Name:       "Depot",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateMovesSiteBetweenCustomers(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, fakeDeleter{}, &recordingAuditor{}, "NL", logger.NewNop())
	ctx := context.Background()
	tenant, from, to, other := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	repo.customers[from] = tenant
	repo.customers[to] = tenant
	repo.customers[other] = uuid.New()

	site, err := svc.Create(ctx, tenant, uuid.New(), transport.CreateSiteRequest{CustomerID: from, Name: "Depot"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, tenant, uuid.New(), site.ID, transport.UpdateSiteRequest{CustomerID: &other, Version: site.Version})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	moved, err := svc.Update(ctx, tenant, uuid.New(), site.ID, transport.UpdateSiteRequest{CustomerID: &to, Version: site.Version})
	require.NoError(t, err)
	assert.Equal(t, to, moved.CustomerID)

	_, err = svc.Update(ctx, tenant, uuid.New(), site.ID, transport.UpdateSiteRequest{Name: ptr("Old"), Version: site.Version})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestDeleteReportsOrphanedEquipment(t *testing.T) {
	svc := New(newMemRepo(), fakeDeleter{orphaned: 3}, &recordingAuditor{}, "NL", logger.NewNop())
	resp, err := svc.Delete(context.Background(), uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.EquipmentOrphaned)
}
