package lifecycle

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaperDeletesExpiredProvisionalEquipmentOnly(t *testing.T) {
	h := newHarness()
	expired := h.addEquipment(h.tenant, provisionalUntil(testNow.Add(-time.Minute)))
	h.addRecord(expired.ID)
	h.addRecord(expired.ID)
	fresh := h.addEquipment(h.tenant, provisionalUntil(testNow.Add(time.Hour)))
	formal := h.addEquipment(h.tenant)
	otherOrg := h.addEquipment(uuid.New(), provisionalUntil(testNow.Add(-24*time.Hour)))

	res, err := h.reaper.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Selected: 2, Processed: 2}, res)

	_, ok := h.store.equipment(expired.ID)
	assert.False(t, ok)
	_, ok = h.store.equipment(otherOrg.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, h.store.recordsFor(expired.ID))

	_, ok = h.store.equipment(fresh.ID)
	assert.True(t, ok)
	_, ok = h.store.equipment(formal.ID)
	assert.True(t, ok)

	assert.Equal(t, []string{ActionProvisionalPurged, ActionProvisionalPurged}, h.audit.actions())
	assert.Equal(t, uuid.Nil, h.audit.last().UserID)

	again, err := h.reaper.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, again)
}

func TestReaperExpiryIsStrict(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant, provisionalUntil(testNow))

	res, err := h.reaper.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	_, ok := h.store.equipment(e.ID)
	assert.True(t, ok)
}

func TestReaperClearsPredecessorLinks(t *testing.T) {
	h := newHarness()
	expired := h.addEquipment(h.tenant, provisionalUntil(testNow.Add(-time.Hour)), deleted(testNow.Add(-2*time.Hour)))
	successor := h.addEquipment(h.tenant)
	stored := h.store.state.equipment[successor.ID]
	stored.PredecessorID = &expired.ID
	h.store.state.equipment[successor.ID] = stored

	_, err := h.reaper.Run(context.Background(), testNow)
	require.NoError(t, err)

	after, _ := h.store.equipment(successor.ID)
	assert.Nil(t, after.PredecessorID)
}

// formalized between selection and deletion
type racingStore struct {
	*memStore
	formalize uuid.UUID
}

func (r *racingStore) FindProvisionalExpiredBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	ids, err := r.memStore.FindProvisionalExpiredBefore(ctx, cutoff)
	e := r.state.equipment[r.formalize]
	e.Provisional = false
	e.ProvisionalExpiresAt = nil
	r.state.equipment[r.formalize] = e
	return ids, err
}

func TestReaperSkipsRowsThatNoLongerMatch(t *testing.T) {
	h := newHarness()
	racing := h.addEquipment(h.tenant, provisionalUntil(testNow.Add(-time.Hour)))
	store := &racingStore{memStore: h.store, formalize: racing.ID}
	reaper := NewProvisionalReaper(store, h.audit, logger.NewNop())

	res, err := reaper.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Selected: 1, Skipped: 1}, res)
	_, ok := h.store.equipment(racing.ID)
	assert.True(t, ok)
	assert.Empty(t, h.audit.actions())
}

func TestReaperStopsOnCancellation(t *testing.T) {
	h := newHarness()
	h.addEquipment(h.tenant, provisionalUntil(testNow.Add(-time.Hour)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.reaper.Run(ctx, testNow)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Selected)
}

func TestReconcilerMovesLapsedContractsToPending(t *testing.T) {
	h := newHarness()
	lapsed := h.addCustomer(h.tenant, domain.AgreementCovered, ptr(h.today.AddDate(0, 0, -1)))
	endsToday := h.addCustomer(h.tenant, domain.AgreementCovered, ptr(h.today))
	noEnd := h.addCustomer(h.tenant, domain.AgreementCovered, nil)
	outOfScope := h.addCustomer(h.tenant, domain.AgreementOutOfScope, ptr(h.today.AddDate(0, -1, 0)))
	removed := h.addCustomer(h.tenant, domain.AgreementCovered, ptr(h.today.AddDate(0, 0, -10)))
	c := h.store.state.customers[removed.ID]
	c.Deletion = domain.DeletedAt(testNow)
	h.store.state.customers[removed.ID] = c

	res, err := h.reconc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Selected: 1, Processed: 1}, res)

	after := h.store.customer(lapsed.ID)
	assert.Equal(t, domain.AgreementPending, after.AgreementStatus)
	assert.Equal(t, *lapsed.ContractEndDate, *after.ContractEndDate)

	assert.Equal(t, domain.AgreementCovered, h.store.customer(endsToday.ID).AgreementStatus)
	assert.Equal(t, domain.AgreementCovered, h.store.customer(noEnd.ID).AgreementStatus)
	assert.Equal(t, domain.AgreementOutOfScope, h.store.customer(outOfScope.ID).AgreementStatus)
	assert.Equal(t, domain.AgreementCovered, h.store.customer(removed.ID).AgreementStatus)

	entry := h.audit.last()
	assert.Equal(t, ActionAgreementExpired, entry.Action)
	assert.Equal(t, "Contract ended 2026-03-09", entry.Details)

	again, err := h.reconc.Run(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Processed)
}

func TestReconcilerUsesBusinessTimeZone(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	h := newHarness()
	// 23:30 UTC on March 10 is already March 11 in Amsterdam
	now := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	reconciler := NewAgreementReconciler(h.store, h.audit, Clock{Now: func() time.Time { return now }, Location: amsterdam}, logger.NewNop())
	customer := h.addCustomer(h.tenant, domain.AgreementCovered, ptr(date(2026, 3, 10)))

	res, err := reconciler.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, domain.AgreementPending, h.store.customer(customer.ID).AgreementStatus)
}
