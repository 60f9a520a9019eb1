package lifecycle

import (
	"context"
	"testing"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCustomerCascadesToSitesAndOrphansEquipment(t *testing.T) {
	h := newHarness()
	customer := h.addCustomer(h.tenant, domain.AgreementCovered, nil)
	siteA := h.addSite(customer)
	siteB := h.addSite(customer)

	var items []domain.Equipment
	for i := 0; i < 3; i++ {
		items = append(items, h.addEquipment(h.tenant, atSite(siteA)))
	}
	for i := 0; i < 2; i++ {
		items = append(items, h.addEquipment(h.tenant, atSite(siteB)))
	}

	n, err := h.coord.DeleteCustomer(context.Background(), h.tenant, h.user, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, h.store.customer(customer.ID).Deletion.IsDeleted())
	assert.True(t, h.store.site(siteA.ID).Deletion.IsDeleted())
	assert.True(t, h.store.site(siteB.ID).Deletion.IsDeleted())

	for _, item := range items {
		e, ok := h.store.equipment(item.ID)
		require.True(t, ok)
		assert.False(t, e.Deletion.IsDeleted(), "equipment must survive the cascade")
		assert.Equal(t, domain.Owned{OrganizationID: h.tenant}, e.Owner)
	}

	entry := h.audit.last()
	assert.Equal(t, ActionCustomerDeleted, entry.Action)
	assert.Equal(t, "Cascaded soft-delete to 2 sites", entry.Details)
	assert.Equal(t, h.user, entry.UserID)
}

func TestDeleteCustomerOfOtherTenantIsNotFound(t *testing.T) {
	h := newHarness()
	other := h.addCustomer(uuid.New(), domain.AgreementCovered, nil)
	site := h.addSite(other)

	_, err := h.coord.DeleteCustomer(context.Background(), h.tenant, h.user, other.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.False(t, h.store.customer(other.ID).Deletion.IsDeleted())
	assert.False(t, h.store.site(site.ID).Deletion.IsDeleted())
	assert.Empty(t, h.audit.actions())
}

func TestDeleteCustomerTwiceIsNotFound(t *testing.T) {
	h := newHarness()
	customer := h.addCustomer(h.tenant, domain.AgreementCovered, nil)

	_, err := h.coord.DeleteCustomer(context.Background(), h.tenant, h.user, customer.ID)
	require.NoError(t, err)

	_, err = h.coord.DeleteCustomer(context.Background(), h.tenant, h.user, customer.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteSiteOrphansEquipmentOnly(t *testing.T) {
	h := newHarness()
	customer := h.addCustomer(h.tenant, domain.AgreementCovered, nil)
	site := h.addSite(customer)
	kept := h.addSite(customer)
	a := h.addEquipment(h.tenant, atSite(site))
	b := h.addEquipment(h.tenant, atSite(kept))

	n, err := h.coord.DeleteSite(context.Background(), h.tenant, h.user, site.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.False(t, h.store.customer(customer.ID).Deletion.IsDeleted())
	orphaned, _ := h.store.equipment(a.ID)
	assert.Equal(t, domain.Owned{OrganizationID: h.tenant}, orphaned.Owner)
	untouched, _ := h.store.equipment(b.ID)
	assert.Equal(t, domain.SitedOwned{SiteID: kept.ID}, untouched.Owner)
	assert.Equal(t, "Orphaned 1 equipment", h.audit.last().Details)
}

func TestDeleteEquipmentDoesNotCascade(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant)
	h.addRecord(e.ID)

	require.NoError(t, h.coord.DeleteEquipment(context.Background(), h.tenant, h.user, e.ID))

	stored, ok := h.store.equipment(e.ID)
	require.True(t, ok)
	assert.True(t, stored.Deletion.IsDeleted())
	assert.Equal(t, 1, h.store.recordsFor(e.ID))

	err := h.coord.DeleteEquipment(context.Background(), h.tenant, h.user, e.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAssetIDCollisionLinksPredecessor(t *testing.T) {
	h := newHarness()
	holder := h.addEquipment(h.tenant, withAssetID("ASSET-7"))
	h.addRecord(holder.ID)
	successor := h.addEquipment(h.tenant)

	snap, err := h.coord.UpdateEquipmentAssetID(context.Background(), h.tenant, h.user, successor.ID, "ASSET-7")
	require.NoError(t, err)

	require.NotNil(t, snap.Equipment.PredecessorID)
	assert.Equal(t, holder.ID, *snap.Equipment.PredecessorID)
	assert.Equal(t, "ASSET-7", *snap.Equipment.CustAssetID)

	old, _ := h.store.equipment(holder.ID)
	assert.True(t, old.Deletion.IsDeleted())
	assert.Equal(t, 1, h.store.recordsFor(holder.ID), "history stays with the predecessor")
	assert.Zero(t, h.store.recordsFor(successor.ID))
	assert.Equal(t, []string{ActionEquipmentPredecessorLinked, ActionEquipmentUpdated}, h.audit.actions())
	assert.Equal(t, "Replaced "+holder.ID.String(), h.audit.entries[0].Details)

	// repeating the same update changes nothing further
	again, err := h.coord.UpdateEquipmentAssetID(context.Background(), h.tenant, h.user, successor.ID, "ASSET-7")
	require.NoError(t, err)
	assert.Equal(t, holder.ID, *again.Equipment.PredecessorID)
	assert.Equal(t, []string{ActionEquipmentPredecessorLinked, ActionEquipmentUpdated, ActionEquipmentUpdated}, h.audit.actions())
}

func TestAssetIDCollisionIgnoresOtherTenants(t *testing.T) {
	h := newHarness()
	foreign := h.addEquipment(uuid.New(), withAssetID("ASSET-7"))
	mine := h.addEquipment(h.tenant)

	snap, err := h.coord.UpdateEquipmentAssetID(context.Background(), h.tenant, h.user, mine.ID, "ASSET-7")
	require.NoError(t, err)
	assert.Nil(t, snap.Equipment.PredecessorID)

	other, _ := h.store.equipment(foreign.ID)
	assert.False(t, other.Deletion.IsDeleted())
}

func TestEmptyAssetIDClearsIt(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant, withAssetID("ASSET-1"))

	snap, err := h.coord.UpdateEquipmentAssetID(context.Background(), h.tenant, h.user, e.ID, "  ")
	require.NoError(t, err)
	assert.Nil(t, snap.Equipment.CustAssetID)
}

func TestUpdateDeletedEquipmentIsNotFound(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant, deleted(testNow))

	_, err := h.coord.UpdateEquipment(context.Background(), h.tenant, h.user, e.ID, EquipmentPatch{QRCodeValue: ptr("QR")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateWithStaleVersionConflicts(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant)

	_, err := h.coord.UpdateEquipment(context.Background(), h.tenant, h.user, e.ID, EquipmentPatch{
		ExpectedVersion: ptr(e.Version + 1),
		QRCodeValue:     ptr("QR"),
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	stored, _ := h.store.equipment(e.ID)
	assert.Equal(t, e.QRCodeValue, stored.QRCodeValue)
}

func TestUpdateRejectsSiteOfOtherTenant(t *testing.T) {
	h := newHarness()
	foreignSite := h.addSite(h.addCustomer(uuid.New(), domain.AgreementCovered, nil))
	e := h.addEquipment(h.tenant)

	_, err := h.coord.UpdateEquipment(context.Background(), h.tenant, h.user, e.ID, EquipmentPatch{SiteID: &foreignSite.ID})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	stored, _ := h.store.equipment(e.ID)
	assert.Equal(t, domain.Owned{OrganizationID: h.tenant}, stored.Owner)
}

func TestUpdatePinsNextServiceAndFallsBackToSerialForQR(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant, provisionalUntil(testNow.AddDate(0, 0, 5)))
	pinned := date(2026, 7, 1)

	snap, err := h.coord.UpdateEquipment(context.Background(), h.tenant, h.user, e.ID, EquipmentPatch{
		NextService: &pinned,
		QRCodeValue: ptr(""),
		Formalize:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, pinned, *snap.Equipment.NextService)
	assert.True(t, snap.Equipment.NextServiceOverride)
	assert.Equal(t, e.SerialNumber, snap.Equipment.QRCodeValue)
	assert.False(t, snap.Equipment.Provisional)
	assert.Nil(t, snap.Equipment.ProvisionalExpiresAt)
}

func TestUpdateRejectsUnknownEquipmentType(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant)

	_, err := h.coord.UpdateEquipment(context.Background(), h.tenant, h.user, e.ID, EquipmentPatch{EquipmentTypeID: ptr(uuid.New())})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBulkDeleteCountsDuplicatesOnceAndForeignAsFailure(t *testing.T) {
	h := newHarness()
	a := h.addEquipment(h.tenant)
	b := h.addEquipment(h.tenant)
	foreign := h.addEquipment(uuid.New())

	res, err := h.coord.BulkDelete(context.Background(), h.tenant, h.user, []uuid.UUID{a.ID, b.ID, a.ID, foreign.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 2, res.Failure)
	assert.Equal(t, "Successfully deleted 2 equipment", res.Message)

	untouched, _ := h.store.equipment(foreign.ID)
	assert.False(t, untouched.Deletion.IsDeleted())
	assert.Equal(t, "Deleted 2 items", h.audit.last().Details)
}

func TestBulkUpdateCycleLeavesNextServiceAlone(t *testing.T) {
	h := newHarness()
	next := date(2026, 4, 1)
	e := h.addEquipment(h.tenant, withNextService(next))

	res, err := h.coord.BulkUpdateCycle(context.Background(), h.tenant, h.user, []uuid.UUID{e.ID}, domain.CycleAnnually)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	stored, _ := h.store.equipment(e.ID)
	assert.Equal(t, domain.CycleAnnually, stored.ServiceCycle)
	assert.Equal(t, next, *stored.NextService)
	assert.Equal(t, "Updated 1 items to ANNUALLY", h.audit.last().Details)
}

func TestBulkUpdateAgreementRejectsUnknownStatus(t *testing.T) {
	h := newHarness()
	e := h.addEquipment(h.tenant)

	_, err := h.coord.BulkUpdateAgreement(context.Background(), h.tenant, h.user, []uuid.UUID{e.ID}, domain.AgreementStatus("EXPIRED"))
	assert.True(t, apperr.Is(err, apperr.KindBusinessRule))
}

func TestBulkWithoutIDsIsValidationError(t *testing.T) {
	h := newHarness()
	_, err := h.coord.BulkDelete(context.Background(), h.tenant, h.user, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
