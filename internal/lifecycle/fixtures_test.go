package lifecycle

import (
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/logger"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func fixedClock(now time.Time) Clock {
	return Clock{Now: func() time.Time { return now }, Location: time.UTC}
}

type harness struct {
	store  *memStore
	audit  *recordingAuditor
	coord  *Coordinator
	rec    *Recorder
	reaper *ProvisionalReaper
	reconc *AgreementReconciler
	tenant uuid.UUID
	user   uuid.UUID
	today  time.Time
}

func newHarness() *harness {
	store := newMemStore()
	audit := &recordingAuditor{}
	clock := fixedClock(testNow)
	log := logger.NewNop()
	return &harness{
		store:  store,
		audit:  audit,
		coord:  NewCoordinator(store, audit, clock, log),
		rec:    NewRecorder(store, audit, clock, log),
		reaper: NewProvisionalReaper(store, audit, log),
		reconc: NewAgreementReconciler(store, audit, clock, log),
		tenant: uuid.New(),
		user:   uuid.New(),
		today:  domain.DateOf(testNow, time.UTC),
	}
}

func (h *harness) addCustomer(org uuid.UUID, status domain.AgreementStatus, contractEnd *time.Time) domain.Customer {
	c := domain.Customer{
		ID:              uuid.New(),
		OrganizationID:  org,
		Name:            "Customer " + uuid.NewString()[:8],
		AgreementStatus: status,
		ContractEndDate: contractEnd,
		Version:         1,
	}
	h.store.state.customers[c.ID] = c
	return c
}

func (h *harness) addSite(customer domain.Customer) domain.Site {
	s := domain.Site{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		OrganizationID: customer.OrganizationID,
		Name:           "Site " + uuid.NewString()[:8],
		Version:        1,
	}
	h.store.state.sites[s.ID] = s
	return s
}

type equipmentOption func(e *domain.Equipment)

func atSite(site domain.Site) equipmentOption {
	return func(e *domain.Equipment) { e.Owner = domain.SitedOwned{SiteID: site.ID} }
}

func withAssetID(id string) equipmentOption {
	return func(e *domain.Equipment) { e.CustAssetID = &id }
}

func withNextService(d time.Time) equipmentOption {
	return func(e *domain.Equipment) { e.NextService = &d }
}

func withAgreement(s domain.AgreementStatus) equipmentOption {
	return func(e *domain.Equipment) { e.AgreementStatus = s }
}

func provisionalUntil(at time.Time) equipmentOption {
	return func(e *domain.Equipment) {
		e.Provisional = true
		e.ProvisionalExpiresAt = &at
	}
}

func deleted(at time.Time) equipmentOption {
	return func(e *domain.Equipment) { e.Deletion = domain.DeletedAt(at) }
}

func (h *harness) addEquipment(org uuid.UUID, opts ...equipmentOption) domain.Equipment {
	serial := "SN-" + uuid.NewString()[:8]
	e := domain.Equipment{
		ID:              uuid.New(),
		OrganizationID:  org,
		Owner:           domain.Owned{OrganizationID: org},
		SerialNumber:    serial,
		QRCodeValue:     serial,
		AgreementStatus: domain.AgreementCovered,
		LifecycleStatus: domain.LifecycleActive,
		ServiceCycle:    domain.CycleQuarterly,
		Version:         1,
	}
	for _, opt := range opts {
		opt(&e)
	}
	h.store.state.equipment[e.ID] = e
	return e
}

func (h *harness) addRecord(equipmentID uuid.UUID) {
	h.store.state.records = append(h.store.state.records, domain.ServiceRecord{
		ID:          uuid.New(),
		EquipmentID: equipmentID,
		ServicedBy:  h.user,
		ServicedAt:  testNow.Add(-48 * time.Hour),
	})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
