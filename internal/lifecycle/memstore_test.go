package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"

	"github.com/google/uuid"
)

// memState is a copy-on-begin snapshot; a failed transaction simply drops its copy.
type memState struct {
	customers map[uuid.UUID]domain.Customer
	sites     map[uuid.UUID]domain.Site
	equipment map[uuid.UUID]domain.Equipment
	types     map[uuid.UUID]domain.EquipmentType
	records   []domain.ServiceRecord
}

func (s memState) clone() memState {
	out := memState{
		customers: make(map[uuid.UUID]domain.Customer, len(s.customers)),
		sites:     make(map[uuid.UUID]domain.Site, len(s.sites)),
		equipment: make(map[uuid.UUID]domain.Equipment, len(s.equipment)),
		types:     make(map[uuid.UUID]domain.EquipmentType, len(s.types)),
		records:   append([]domain.ServiceRecord(nil), s.records...),
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.sites {
		out.sites[k] = v
	}
	for k, v := range s.equipment {
		out.equipment[k] = v
	}
	for k, v := range s.types {
		out.types[k] = v
	}
	return out
}

type memStore struct {
	mu    sync.Mutex
	state memState
	txs   int
	// wrap, when set, decorates every transaction so tests can fail single steps.
	wrap func(Tx) Tx
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		customers: map[uuid.UUID]domain.Customer{},
		sites:     map[uuid.UUID]domain.Site{},
		equipment: map[uuid.UUID]domain.Equipment{},
		types:     map[uuid.UUID]domain.EquipmentType{},
	}}
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++

	work := m.state.clone()
	var tx Tx = &memTx{s: &work}
	if m.wrap != nil {
		tx = m.wrap(tx)
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) FindProvisionalExpiredBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, e := range m.state.equipment {
		if e.ProvisionalExpired(cutoff) {
			ids = append(ids, id)
		}
	}
	return sortIDs(ids), nil
}

func (m *memStore) FindByAgreementStatusAndContractEndBefore(_ context.Context, status domain.AgreementStatus, date time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id, c := range m.state.customers {
		if c.Deletion.IsDeleted() || c.AgreementStatus != status || c.ContractEndDate == nil {
			continue
		}
		if c.ContractEndDate.Before(date) {
			ids = append(ids, id)
		}
	}
	return sortIDs(ids), nil
}

func (m *memStore) customer(id uuid.UUID) domain.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.customers[id]
}

func (m *memStore) site(id uuid.UUID) domain.Site {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.sites[id]
}

func (m *memStore) equipment(id uuid.UUID) (domain.Equipment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.equipment[id]
	return e, ok
}

func (m *memStore) recordsFor(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.state.records {
		if r.EquipmentID == id {
			n++
		}
	}
	return n
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

type memTx struct {
	s *memState
}

func (t *memTx) SiteOrganization(_ context.Context, siteID uuid.UUID) (uuid.UUID, error) {
	site, ok := t.s.sites[siteID]
	if !ok || site.Deletion.IsDeleted() {
		return uuid.Nil, apperr.NotFound(msgSiteNotFound)
	}
	return t.s.customers[site.CustomerID].OrganizationID, nil
}

func (t *memTx) CustomerByID(_ context.Context, tenantID, id uuid.UUID) (domain.Customer, error) {
	c, ok := t.s.customers[id]
	if !ok || c.OrganizationID != tenantID {
		return domain.Customer{}, apperr.NotFound(msgCustomerNotFound)
	}
	return c, nil
}

func (t *memTx) CustomerByIDAnyTenant(_ context.Context, id uuid.UUID) (domain.Customer, error) {
	c, ok := t.s.customers[id]
	if !ok {
		return domain.Customer{}, apperr.NotFound(msgCustomerNotFound)
	}
	return c, nil
}

func (t *memTx) SaveCustomer(_ context.Context, c *domain.Customer) error {
	if t.s.customers[c.ID].Version != c.Version {
		return apperr.Conflict("customer was modified by another request")
	}
	c.Version++
	t.s.customers[c.ID] = *c
	return nil
}

func (t *memTx) SiteByID(_ context.Context, tenantID, id uuid.UUID) (domain.Site, error) {
	s, ok := t.s.sites[id]
	if !ok || t.s.customers[s.CustomerID].OrganizationID != tenantID {
		return domain.Site{}, apperr.NotFound(msgSiteNotFound)
	}
	return s, nil
}

func (t *memTx) ActiveSitesByCustomer(_ context.Context, customerID uuid.UUID) ([]domain.Site, error) {
	var out []domain.Site
	for _, s := range t.s.sites {
		if s.CustomerID == customerID && !s.Deletion.IsDeleted() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) SaveSite(_ context.Context, s *domain.Site) error {
	if t.s.sites[s.ID].Version != s.Version {
		return apperr.Conflict("site was modified by another request")
	}
	s.Version++
	t.s.sites[s.ID] = *s
	return nil
}

func (t *memTx) EquipmentByID(_ context.Context, tenantID, id uuid.UUID) (domain.Snapshot, error) {
	e, ok := t.s.equipment[id]
	if !ok || e.OrganizationID != tenantID {
		return domain.Snapshot{}, apperr.NotFound(msgEquipmentNotFound)
	}
	snap := domain.Snapshot{Equipment: e}
	if siteID, linked := domain.SiteOf(e.Owner); linked {
		status := t.s.customers[t.s.sites[siteID].CustomerID].AgreementStatus
		snap.CustomerAgreement = &status
	}
	return snap, nil
}

func (t *memTx) EquipmentByIDAnyTenant(_ context.Context, id uuid.UUID) (domain.Equipment, error) {
	e, ok := t.s.equipment[id]
	if !ok {
		return domain.Equipment{}, apperr.NotFound(msgEquipmentNotFound)
	}
	return e, nil
}

func (t *memTx) ActiveEquipmentByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Equipment, error) {
	var out []domain.Equipment
	for _, id := range ids {
		e, ok := t.s.equipment[id]
		if ok && e.OrganizationID == tenantID && !e.Deletion.IsDeleted() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memTx) ActiveEquipmentByAssetID(_ context.Context, tenantID uuid.UUID, assetID string) (domain.Equipment, bool, error) {
	for _, e := range t.s.equipment {
		if e.OrganizationID == tenantID && !e.Deletion.IsDeleted() && e.CustAssetID != nil && *e.CustAssetID == assetID {
			return e, true, nil
		}
	}
	return domain.Equipment{}, false, nil
}

func (t *memTx) EquipmentTypeExists(_ context.Context, tenantID, id uuid.UUID) (bool, error) {
	et, ok := t.s.types[id]
	return ok && et.OrganizationID == tenantID, nil
}

func (t *memTx) OrphanEquipmentBySite(_ context.Context, siteID uuid.UUID) (int, error) {
	n := 0
	for id, e := range t.s.equipment {
		if s, linked := domain.SiteOf(e.Owner); linked && s == siteID {
			e.Orphan()
			e.Version++
			t.s.equipment[id] = e
			n++
		}
	}
	return n, nil
}

func (t *memTx) SaveEquipment(_ context.Context, e *domain.Equipment) error {
	if t.s.equipment[e.ID].Version != e.Version {
		return apperr.Conflict(msgStaleVersion)
	}
	if !e.Deletion.IsDeleted() {
		for _, other := range t.s.equipment {
			if other.ID == e.ID || other.OrganizationID != e.OrganizationID || other.Deletion.IsDeleted() {
				continue
			}
			if other.SerialNumber == e.SerialNumber {
				return apperr.BusinessRule("serial number already in use")
			}
			if e.CustAssetID != nil && other.CustAssetID != nil && *other.CustAssetID == *e.CustAssetID {
				return apperr.BusinessRule("asset id already in use")
			}
		}
	}
	e.Version++
	t.s.equipment[e.ID] = *e
	return nil
}

func (t *memTx) HardDeleteEquipment(_ context.Context, id uuid.UUID) error {
	for otherID, other := range t.s.equipment {
		if other.PredecessorID != nil && *other.PredecessorID == id {
			other.PredecessorID = nil
			t.s.equipment[otherID] = other
		}
	}
	delete(t.s.equipment, id)
	return nil
}

func (t *memTx) InsertServiceRecord(_ context.Context, r domain.ServiceRecord) error {
	t.s.records = append(t.s.records, r)
	return nil
}

func (t *memTx) DeleteServiceRecordsByEquipment(_ context.Context, equipmentID uuid.UUID) (int, error) {
	kept := t.s.records[:0]
	removed := 0
	for _, r := range t.s.records {
		if r.EquipmentID == equipmentID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	t.s.records = kept
	return removed, nil
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *recordingAuditor) Record(_ context.Context, entry domain.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func (a *recordingAuditor) last() domain.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[len(a.entries)-1]
}

var _ Store = (*memStore)(nil)
var _ Tx = (*memTx)(nil)
