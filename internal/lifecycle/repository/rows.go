package repository

import (
	"time"

	"compliance_backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Column lists shared with the module repositories that read the same tables.
// Equipment columns use alias e, sites s, customers c.
const (
	CustomerColumns = `c.id, c.organization_id, c.name, c.agreement_status, c.contract_end_date,
		c.version, c.deleted_at, c.created_at, c.updated_at`

	SiteColumns = `s.id, s.customer_id, c.organization_id, s.name, s.address, s.contact_name,
		s.contact_phone, s.metadata, s.version, s.deleted_at, s.created_at, s.updated_at`

	EquipmentColumns = `e.id, e.organization_id, e.site_id, e.equipment_type_id, e.serial_number,
		e.cust_asset_id, e.qr_code_value, e.agreement_status, e.lifecycle_status, e.service_cycle,
		e.last_service, e.next_service, e.next_service_override, e.provisional,
		e.provisional_expires_at, e.predecessor_id, e.version, e.deleted_at, e.created_at, e.updated_at`

	// SnapshotColumns adds the agreement of the customer behind the linked site.
	// Requires LEFT JOIN sites s ON s.id = e.site_id LEFT JOIN customers c ON c.id = s.customer_id.
	SnapshotColumns = EquipmentColumns + `, c.agreement_status`

	SnapshotFrom = `equipment e
		LEFT JOIN sites s ON s.id = e.site_id
		LEFT JOIN customers c ON c.id = s.customer_id`
)

// ScanCustomer reads one row selected with CustomerColumns.
func ScanCustomer(row pgx.Row) (domain.Customer, error) {
	var (
		c         domain.Customer
		status    string
		deletedAt *time.Time
	)
	if err := row.Scan(
		&c.ID, &c.OrganizationID, &c.Name, &status, &c.ContractEndDate,
		&c.Version, &deletedAt, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Customer{}, err
	}
	c.AgreementStatus = domain.AgreementStatus(status)
	c.Deletion = domain.DeletionFromColumn(deletedAt)
	return c, nil
}

// ScanSite reads one row selected with SiteColumns.
func ScanSite(row pgx.Row) (domain.Site, error) {
	var (
		s         domain.Site
		deletedAt *time.Time
	)
	if err := row.Scan(
		&s.ID, &s.CustomerID, &s.OrganizationID, &s.Name, &s.Address, &s.ContactName,
		&s.ContactPhone, &s.Metadata, &s.Version, &deletedAt, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return domain.Site{}, err
	}
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}
	s.Deletion = domain.DeletionFromColumn(deletedAt)
	return s, nil
}

// ScanEquipment reads one row selected with EquipmentColumns.
func ScanEquipment(row pgx.Row) (domain.Equipment, error) {
	return scanEquipment(row)
}

// ScanSnapshot reads one row selected with SnapshotColumns.
func ScanSnapshot(row pgx.Row) (domain.Snapshot, error) {
	var agreement *string
	e, err := scanEquipment(row, &agreement)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap := domain.Snapshot{Equipment: e}
	if agreement != nil {
		status := domain.AgreementStatus(*agreement)
		snap.CustomerAgreement = &status
	}
	return snap, nil
}

func scanEquipment(row pgx.Row, extra ...any) (domain.Equipment, error) {
	var (
		e                           domain.Equipment
		siteID                      *uuid.UUID
		agreement, lifecycle, cycle string
		deletedAt                   *time.Time
	)
	dest := []any{
		&e.ID, &e.OrganizationID, &siteID, &e.EquipmentTypeID, &e.SerialNumber,
		&e.CustAssetID, &e.QRCodeValue, &agreement, &lifecycle, &cycle,
		&e.LastService, &e.NextService, &e.NextServiceOverride, &e.Provisional,
		&e.ProvisionalExpiresAt, &e.PredecessorID, &e.Version, &deletedAt, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Equipment{}, err
	}
	e.Owner = domain.OwnershipFromColumns(e.OrganizationID, siteID)
	e.AgreementStatus = domain.AgreementStatus(agreement)
	e.LifecycleStatus = domain.LifecycleStatus(lifecycle)
	e.ServiceCycle = domain.ServiceCycle(cycle)
	e.Deletion = domain.DeletionFromColumn(deletedAt)
	return e, nil
}

// SiteColumn maps the ownership variant to the nullable site_id column.
func SiteColumn(o domain.Ownership) *uuid.UUID {
	if id, ok := domain.SiteOf(o); ok {
		return &id
	}
	return nil
}

// CollectEquipment drains rows selected with EquipmentColumns.
func CollectEquipment(rows pgx.Rows) ([]domain.Equipment, error) {
	defer rows.Close()
	var out []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CollectSnapshots drains rows selected with SnapshotColumns.
func CollectSnapshots(rows pgx.Rows) ([]domain.Snapshot, error) {
	defer rows.Close()
	var out []domain.Snapshot
	for rows.Next() {
		s, err := ScanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
