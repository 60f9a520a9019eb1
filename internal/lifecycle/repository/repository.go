// Package repository is the Postgres implementation of the lifecycle store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/internal/lifecycle"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	customerNotFoundMessage  = "customer not found"
	siteNotFoundMessage      = "site not found"
	equipmentNotFoundMessage = "equipment not found"
	staleRowMessage          = "%s was modified by another request"
)

// Constraint names from the schema, mapped to readable business errors.
const (
	ConstraintEquipmentSerial = "equipment_org_serial_active_uq"
	ConstraintEquipmentAsset  = "equipment_org_asset_active_uq"
	ConstraintCustomerName    = "customers_org_name_active_uq"
	ConstraintSiteName        = "sites_customer_name_active_uq"
	ConstraintTypeName        = "equipment_types_org_name_uq"
)

// MapUniqueViolation turns a unique index violation into a business-rule error.
// Other errors are returned unchanged.
func MapUniqueViolation(err error) error {
	if !db.IsUniqueViolation(err) {
		return err
	}
	switch db.ConstraintName(err) {
	case ConstraintEquipmentSerial:
		return apperr.BusinessRule("serial number already in use")
	case ConstraintEquipmentAsset:
		return apperr.BusinessRule("asset id already in use")
	case ConstraintCustomerName:
		return apperr.BusinessRule("customer name already in use")
	case ConstraintSiteName:
		return apperr.BusinessRule("site name already in use for this customer")
	case ConstraintTypeName:
		return apperr.BusinessRule("equipment type name already in use")
	default:
		return apperr.BusinessRule("duplicate value")
	}
}

// Repo implements lifecycle.Store on a pgx pool.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a lifecycle store.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time checks.
var (
	_ lifecycle.Store = (*Repo)(nil)
	_ lifecycle.Tx    = (*txRepo)(nil)
)

// InTx runs fn in a read-committed transaction.
func (r *Repo) InTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepo{tx: tx})
	})
}

const findProvisionalExpiredQuery = `
		SELECT id FROM equipment
		WHERE provisional = true AND provisional_expires_at < $1
		ORDER BY provisional_expires_at, id`

func (r *Repo) FindProvisionalExpiredBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, findProvisionalExpiredQuery, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find expired provisional equipment: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

const findLapsedAgreementsQuery = `
		SELECT id FROM customers
		WHERE agreement_status = $1
			AND contract_end_date < $2
			AND deleted_at IS NULL
		ORDER BY contract_end_date, id`

func (r *Repo) FindByAgreementStatusAndContractEndBefore(ctx context.Context, status domain.AgreementStatus, date time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, findLapsedAgreementsQuery, string(status), date)
	if err != nil {
		return nil, fmt.Errorf("find lapsed agreements: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

type txRepo struct {
	tx pgx.Tx
}

// SiteOrganization share-locks the site so a concurrent DeleteSite cannot orphan
// equipment before this transaction has attached it.
func (t *txRepo) SiteOrganization(ctx context.Context, siteID uuid.UUID) (uuid.UUID, error) {
	return LockActiveSite(ctx, t.tx, siteID)
}

// Customers

const customerByIDQuery = `SELECT ` + CustomerColumns + `
		FROM customers c
		WHERE c.id = $1 AND c.organization_id = $2
		FOR UPDATE`

const customerByIDAnyTenantQuery = `SELECT ` + CustomerColumns + `
		FROM customers c
		WHERE c.id = $1
		FOR UPDATE`

func (t *txRepo) CustomerByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Customer, error) {
	return t.customer(ctx, customerByIDQuery, id, tenantID)
}

func (t *txRepo) CustomerByIDAnyTenant(ctx context.Context, id uuid.UUID) (domain.Customer, error) {
	return t.customer(ctx, customerByIDAnyTenantQuery, id)
}

func (t *txRepo) customer(ctx context.Context, query string, args ...any) (domain.Customer, error) {
	c, err := ScanCustomer(t.tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return domain.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

const saveCustomerQuery = `
		UPDATE customers
		SET name = $3,
			agreement_status = $4,
			contract_end_date = $5,
			deleted_at = $6,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

func (t *txRepo) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	err := t.tx.QueryRow(ctx, saveCustomerQuery,
		c.ID, c.Version, c.Name, string(c.AgreementStatus), c.ContractEndDate, c.Deletion.Column(),
	).Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.Conflict(fmt.Sprintf(staleRowMessage, "customer"))
		}
		if db.IsUniqueViolation(err) {
			return MapUniqueViolation(err)
		}
		return fmt.Errorf("save customer: %w", err)
	}
	return nil
}

// Sites

const siteByIDQuery = `SELECT ` + SiteColumns + `
		FROM sites s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1 AND c.organization_id = $2
		FOR UPDATE OF s`

func (t *txRepo) SiteByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Site, error) {
	s, err := ScanSite(t.tx.QueryRow(ctx, siteByIDQuery, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Site{}, apperr.NotFound(siteNotFoundMessage)
		}
		return domain.Site{}, fmt.Errorf("get site: %w", err)
	}
	return s, nil
}

const activeSitesByCustomerQuery = `SELECT ` + SiteColumns + `
		FROM sites s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.customer_id = $1 AND s.deleted_at IS NULL
		ORDER BY s.name
		FOR UPDATE OF s`

func (t *txRepo) ActiveSitesByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Site, error) {
	rows, err := t.tx.Query(ctx, activeSitesByCustomerQuery, customerID)
	if err != nil {
		return nil, fmt.Errorf("list active sites: %w", err)
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		s, err := ScanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

const saveSiteQuery = `
		UPDATE sites
		SET name = $3,
			address = $4,
			contact_name = $5,
			contact_phone = $6,
			metadata = $7,
			deleted_at = $8,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

func (t *txRepo) SaveSite(ctx context.Context, s *domain.Site) error {
	metadata := s.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	err := t.tx.QueryRow(ctx, saveSiteQuery,
		s.ID, s.Version, s.Name, s.Address, s.ContactName, s.ContactPhone, metadata, s.Deletion.Column(),
	).Scan(&s.Version, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.Conflict(fmt.Sprintf(staleRowMessage, "site"))
		}
		if db.IsUniqueViolation(err) {
			return MapUniqueViolation(err)
		}
		return fmt.Errorf("save site: %w", err)
	}
	return nil
}

// Equipment

const equipmentByIDQuery = `SELECT ` + SnapshotColumns + `
		FROM ` + SnapshotFrom + `
		WHERE e.id = $1 AND e.organization_id = $2
		FOR UPDATE OF e`

func (t *txRepo) EquipmentByID(ctx context.Context, tenantID, id uuid.UUID) (domain.Snapshot, error) {
	snap, err := ScanSnapshot(t.tx.QueryRow(ctx, equipmentByIDQuery, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, apperr.NotFound(equipmentNotFoundMessage)
		}
		return domain.Snapshot{}, fmt.Errorf("get equipment: %w", err)
	}
	return snap, nil
}

const equipmentByIDAnyTenantQuery = `SELECT ` + EquipmentColumns + `
		FROM equipment e
		WHERE e.id = $1
		FOR UPDATE`

func (t *txRepo) EquipmentByIDAnyTenant(ctx context.Context, id uuid.UUID) (domain.Equipment, error) {
	e, err := ScanEquipment(t.tx.QueryRow(ctx, equipmentByIDAnyTenantQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Equipment{}, apperr.NotFound(equipmentNotFoundMessage)
		}
		return domain.Equipment{}, fmt.Errorf("get equipment: %w", err)
	}
	return e, nil
}

const activeEquipmentByIDsQuery = `SELECT ` + EquipmentColumns + `
		FROM equipment e
		WHERE e.organization_id = $1 AND e.id = ANY($2) AND e.deleted_at IS NULL
		ORDER BY e.id
		FOR UPDATE`

func (t *txRepo) ActiveEquipmentByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Equipment, error) {
	rows, err := t.tx.Query(ctx, activeEquipmentByIDsQuery, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("list equipment by ids: %w", err)
	}
	items, err := CollectEquipment(rows)
	if err != nil {
		return nil, fmt.Errorf("scan equipment: %w", err)
	}
	return items, nil
}

const activeEquipmentByAssetIDQuery = `SELECT ` + EquipmentColumns + `
		FROM equipment e
		WHERE e.organization_id = $1 AND e.cust_asset_id = $2 AND e.deleted_at IS NULL
		FOR UPDATE`

func (t *txRepo) ActiveEquipmentByAssetID(ctx context.Context, tenantID uuid.UUID, assetID string) (domain.Equipment, bool, error) {
	e, err := ScanEquipment(t.tx.QueryRow(ctx, activeEquipmentByAssetIDQuery, tenantID, assetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Equipment{}, false, nil
		}
		return domain.Equipment{}, false, fmt.Errorf("find equipment by asset id: %w", err)
	}
	return e, true, nil
}

func (t *txRepo) EquipmentTypeExists(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment_types WHERE id = $1 AND organization_id = $2)`,
		id, tenantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check equipment type: %w", err)
	}
	return exists, nil
}

const orphanEquipmentBySiteQuery = `
		UPDATE equipment
		SET site_id = NULL, version = version + 1, updated_at = now()
		WHERE site_id = $1`

func (t *txRepo) OrphanEquipmentBySite(ctx context.Context, siteID uuid.UUID) (int, error) {
	tag, err := t.tx.Exec(ctx, orphanEquipmentBySiteQuery, siteID)
	if err != nil {
		return 0, fmt.Errorf("orphan equipment: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const saveEquipmentQuery = `
		UPDATE equipment
		SET site_id = $3,
			equipment_type_id = $4,
			serial_number = $5,
			cust_asset_id = $6,
			qr_code_value = $7,
			agreement_status = $8,
			lifecycle_status = $9,
			service_cycle = $10,
			last_service = $11,
			next_service = $12,
			next_service_override = $13,
			provisional = $14,
			provisional_expires_at = $15,
			predecessor_id = $16,
			deleted_at = $17,
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

func (t *txRepo) SaveEquipment(ctx context.Context, e *domain.Equipment) error {
	err := t.tx.QueryRow(ctx, saveEquipmentQuery,
		e.ID, e.Version, SiteColumn(e.Owner), e.EquipmentTypeID, e.SerialNumber,
		e.CustAssetID, e.QRCodeValue, string(e.AgreementStatus), string(e.LifecycleStatus), string(e.ServiceCycle),
		e.LastService, e.NextService, e.NextServiceOverride, e.Provisional,
		e.ProvisionalExpiresAt, e.PredecessorID, e.Deletion.Column(),
	).Scan(&e.Version, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.Conflict(fmt.Sprintf(staleRowMessage, "equipment"))
		}
		if db.IsUniqueViolation(err) {
			return MapUniqueViolation(err)
		}
		return fmt.Errorf("save equipment: %w", err)
	}
	return nil
}

func (t *txRepo) HardDeleteEquipment(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `UPDATE equipment SET predecessor_id = NULL WHERE predecessor_id = $1`, id); err != nil {
		return fmt.Errorf("clear predecessor links: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(equipmentNotFoundMessage)
	}
	return nil
}

// Service records

const insertServiceRecordQuery = `
		INSERT INTO service_records (id, equipment_id, serviced_by, serviced_at, reason_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

func (t *txRepo) InsertServiceRecord(ctx context.Context, r domain.ServiceRecord) error {
	var reason *string
	if r.ReasonCode != nil {
		v := string(*r.ReasonCode)
		reason = &v
	}
	if _, err := t.tx.Exec(ctx, insertServiceRecordQuery,
		r.ID, r.EquipmentID, r.ServicedBy, r.ServicedAt, reason, r.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert service record: %w", err)
	}
	return nil
}

func (t *txRepo) DeleteServiceRecordsByEquipment(ctx context.Context, equipmentID uuid.UUID) (int, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM service_records WHERE equipment_id = $1`, equipmentID)
	if err != nil {
		return 0, fmt.Errorf("delete service records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
