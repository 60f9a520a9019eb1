package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"compliance_backend/internal/domain"
	lrepo "compliance_backend/internal/lifecycle/repository"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	equipmentNotFoundMessage = "equipment not found"
	siteNotFoundMessage      = "site not found"
)

// ListParams defines filters for listing equipment. Nil filters are ignored.
type ListParams struct {
	OrganizationID  uuid.UUID
	AgreementStatus *domain.AgreementStatus
	ServiceCycle    *domain.ServiceCycle
	LifecycleStatus *domain.LifecycleStatus
	NextServiceFrom *time.Time
	NextServiceTo   *time.Time
	Search          string
	CustomerID      *uuid.UUID
	SiteID          *uuid.UUID
	EquipmentTypeID *uuid.UUID
	OrphanedOnly    bool
	Offset          int
	Limit           int
	SortBy          string
	SortOrder       string
}

// Repository reads equipment together with the agreement of its customer, and inserts new rows.
// Updates and deletes go through the lifecycle engine.
type Repository interface {
	domain.SiteOrganizationLookup

	EquipmentTypeExists(ctx context.Context, organizationID, id uuid.UUID) (bool, error)
	Create(ctx context.Context, e domain.Equipment) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Snapshot, error)
	List(ctx context.Context, params ListParams) ([]domain.Snapshot, int, error)
	// FindByIdentifier matches serial number or asset id first, then QR value.
	FindByIdentifier(ctx context.Context, organizationID uuid.UUID, query string) (domain.Snapshot, error)
	ServiceRecords(ctx context.Context, equipmentID uuid.UUID) ([]domain.ServiceRecord, error)
	CountOrphaned(ctx context.Context, organizationID uuid.UUID) (int, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new equipment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const siteOrganizationQuery = `
		SELECT c.organization_id
		FROM sites s JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1 AND s.deleted_at IS NULL`

// SiteOrganization resolves the organization of a non-deleted site.
func (r *Repo) SiteOrganization(ctx context.Context, siteID uuid.UUID) (uuid.UUID, error) {
	var org uuid.UUID
	if err := r.pool.QueryRow(ctx, siteOrganizationQuery, siteID).Scan(&org); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperr.NotFound(siteNotFoundMessage)
		}
		return uuid.Nil, fmt.Errorf("resolve site organization: %w", err)
	}
	return org, nil
}

func (r *Repo) EquipmentTypeExists(ctx context.Context, organizationID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM equipment_types WHERE id = $1 AND organization_id = $2)`,
		id, organizationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check equipment type exists: %w", err)
	}
	return exists, nil
}

const createQuery = `
		INSERT INTO equipment (
			id, organization_id, site_id, equipment_type_id, serial_number, cust_asset_id, qr_code_value,
			agreement_status, lifecycle_status, service_cycle, next_service, next_service_override,
			provisional, provisional_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// Create inserts the row. A linked site is share-locked and re-checked in the same
// transaction, so the row can never land on a site that a concurrent delete has
// already orphaned.
func (r *Repo) Create(ctx context.Context, e domain.Equipment) error {
	siteID := lrepo.SiteColumn(e.Owner)
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if siteID != nil {
			org, err := lrepo.LockActiveSite(ctx, tx, *siteID)
			if err != nil {
				return err
			}
			if org != e.OrganizationID {
				return apperr.NotFound(siteNotFoundMessage)
			}
		}

		_, err := tx.Exec(ctx, createQuery,
			e.ID, e.OrganizationID, siteID, e.EquipmentTypeID, e.SerialNumber, e.CustAssetID, e.QRCodeValue,
			string(e.AgreementStatus), string(e.LifecycleStatus), string(e.ServiceCycle), e.NextService, e.NextServiceOverride,
			e.Provisional, e.ProvisionalExpiresAt,
		)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return lrepo.MapUniqueViolation(err)
			}
			return fmt.Errorf("create equipment: %w", err)
		}
		return nil
	})
}

const getByIDQuery = `SELECT ` + lrepo.SnapshotColumns + ` FROM ` + lrepo.SnapshotFrom + `
		WHERE e.id = $1 AND e.organization_id = $2 AND e.deleted_at IS NULL`

func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Snapshot, error) {
	snap, err := lrepo.ScanSnapshot(r.pool.QueryRow(ctx, getByIDQuery, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, apperr.NotFound(equipmentNotFoundMessage)
		}
		return domain.Snapshot{}, fmt.Errorf("get equipment by id: %w", err)
	}
	return snap, nil
}

const findByIdentifierQuery = `SELECT ` + lrepo.SnapshotColumns + ` FROM ` + lrepo.SnapshotFrom + `
		WHERE e.organization_id = $1 AND e.deleted_at IS NULL
			AND (e.serial_number = $2 OR e.cust_asset_id = $2 OR e.qr_code_value = $2)
		ORDER BY CASE WHEN e.serial_number = $2 OR e.cust_asset_id = $2 THEN 0 ELSE 1 END, e.created_at
		LIMIT 1`

func (r *Repo) FindByIdentifier(ctx context.Context, organizationID uuid.UUID, query string) (domain.Snapshot, error) {
	snap, err := lrepo.ScanSnapshot(r.pool.QueryRow(ctx, findByIdentifierQuery, organizationID, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, apperr.NotFound(fmt.Sprintf("equipment not found: %s", query))
		}
		return domain.Snapshot{}, fmt.Errorf("find equipment by identifier: %w", err)
	}
	return snap, nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Snapshot, int, error) {
	whereClause, args := listWhere(params)
	argIdx := len(args) + 1

	var total int
	countQuery := "SELECT COUNT(*) FROM " + lrepo.SnapshotFrom + " WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count equipment: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s %s NULLS LAST, e.id LIMIT $%d OFFSET $%d`,
		lrepo.SnapshotColumns, lrepo.SnapshotFrom, whereClause,
		sortColumn(params.SortBy), sortDirection(params.SortOrder), argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}
	items, err := lrepo.CollectSnapshots(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}
	return items, total, nil
}

func listWhere(params ListParams) (string, []interface{}) {
	whereClauses := []string{"e.organization_id = $1", "e.deleted_at IS NULL"}
	args := []interface{}{params.OrganizationID}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		whereClauses = append(whereClauses, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(args))))
	}

	if params.AgreementStatus != nil {
		add("e.agreement_status = ?", string(*params.AgreementStatus))
	}
	if params.ServiceCycle != nil {
		add("e.service_cycle = ?", string(*params.ServiceCycle))
	}
	if params.LifecycleStatus != nil {
		add("e.lifecycle_status = ?", string(*params.LifecycleStatus))
	}
	if params.NextServiceFrom != nil {
		add("e.next_service >= ?", *params.NextServiceFrom)
	}
	if params.NextServiceTo != nil {
		add("e.next_service <= ?", *params.NextServiceTo)
	}
	if params.Search != "" {
		add("(e.serial_number ILIKE ? OR e.cust_asset_id ILIKE ? OR e.qr_code_value ILIKE ?)", "%"+params.Search+"%")
	}
	if params.CustomerID != nil {
		add("s.customer_id = ?", *params.CustomerID)
	}
	if params.SiteID != nil {
		add("e.site_id = ?", *params.SiteID)
	}
	if params.EquipmentTypeID != nil {
		add("e.equipment_type_id = ?", *params.EquipmentTypeID)
	}
	if params.OrphanedOnly {
		whereClauses = append(whereClauses, "e.site_id IS NULL")
	}

	return strings.Join(whereClauses, " AND "), args
}

const serviceRecordsQuery = `
		SELECT id, equipment_id, serviced_by, serviced_at, reason_code, created_at
		FROM service_records
		WHERE equipment_id = $1
		ORDER BY serviced_at DESC`

// ServiceRecords returns every record of the equipment, newest first.
func (r *Repo) ServiceRecords(ctx context.Context, equipmentID uuid.UUID) ([]domain.ServiceRecord, error) {
	rows, err := r.pool.Query(ctx, serviceRecordsQuery, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("list service records: %w", err)
	}
	defer rows.Close()

	var records []domain.ServiceRecord
	for rows.Next() {
		var (
			rec    domain.ServiceRecord
			reason *string
		)
		if err := rows.Scan(&rec.ID, &rec.EquipmentID, &rec.ServicedBy, &rec.ServicedAt, &reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan service record: %w", err)
		}
		if reason != nil {
			code := domain.ReasonCode(*reason)
			rec.ReasonCode = &code
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list service records: %w", err)
	}
	return records, nil
}

const countOrphanedQuery = `
		SELECT COUNT(*) FROM equipment
		WHERE organization_id = $1 AND site_id IS NULL AND deleted_at IS NULL`

func (r *Repo) CountOrphaned(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countOrphanedQuery, organizationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orphaned equipment: %w", err)
	}
	return n, nil
}

func sortColumn(sortBy string) string {
	switch sortBy {
	case "nextService":
		return "e.next_service"
	case "lastService":
		return "e.last_service"
	case "custAssetId":
		return "e.cust_asset_id"
	case "agreementStatus":
		return "e.agreement_status"
	case "createdAt":
		return "e.created_at"
	default:
		return "e.serial_number"
	}
}

func sortDirection(order string) string {
	if strings.EqualFold(order, "desc") {
		return "DESC"
	}
	return "ASC"
}
