package repository

import (
	"strings"
	"testing"
	"time"

	"compliance_backend/internal/domain"

	"github.com/google/uuid"
)

func TestReadQueriesAreTenantScopedAndSkipDeleted(t *testing.T) {
	for name, query := range map[string]string{
		"getByID":          getByIDQuery,
		"findByIdentifier": findByIdentifierQuery,
		"countOrphaned":    countOrphanedQuery,
	} {
		if !strings.Contains(query, "organization_id = $") {
			t.Fatalf("%s: expected tenant filter", name)
		}
		if !strings.Contains(query, "deleted_at IS NULL") {
			t.Fatalf("%s: expected soft-delete filter", name)
		}
	}
}

func TestIdentifierLookupPrefersSerialAndAsset(t *testing.T) {
	if !strings.Contains(findByIdentifierQuery, "THEN 0 ELSE 1 END") {
		t.Fatal("serial or asset matches must sort before QR matches")
	}
}

func TestListWhereNumbersPlaceholders(t *testing.T) {
	status := domain.AgreementCovered
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	customer := uuid.New()

	where, args := listWhere(ListParams{
		OrganizationID:  uuid.New(),
		AgreementStatus: &status,
		NextServiceFrom: &from,
		Search:          "ABC",
		CustomerID:      &customer,
		OrphanedOnly:    true,
	})

	for _, fragment := range []string{
		"e.organization_id = $1",
		"e.agreement_status = $2",
		"e.next_service >= $3",
		"e.serial_number ILIKE $4 OR e.cust_asset_id ILIKE $4",
		"s.customer_id = $5",
		"e.site_id IS NULL",
	} {
		if !strings.Contains(where, fragment) {
			t.Fatalf("expected %q in %q", fragment, where)
		}
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if args[3] != "%ABC%" {
		t.Fatalf("unexpected search arg %v", args[3])
	}
}

func TestSortColumnIsWhitelisted(t *testing.T) {
	if got := sortColumn("serial_number; DROP TABLE equipment"); got != "e.serial_number" {
		t.Fatalf("unexpected sort column %q", got)
	}
}
