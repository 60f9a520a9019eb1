package repository

import (
	"strings"
	"testing"
)

func TestQueriesAreTenantScopedAndSkipDeleted(t *testing.T) {
	for _, query := range []string{getByIDQuery, listAllQuery, updateQuery} {
		lower := strings.ToLower(query)
		if !strings.Contains(lower, "organization_id = $") {
			t.Fatalf("expected tenant filter in %q", query)
		}
		if !strings.Contains(lower, "deleted_at is null") {
			t.Fatalf("expected soft-delete filter in %q", query)
		}
	}
}

func TestSortColumnIsWhitelisted(t *testing.T) {
	if got := sortColumn("name; DROP TABLE customers"); got != "c.name" {
		t.Fatalf("unexpected sort column %q", got)
	}
	if got := sortDirection("desc"); got != "DESC" {
		t.Fatalf("unexpected direction %q", got)
	}
	if got := sortDirection("sideways"); got != "ASC" {
		t.Fatalf("unexpected direction %q", got)
	}
}
