package repository

import (
	"context"
	"testing"
	"time"

	"compliance_backend/internal/domain"
	"compliance_backend/platform/apperr"
	"compliance_backend/platform/testhelpers"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsCustomerDeletedConcurrently(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	pool := testDB.Pool
	ctx := context.Background()
	org := testDB.NewOrganization(t)

	customerID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO customers (id, organization_id, name, agreement_status) VALUES ($1, $2, $3, 'COVERED')`,
		customerID, org, "customer-"+customerID.String()[:8])
	require.NoError(t, err)

	// The customer cascade is mid-flight: row locked and marked deleted, not yet committed.
	deleteTx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	require.NoError(t, err)
	defer func() { _ = deleteTx.Rollback(ctx) }()
	_, err = deleteTx.Exec(ctx, `SELECT id FROM customers WHERE id = $1 FOR UPDATE`, customerID)
	require.NoError(t, err)
	_, err = deleteTx.Exec(ctx, `UPDATE customers SET deleted_at = now(), version = version + 1 WHERE id = $1`, customerID)
	require.NoError(t, err)

	repo := New(pool)
	done := make(chan error, 1)
	go func() {
		_, err := repo.Create(ctx, domain.Site{ID: uuid.New(), CustomerID: customerID, OrganizationID: org, Name: "Depot"})
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("create returned before the delete committed: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, deleteTx.Commit(ctx))

	select {
	case err := <-done:
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("create never returned")
	}

	var sites int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM sites WHERE customer_id = $1`, customerID).Scan(&sites))
	assert.Zero(t, sites)
}

func TestCreateRequiresCustomerInTenant(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	pool := testDB.Pool
	ctx := context.Background()
	org := testDB.NewOrganization(t)
	other := testDB.NewOrganization(t)

	customerID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO customers (id, organization_id, name, agreement_status) VALUES ($1, $2, $3, 'COVERED')`,
		customerID, org, "customer-"+customerID.String()[:8])
	require.NoError(t, err)

	_, err = New(pool).Create(ctx, domain.Site{ID: uuid.New(), CustomerID: customerID, OrganizationID: other, Name: "Depot"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	created, err := New(pool).Create(ctx, domain.Site{ID: uuid.New(), CustomerID: customerID, OrganizationID: org, Name: "Depot"})
	require.NoError(t, err)
	assert.Equal(t, org, created.OrganizationID)
}
