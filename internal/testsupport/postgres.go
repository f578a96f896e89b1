package testsupport

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"argus/internal/adapters/config"
	"argus/internal/adapters/postgres"
)

// PostgresTestHelper wraps a connection whose transaction is rolled back
// when the test finishes, so repository tests never leave rows behind
type PostgresTestHelper struct {
	client     *postgres.Client
	tx         *sqlx.Tx
	rolledBack bool
}

// NewPostgresTestHelper opens a connection and begins the test transaction
func NewPostgresTestHelper(t *testing.T, cfg config.PostgresConfig) *PostgresTestHelper {
	t.Helper()

	client, err := postgres.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	tx, err := client.DB().BeginTxx(context.Background(), nil)
	if err != nil {
		_ = client.Close()
		t.Fatalf("failed to start transaction: %v", err)
	}

	helper := &PostgresTestHelper{client: client, tx: tx}
	t.Cleanup(helper.Rollback)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return helper
}

// Tx returns the active test transaction
func (h *PostgresTestHelper) Tx() *sqlx.Tx {
	return h.tx
}

// DB returns the underlying handle, outside the test transaction
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// Rollback discards everything written in the test. Registered as a
// cleanup but callable early when a test wants to verify the rollback.
func (h *PostgresTestHelper) Rollback() {
	if h.rolledBack {
		return
	}
	_ = h.tx.Rollback()
	h.rolledBack = true
}

// NewTestPostgres is the one-line setup used by repository tests: env
// config plus a rolled-back transaction
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	return NewPostgresTestHelper(t, LoadDatabaseConfigsFromEnv(t).Postgres)
}
