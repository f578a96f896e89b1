package testsupport

import (
	"context"
	"database/sql"
	"testing"
)

func TestPostgresTransactionIsRolledBack(t *testing.T) {
	helper := NewTestPostgres(t)
	tx := helper.Tx()

	// Everything a repository test writes happens inside the transaction
	if _, err := tx.Exec("CREATE TABLE IF NOT EXISTS tx_rollback_probe(id SERIAL PRIMARY KEY, model TEXT)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	if _, err := tx.Exec("INSERT INTO tx_rollback_probe(model) VALUES('ASUS DUAL RTX 4070 OC')"); err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM tx_rollback_probe").Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("unexpected row count inside transaction: %d", count)
	}

	helper.Rollback()

	// Outside the transaction the table must be gone
	var exists sql.NullString
	err := helper.DB().QueryRowContext(context.Background(), "SELECT to_regclass('public.tx_rollback_probe')").Scan(&exists)
	if err != nil {
		t.Fatalf("failed to query table existence: %v", err)
	}
	if exists.Valid {
		t.Fatalf("expected table to be rolled back, found: %s", exists.String)
	}
}
