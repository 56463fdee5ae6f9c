// pkg/db/schema.go
package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Money columns are NUMERIC on PostgreSQL and TEXT on SQLite so decimals round-trip exactly.
var schemas = map[string]string{
	DriverPostgres: `
	CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		hash       TEXT NOT NULL,
		cash       NUMERIC(20, 4) NOT NULL DEFAULT 10000.00,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		symbol          TEXT NOT NULL,
		shares          BIGINT NOT NULL CHECK (shares <> 0),
		price_per_share NUMERIC(20, 4) NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_symbol ON transactions (user_id, symbol);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions (user_id, created_at);
	`,
	DriverSQLite: `
	CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		username   TEXT NOT NULL UNIQUE,
		hash       TEXT NOT NULL,
		cash       TEXT NOT NULL DEFAULT '10000.00',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id         INTEGER NOT NULL REFERENCES users(id),
		symbol          TEXT NOT NULL,
		shares          INTEGER NOT NULL CHECK (shares <> 0),
		price_per_share TEXT NOT NULL,
		created_at      DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_symbol ON transactions (user_id, symbol);
	CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions (user_id, created_at);
	`,
}

// Migrate creates the users and transactions tables if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("migrate: no schema for driver %q", db.DriverName())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s: %w", db.DriverName(), err)
	}
	return nil
}
