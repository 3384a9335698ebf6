package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the querying surface shared by *sql.DB and *sql.Tx; repositories
// take whichever the caller owns so transaction boundaries stay with the
// caller.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EnsureSchema creates the aggregate store tables when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS campuses (
			campus_id SERIAL PRIMARY KEY,
			campus_name VARCHAR(100) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS buildings (
			building_id SERIAL PRIMARY KEY,
			building_name VARCHAR(100) NOT NULL UNIQUE,
			campus_id INTEGER NOT NULL REFERENCES campuses(campus_id) ON DELETE CASCADE,
			latitude NUMERIC(15,10) NOT NULL DEFAULT 0,
			longitude NUMERIC(15,10) NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS client_counts (
			count_id SERIAL PRIMARY KEY,
			building_id INTEGER NOT NULL REFERENCES buildings(building_id) ON DELETE CASCADE,
			client_count INTEGER NOT NULL,
			time_inserted TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_client_counts_time_inserted
			ON client_counts (time_inserted)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
