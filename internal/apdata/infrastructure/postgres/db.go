package postgres

import (
	"context"
	"database/sql"

	apdata "ap-monitor/internal/apdata/domain"
)

// DBTX is the querying surface shared by *sql.DB and *sql.Tx; repositories
// take whichever the caller owns so transaction boundaries stay with the
// caller.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EnsureSchema creates the detail store tables when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ap_buildings (
			buildingid SERIAL PRIMARY KEY,
			buildingname VARCHAR(255) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS floors (
			floorid SERIAL PRIMARY KEY,
			buildingid INTEGER NOT NULL REFERENCES ap_buildings(buildingid) ON DELETE CASCADE,
			floorname VARCHAR(50) NOT NULL,
			UNIQUE (buildingid, floorname)
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			roomid SERIAL PRIMARY KEY,
			floorid INTEGER NOT NULL REFERENCES floors(floorid) ON DELETE CASCADE,
			roomname VARCHAR(100) NOT NULL,
			UNIQUE (floorid, roomname)
		)`,
		`CREATE TABLE IF NOT EXISTS radiotypes (
			radioid INTEGER PRIMARY KEY,
			radioname VARCHAR(50) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS accesspoints (
			apid SERIAL PRIMARY KEY,
			buildingid INTEGER REFERENCES ap_buildings(buildingid) ON DELETE CASCADE,
			floorid INTEGER REFERENCES floors(floorid) ON DELETE CASCADE,
			roomid INTEGER REFERENCES rooms(roomid) ON DELETE CASCADE,
			apname VARCHAR(40) NOT NULL,
			macaddress MACADDR UNIQUE,
			ipaddress INET,
			modelname VARCHAR(60),
			isactive BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS clientcount (
			countid SERIAL PRIMARY KEY,
			apid INTEGER NOT NULL REFERENCES accesspoints(apid) ON DELETE CASCADE,
			radioid INTEGER NOT NULL REFERENCES radiotypes(radioid) ON DELETE CASCADE,
			clientcount INTEGER NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			UNIQUE (apid, radioid, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clientcount_timestamp
			ON clientcount (timestamp)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

// SeedRadioTypes inserts the fixed radio band rows when absent.
func SeedRadioTypes(ctx context.Context, db DBTX) error {
	for _, radio := range apdata.RadioSeed {
		_, err := db.ExecContext(ctx, `
INSERT INTO radiotypes (radioid, radioname)
VALUES ($1, $2)
ON CONFLICT (radioid) DO NOTHING`, radio.ID, radio.Name)
		if err != nil {
			return err
		}
	}
	return nil
}
