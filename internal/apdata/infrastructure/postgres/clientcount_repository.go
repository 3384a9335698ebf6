package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultAPClientCountTable = "clientcount"

// APClientCountRepository is a Postgres implementation for per-radio counts.
type APClientCountRepository struct {
	db    DBTX
	table string
}

// NewAPClientCountRepository constructs a repository.
func NewAPClientCountRepository(db DBTX, opts ...APClientCountOption) *APClientCountRepository {
	repo := &APClientCountRepository{db: db, table: defaultAPClientCountTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// APClientCountOption configures the repository.
type APClientCountOption func(*APClientCountRepository)

// WithAPClientCountTable overrides the default table name.
func WithAPClientCountTable(table string) APClientCountOption {
	return func(repo *APClientCountRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Upsert writes one per-radio observation, idempotent on
// (ap, radio, timestamp) so a re-run of the same cycle overwrites rather
// than duplicates.
func (r *APClientCountRepository) Upsert(ctx context.Context, apID, radioID int64, count int, ts time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("ap client count repo: nil db")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (apid, radioid, clientcount, timestamp)
VALUES ($1, $2, $3, $4)
ON CONFLICT (apid, radioid, timestamp)
DO UPDATE SET clientcount = EXCLUDED.clientcount`, r.table)

	_, err := r.db.ExecContext(ctx, query, apID, radioID, count, ts.UTC())
	return err
}

// APCountRow is the read-side join of one observation with its AP placement.
type APCountRow struct {
	AP        string
	Building  string
	Floor     string
	Radio     string
	Count     int
	Timestamp time.Time
}

// Recent returns the newest observations joined with placement, optionally
// filtered to one building name.
func (r *APClientCountRepository) Recent(ctx context.Context, building string, limit int) ([]APCountRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ap client count repo: nil db")
	}
	if limit <= 0 || limit > 5000 {
		limit = 500
	}

	query := fmt.Sprintf(`
SELECT a.apname, COALESCE(b.buildingname, ''), COALESCE(f.floorname, ''),
	r.radioname, c.clientcount, c.timestamp
FROM %s c
JOIN accesspoints a ON a.apid = c.apid
JOIN radiotypes r ON r.radioid = c.radioid
LEFT JOIN ap_buildings b ON b.buildingid = a.buildingid
LEFT JOIN floors f ON f.floorid = a.floorid
WHERE ($1 = '' OR b.buildingname = $1)
ORDER BY c.timestamp DESC
LIMIT $2`, r.table)

	rows, err := r.db.QueryContext(ctx, query, building, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APCountRow
	for rows.Next() {
		var row APCountRow
		if err := rows.Scan(&row.AP, &row.Building, &row.Floor, &row.Radio, &row.Count, &row.Timestamp); err != nil {
			return nil, err
		}
		row.Timestamp = row.Timestamp.UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}
