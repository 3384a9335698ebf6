package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	counts "ap-monitor/internal/counts/domain"
)

const defaultClientCountsTable = "client_counts"

// ClientCountRepository is a Postgres implementation for the append-only
// per-building count facts.
type ClientCountRepository struct {
	db    DBTX
	table string
}

// NewClientCountRepository constructs a repository.
func NewClientCountRepository(db DBTX, opts ...ClientCountOption) *ClientCountRepository {
	repo := &ClientCountRepository{db: db, table: defaultClientCountsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ClientCountOption configures the repository.
type ClientCountOption func(*ClientCountRepository)

// WithClientCountTable overrides the default table name.
func WithClientCountTable(table string) ClientCountOption {
	return func(repo *ClientCountRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert appends one observation row.
func (r *ClientCountRepository) Insert(ctx context.Context, buildingID int64, count int, ts time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("client count repo: nil db")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (building_id, client_count, time_inserted)
VALUES ($1, $2, $3)`, r.table)

	_, err := r.db.ExecContext(ctx, query, buildingID, count, ts.UTC())
	return err
}

// Recent returns the newest rows joined with building names, optionally
// filtered to one building.
func (r *ClientCountRepository) Recent(ctx context.Context, building string, limit int) ([]counts.BuildingCount, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("client count repo: nil db")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := fmt.Sprintf(`
SELECT b.building_name, c.client_count, c.time_inserted
FROM %s c
JOIN buildings b ON b.building_id = c.building_id
WHERE ($1 = '' OR b.building_name = $1)
ORDER BY c.time_inserted DESC
LIMIT $2`, r.table)

	rows, err := r.db.QueryContext(ctx, query, building, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []counts.BuildingCount
	for rows.Next() {
		var row counts.BuildingCount
		if err := rows.Scan(&row.Building, &row.Count, &row.TimeInserted); err != nil {
			return nil, err
		}
		row.TimeInserted = row.TimeInserted.UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// AverageSince returns the mean count for one building since a cutoff.
// Returns ok=false when no rows fall inside the window.
func (r *ClientCountRepository) AverageSince(ctx context.Context, buildingID int64, since time.Time) (float64, bool, error) {
	if r == nil || r.db == nil {
		return 0, false, errors.New("client count repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT AVG(client_count)
FROM %s
WHERE building_id = $1 AND time_inserted >= $2`, r.table)

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, buildingID, since.UTC()).Scan(&avg); err != nil {
		return 0, false, err
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// LatestForBuilding returns the newest count for one building.
// Returns ok=false when the building has no rows yet.
func (r *ClientCountRepository) LatestForBuilding(ctx context.Context, buildingID int64) (int, time.Time, bool, error) {
	if r == nil || r.db == nil {
		return 0, time.Time{}, false, errors.New("client count repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT client_count, time_inserted
FROM %s
WHERE building_id = $1
ORDER BY time_inserted DESC
LIMIT 1`, r.table)

	var count int
	var ts time.Time
	err := r.db.QueryRowContext(ctx, query, buildingID).Scan(&count, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, err
	}
	return count, ts.UTC(), true, nil
}
