package postgres

import (
	"context"
	"errors"
	"fmt"

	counts "ap-monitor/internal/counts/domain"
)

const defaultBuildingsTable = "buildings"

// BuildingRepository is a Postgres implementation for aggregate buildings.
type BuildingRepository struct {
	db    DBTX
	table string
}

// NewBuildingRepository constructs a repository.
func NewBuildingRepository(db DBTX, opts ...BuildingOption) *BuildingRepository {
	repo := &BuildingRepository{db: db, table: defaultBuildingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// BuildingOption configures the repository.
type BuildingOption func(*BuildingRepository)

// WithBuildingTable overrides the default table name.
func WithBuildingTable(table string) BuildingOption {
	return func(repo *BuildingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Upsert creates the building when absent and returns its id. Existing rows
// keep their coordinates; reconciliation never moves a building.
func (r *BuildingRepository) Upsert(ctx context.Context, name string, campusID int64) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("building repo: nil db")
	}
	if name == "" {
		return 0, errors.New("building repo: empty name")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (building_name, campus_id)
VALUES ($1, $2)
ON CONFLICT (building_name)
DO UPDATE SET building_name = EXCLUDED.building_name
RETURNING building_id`, r.table)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, name, campusID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every building in the aggregate store.
func (r *BuildingRepository) List(ctx context.Context) ([]counts.Building, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("building repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT building_id, building_name, campus_id, latitude, longitude
FROM %s
ORDER BY building_name`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buildings []counts.Building
	for rows.Next() {
		var building counts.Building
		if err := rows.Scan(
			&building.ID,
			&building.Name,
			&building.CampusID,
			&building.Latitude,
			&building.Longitude,
		); err != nil {
			return nil, err
		}
		buildings = append(buildings, building)
	}
	return buildings, rows.Err()
}
