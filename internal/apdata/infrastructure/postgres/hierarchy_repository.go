package postgres

import (
	"context"
	"errors"
	"fmt"
)

const (
	defaultAPBuildingsTable = "ap_buildings"
	defaultFloorsTable      = "floors"
	defaultRoomsTable       = "rooms"
)

// HierarchyRepository maintains the detail store's building/floor/room tree.
type HierarchyRepository struct {
	db             DBTX
	buildingsTable string
	floorsTable    string
	roomsTable     string
}

// NewHierarchyRepository constructs a repository.
func NewHierarchyRepository(db DBTX, opts ...HierarchyOption) *HierarchyRepository {
	repo := &HierarchyRepository{
		db:             db,
		buildingsTable: defaultAPBuildingsTable,
		floorsTable:    defaultFloorsTable,
		roomsTable:     defaultRoomsTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// HierarchyOption configures the repository.
type HierarchyOption func(*HierarchyRepository)

// WithHierarchyTables overrides the default table names.
func WithHierarchyTables(buildings, floors, rooms string) HierarchyOption {
	return func(repo *HierarchyRepository) {
		if buildings != "" {
			repo.buildingsTable = buildings
		}
		if floors != "" {
			repo.floorsTable = floors
		}
		if rooms != "" {
			repo.roomsTable = rooms
		}
	}
}

// UpsertBuilding creates the building when absent and returns its id.
func (r *HierarchyRepository) UpsertBuilding(ctx context.Context, name string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("hierarchy repo: nil db")
	}
	if name == "" {
		return 0, errors.New("hierarchy repo: empty building name")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (buildingname)
VALUES ($1)
ON CONFLICT (buildingname)
DO UPDATE SET buildingname = EXCLUDED.buildingname
RETURNING buildingid`, r.buildingsTable)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertFloor creates the floor under a building when absent and returns its id.
func (r *HierarchyRepository) UpsertFloor(ctx context.Context, buildingID int64, name string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("hierarchy repo: nil db")
	}
	if name == "" {
		return 0, errors.New("hierarchy repo: empty floor name")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (buildingid, floorname)
VALUES ($1, $2)
ON CONFLICT (buildingid, floorname)
DO UPDATE SET floorname = EXCLUDED.floorname
RETURNING floorid`, r.floorsTable)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, buildingID, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertRoom creates the room under a floor when absent and returns its id.
func (r *HierarchyRepository) UpsertRoom(ctx context.Context, floorID int64, name string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("hierarchy repo: nil db")
	}
	if name == "" {
		return 0, errors.New("hierarchy repo: empty room name")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (floorid, roomname)
VALUES ($1, $2)
ON CONFLICT (floorid, roomname)
DO UPDATE SET roomname = EXCLUDED.roomname
RETURNING roomid`, r.roomsTable)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, floorID, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// BuildingSummary is one building with its floor and AP tallies.
type BuildingSummary struct {
	ID     int64
	Name   string
	Floors int
	APs    int
}

// ListBuildings returns every detail-store building with tallies.
func (r *HierarchyRepository) ListBuildings(ctx context.Context) ([]BuildingSummary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("hierarchy repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT b.buildingid, b.buildingname,
	COUNT(DISTINCT f.floorid),
	COUNT(DISTINCT a.apid)
FROM %s b
LEFT JOIN %s f ON f.buildingid = b.buildingid
LEFT JOIN accesspoints a ON a.buildingid = b.buildingid
GROUP BY b.buildingid, b.buildingname
ORDER BY b.buildingname`, r.buildingsTable, r.floorsTable)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BuildingSummary
	for rows.Next() {
		var summary BuildingSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Floors, &summary.APs); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}
