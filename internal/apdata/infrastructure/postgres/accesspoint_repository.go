package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apdata "ap-monitor/internal/apdata/domain"
)

const defaultAccessPointsTable = "accesspoints"

// AccessPointRepository is a Postgres implementation for access points.
type AccessPointRepository struct {
	db    DBTX
	table string
}

// NewAccessPointRepository constructs a repository.
func NewAccessPointRepository(db DBTX, opts ...AccessPointOption) *AccessPointRepository {
	repo := &AccessPointRepository{db: db, table: defaultAccessPointsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AccessPointOption configures the repository.
type AccessPointOption func(*AccessPointRepository)

// WithAccessPointTable overrides the default table name.
func WithAccessPointTable(table string) AccessPointOption {
	return func(repo *AccessPointRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// UpsertByMAC creates the AP when its MAC is new, otherwise updates the
// mutable attributes (name, placement, ip, model, active). Returns the ap id.
func (r *AccessPointRepository) UpsertByMAC(ctx context.Context, ap *apdata.AccessPoint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("accesspoint repo: nil db")
	}
	if ap == nil {
		return 0, errors.New("accesspoint repo: nil ap")
	}
	if ap.MAC == "" {
		return 0, errors.New("accesspoint repo: empty mac")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	buildingid,
	floorid,
	roomid,
	apname,
	macaddress,
	ipaddress,
	modelname,
	isactive
) VALUES (
	$1, $2, $3, $4, $5, NULLIF($6, '')::inet, $7, $8
)
ON CONFLICT (macaddress)
DO UPDATE SET
	buildingid = EXCLUDED.buildingid,
	floorid = EXCLUDED.floorid,
	roomid = EXCLUDED.roomid,
	apname = EXCLUDED.apname,
	ipaddress = EXCLUDED.ipaddress,
	modelname = EXCLUDED.modelname,
	isactive = EXCLUDED.isactive
RETURNING apid`, r.table)

	var roomID sql.NullInt64
	if ap.RoomID != nil {
		roomID = sql.NullInt64{Int64: *ap.RoomID, Valid: true}
	}

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		ap.BuildingID,
		ap.FloorID,
		roomID,
		ap.Name,
		ap.MAC,
		ap.IPAddress,
		ap.Model,
		ap.Active,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	ap.ID = id
	return id, nil
}

// List returns APs joined with their placement, newest name order.
func (r *AccessPointRepository) List(ctx context.Context, limit int) ([]apdata.APDetail, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("accesspoint repo: nil db")
	}
	if limit <= 0 || limit > 5000 {
		limit = 500
	}

	query := fmt.Sprintf(`
SELECT a.apid, a.apname, COALESCE(a.macaddress::text, ''), COALESCE(a.ipaddress::text, ''),
	COALESCE(a.modelname, ''), a.isactive,
	COALESCE(b.buildingname, ''), COALESCE(f.floorname, ''), COALESCE(rm.roomname, '')
FROM %s a
LEFT JOIN ap_buildings b ON b.buildingid = a.buildingid
LEFT JOIN floors f ON f.floorid = a.floorid
LEFT JOIN rooms rm ON rm.roomid = a.roomid
ORDER BY a.apname
LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []apdata.APDetail
	for rows.Next() {
		var ap apdata.APDetail
		if err := rows.Scan(
			&ap.ID,
			&ap.Name,
			&ap.MAC,
			&ap.IP,
			&ap.Model,
			&ap.Active,
			&ap.Building,
			&ap.Floor,
			&ap.Room,
		); err != nil {
			return nil, err
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}
