package application

import (
	"context"
	"database/sql"
	"time"

	apdata "ap-monitor/internal/apdata/domain"
	apdatapg "ap-monitor/internal/apdata/infrastructure/postgres"
	counts "ap-monitor/internal/counts/domain"
	countspg "ap-monitor/internal/counts/infrastructure/postgres"
)

// AggregateTx is one transaction against the aggregate (per-building) store.
// Either Commit or Rollback must be called; Rollback after Commit is a no-op.
type AggregateTx interface {
	UpsertCampus(ctx context.Context, name string) (int64, error)
	UpsertBuilding(ctx context.Context, name string, campusID int64) (int64, error)
	ListBuildings(ctx context.Context) ([]counts.Building, error)
	InsertClientCount(ctx context.Context, buildingID int64, count int, ts time.Time) error
	Commit() error
	Rollback() error
}

// AggregateStore opens aggregate-store transactions.
type AggregateStore interface {
	Begin(ctx context.Context) (AggregateTx, error)
}

// DetailTx is one transaction against the detail (per-AP, per-radio) store.
type DetailTx interface {
	UpsertBuilding(ctx context.Context, name string) (int64, error)
	UpsertFloor(ctx context.Context, buildingID int64, name string) (int64, error)
	UpsertRoom(ctx context.Context, floorID int64, name string) (int64, error)
	UpsertAccessPoint(ctx context.Context, ap *apdata.AccessPoint) (int64, error)
	UpsertClientCount(ctx context.Context, apID, radioID int64, count int, ts time.Time) error
	Commit() error
	Rollback() error
}

// DetailStore opens detail-store transactions.
type DetailStore interface {
	Begin(ctx context.Context) (DetailTx, error)
}

// PostgresAggregateStore adapts a *sql.DB into the AggregateStore port.
type PostgresAggregateStore struct {
	db *sql.DB
}

func NewPostgresAggregateStore(db *sql.DB) *PostgresAggregateStore {
	return &PostgresAggregateStore{db: db}
}

func (s *PostgresAggregateStore) Begin(ctx context.Context) (AggregateTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgAggregateTx{
		tx:        tx,
		campuses:  countspg.NewCampusRepository(tx),
		buildings: countspg.NewBuildingRepository(tx),
		counts:    countspg.NewClientCountRepository(tx),
	}, nil
}

type pgAggregateTx struct {
	tx        *sql.Tx
	campuses  *countspg.CampusRepository
	buildings *countspg.BuildingRepository
	counts    *countspg.ClientCountRepository
}

func (t *pgAggregateTx) UpsertCampus(ctx context.Context, name string) (int64, error) {
	return t.campuses.Upsert(ctx, name)
}

func (t *pgAggregateTx) UpsertBuilding(ctx context.Context, name string, campusID int64) (int64, error) {
	return t.buildings.Upsert(ctx, name, campusID)
}

func (t *pgAggregateTx) ListBuildings(ctx context.Context) ([]counts.Building, error) {
	return t.buildings.List(ctx)
}

func (t *pgAggregateTx) InsertClientCount(ctx context.Context, buildingID int64, count int, ts time.Time) error {
	return t.counts.Insert(ctx, buildingID, count, ts)
}

func (t *pgAggregateTx) Commit() error   { return t.tx.Commit() }
func (t *pgAggregateTx) Rollback() error { return t.tx.Rollback() }

// PostgresDetailStore adapts a *sql.DB into the DetailStore port.
type PostgresDetailStore struct {
	db *sql.DB
}

func NewPostgresDetailStore(db *sql.DB) *PostgresDetailStore {
	return &PostgresDetailStore{db: db}
}

func (s *PostgresDetailStore) Begin(ctx context.Context) (DetailTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgDetailTx{
		tx:        tx,
		hierarchy: apdatapg.NewHierarchyRepository(tx),
		aps:       apdatapg.NewAccessPointRepository(tx),
		counts:    apdatapg.NewAPClientCountRepository(tx),
	}, nil
}

type pgDetailTx struct {
	tx        *sql.Tx
	hierarchy *apdatapg.HierarchyRepository
	aps       *apdatapg.AccessPointRepository
	counts    *apdatapg.APClientCountRepository
}

func (t *pgDetailTx) UpsertBuilding(ctx context.Context, name string) (int64, error) {
	return t.hierarchy.UpsertBuilding(ctx, name)
}

func (t *pgDetailTx) UpsertFloor(ctx context.Context, buildingID int64, name string) (int64, error) {
	return t.hierarchy.UpsertFloor(ctx, buildingID, name)
}

func (t *pgDetailTx) UpsertRoom(ctx context.Context, floorID int64, name string) (int64, error) {
	return t.hierarchy.UpsertRoom(ctx, floorID, name)
}

func (t *pgDetailTx) UpsertAccessPoint(ctx context.Context, ap *apdata.AccessPoint) (int64, error) {
	return t.aps.UpsertByMAC(ctx, ap)
}

func (t *pgDetailTx) UpsertClientCount(ctx context.Context, apID, radioID int64, count int, ts time.Time) error {
	return t.counts.Upsert(ctx, apID, radioID, count, ts)
}

func (t *pgDetailTx) Commit() error   { return t.tx.Commit() }
func (t *pgDetailTx) Rollback() error { return t.tx.Rollback() }
