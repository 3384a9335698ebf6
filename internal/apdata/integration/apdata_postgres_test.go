package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	apdata "ap-monitor/internal/apdata/domain"
	apdatapostgres "ap-monitor/internal/apdata/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestDetailStore_Postgres(t *testing.T) {
	dsn := os.Getenv("APCLIENT_PG_DSN")
	if dsn == "" {
		t.Skip("APCLIENT_PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := apdatapostgres.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := apdatapostgres.SeedRadioTypes(ctx, db); err != nil {
		t.Fatalf("seed radios: %v", err)
	}

	mac := "aa:bb:cc:dd:ee:01"
	_, _ = db.ExecContext(ctx, "DELETE FROM clientcount WHERE apid IN (SELECT apid FROM accesspoints WHERE macaddress = $1::macaddr)", mac)
	_, _ = db.ExecContext(ctx, "DELETE FROM accesspoints WHERE macaddress = $1::macaddr", mac)
	_, _ = db.ExecContext(ctx, "DELETE FROM floors WHERE floorname = 'IT-5'")
	_, _ = db.ExecContext(ctx, "DELETE FROM ap_buildings WHERE buildingname = 'Integration Building'")

	hierarchy := apdatapostgres.NewHierarchyRepository(db)
	aps := apdatapostgres.NewAccessPointRepository(db)
	apCounts := apdatapostgres.NewAPClientCountRepository(db)

	buildingID, err := hierarchy.UpsertBuilding(ctx, "Integration Building")
	if err != nil {
		t.Fatalf("upsert building: %v", err)
	}
	floorID, err := hierarchy.UpsertFloor(ctx, buildingID, "IT-5")
	if err != nil {
		t.Fatalf("upsert floor: %v", err)
	}
	floorAgain, err := hierarchy.UpsertFloor(ctx, buildingID, "IT-5")
	if err != nil || floorAgain != floorID {
		t.Fatalf("floor upsert not idempotent: %d vs %d, err %v", floorID, floorAgain, err)
	}

	ap := &apdata.AccessPoint{
		BuildingID: buildingID,
		FloorID:    floorID,
		Name:       "k1-it-5-1",
		MAC:        mac,
		IPAddress:  "10.0.0.10",
		Model:      "C9130AXI",
		Active:     true,
	}
	apID, err := aps.UpsertByMAC(ctx, ap)
	if err != nil {
		t.Fatalf("upsert ap: %v", err)
	}

	// Same MAC, updated attributes: same row.
	ap.Name = "k1-it-5-1-renamed"
	ap.Active = false
	apAgain, err := aps.UpsertByMAC(ctx, ap)
	if err != nil || apAgain != apID {
		t.Fatalf("ap upsert not idempotent: %d vs %d, err %v", apID, apAgain, err)
	}

	ts := time.Now().UTC().Truncate(time.Second)
	radioID, _ := apdata.RadioIDForKey("radio0")
	if err := apCounts.Upsert(ctx, apID, radioID, 4, ts); err != nil {
		t.Fatalf("upsert count: %v", err)
	}
	// Re-run of the same cycle overwrites, no duplicate.
	if err := apCounts.Upsert(ctx, apID, radioID, 6, ts); err != nil {
		t.Fatalf("re-upsert count: %v", err)
	}

	var n, value int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(clientcount) FROM clientcount WHERE apid = $1 AND radioid = $2 AND timestamp = $3",
		apID, radioID, ts).Scan(&n, &value); err != nil {
		t.Fatalf("verify count: %v", err)
	}
	if n != 1 || value != 6 {
		t.Fatalf("rows = %d value = %d, want 1 row value 6", n, value)
	}

	rows, err := apCounts.Recent(ctx, "Integration Building", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(rows) != 1 || rows[0].AP != "k1-it-5-1-renamed" || rows[0].Radio != "2.4 GHz" {
		t.Fatalf("recent = %+v", rows)
	}
}
