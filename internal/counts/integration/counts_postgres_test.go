package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	countspostgres "ap-monitor/internal/counts/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestAggregateStore_Postgres(t *testing.T) {
	dsn := os.Getenv("WIRELESS_PG_DSN")
	if dsn == "" {
		t.Skip("WIRELESS_PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := countspostgres.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	campusName := "Keele Campus IT"
	buildingName := "Integration Hall"
	_, _ = db.ExecContext(ctx, `DELETE FROM client_counts WHERE building_id IN
		(SELECT building_id FROM buildings WHERE building_name = $1)`, buildingName)
	_, _ = db.ExecContext(ctx, "DELETE FROM buildings WHERE building_name = $1", buildingName)
	_, _ = db.ExecContext(ctx, "DELETE FROM campuses WHERE campus_name = $1", campusName)

	campuses := countspostgres.NewCampusRepository(db)
	buildings := countspostgres.NewBuildingRepository(db)
	clientCounts := countspostgres.NewClientCountRepository(db)

	campusID, err := campuses.Upsert(ctx, campusName)
	if err != nil {
		t.Fatalf("upsert campus: %v", err)
	}
	again, err := campuses.Upsert(ctx, campusName)
	if err != nil || again != campusID {
		t.Fatalf("campus upsert not idempotent: id %d vs %d, err %v", campusID, again, err)
	}

	buildingID, err := buildings.Upsert(ctx, buildingName, campusID)
	if err != nil {
		t.Fatalf("upsert building: %v", err)
	}
	againB, err := buildings.Upsert(ctx, buildingName, campusID)
	if err != nil || againB != buildingID {
		t.Fatalf("building upsert not idempotent: id %d vs %d, err %v", buildingID, againB, err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := clientCounts.Insert(ctx, buildingID, 17, now); err != nil {
		t.Fatalf("insert count: %v", err)
	}
	if err := clientCounts.Insert(ctx, buildingID, 0, now.Add(time.Minute)); err != nil {
		t.Fatalf("insert zero count: %v", err)
	}

	latest, ts, ok, err := clientCounts.LatestForBuilding(ctx, buildingID)
	if err != nil || !ok {
		t.Fatalf("latest: %v ok=%v", err, ok)
	}
	if latest != 0 || !ts.Equal(now.Add(time.Minute)) {
		t.Fatalf("latest = %d at %v", latest, ts)
	}

	avg, ok, err := clientCounts.AverageSince(ctx, buildingID, now.Add(-time.Hour))
	if err != nil || !ok {
		t.Fatalf("average: %v ok=%v", err, ok)
	}
	if avg != 8.5 {
		t.Fatalf("avg = %v, want 8.5", avg)
	}

	recent, err := clientCounts.Recent(ctx, buildingName, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Count != 0 || recent[0].Building != buildingName {
		t.Fatalf("recent = %+v", recent)
	}
}
