// Command perf_seed fills both stores with synthetic history so dashboards,
// exports, and the diagnostics analyzer have data to chew on before the first
// real poll cycle.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	apdata "ap-monitor/internal/apdata/domain"
	apdatapg "ap-monitor/internal/apdata/infrastructure/postgres"
	countspg "ap-monitor/internal/counts/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	countsDSN       string
	apDSN           string
	buildings       int
	apsPerBuilding  int
	days            int
	intervalMinutes int
}

func main() {
	cfg := parseConfig()
	if cfg.countsDSN == "" || cfg.apDSN == "" {
		log.Fatal("counts-dsn and ap-dsn are required")
	}
	if cfg.buildings <= 0 || cfg.days <= 0 || cfg.intervalMinutes <= 0 {
		log.Fatal("buildings, days, and interval-minutes must be > 0")
	}

	ctx := context.Background()

	countsDB, err := sql.Open("pgx", cfg.countsDSN)
	if err != nil {
		log.Fatalf("open counts db: %v", err)
	}
	defer countsDB.Close()
	apDB, err := sql.Open("pgx", cfg.apDSN)
	if err != nil {
		log.Fatalf("open ap db: %v", err)
	}
	defer apDB.Close()

	if err := countspg.EnsureSchema(ctx, countsDB); err != nil {
		log.Fatalf("counts schema: %v", err)
	}
	if err := apdatapg.EnsureSchema(ctx, apDB); err != nil {
		log.Fatalf("ap schema: %v", err)
	}
	if err := apdatapg.SeedRadioTypes(ctx, apDB); err != nil {
		log.Fatalf("radio seed: %v", err)
	}

	if err := seed(ctx, countsDB, apDB, cfg); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d buildings, %d days at %dm cadence", cfg.buildings, cfg.days, cfg.intervalMinutes)
}

func seed(ctx context.Context, countsDB, apDB *sql.DB, cfg config) error {
	campuses := countspg.NewCampusRepository(countsDB)
	buildings := countspg.NewBuildingRepository(countsDB)
	counts := countspg.NewClientCountRepository(countsDB)
	hierarchy := apdatapg.NewHierarchyRepository(apDB)
	aps := apdatapg.NewAccessPointRepository(apDB)
	apCounts := apdatapg.NewAPClientCountRepository(apDB)

	campusID, err := campuses.Upsert(ctx, "Keele Campus")
	if err != nil {
		return fmt.Errorf("campus: %w", err)
	}

	start := time.Now().UTC().AddDate(0, 0, -cfg.days).Truncate(time.Minute)
	step := time.Duration(cfg.intervalMinutes) * time.Minute
	end := time.Now().UTC()

	for b := 0; b < cfg.buildings; b++ {
		name := fmt.Sprintf("Perf Building %02d", b+1)
		buildingID, err := buildings.Upsert(ctx, name, campusID)
		if err != nil {
			return fmt.Errorf("building %s: %w", name, err)
		}

		detailBuildingID, err := hierarchy.UpsertBuilding(ctx, name)
		if err != nil {
			return fmt.Errorf("detail building %s: %w", name, err)
		}
		floorID, err := hierarchy.UpsertFloor(ctx, detailBuildingID, "1")
		if err != nil {
			return fmt.Errorf("floor: %w", err)
		}

		apIDs := make([]int64, 0, cfg.apsPerBuilding)
		for a := 0; a < cfg.apsPerBuilding; a++ {
			point := apdata.AccessPoint{
				BuildingID: detailBuildingID,
				FloorID:    floorID,
				Name:       fmt.Sprintf("perf-b%02d-1-%d", b+1, a+1),
				MAC:        fmt.Sprintf("de:ad:be:%02x:%02x:00", b, a),
				IPAddress:  fmt.Sprintf("10.200.%d.%d", b, a+1),
				Model:      "C9130AXI-A",
				Active:     true,
			}
			apID, err := aps.UpsertByMAC(ctx, &point)
			if err != nil {
				return fmt.Errorf("ap: %w", err)
			}
			apIDs = append(apIDs, apID)
		}

		for ts := start; ts.Before(end); ts = ts.Add(step) {
			// Hour of day scales the synthetic load.
			load := (ts.Hour() + 1) * (b + 2)
			if err := counts.Insert(ctx, buildingID, load, ts); err != nil {
				return fmt.Errorf("count insert: %w", err)
			}
			for i, apID := range apIDs {
				for radio := int64(1); radio <= 3; radio++ {
					n := (load + i) % 17
					if err := apCounts.Upsert(ctx, apID, radio, n, ts); err != nil {
						return fmt.Errorf("ap count upsert: %w", err)
					}
				}
			}
		}
	}
	return nil
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.countsDSN, "counts-dsn", "", "aggregate store DSN")
	flag.StringVar(&cfg.apDSN, "ap-dsn", "", "detail store DSN")
	flag.IntVar(&cfg.buildings, "buildings", 5, "buildings to seed")
	flag.IntVar(&cfg.apsPerBuilding, "aps-per-building", 10, "APs per building")
	flag.IntVar(&cfg.days, "days", 2, "days of history")
	flag.IntVar(&cfg.intervalMinutes, "interval-minutes", 15, "sample cadence")
	flag.Parse()
	return cfg
}
