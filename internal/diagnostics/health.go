package diagnostics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	counts "ap-monitor/internal/counts/domain"
	"ap-monitor/internal/notify"
)

const (
	// alertThreshold is the 24h average above which a zero reading is
	// suspicious rather than an empty building.
	alertThreshold = 10
	// highSeverityThreshold escalates the alert.
	highSeverityThreshold = 50
)

// BuildingLister lists the aggregate store's buildings.
type BuildingLister interface {
	List(ctx context.Context) ([]counts.Building, error)
}

// CountReader reads per-building count history.
type CountReader interface {
	LatestForBuilding(ctx context.Context, buildingID int64) (int, time.Time, bool, error)
	AverageSince(ctx context.Context, buildingID int64, since time.Time) (float64, bool, error)
}

// HealthAlert flags a building whose current reading contradicts its recent
// history.
type HealthAlert struct {
	Building      string    `json:"building_name"`
	CurrentCount  int       `json:"current_count"`
	HistoricalAvg float64   `json:"historical_avg"`
	Timestamp     time.Time `json:"timestamp"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
}

// Report is one diagnostics pass over the aggregate store.
type Report struct {
	ID                 string        `json:"id"`
	Timestamp          time.Time     `json:"timestamp"`
	ZeroCountBuildings []string      `json:"zero_count_buildings"`
	HealthAlerts       []HealthAlert `json:"health_alerts"`
	Summary            Summary       `json:"summary"`
}

// Summary tallies a report.
type Summary struct {
	BuildingsAnalyzed int `json:"total_buildings_analyzed"`
	ActiveAlerts      int `json:"active_alerts"`
}

// Analyzer inspects the aggregate store for buildings that report zero
// clients against a significant recent average.
type Analyzer struct {
	buildings BuildingLister
	countsRep CountReader
	notifier  notify.Notifier
	log       zerolog.Logger
	now       func() time.Time
}

// NewAnalyzer constructs an analyzer. notifier may be nil; alerts are then
// only reported, not forwarded.
func NewAnalyzer(buildings BuildingLister, countsRep CountReader, notifier notify.Notifier, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		buildings: buildings,
		countsRep: countsRep,
		notifier:  notifier,
		log:       log.With().Str("component", "diagnostics.analyzer").Logger(),
		now:       time.Now,
	}
}

// Report runs one diagnostics pass. Alerts fire when the latest reading is
// zero but the 24h average exceeds the threshold; severity escalates with
// the average.
func (a *Analyzer) Report(ctx context.Context) (Report, error) {
	report := Report{
		ID:        uuid.NewString(),
		Timestamp: a.now().UTC(),
	}

	buildings, err := a.buildings.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("diagnostics: list buildings: %w", err)
	}
	report.Summary.BuildingsAnalyzed = len(buildings)

	for _, building := range buildings {
		latest, ts, ok, err := a.countsRep.LatestForBuilding(ctx, building.ID)
		if err != nil {
			return Report{}, fmt.Errorf("diagnostics: latest for %s: %w", building.Name, err)
		}
		if !ok || latest != 0 {
			continue
		}
		report.ZeroCountBuildings = append(report.ZeroCountBuildings, building.Name)

		avg, ok, err := a.countsRep.AverageSince(ctx, building.ID, a.now().Add(-24*time.Hour))
		if err != nil {
			return Report{}, fmt.Errorf("diagnostics: average for %s: %w", building.Name, err)
		}
		if !ok || avg <= alertThreshold {
			continue
		}

		severity := "medium"
		if avg > highSeverityThreshold {
			severity = "high"
		}
		alert := HealthAlert{
			Building:      building.Name,
			CurrentCount:  latest,
			HistoricalAvg: avg,
			Timestamp:     ts,
			Severity:      severity,
			Message: fmt.Sprintf("building %s shows zero clients against a 24h average of %.2f",
				building.Name, avg),
		}
		report.HealthAlerts = append(report.HealthAlerts, alert)
		a.forward(ctx, alert)
	}
	report.Summary.ActiveAlerts = len(report.HealthAlerts)
	return report, nil
}

func (a *Analyzer) forward(ctx context.Context, alert HealthAlert) {
	if a.notifier == nil {
		return
	}
	err := a.notifier.Notify(ctx, notify.AlertMessage{
		Kind:     "building_health",
		Building: alert.Building,
		Severity: alert.Severity,
		Detail:   alert.Message,
	})
	if err != nil {
		a.log.Warn().Err(err).Str("building", alert.Building).Msg("alert forward failed")
	}
}
