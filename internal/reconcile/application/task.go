// Package application orchestrates the poll cycle: fetch the controller
// feeds, merge them into canonical records, and persist into the aggregate
// and detail stores on independent schedules.
package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apdata "ap-monitor/internal/apdata/domain"
	"ap-monitor/internal/diagnostics"
	"ap-monitor/internal/dnac"
	"ap-monitor/internal/location"
	"ap-monitor/internal/notify"
	"ap-monitor/internal/observability/metrics"
	"ap-monitor/internal/reconcile/domain"
)

// Fetcher is the controller-facing port of the task. *dnac.Client satisfies
// it.
type Fetcher interface {
	FetchAPInventory(ctx context.Context) ([]dnac.APConfig, error)
	FetchDeviceHealth(ctx context.Context) ([]dnac.DeviceHealth, error)
	FetchClientCounts(ctx context.Context) (map[string]int, error)
	FetchClients(ctx context.Context) ([]dnac.ClientSession, error)
	FetchSiteHealth(ctx context.Context) ([]dnac.SiteHealth, error)
	FetchPlannedAPs(ctx context.Context) ([]dnac.PlannedAP, error)
}

// Task runs one job cycle at a time. It owns no schedule of its own; the
// scheduler decides when to call Run, the task decides when the next call
// should happen and writes it back into the shared state.
type Task struct {
	fetcher   Fetcher
	aggregate AggregateStore
	detail    DetailStore
	state     *State
	sink      *diagnostics.Sink
	notifier  notify.Notifier
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
}

// NewTask wires a task. notifier may be nil.
func NewTask(
	fetcher Fetcher,
	aggregate AggregateStore,
	detail DetailStore,
	state *State,
	sink *diagnostics.Sink,
	notifier notify.Notifier,
	cfg Config,
	log zerolog.Logger,
) *Task {
	return &Task{
		fetcher:   fetcher,
		aggregate: aggregate,
		detail:    detail,
		state:     state,
		sink:      sink,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With().Str("component", "reconcile.task").Logger(),
		now:       time.Now,
	}
}

// Run executes one cycle of the given job and reschedules it. An upstream
// outage (404/500 on any feed) opens the shared maintenance window and
// reschedules both this job and, through the shared state, its sibling at the
// window's end. Persistence failures in the detail job are logged and
// swallowed; in the aggregate job they propagate.
func (t *Task) Run(ctx context.Context, job JobID) error {
	start := t.now()
	if t.state.InMaintenance(start) {
		until := t.state.MaintenanceUntil()
		t.state.SetNextRun(job, until)
		t.state.RecordResult(job, start, "skipped_maintenance", nil)
		t.log.Info().Str("job", string(job)).Time("until", until).Msg("maintenance window active, cycle skipped")
		return nil
	}

	err := t.runOnce(ctx, job, start)
	elapsed := t.now().Sub(start)
	switch {
	case err == nil:
		metrics.ObserveCycle(string(job), metrics.ResultSuccess, elapsed)
		t.state.SetNextRun(job, nextRunAfter(start, t.cfg.Interval()))
		t.state.RecordResult(job, start, "success", nil)
		return nil

	case dnac.IsUnavailable(err):
		until := start.Add(t.cfg.MaintenanceWindow())
		t.state.EnterMaintenance(until)
		t.state.SetNextRun(job, until)
		t.state.RecordResult(job, start, "maintenance", err)
		metrics.ObserveCycle(string(job), "maintenance", elapsed)
		t.log.Warn().Err(err).Str("job", string(job)).Time("until", until).
			Msg("controller unavailable, entering maintenance window")
		t.notifyMaintenance(ctx, job, until, err)
		return nil

	default:
		metrics.ObserveCycle(string(job), metrics.ResultError, elapsed)
		t.state.SetNextRun(job, nextRunAfter(start, t.cfg.Interval()))
		t.state.RecordResult(job, start, "error", err)
		if job == JobAPData {
			// The detail store degrades quietly; the aggregate feed keeps
			// running on stale hierarchy until the next cycle.
			t.log.Error().Err(err).Str("job", string(job)).Msg("detail cycle failed")
			return nil
		}
		return err
	}
}

// nextRunAfter is the post-success reschedule: the interval ahead, snapped
// back to the whole minute.
func nextRunAfter(now time.Time, interval time.Duration) time.Time {
	return now.Add(interval).Truncate(time.Minute)
}

func (t *Task) runOnce(ctx context.Context, job JobID, ts time.Time) error {
	batch, err := t.collect(ctx)
	if err != nil {
		return err
	}
	t.recordMergeOutcome(batch)

	switch job {
	case JobAPData:
		return t.persistDetail(ctx, batch, ts)
	case JobClientCount:
		return t.persistAggregate(ctx, batch, ts)
	default:
		return fmt.Errorf("task: unknown job %q", job)
	}
}

// collect fetches all six feeds and merges them. The two primary feeds must
// succeed; the fallback feeds may fail (they merge as empty) unless the
// failure is an outage, which always propagates.
func (t *Task) collect(ctx context.Context) (domain.Result, error) {
	var inputs domain.Inputs
	var err error

	if inputs.Inventory, err = t.fetcher.FetchAPInventory(ctx); err != nil {
		return domain.Result{}, fmt.Errorf("task: ap inventory: %w", err)
	}
	if inputs.DeviceHealth, err = t.fetcher.FetchDeviceHealth(ctx); err != nil {
		return domain.Result{}, fmt.Errorf("task: device health: %w", err)
	}

	if inputs.ClientCounts, err = t.fetcher.FetchClientCounts(ctx); err != nil {
		if dnac.IsUnavailable(err) {
			return domain.Result{}, fmt.Errorf("task: client counts: %w", err)
		}
		t.log.Warn().Err(err).Str("feed", "clients_count").Msg("fallback feed failed")
		inputs.ClientCounts = nil
	}
	if inputs.Sessions, err = t.fetcher.FetchClients(ctx); err != nil {
		if dnac.IsUnavailable(err) {
			return domain.Result{}, fmt.Errorf("task: clients: %w", err)
		}
		t.log.Warn().Err(err).Str("feed", "clients").Msg("fallback feed failed")
		inputs.Sessions = nil
	}
	if inputs.SiteHealth, err = t.fetcher.FetchSiteHealth(ctx); err != nil {
		if dnac.IsUnavailable(err) {
			return domain.Result{}, fmt.Errorf("task: site health: %w", err)
		}
		t.log.Warn().Err(err).Str("feed", "site_health").Msg("fallback feed failed")
		inputs.SiteHealth = nil
	}
	if inputs.PlannedAPs, err = t.fetcher.FetchPlannedAPs(ctx); err != nil {
		if dnac.IsUnavailable(err) {
			return domain.Result{}, fmt.Errorf("task: planned aps: %w", err)
		}
		t.log.Warn().Err(err).Str("feed", "planned_aps").Msg("fallback feed failed")
		inputs.PlannedAPs = nil
	}

	return domain.Merge(inputs), nil
}

func (t *Task) recordMergeOutcome(batch domain.Result) {
	statusCounts := make(map[domain.Status]int)
	for _, record := range batch.Records {
		statusCounts[record.Status]++
	}
	for status, n := range statusCounts {
		metrics.AddRecordsMerged(string(status), n)
	}
	if batch.DroppedNoMAC > 0 {
		t.log.Warn().Int("dropped", batch.DroppedNoMAC).Msg("upstream rows without mac dropped")
	}
	if err := t.sink.Record(batch.Incomplete); err != nil {
		t.log.Warn().Err(err).Msg("diagnostics sink write failed")
	}
}

func (t *Task) persistDetail(ctx context.Context, batch domain.Result, ts time.Time) error {
	tx, err := t.detail.Begin(ctx)
	if err != nil {
		return fmt.Errorf("task: begin detail tx: %w", err)
	}
	if err := t.writeDetail(ctx, tx, batch, ts); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("task: commit detail tx: %w", err)
	}
	return nil
}

func (t *Task) writeDetail(ctx context.Context, tx DetailTx, batch domain.Result, ts time.Time) error {
	buildingIDs := make(map[string]int64)
	floorIDs := make(map[string]int64)
	roomIDs := make(map[string]int64)
	written := 0

	for i := range batch.Records {
		record := &batch.Records[i]
		building, floor, room, ok := location.ParseLocationDetail(record.Location)
		if !ok {
			metrics.IncRecordsSkipped("location_unparseable")
			t.log.Debug().Str("mac", record.MAC).Str("location", record.Location).
				Msg("unparseable location, record skipped")
			continue
		}

		buildingID, ok := buildingIDs[building]
		if !ok {
			var err error
			if buildingID, err = tx.UpsertBuilding(ctx, building); err != nil {
				return fmt.Errorf("task: upsert building %q: %w", building, err)
			}
			buildingIDs[building] = buildingID
		}

		floorKey := building + "\x00" + floor
		floorID, ok := floorIDs[floorKey]
		if !ok {
			var err error
			if floorID, err = tx.UpsertFloor(ctx, buildingID, floor); err != nil {
				return fmt.Errorf("task: upsert floor %q/%q: %w", building, floor, err)
			}
			floorIDs[floorKey] = floorID
		}

		var roomID *int64
		if room != "" {
			roomKey := floorKey + "\x00" + room
			id, ok := roomIDs[roomKey]
			if !ok {
				var err error
				if id, err = tx.UpsertRoom(ctx, floorID, room); err != nil {
					return fmt.Errorf("task: upsert room %q: %w", room, err)
				}
				roomIDs[roomKey] = id
			}
			roomID = &id
		}

		name := record.Name
		if name == "" {
			name = record.MAC
		}
		ap := &apdata.AccessPoint{
			BuildingID: buildingID,
			FloorID:    floorID,
			RoomID:     roomID,
			Name:       name,
			MAC:        record.MAC,
			IPAddress:  record.IPAddress,
			Model:      record.Model,
			Active:     !strings.EqualFold(record.Reachability, "DOWN"),
		}
		apID, err := tx.UpsertAccessPoint(ctx, ap)
		if err != nil {
			return fmt.Errorf("task: upsert ap %s: %w", record.MAC, err)
		}

		radios := make([]string, 0, len(record.RadioCounts))
		for radio := range record.RadioCounts {
			radios = append(radios, radio)
		}
		sort.Strings(radios)
		for _, radio := range radios {
			radioID, ok := apdata.RadioIDForKey(radio)
			if !ok {
				metrics.IncRecordsSkipped("unknown_radio")
				continue
			}
			if err := tx.UpsertClientCount(ctx, apID, radioID, record.RadioCounts[radio], ts); err != nil {
				return fmt.Errorf("task: upsert radio count for %s: %w", record.MAC, err)
			}
		}
		written++
	}

	t.log.Info().Int("aps", written).Int("merged", len(batch.Records)).Msg("detail store updated")
	return nil
}

func (t *Task) persistAggregate(ctx context.Context, batch domain.Result, ts time.Time) error {
	tx, err := t.aggregate.Begin(ctx)
	if err != nil {
		return fmt.Errorf("task: begin aggregate tx: %w", err)
	}
	if err := t.writeAggregate(ctx, tx, batch, ts); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("task: commit aggregate tx: %w", err)
	}
	return nil
}

func (t *Task) writeAggregate(ctx context.Context, tx AggregateTx, batch domain.Result, ts time.Time) error {
	campusID, err := tx.UpsertCampus(ctx, t.cfg.Campus)
	if err != nil {
		return fmt.Errorf("task: upsert campus: %w", err)
	}

	sums := make(map[string]int)
	siteBacked := make(map[string]int)
	for _, record := range batch.Records {
		if record.ClientCount == nil {
			metrics.IncRecordsSkipped("no_client_count")
			continue
		}
		building, _, ok := location.ParseLocation(record.Location)
		if !ok {
			metrics.IncRecordsSkipped("location_unparseable")
			continue
		}
		canonical, ok := t.canonicalBuilding(building)
		if !ok {
			metrics.IncRecordsSkipped("building_unmappable")
			t.log.Debug().Str("building", building).Str("mac", record.MAC).
				Msg("building not in canonical vocabulary, record skipped")
			continue
		}
		// A site aggregate counts the whole building; summing it once per AP
		// would multiply it. It only stands in when no per-AP count exists.
		if record.Sources["clientCount"] == domain.SourceSiteHealth {
			siteBacked[canonical] = *record.ClientCount
			continue
		}
		sums[canonical] += *record.ClientCount
	}
	for building, total := range siteBacked {
		if _, ok := sums[building]; !ok {
			sums[building] = total
		}
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make(map[string]bool, len(names))
	for _, name := range names {
		buildingID, err := tx.UpsertBuilding(ctx, name, campusID)
		if err != nil {
			return fmt.Errorf("task: upsert building %q: %w", name, err)
		}
		if err := tx.InsertClientCount(ctx, buildingID, sums[name], ts); err != nil {
			return fmt.Errorf("task: insert count for %q: %w", name, err)
		}
		written[name] = true
	}

	// Buildings known to the store but absent this cycle read as empty, not
	// as gaps.
	known, err := tx.ListBuildings(ctx)
	if err != nil {
		return fmt.Errorf("task: list buildings: %w", err)
	}
	zeros := 0
	for _, building := range known {
		if written[building.Name] {
			continue
		}
		if err := tx.InsertClientCount(ctx, building.ID, 0, ts); err != nil {
			return fmt.Errorf("task: zero count for %q: %w", building.Name, err)
		}
		zeros++
	}

	t.log.Info().Int("buildings", len(names)).Int("zero_filled", zeros).Msg("aggregate store updated")
	return nil
}

// canonicalBuilding applies config overrides ahead of the normalization
// chain.
func (t *Task) canonicalBuilding(raw string) (string, bool) {
	if mapped, ok := t.cfg.BuildingOverrides[raw]; ok {
		return mapped, true
	}
	if mapped, ok := t.cfg.BuildingOverrides[strings.ToLower(raw)]; ok {
		return mapped, true
	}
	return location.NormalizeBuilding(raw)
}

func (t *Task) notifyMaintenance(ctx context.Context, job JobID, until time.Time, cause error) {
	if t.notifier == nil {
		return
	}
	err := t.notifier.Notify(ctx, notify.AlertMessage{
		Kind:     "maintenance_window",
		Job:      string(job),
		Severity: "high",
		Detail:   cause.Error(),
		Until:    until.UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.log.Warn().Err(err).Msg("maintenance alert failed")
	}
}
