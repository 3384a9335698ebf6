package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apdata "ap-monitor/internal/apdata/domain"
	counts "ap-monitor/internal/counts/domain"
	"ap-monitor/internal/diagnostics"
	"ap-monitor/internal/dnac"
	"ap-monitor/internal/notify"
)

type stubFetcher struct {
	inventory []dnac.APConfig
	health    []dnac.DeviceHealth
	counts    map[string]int
	sessions  []dnac.ClientSession
	sites     []dnac.SiteHealth
	planned   []dnac.PlannedAP

	healthErr error
	countsErr error

	inventoryCalls int
}

func (f *stubFetcher) FetchAPInventory(context.Context) ([]dnac.APConfig, error) {
	f.inventoryCalls++
	return f.inventory, nil
}

func (f *stubFetcher) FetchDeviceHealth(context.Context) ([]dnac.DeviceHealth, error) {
	return f.health, f.healthErr
}

func (f *stubFetcher) FetchClientCounts(context.Context) (map[string]int, error) {
	return f.counts, f.countsErr
}

func (f *stubFetcher) FetchClients(context.Context) ([]dnac.ClientSession, error) {
	return f.sessions, nil
}

func (f *stubFetcher) FetchSiteHealth(context.Context) ([]dnac.SiteHealth, error) {
	return f.sites, nil
}

func (f *stubFetcher) FetchPlannedAPs(context.Context) ([]dnac.PlannedAP, error) {
	return f.planned, nil
}

type aggRow struct {
	building string
	count    int
	ts       time.Time
}

type memAggregate struct {
	nextID     int64
	campuses   []string
	buildings  map[string]int64
	rows       []aggRow
	commits    int
	rollbacks  int
	failInsert bool
}

func newMemAggregate() *memAggregate {
	return &memAggregate{buildings: make(map[string]int64)}
}

func (m *memAggregate) seedBuilding(name string) {
	m.nextID++
	m.buildings[name] = m.nextID
}

func (m *memAggregate) rowFor(building string) (aggRow, bool) {
	for _, row := range m.rows {
		if row.building == building {
			return row, true
		}
	}
	return aggRow{}, false
}

func (m *memAggregate) Begin(context.Context) (AggregateTx, error) {
	return &memAggregateTx{m: m}, nil
}

type memAggregateTx struct{ m *memAggregate }

func (t *memAggregateTx) UpsertCampus(_ context.Context, name string) (int64, error) {
	t.m.campuses = append(t.m.campuses, name)
	return 1, nil
}

func (t *memAggregateTx) UpsertBuilding(_ context.Context, name string, _ int64) (int64, error) {
	if id, ok := t.m.buildings[name]; ok {
		return id, nil
	}
	t.m.nextID++
	t.m.buildings[name] = t.m.nextID
	return t.m.nextID, nil
}

func (t *memAggregateTx) ListBuildings(context.Context) ([]counts.Building, error) {
	var out []counts.Building
	for name, id := range t.m.buildings {
		out = append(out, counts.Building{ID: id, Name: name})
	}
	return out, nil
}

func (t *memAggregateTx) InsertClientCount(_ context.Context, buildingID int64, count int, ts time.Time) error {
	if t.m.failInsert {
		return errors.New("insert failed")
	}
	for name, id := range t.m.buildings {
		if id == buildingID {
			t.m.rows = append(t.m.rows, aggRow{building: name, count: count, ts: ts})
			return nil
		}
	}
	return fmt.Errorf("unknown building id %d", buildingID)
}

func (t *memAggregateTx) Commit() error   { t.m.commits++; return nil }
func (t *memAggregateTx) Rollback() error { t.m.rollbacks++; return nil }

type detailCount struct {
	apID    int64
	radioID int64
	count   int
	ts      time.Time
}

type memDetail struct {
	nextID    int64
	buildings map[string]int64
	floors    map[string]int64
	rooms     map[string]int64
	aps       map[string]apdata.AccessPoint
	apIDs     map[string]int64
	counts    []detailCount
	commits   int
	rollbacks int
	failAP    bool
}

func newMemDetail() *memDetail {
	return &memDetail{
		buildings: make(map[string]int64),
		floors:    make(map[string]int64),
		rooms:     make(map[string]int64),
		aps:       make(map[string]apdata.AccessPoint),
		apIDs:     make(map[string]int64),
	}
}

func (m *memDetail) Begin(context.Context) (DetailTx, error) {
	return &memDetailTx{m: m}, nil
}

func (m *memDetail) id(table map[string]int64, key string) int64 {
	if id, ok := table[key]; ok {
		return id
	}
	m.nextID++
	table[key] = m.nextID
	return m.nextID
}

type memDetailTx struct{ m *memDetail }

func (t *memDetailTx) UpsertBuilding(_ context.Context, name string) (int64, error) {
	return t.m.id(t.m.buildings, name), nil
}

func (t *memDetailTx) UpsertFloor(_ context.Context, buildingID int64, name string) (int64, error) {
	return t.m.id(t.m.floors, fmt.Sprintf("%d/%s", buildingID, name)), nil
}

func (t *memDetailTx) UpsertRoom(_ context.Context, floorID int64, name string) (int64, error) {
	return t.m.id(t.m.rooms, fmt.Sprintf("%d/%s", floorID, name)), nil
}

func (t *memDetailTx) UpsertAccessPoint(_ context.Context, ap *apdata.AccessPoint) (int64, error) {
	if t.m.failAP {
		return 0, errors.New("upsert failed")
	}
	id := t.m.id(t.m.apIDs, ap.MAC)
	ap.ID = id
	t.m.aps[ap.MAC] = *ap
	return id, nil
}

func (t *memDetailTx) UpsertClientCount(_ context.Context, apID, radioID int64, count int, ts time.Time) error {
	t.m.counts = append(t.m.counts, detailCount{apID: apID, radioID: radioID, count: count, ts: ts})
	return nil
}

func (t *memDetailTx) Commit() error   { t.m.commits++; return nil }
func (t *memDetailTx) Rollback() error { t.m.rollbacks++; return nil }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type captureNotifier struct{ alerts []notify.AlertMessage }

func (c *captureNotifier) Notify(_ context.Context, msg notify.AlertMessage) error {
	c.alerts = append(c.alerts, msg)
	return nil
}

func testConfig() Config {
	return Config{
		IntervalMinutes:    5,
		GraceSeconds:       60,
		MaintenanceMinutes: 60,
		Campus:             "Keele Campus",
	}
}

func newTestTask(fetcher Fetcher, aggregate AggregateStore, detail DetailStore, notifier notify.Notifier, clock *fakeClock) (*Task, *State) {
	state := NewState()
	sink := diagnostics.NewSink("", false, zerolog.Nop())
	task := NewTask(fetcher, aggregate, detail, state, sink, notifier, testConfig(), zerolog.Nop())
	task.now = clock.Now
	return task, state
}

func intPtr(n int) *int { return &n }

func TestRunAPDataPersistsDetail(t *testing.T) {
	fetcher := &stubFetcher{
		inventory: []dnac.APConfig{
			{Name: "k372-ross-5-1", MAC: "AA:BB:CC:DD:EE:01", Model: "C9130AXI", IPAddress: "10.0.0.1"},
		},
		health: []dnac.DeviceHealth{
			{
				MAC:               "aa:bb:cc:dd:ee:01",
				Reachability:      "UP",
				RadioCounts:       map[string]int{"radio0": 3, "radio1": 2},
				EffectiveLocation: "Global/Keele Campus/Ross Building/5/105",
			},
		},
	}
	aggregate := newMemAggregate()
	detail := newMemDetail()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 2, 30, 0, time.UTC)}
	task, state := newTestTask(fetcher, aggregate, detail, nil, clock)

	if err := task.Run(context.Background(), JobAPData); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if detail.commits != 1 || detail.rollbacks != 0 {
		t.Fatalf("commits = %d, rollbacks = %d", detail.commits, detail.rollbacks)
	}
	if _, ok := detail.buildings["Ross Building"]; !ok {
		t.Fatalf("buildings = %v", detail.buildings)
	}
	ap, ok := detail.aps["aa:bb:cc:dd:ee:01"]
	if !ok {
		t.Fatalf("aps = %v", detail.aps)
	}
	if ap.Name != "k372-ross-5-1" || ap.Model != "C9130AXI" || !ap.Active {
		t.Fatalf("ap = %+v", ap)
	}
	if ap.RoomID == nil {
		t.Fatal("room not resolved from fifth path segment")
	}
	if len(detail.counts) != 2 {
		t.Fatalf("counts = %+v", detail.counts)
	}
	for _, row := range detail.counts {
		if !row.ts.Equal(clock.t) {
			t.Fatalf("count ts = %v, want cycle start", row.ts)
		}
	}

	wantNext := time.Date(2026, 3, 1, 12, 7, 0, 0, time.UTC)
	if got := state.NextRun(JobAPData); !got.Equal(wantNext) {
		t.Fatalf("next run = %v, want %v", got, wantNext)
	}
}

func TestRunClientCountAggregates(t *testing.T) {
	fetcher := &stubFetcher{
		health: []dnac.DeviceHealth{
			{
				MAC:               "aa:bb:cc:dd:ee:01",
				RadioCounts:       map[string]int{"radio0": 3, "radio1": 2},
				EffectiveLocation: "Global/Keele Campus/Ross Building/5/1",
			},
			{
				MAC:               "aa:bb:cc:dd:ee:02",
				EffectiveLocation: "Global/Keele Campus/Ross Building/6/2",
			},
			{
				MAC:               "aa:bb:cc:dd:ee:03",
				EffectiveLocation: "Global/Keele Campus/Vari Hall/1/10",
			},
			{
				MAC:               "aa:bb:cc:dd:ee:04",
				EffectiveLocation: "Global/Keele Campus/Vari Hall/1/11",
			},
		},
		counts: map[string]int{"aa:bb:cc:dd:ee:02": 7},
		sites: []dnac.SiteHealth{
			{SiteName: "Vari Hall", WirelessClients: intPtr(40)},
		},
	}
	aggregate := newMemAggregate()
	aggregate.seedBuilding("Lumbers")
	detail := newMemDetail()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	task, _ := newTestTask(fetcher, aggregate, detail, nil, clock)

	if err := task.Run(context.Background(), JobClientCount); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if aggregate.commits != 1 {
		t.Fatalf("commits = %d", aggregate.commits)
	}
	if len(aggregate.campuses) != 1 || aggregate.campuses[0] != "Keele Campus" {
		t.Fatalf("campuses = %v", aggregate.campuses)
	}
	// Two Ross APs sum; the building-level site aggregate is recorded once,
	// not once per AP; the seeded building absent this cycle reads zero.
	if row, ok := aggregate.rowFor("Ross"); !ok || row.count != 12 {
		t.Fatalf("Ross row = %+v, ok = %v", row, ok)
	}
	if row, ok := aggregate.rowFor("Vari Hall"); !ok || row.count != 40 {
		t.Fatalf("Vari Hall row = %+v, ok = %v", row, ok)
	}
	if row, ok := aggregate.rowFor("Lumbers"); !ok || row.count != 0 {
		t.Fatalf("Lumbers row = %+v, ok = %v", row, ok)
	}
	if len(aggregate.rows) != 3 {
		t.Fatalf("rows = %+v", aggregate.rows)
	}
}

func TestRunUnavailableEntersMaintenance(t *testing.T) {
	fetcher := &stubFetcher{
		healthErr: &dnac.UnavailableError{Endpoint: "device-health", StatusCode: 500},
	}
	aggregate := newMemAggregate()
	detail := newMemDetail()
	notifier := &captureNotifier{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	task, state := newTestTask(fetcher, aggregate, detail, notifier, clock)

	if err := task.Run(context.Background(), JobClientCount); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantUntil := clock.t.Add(time.Hour)
	if got := state.MaintenanceUntil(); !got.Equal(wantUntil) {
		t.Fatalf("maintenance until = %v, want %v", got, wantUntil)
	}
	if got := state.NextRun(JobClientCount); !got.Equal(wantUntil) {
		t.Fatalf("next run = %v, want window end", got)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].Kind != "maintenance_window" {
		t.Fatalf("alerts = %+v", notifier.alerts)
	}

	// The sibling job skips without touching the controller while the window
	// is open.
	calls := fetcher.inventoryCalls
	clock.advance(10 * time.Minute)
	if err := task.Run(context.Background(), JobAPData); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fetcher.inventoryCalls != calls {
		t.Fatalf("inventory calls = %d, want %d (no fetch during maintenance)", fetcher.inventoryCalls, calls)
	}
	if got := state.NextRun(JobAPData); !got.Equal(wantUntil) {
		t.Fatalf("sibling next run = %v, want window end", got)
	}
}

func TestRunResumesAfterMaintenanceLapses(t *testing.T) {
	fetcher := &stubFetcher{}
	aggregate := newMemAggregate()
	detail := newMemDetail()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	task, state := newTestTask(fetcher, aggregate, detail, nil, clock)

	state.EnterMaintenance(clock.t.Add(time.Hour))
	clock.advance(time.Hour + time.Minute)

	if err := task.Run(context.Background(), JobAPData); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fetcher.inventoryCalls != 1 {
		t.Fatalf("inventory calls = %d, want a real cycle after the window", fetcher.inventoryCalls)
	}
	if !state.MaintenanceUntil().IsZero() {
		t.Fatalf("window not cleared: %v", state.MaintenanceUntil())
	}
}

func TestRunClientCountPersistErrorPropagates(t *testing.T) {
	fetcher := &stubFetcher{
		health: []dnac.DeviceHealth{
			{
				MAC:               "aa:bb:cc:dd:ee:01",
				RadioCounts:       map[string]int{"radio0": 4},
				EffectiveLocation: "Global/Keele Campus/Ross Building/5/1",
			},
		},
	}
	aggregate := newMemAggregate()
	aggregate.failInsert = true
	detail := newMemDetail()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	task, state := newTestTask(fetcher, aggregate, detail, nil, clock)

	err := task.Run(context.Background(), JobClientCount)
	if err == nil {
		t.Fatal("expected persistence error to propagate")
	}
	if aggregate.rollbacks != 1 || aggregate.commits != 0 {
		t.Fatalf("rollbacks = %d, commits = %d", aggregate.rollbacks, aggregate.commits)
	}
	if state.NextRun(JobClientCount).IsZero() {
		t.Fatal("job not rescheduled after error")
	}
}

func TestRunAPDataPersistErrorSwallowed(t *testing.T) {
	fetcher := &stubFetcher{
		health: []dnac.DeviceHealth{
			{
				MAC:               "aa:bb:cc:dd:ee:01",
				RadioCounts:       map[string]int{"radio0": 4},
				EffectiveLocation: "Global/Keele Campus/Ross Building/5/1",
			},
		},
	}
	aggregate := newMemAggregate()
	detail := newMemDetail()
	detail.failAP = true
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	task, state := newTestTask(fetcher, aggregate, detail, nil, clock)

	if err := task.Run(context.Background(), JobAPData); err != nil {
		t.Fatalf("detail persistence failure should be swallowed, got %v", err)
	}
	if detail.rollbacks != 1 {
		t.Fatalf("rollbacks = %d", detail.rollbacks)
	}
	if snap := state.Snapshot(); snap.Jobs[string(JobAPData)].LastResult != "error" {
		t.Fatalf("last result = %q", snap.Jobs[string(JobAPData)].LastResult)
	}
}

func TestRunToleratesFallbackFeedFailure(t *testing.T) {
	fetcher := &stubFetcher{
		health: []dnac.DeviceHealth{
			{
				MAC:               "aa:bb:cc:dd:ee:01",
				RadioCounts:       map[string]int{"radio0": 4},
				EffectiveLocation: "Global/Keele Campus/Ross Building/5/1",
			},
		},
		countsErr: errors.New("transient decode failure"),
	}
	aggregate := newMemAggregate()
	detail := newMemDetail()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	task, _ := newTestTask(fetcher, aggregate, detail, nil, clock)

	if err := task.Run(context.Background(), JobAPData); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if detail.commits != 1 {
		t.Fatalf("commits = %d", detail.commits)
	}
}

func TestLateBeyondGrace(t *testing.T) {
	scheduled := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		late time.Duration
		want bool
	}{
		{0, false},
		{30 * time.Second, false},
		{60 * time.Second, false},
		{61 * time.Second, true},
		{10 * time.Minute, true},
	}
	for _, tc := range cases {
		got := lateBeyondGrace(scheduled, scheduled.Add(tc.late), time.Minute)
		if got != tc.want {
			t.Errorf("lateBeyondGrace(+%v) = %v, want %v", tc.late, got, tc.want)
		}
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	fetcher := &stubFetcher{}
	aggregate := newMemAggregate()
	detail := newMemDetail()
	clock := &fakeClock{t: time.Now()}
	task, state := newTestTask(fetcher, aggregate, detail, nil, clock)

	scheduler := NewScheduler(task, state, testConfig(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler loops did not stop on cancel")
	}
}
