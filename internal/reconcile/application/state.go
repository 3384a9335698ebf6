package application

import (
	"sync"
	"time"

	"ap-monitor/internal/observability/metrics"
)

// JobID names one of the two persistence jobs.
type JobID string

const (
	// JobAPData refreshes the detail store (hierarchy, APs, per-radio counts).
	JobAPData JobID = "update_ap_data"
	// JobClientCount refreshes the aggregate store (per-building totals).
	JobClientCount JobID = "update_client_count"
)

// Jobs lists every scheduled job in a fixed order.
func Jobs() []JobID { return []JobID{JobAPData, JobClientCount} }

// ParseJobID validates an externally supplied job name.
func ParseJobID(s string) (JobID, bool) {
	switch JobID(s) {
	case JobAPData:
		return JobAPData, true
	case JobClientCount:
		return JobClientCount, true
	default:
		return "", false
	}
}

// JobStatus is the per-job view of the scheduler state.
type JobStatus struct {
	NextRun    time.Time `json:"next_run"`
	LastRun    time.Time `json:"last_run,omitempty"`
	LastResult string    `json:"last_result,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// State is the scheduler's owned, mutex-guarded view of job timing and the
// shared maintenance window. It is the only mutable state the pipeline keeps
// between cycles.
type State struct {
	mu               sync.Mutex
	maintenanceUntil time.Time
	jobs             map[JobID]*JobStatus
}

// NewState constructs an empty state for the known jobs.
func NewState() *State {
	jobs := make(map[JobID]*JobStatus)
	for _, job := range Jobs() {
		jobs[job] = &JobStatus{}
	}
	return &State{jobs: jobs}
}

// NextRun returns the job's next scheduled fire, zero if never scheduled.
func (s *State) NextRun(job JobID) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.jobs[job]; ok {
		return status.NextRun
	}
	return time.Time{}
}

// SetNextRun records the job's next fire instant.
func (s *State) SetNextRun(job JobID, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.jobs[job]; ok {
		status.NextRun = t
	}
}

// RecordResult stores the outcome of a completed (or skipped) run.
func (s *State) RecordResult(job JobID, ranAt time.Time, result string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.jobs[job]
	if !ok {
		return
	}
	status.LastRun = ranAt
	status.LastResult = result
	status.LastError = ""
	if err != nil {
		status.LastError = err.Error()
	}
}

// EnterMaintenance suspends all jobs until the given instant. The window only
// ever extends; a shorter window never shrinks an active one.
func (s *State) EnterMaintenance(until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.maintenanceUntil) {
		s.maintenanceUntil = until
		metrics.SetMaintenanceWindow(until)
	}
}

// MaintenanceUntil returns the end of the active window, zero if none.
func (s *State) MaintenanceUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maintenanceUntil
}

// InMaintenance reports whether the window is active at the given instant,
// clearing the window (and its gauge) once it has lapsed.
func (s *State) InMaintenance(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maintenanceUntil.IsZero() {
		return false
	}
	if !now.Before(s.maintenanceUntil) {
		s.maintenanceUntil = time.Time{}
		metrics.SetMaintenanceWindow(time.Time{})
		return false
	}
	return true
}

// Snapshot is the read-only state view served over HTTP.
type Snapshot struct {
	MaintenanceUntil time.Time            `json:"maintenance_until,omitempty"`
	Jobs             map[string]JobStatus `json:"jobs"`
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		MaintenanceUntil: s.maintenanceUntil,
		Jobs:             make(map[string]JobStatus, len(s.jobs)),
	}
	for job, status := range s.jobs {
		snap.Jobs[string(job)] = *status
	}
	return snap
}
