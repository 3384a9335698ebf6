package application

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler fires each job at its state-recorded next-run instant. Every job
// gets its own loop; the task itself reschedules after each run, so the loop
// only sleeps, fires, and applies the late-fire grace.
type Scheduler struct {
	task  *Task
	state *State
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time

	wg sync.WaitGroup
}

// NewScheduler wires a scheduler over the shared state.
func NewScheduler(task *Task, state *State, cfg Config, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		task:  task,
		state: state,
		cfg:   cfg,
		log:   log.With().Str("component", "reconcile.scheduler").Logger(),
		now:   time.Now,
	}
}

// Start launches one loop per job. The loops stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range Jobs() {
		s.wg.Add(1)
		go func(job JobID) {
			defer s.wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
}

// Wait blocks until every loop has exited.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) runLoop(ctx context.Context, job JobID) {
	for {
		next := s.state.NextRun(job)
		now := s.now()
		if next.IsZero() {
			next = nextRunAfter(now, s.cfg.Interval())
			s.state.SetNextRun(job, next)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now = s.now()
		if lateBeyondGrace(next, now, s.cfg.Grace()) {
			// A fire this stale (paused process, clock jump) is coalesced
			// into a single fresh run rather than replayed.
			s.log.Warn().Str("job", string(job)).Time("scheduled", next).
				Msg("late fire coalesced")
			s.state.SetNextRun(job, nextRunAfter(now, s.cfg.Interval()))
			continue
		}

		if err := s.task.Run(ctx, job); err != nil {
			s.log.Error().Err(err).Str("job", string(job)).Msg("cycle failed")
		}
	}
}

func lateBeyondGrace(scheduled, now time.Time, grace time.Duration) bool {
	return now.Sub(scheduled) > grace
}
