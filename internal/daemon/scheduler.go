package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/pipeline"
)

// Scheduler wraps gocron for periodic full rebuilds of the trigger branches.
type Scheduler struct {
	scheduler gocron.Scheduler
	daemon    *Daemon
}

// NewScheduler creates a scheduler that enqueues a rebuild of every trigger
// branch once per interval.
func NewScheduler(d *Daemon, interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	sched := &Scheduler{scheduler: s, daemon: d}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sched.rebuild),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return sched, nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	slog.Info("Periodic rebuild scheduler started")
}

// Stop shuts down the scheduler and waits for running jobs.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// rebuild is called by gocron. A rebuild targets the branch tip, so the
// trigger carries no pinned revision.
func (s *Scheduler) rebuild() {
	for _, branch := range s.daemon.config().Source.Triggers {
		if s.daemon.enqueue(pipeline.Trigger{Branch: branch}) {
			slog.Info("Queued periodic rebuild", logfields.Branch(branch))
		} else {
			slog.Warn("Run queue full, skipping periodic rebuild", logfields.Branch(branch))
		}
	}
}
