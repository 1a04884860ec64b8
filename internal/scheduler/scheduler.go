package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/runner"
)

// Scheduler owns the periodic work: interval runs, the nightly retention
// sweep, and the hourly eviction of stale progress entries.
type Scheduler struct {
	log     *zap.Logger
	svc     *runner.Service
	tracker *runner.Tracker
	cfg     config.MonitoringConfig
	cron    *cron.Cron
}

func New(log *zap.Logger, svc *runner.Service, tracker *runner.Tracker, cfg config.MonitoringConfig) *Scheduler {
	return &Scheduler{
		log:     log,
		svc:     svc,
		tracker: tracker,
		cfg:     cfg,
		cron:    cron.New(),
	}
}

// Start registers the cron entries and starts the cron loop. A zero
// check interval disables scheduled runs (manual runs still work).
func (s *Scheduler) Start() error {
	if s.cfg.CheckIntervalHours > 0 {
		spec := fmt.Sprintf("@every %dh", s.cfg.CheckIntervalHours)
		if _, err := s.cron.AddFunc(spec, func() {
			id := s.svc.StartRun("scheduled")
			s.log.Info("scheduled_run_started", zap.String("run_id", id))
		}); err != nil {
			return fmt.Errorf("schedule runs: %w", err)
		}
	} else {
		s.log.Info("scheduled_runs_disabled")
	}

	if s.cfg.Cleanup.Enabled {
		if _, err := s.cron.AddFunc("@daily", func() {
			res := s.svc.RunCleanupNow()
			s.log.Info("scheduled_cleanup_done", zap.Int64("freed_bytes", res.TotalFreed))
		}); err != nil {
			return fmt.Errorf("schedule cleanup: %w", err)
		}
	}

	if _, err := s.cron.AddFunc("@hourly", func() {
		if n := s.tracker.SweepExpired(time.Hour); n > 0 {
			s.log.Info("progress_sweep", zap.Int("evicted", n))
		}
	}); err != nil {
		return fmt.Errorf("schedule progress sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for in-flight scheduled jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler_stopped")
}

// Entries reports how many cron entries are registered (used by tests).
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
