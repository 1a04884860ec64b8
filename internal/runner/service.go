package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/cleanup"
	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/repo"
)

// Service is the surface the dashboard/API layer and the scheduler talk to:
// run lifecycle plus store pass-throughs and the cleanup operations.
type Service struct {
	log     *zap.Logger
	store   repo.Store
	tracker *Tracker
	exec    *Executor
	sweeper *cleanup.Sweeper
}

func NewService(log *zap.Logger, store repo.Store, tracker *Tracker, exec *Executor, sweeper *cleanup.Sweeper) *Service {
	return &Service{log: log, store: store, tracker: tracker, exec: exec, sweeper: sweeper}
}

// StartRun registers a run and executes it in the background, returning the
// run id immediately. Failures surface only through later progress polls.
func (s *Service) StartRun(triggeredBy string) string {
	id := uuid.NewString()
	s.tracker.Start(id)
	s.log.Info("run_started", zap.String("run_id", id), zap.String("triggered_by", triggeredBy))
	go s.exec.Execute(context.Background(), id, triggeredBy)
	return id
}

// Progress returns the live entry for a run id; false when expired or unknown.
func (s *Service) Progress(id string) (Progress, bool) {
	return s.tracker.Get(id)
}

// EstimateRemaining is an advisory time-left extrapolation for pollers.
func (s *Service) EstimateRemaining(p Progress) (time.Duration, bool) {
	return s.tracker.EstimateRemaining(p)
}

// CancelRun requests cooperative cancellation of a running run.
func (s *Service) CancelRun(id, requester string) CancelOutcome {
	out := s.tracker.Cancel(id, requester)
	if out == CancelOK {
		s.log.Info("run_cancel_requested", zap.String("run_id", id), zap.String("by", requester))
	}
	return out
}

func (s *Service) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	return s.store.RecentRuns(ctx, limit)
}

func (s *Service) RunDetails(ctx context.Context, id int64) (*domain.Run, error) {
	return s.store.RunDetails(ctx, id)
}

func (s *Service) UptimeStats(ctx context.Context, days int) ([]domain.UptimeStat, error) {
	return s.store.UptimeStats(ctx, days)
}

func (s *Service) Incidents(ctx context.Context, status string) ([]domain.Incident, error) {
	return s.store.Incidents(ctx, status)
}

func (s *Service) ResolveIncident(ctx context.Context, id int64, resolvedBy, notes string) (bool, error) {
	return s.store.ResolveIncident(ctx, id, resolvedBy, notes)
}

func (s *Service) CurrentStatus(ctx context.Context) (*domain.StatusSummary, error) {
	return s.store.CurrentStatus(ctx)
}

// RunCleanupNow performs an immediate retention sweep.
func (s *Service) RunCleanupNow() cleanup.Result {
	return s.sweeper.PerformCleanup()
}

// DiskUsage reports artifact directory usage without mutating anything.
func (s *Service) DiskUsage() map[string]cleanup.DirUsage {
	return s.sweeper.DiskUsage()
}
