package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/check"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/notify"
	"github.com/sitewatch/sitewatch/internal/obs"
	"github.com/sitewatch/sitewatch/internal/repo"
)

// Executor drives one run end to end: builds checks from the registry,
// executes them strictly in order, mirrors progress into the tracker,
// persists the finished run and fires alerts. Checks never run concurrently
// within a run; each one owns the browser/network session while it executes.
type Executor struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *check.Registry
	store    repo.Store
	tracker  *Tracker
	notifier notify.Notifier

	now func() time.Time
}

func NewExecutor(cfg *config.Config, log *zap.Logger, reg *check.Registry, store repo.Store, tracker *Tracker, notifier notify.Notifier) *Executor {
	return &Executor{
		cfg:      cfg,
		log:      log,
		registry: reg,
		store:    store,
		tracker:  tracker,
		notifier: notifier,
		now:      time.Now,
	}
}

// Execute runs one full pass for an already-started tracker entry. It blocks
// until the run reaches a terminal state; fire-and-forget callers run it in
// a goroutine.
func (e *Executor) Execute(ctx context.Context, runID, triggeredBy string) {
	started := e.now().UTC()

	checks, err := e.registry.Build(e.cfg, e.log)
	if err != nil {
		e.log.Error("run_build_error", zap.String("run_id", runID), zap.Error(err))
		e.tracker.Fail(runID, err.Error())
		obs.RunsTotal.WithLabelValues(string(RunFailed)).Inc()
		return
	}

	total := len(checks)
	results := make([]domain.Result, 0, total)

	for i, c := range checks {
		if e.cancelled(ctx, runID) {
			e.log.Info("run_cancelled", zap.String("run_id", runID), zap.Int("completed", i))
			obs.RunsTotal.WithLabelValues(string(RunCancelled)).Inc()
			return
		}

		e.tracker.SetCurrent(runID, c.Name(), progressPct(i, total))

		res, err := runCheck(ctx, c)
		if err != nil {
			// Framework-level failure; a well-formed check reports its own
			// errors as a FAIL result instead.
			e.log.Error("run_fatal_error",
				zap.String("run_id", runID),
				zap.String("check", c.Name()),
				zap.Error(err),
			)
			e.tracker.Fail(runID, err.Error())
			obs.RunsTotal.WithLabelValues(string(RunFailed)).Inc()
			return
		}

		results = append(results, res)
		obs.CheckResults.WithLabelValues(string(res.Status)).Inc()
		e.log.Debug("check_finished",
			zap.String("run_id", runID),
			zap.String("check", res.Name),
			zap.String("status", string(res.Status)),
			zap.Int64("duration_ms", res.DurationMS),
		)

		if res.Critical && res.Status == domain.StatusFail && e.cfg.Monitoring.StopOnCriticalFailure {
			e.log.Warn("run_short_circuit",
				zap.String("run_id", runID),
				zap.String("check", res.Name),
				zap.Int("skipped_checks", total-i-1),
			)
			break
		}
	}

	// A cancel that landed during the final check still wins: the partial
	// run is never persisted.
	if e.cancelled(ctx, runID) {
		e.log.Info("run_cancelled", zap.String("run_id", runID), zap.Int("completed", len(results)))
		obs.RunsTotal.WithLabelValues(string(RunCancelled)).Inc()
		return
	}

	sum := domain.Summarize(results)
	run := &domain.Run{
		Timestamp:   started,
		TotalTests:  sum.Total,
		PassedTests: sum.Passed,
		FailedTests: sum.Failed,
		SuccessRate: sum.SuccessRate,
		DurationMS:  e.now().UTC().Sub(started).Milliseconds(),
		TriggeredBy: triggeredBy,
		Results:     results,
	}

	if e.store != nil {
		if _, err := e.store.SaveCompleteRun(ctx, run); err != nil {
			// The run itself finished; keep it visible to pollers and leave
			// a local artifact so the outcome is not silently lost.
			e.log.Error("run_persist_error", zap.String("run_id", runID), zap.Error(err))
			e.writeFallbackReport(runID, run)
		}
	}

	e.tracker.Complete(runID, run)
	e.tracker.ScheduleEviction(runID, 5*time.Minute)
	obs.RunsTotal.WithLabelValues(string(RunCompleted)).Inc()

	e.log.Info("run_completed",
		zap.String("run_id", runID),
		zap.Int("total", sum.Total),
		zap.Int("passed", sum.Passed),
		zap.Int("failed", sum.Failed),
		zap.Float64("success_rate", sum.SuccessRate),
		zap.Int64("duration_ms", run.DurationMS),
	)

	e.alert(ctx, run)
}

func (e *Executor) cancelled(ctx context.Context, runID string) bool {
	if e.tracker.Cancelled(runID) {
		return true
	}
	if ctx.Err() != nil {
		e.tracker.Cancel(runID, "shutdown")
		return true
	}
	return false
}

// runCheck executes one check, converting a panic into a run-fatal error and
// filling in timing/identity the check left blank.
func runCheck(ctx context.Context, c check.Check) (res domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %s panicked: %v", c.Name(), r)
		}
	}()

	start := time.Now()
	res, err = c.Run(ctx)
	if err != nil {
		return res, err
	}
	if res.Name == "" {
		res.Name = c.Name()
	}
	if res.Category == "" {
		res.Category = c.Category()
	}
	res.Critical = c.Critical()
	if res.DurationMS == 0 {
		res.DurationMS = time.Since(start).Milliseconds()
	}
	return res, nil
}

// progressPct is the share of completed checks, rounded. 100 for an empty
// registry so a no-op run still reads as finished.
func progressPct(completed, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// writeFallbackReport drops the run as JSON under the reports dir when the
// store is unreachable. The retention sweeper ages these out like any other
// report artifact.
func (e *Executor) writeFallbackReport(runID string, run *domain.Run) {
	dir := e.cfg.Paths.Reports
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.log.Error("fallback_report_mkdir_error", zap.Error(err))
		return
	}
	path := filepath.Join(dir, "run-"+runID+".json")
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		e.log.Error("fallback_report_marshal_error", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		e.log.Error("fallback_report_write_error", zap.String("path", path), zap.Error(err))
		return
	}
	e.log.Warn("fallback_report_written", zap.String("path", path))
}

// alert sends a best-effort notification when a run had failures. Delivery
// errors are logged and never affect run status.
func (e *Executor) alert(ctx context.Context, run *domain.Run) {
	if e.notifier == nil || run.FailedTests == 0 {
		return
	}

	var failing []string
	for _, r := range run.Results {
		if r.Status == domain.StatusFail {
			line := fmt.Sprintf("- %s: %s", r.Name, r.Details)
			if r.Error != nil {
				line += " (" + *r.Error + ")"
			}
			failing = append(failing, line)
		}
	}

	title := fmt.Sprintf("🔴 %d/%d site checks failed", run.FailedTests, run.TotalTests)
	text := fmt.Sprintf(
		"Run at %s (%s)\nSuccess rate: %.2f%%\n\n%s",
		run.Timestamp.Format(time.RFC3339), run.TriggeredBy, run.SuccessRate,
		strings.Join(failing, "\n"),
	)
	if err := e.notifier.Send(ctx, title, text); err != nil {
		e.log.Warn("alert_send_error", zap.Error(err))
	}
}
