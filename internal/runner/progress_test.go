package runner

import (
	"testing"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

func TestTracker_StartGetComplete(t *testing.T) {
	tr := NewTracker()
	tr.Start("r1")

	p, ok := tr.Get("r1")
	if !ok {
		t.Fatalf("expected entry")
	}
	if p.Status != RunRunning || p.Progress != 0 {
		t.Fatalf("fresh entry wrong: %+v", p)
	}

	tr.SetCurrent("r1", "availability:example.com", 33)
	p, _ = tr.Get("r1")
	if p.CurrentTest != "availability:example.com" || p.Progress != 33 {
		t.Fatalf("update not applied: %+v", p)
	}

	run := &domain.Run{TotalTests: 3, PassedTests: 3, SuccessRate: 100}
	tr.Complete("r1", run)
	p, _ = tr.Get("r1")
	if p.Status != RunCompleted || p.Progress != 100 || p.EndTime == nil || p.Results == nil {
		t.Fatalf("completed entry wrong: %+v", p)
	}
}

func TestTracker_GetUnknownIsNotFoundNotError(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Get("nope"); ok {
		t.Fatalf("unknown id must report not-found")
	}
}

func TestTracker_CancelOutcomes(t *testing.T) {
	tr := NewTracker()

	if out := tr.Cancel("ghost", "ops"); out != CancelNotFound {
		t.Fatalf("want not-found, got %v", out)
	}

	tr.Start("r1")
	if out := tr.Cancel("r1", "ops"); out != CancelOK {
		t.Fatalf("want ok, got %v", out)
	}
	p, _ := tr.Get("r1")
	if p.Status != RunCancelled || p.CancelledBy != "ops" || p.EndTime == nil {
		t.Fatalf("cancelled entry wrong: %+v", p)
	}

	// second cancel is a reported no-op, never an error
	if out := tr.Cancel("r1", "ops2"); out != CancelAlreadyFinished {
		t.Fatalf("want already-finished, got %v", out)
	}
	p, _ = tr.Get("r1")
	if p.CancelledBy != "ops" {
		t.Fatalf("second cancel must not overwrite: %+v", p)
	}
}

func TestTracker_TerminalEntriesIgnoreUpdates(t *testing.T) {
	tr := NewTracker()
	tr.Start("r1")
	tr.Cancel("r1", "ops")

	// The in-flight check returning after a cancel must not mutate the entry.
	tr.SetCurrent("r1", "late-check", 90)
	tr.Complete("r1", &domain.Run{})
	tr.Fail("r1", "late error")

	p, _ := tr.Get("r1")
	if p.Status != RunCancelled || p.CurrentTest != "" || p.Progress != 0 || p.Error != "" {
		t.Fatalf("terminal entry mutated: %+v", p)
	}
}

func TestTracker_EstimateRemaining(t *testing.T) {
	tr := NewTracker()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }
	tr.Start("r1")

	p, _ := tr.Get("r1")
	if _, ok := tr.EstimateRemaining(p); ok {
		t.Fatalf("estimate at progress 0 must be unavailable")
	}

	tr.SetCurrent("r1", "x", 25)
	tr.now = func() time.Time { return base.Add(time.Minute) }
	p, _ = tr.Get("r1")
	est, ok := tr.EstimateRemaining(p)
	if !ok {
		t.Fatalf("expected estimate")
	}
	// 1 minute for 25% => 3 minutes remaining
	if est != 3*time.Minute {
		t.Fatalf("want 3m, got %v", est)
	}
}

func TestTracker_SweepExpired(t *testing.T) {
	tr := NewTracker()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	tr.now = func() time.Time { return base.Add(-2 * time.Hour) }
	tr.Start("old-running")
	tr.Start("old-done")
	tr.Complete("old-done", &domain.Run{})

	tr.now = func() time.Time { return base }
	tr.Start("fresh")

	if n := tr.SweepExpired(time.Hour); n != 2 {
		t.Fatalf("want 2 evicted, got %d", n)
	}
	if _, ok := tr.Get("old-running"); ok {
		t.Fatalf("stale running entry should be gone regardless of status")
	}
	if _, ok := tr.Get("fresh"); !ok {
		t.Fatalf("fresh entry must survive")
	}
}

func TestTracker_ScheduleEviction(t *testing.T) {
	tr := NewTracker()
	tr.Start("r1")
	tr.Complete("r1", &domain.Run{})
	tr.ScheduleEviction("r1", 10*time.Millisecond)

	// late poll inside the grace period still sees the terminal state
	if p, ok := tr.Get("r1"); !ok || p.Status != RunCompleted {
		t.Fatalf("entry should survive the grace period: %+v", p)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := tr.Get("r1"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("entry was never evicted")
}
