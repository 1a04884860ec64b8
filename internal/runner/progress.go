package runner

import (
	"sync"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// RunStatus is the lifecycle state of a tracked run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool { return s != RunRunning }

// Progress is the ephemeral per-run record polled by clients. It lives only
// in the tracker and is evicted after completion or by the age sweep.
type Progress struct {
	ID          string      `json:"id"`
	Status      RunStatus   `json:"status"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     *time.Time  `json:"end_time"`
	Progress    int         `json:"progress"`
	CurrentTest string      `json:"current_test,omitempty"`
	Results     *domain.Run `json:"results,omitempty"`
	Error       string      `json:"error,omitempty"`
	CancelledBy string      `json:"cancelled_by,omitempty"`
}

// CancelOutcome distinguishes the three cancel results; none of them is an
// error condition.
type CancelOutcome int

const (
	CancelOK CancelOutcome = iota
	CancelAlreadyFinished
	CancelNotFound
)

// Tracker owns the lifetime of every Progress entry. All mutation goes
// through its methods; the executor and HTTP cancel requests can race on the
// same entry, so a single mutex serializes everything.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*Progress

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*Progress),
		now:     time.Now,
	}
}

// Start creates a fresh running entry for the run id.
func (t *Tracker) Start(id string) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := &Progress{
		ID:        id,
		Status:    RunRunning,
		StartTime: t.now().UTC(),
	}
	t.entries[id] = p
	return *p
}

// SetCurrent records the check about to execute and the percentage of
// completed checks. No-op once the entry is terminal.
func (t *Tracker) SetCurrent(id, currentTest string, progress int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[id]
	if p == nil || p.Status.Terminal() {
		return
	}
	p.CurrentTest = currentTest
	p.Progress = progress
}

// Complete transitions running → completed, attaching the finished run.
func (t *Tracker) Complete(id string, run *domain.Run) {
	t.finish(id, RunCompleted, func(p *Progress) {
		p.Progress = 100
		p.CurrentTest = ""
		p.Results = run
	})
}

// Fail transitions running → failed with a framework-level error message.
func (t *Tracker) Fail(id, errMsg string) {
	t.finish(id, RunFailed, func(p *Progress) {
		p.Error = errMsg
	})
}

func (t *Tracker) finish(id string, status RunStatus, apply func(*Progress)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[id]
	if p == nil || p.Status.Terminal() {
		return
	}
	p.Status = status
	end := t.now().UTC()
	p.EndTime = &end
	apply(p)
}

// Cancel marks a running entry cancelled. Cancellation is cooperative: the
// executor notices via Cancelled between checks and stops scheduling more.
func (t *Tracker) Cancel(id, cancelledBy string) CancelOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[id]
	if p == nil {
		return CancelNotFound
	}
	if p.Status.Terminal() {
		return CancelAlreadyFinished
	}
	p.Status = RunCancelled
	p.CancelledBy = cancelledBy
	end := t.now().UTC()
	p.EndTime = &end
	return CancelOK
}

// Cancelled reports whether the entry has been cancelled.
func (t *Tracker) Cancelled(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[id]
	return p != nil && p.Status == RunCancelled
}

// Get returns a copy of the entry. A missing entry (expired or never
// existed) is a normal outcome, reported via the bool.
func (t *Tracker) Get(id string) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.entries[id]
	if p == nil {
		return Progress{}, false
	}
	return *p, true
}

// EstimateRemaining linearly extrapolates time left from elapsed time and
// progress. Advisory only; returns false while progress is still 0.
func (t *Tracker) EstimateRemaining(p Progress) (time.Duration, bool) {
	if p.Progress <= 0 || p.Progress > 100 {
		return 0, false
	}
	end := t.now().UTC()
	if p.EndTime != nil {
		end = *p.EndTime
	}
	elapsed := end.Sub(p.StartTime)
	if elapsed < 0 {
		return 0, false
	}
	est := time.Duration(float64(elapsed) * (100.0/float64(p.Progress) - 1.0))
	return est, true
}

// SweepExpired deletes entries started more than maxAge ago regardless of
// status, covering runs whose polling clients vanished. Returns the count.
func (t *Tracker) SweepExpired(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().UTC().Add(-maxAge)
	n := 0
	for id, p := range t.entries {
		if p.StartTime.Before(cutoff) {
			delete(t.entries, id)
			n++
		}
	}
	return n
}

// ScheduleEviction removes the entry after a grace period so late polls
// still observe the final state.
func (t *Tracker) ScheduleEviction(id string, delay time.Duration) {
	time.AfterFunc(delay, func() { t.Remove(id) })
}

// Remove deletes an entry immediately.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Len reports the number of tracked entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
