package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func runAt(ts time.Time, passed, failed int, results ...domain.Result) *domain.Run {
	return &domain.Run{
		Timestamp:   ts,
		TotalTests:  passed + failed,
		PassedTests: passed,
		FailedTests: failed,
		SuccessRate: domain.Round2(float64(passed) * 100 / float64(passed+failed)),
		TriggeredBy: "test",
		Results:     results,
	}
}

func TestSaveCompleteRun_AssignsIDs(t *testing.T) {
	m := New()
	ctx := context.Background()

	id1, err := m.SaveCompleteRun(ctx, runAt(time.Now(), 2, 0,
		domain.Result{Name: "A", Status: domain.StatusPass},
		domain.Result{Name: "B", Status: domain.StatusPass},
	))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id2, _ := m.SaveCompleteRun(ctx, runAt(time.Now(), 1, 0))
	if id1 != 1 || id2 != 2 {
		t.Fatalf("want sequential ids 1,2 got %d,%d", id1, id2)
	}

	got, err := m.RunDetails(ctx, id1)
	if err != nil || got == nil {
		t.Fatalf("details: %v", err)
	}
	if len(got.Results) != 2 || got.Results[0].RunID != id1 {
		t.Fatalf("results not linked: %+v", got.Results)
	}
}

func TestRunDetails_UnknownIsNilNil(t *testing.T) {
	m := New()
	got, err := m.RunDetails(context.Background(), 42)
	if err != nil {
		t.Fatalf("unknown id is not an error: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for unknown run, got %+v", got)
	}
}

func TestRecentRuns_NewestFirstWithLimit(t *testing.T) {
	m := New()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := m.SaveCompleteRun(ctx, runAt(base.Add(time.Duration(i)*time.Hour), 1, 0)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	runs, err := m.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("limit ignored: got %d", len(runs))
	}
	if !runs[0].Timestamp.After(runs[1].Timestamp) {
		t.Fatalf("want newest first: %v then %v", runs[0].Timestamp, runs[1].Timestamp)
	}
	if runs[0].Results != nil {
		t.Fatalf("listings must not carry per-check results")
	}
}

// A run with any pass counts as an up sample for its day, even alongside
// failures. A run with zero passes counts as down.
func TestUptimeStats_RunSuccessIsAnyPass(t *testing.T) {
	m := New()
	today := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	m.now = fixedClock(today)
	ctx := context.Background()

	m.SaveCompleteRun(ctx, runAt(today, 3, 2)) // mixed: counts successful
	m.SaveCompleteRun(ctx, runAt(today, 0, 5)) // all failed: counts down

	stats, err := m.UptimeStats(ctx, 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("want one day, got %d", len(stats))
	}
	st := stats[0]
	if st.TotalChecks != 2 || st.SuccessfulChecks != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.UptimePercentage != 50.0 {
		t.Fatalf("want 50%%, got %v", st.UptimePercentage)
	}
}

// Days without runs simply do not appear; the window is not zero-filled.
func TestUptimeStats_WindowAndGaps(t *testing.T) {
	m := New()
	today := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	m.now = fixedClock(today)
	ctx := context.Background()

	m.SaveCompleteRun(ctx, runAt(today, 1, 0))
	m.SaveCompleteRun(ctx, runAt(today.AddDate(0, 0, -2), 1, 0))
	m.SaveCompleteRun(ctx, runAt(today.AddDate(0, 0, -10), 1, 0)) // outside window

	stats, err := m.UptimeStats(ctx, 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("want 2 days inside the window, got %d: %+v", len(stats), stats)
	}
	if stats[0].Date < stats[1].Date {
		t.Fatalf("want newest day first: %v", stats)
	}
}

func TestIncidents_OnePerFailingCriticalCheck(t *testing.T) {
	m := New()
	ctx := context.Background()
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	// same critical check failing on two consecutive runs opens two incidents
	fail := domain.Result{Name: "homepage", Status: domain.StatusFail, Critical: true}
	m.SaveCompleteRun(ctx, runAt(ts, 0, 1, fail))
	m.SaveCompleteRun(ctx, runAt(ts.Add(time.Hour), 0, 1, fail))
	// non-critical failures never open incidents
	m.SaveCompleteRun(ctx, runAt(ts.Add(2*time.Hour), 0, 1,
		domain.Result{Name: "footer", Status: domain.StatusFail}))

	open, err := m.Incidents(ctx, "open")
	if err != nil {
		t.Fatalf("incidents: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("want 2 open incidents, got %d: %+v", len(open), open)
	}
	for _, in := range open {
		if in.TestName != "homepage" {
			t.Fatalf("unexpected incident: %+v", in)
		}
	}
}

func TestResolveIncident(t *testing.T) {
	m := New()
	ctx := context.Background()
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	m.now = fixedClock(ts.Add(time.Hour))

	m.SaveCompleteRun(ctx, runAt(ts, 0, 1,
		domain.Result{Name: "login", Status: domain.StatusFail, Critical: true}))

	ok, err := m.ResolveIncident(ctx, 1, "alice", "restarted pods")
	if err != nil || !ok {
		t.Fatalf("first resolve: ok=%v err=%v", ok, err)
	}

	// idempotence: a second resolve reports false and keeps the original fields
	ok, err = m.ResolveIncident(ctx, 1, "bob", "nothing")
	if err != nil || ok {
		t.Fatalf("second resolve must report false: ok=%v err=%v", ok, err)
	}

	resolved, _ := m.Incidents(ctx, "resolved")
	if len(resolved) != 1 {
		t.Fatalf("want one resolved incident, got %d", len(resolved))
	}
	in := resolved[0]
	if in.ResolvedBy == nil || *in.ResolvedBy != "alice" {
		t.Fatalf("resolver overwritten: %+v", in)
	}
	if in.EndTime == nil || !in.EndTime.Equal(ts.Add(time.Hour)) {
		t.Fatalf("end time wrong: %+v", in.EndTime)
	}

	if ok, _ := m.ResolveIncident(ctx, 99, "alice", ""); ok {
		t.Fatalf("unknown incident must report false")
	}
}

func TestCurrentStatus(t *testing.T) {
	m := New()
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	m.now = fixedClock(now)
	ctx := context.Background()

	m.SaveCompleteRun(ctx, runAt(now.AddDate(0, 0, -9), 1, 0)) // outside the week
	m.SaveCompleteRun(ctx, runAt(now.AddDate(0, 0, -2), 1, 1)) // 50%
	m.SaveCompleteRun(ctx, runAt(now.Add(-time.Hour), 0, 1,    // today, 0%, opens incident
		domain.Result{Name: "home", Status: domain.StatusFail, Critical: true}))

	s, err := m.CurrentStatus(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if s.TodayRuns != 1 {
		t.Fatalf("today runs: %d", s.TodayRuns)
	}
	if s.LastSuccessRate != 0 {
		t.Fatalf("last success rate: %v", s.LastSuccessRate)
	}
	if s.WeeklyAvg != 25.0 {
		t.Fatalf("weekly avg: %v", s.WeeklyAvg)
	}
	if s.OpenIncidents != 1 {
		t.Fatalf("open incidents: %d", s.OpenIncidents)
	}
}

func TestCurrentStatus_Empty(t *testing.T) {
	m := New()
	s, err := m.CurrentStatus(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if s.TodayRuns != 0 || s.OpenIncidents != 0 || s.LastSuccessRate != 0 || s.WeeklyAvg != 0 {
		t.Fatalf("want zero summary, got %+v", s)
	}
}
