package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSummarize_CountsAndRate(t *testing.T) {
	results := []Result{
		{Name: "a", Status: StatusPass},
		{Name: "b", Status: StatusPass},
		{Name: "c", Status: StatusFail},
	}
	s := Summarize(results)
	if s.Total != 3 || s.Passed != 2 || s.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.SuccessRate != 66.67 {
		t.Fatalf("want 66.67, got %v", s.SuccessRate)
	}
}

// Skips count toward the total but not passed/failed, and the rate divides
// by the full total. Long-standing behavior; changing it silently would
// shift every historical dashboard number.
func TestSummarize_SkipsDiluteSuccessRate(t *testing.T) {
	results := []Result{
		{Name: "a", Status: StatusPass},
		{Name: "b", Status: StatusPass},
		{Name: "c", Status: StatusSkip},
	}
	s := Summarize(results)
	if s.Total != 3 || s.Passed != 2 || s.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Total != s.Passed+s.Failed+1 {
		t.Fatalf("skip not accounted in total: %+v", s)
	}
	if s.SuccessRate != 66.67 {
		t.Fatalf("want rate over full total incl. skip (66.67), got %v", s.SuccessRate)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.SuccessRate != 0 {
		t.Fatalf("empty summary should be zero: %+v", s)
	}
}

func TestUptimePercent_ZeroTotalReportsFullUptime(t *testing.T) {
	if got := UptimePercent(0, 0); got != 100.0 {
		t.Fatalf("want 100.0 for no checks, got %v", got)
	}
	if got := UptimePercent(4, 3); got != 75.0 {
		t.Fatalf("want 75.0, got %v", got)
	}
}

func TestRun_JSONRoundTrip(t *testing.T) {
	errMsg := "timeout"
	want := Run{
		ID:          7,
		Timestamp:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		TotalTests:  2,
		PassedTests: 1,
		FailedTests: 1,
		SuccessRate: 50,
		DurationMS:  1234,
		TriggeredBy: "manual",
		Results: []Result{
			{Name: "availability:example.com", Category: "availability", Critical: true, Status: StatusPass},
			{Name: "login", Category: "auth", Status: StatusFail, Error: &errMsg},
		},
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Run
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != want.ID || len(got.Results) != 2 || got.Results[1].Error == nil || *got.Results[1].Error != "timeout" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
