package domain

import "time"

// Status is the outcome of a single check.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
)

// Result is the outcome of one check within a run. Immutable once produced.
type Result struct {
	ID         int64          `json:"id,omitempty"`
	RunID      int64          `json:"run_id,omitempty"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Critical   bool           `json:"critical"`
	Status     Status         `json:"status"`
	Details    string         `json:"details,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Screenshot *string        `json:"screenshot"` // pointer to allow nil
	Error      *string        `json:"error"`
	Metrics    map[string]any `json:"metrics,omitempty"`
}

// Run is one full sequential pass over the enabled checks. Persisted rows
// are append-only; ID is assigned by the store on insert.
type Run struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	TotalTests  int       `json:"total_tests"`
	PassedTests int       `json:"passed_tests"`
	FailedTests int       `json:"failed_tests"`
	SuccessRate float64   `json:"success_rate"`
	DurationMS  int64     `json:"duration_ms"`
	TriggeredBy string    `json:"triggered_by"`
	Results     []Result  `json:"results,omitempty"`
}

type IncidentStatus string

const (
	IncidentOpen     IncidentStatus = "open"
	IncidentResolved IncidentStatus = "resolved"
)

// Incident records an observed critical failure. Never deleted; resolved
// explicitly via the store.
type Incident struct {
	ID              int64          `json:"id"`
	TestName        string         `json:"test_name"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time"`
	Status          IncidentStatus `json:"status"`
	ResolvedBy      *string        `json:"resolved_by"`
	ResolutionNotes *string        `json:"resolution_notes"`
}

// UptimeStat is the daily run aggregate, keyed by calendar date (YYYY-MM-DD).
type UptimeStat struct {
	Date             string  `json:"date"`
	TotalChecks      int     `json:"total_checks"`
	SuccessfulChecks int     `json:"successful_checks"`
	UptimePercentage float64 `json:"uptime_percentage"`
}

// StatusSummary is the single aggregate read backing the dashboard header.
type StatusSummary struct {
	TodayRuns       int     `json:"today_runs"`
	OpenIncidents   int     `json:"open_incidents"`
	LastSuccessRate float64 `json:"last_success_rate"`
	WeeklyAvg       float64 `json:"weekly_avg"`
}

// UptimePercent recomputes the daily percentage at read time. A day with no
// checks reports 100.0 rather than dividing by zero; a missing day is the
// caller's concern (absent rows are never zero-filled).
func UptimePercent(total, successful int) float64 {
	if total <= 0 {
		return 100.0
	}
	return float64(successful) * 100.0 / float64(total)
}
