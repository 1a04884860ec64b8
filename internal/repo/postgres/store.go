package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

func (s *Store) SaveCompleteRun(ctx context.Context, run *domain.Run) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var runID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO runs (ts, total_tests, passed_tests, failed_tests, success_rate, duration_ms, triggered_by)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		run.Timestamp, run.TotalTests, run.PassedTests, run.FailedTests,
		run.SuccessRate, run.DurationMS, run.TriggeredBy,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	for _, r := range run.Results {
		var metrics []byte
		if len(r.Metrics) > 0 {
			metrics, err = json.Marshal(r.Metrics)
			if err != nil {
				return 0, fmt.Errorf("marshal metrics for %q: %w", r.Name, err)
			}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO results (run_id, name, category, critical, status, details, duration_ms, screenshot, error, metrics)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			runID, r.Name, r.Category, r.Critical, string(r.Status), r.Details,
			r.DurationMS, r.Screenshot, r.Error, metrics,
		)
		if err != nil {
			return 0, fmt.Errorf("insert result %q: %w", r.Name, err)
		}
	}

	// A run counts as successful when at least one check passed. Kept as-is;
	// dashboards depend on the historical numbers.
	succ := 0
	if run.PassedTests > 0 {
		succ = 1
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO uptime_stats (date, total_checks, successful_checks)
		 VALUES ($1::date, 1, $2)
		 ON CONFLICT (date) DO UPDATE
		   SET total_checks      = uptime_stats.total_checks + 1,
		       successful_checks = uptime_stats.successful_checks + $2`,
		run.Timestamp.UTC().Format("2006-01-02"), succ,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert uptime stat: %w", err)
	}

	// Every failing critical check opens a fresh incident row.
	for _, r := range run.Results {
		if !r.Critical || r.Status == domain.StatusPass {
			continue
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO incidents (test_name, start_time, status) VALUES ($1,$2,'open')`,
			r.Name, run.Timestamp,
		)
		if err != nil {
			return 0, fmt.Errorf("insert incident for %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	run.ID = runID
	s.log.Debug("run_persisted", zap.Int64("run_id", runID), zap.Int("results", len(run.Results)))
	return runID, nil
}

func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, ts, total_tests, passed_tests, failed_tests, success_rate, duration_ms, triggered_by
		   FROM runs
		  ORDER BY ts DESC, id DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		var r domain.Run
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.TotalTests, &r.PassedTests,
			&r.FailedTests, &r.SuccessRate, &r.DurationMS, &r.TriggeredBy); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RunDetails(ctx context.Context, id int64) (*domain.Run, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var r domain.Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, ts, total_tests, passed_tests, failed_tests, success_rate, duration_ms, triggered_by
		   FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.Timestamp, &r.TotalTests, &r.PassedTests,
		&r.FailedTests, &r.SuccessRate, &r.DurationMS, &r.TriggeredBy)
	if err != nil {
		return nil, nil // not found
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, name, category, critical, status, details, duration_ms, screenshot, error, metrics
		   FROM results WHERE run_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("run results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.Result
		var status string
		var metrics []byte
		if err := rows.Scan(&res.ID, &res.RunID, &res.Name, &res.Category, &res.Critical,
			&status, &res.Details, &res.DurationMS, &res.Screenshot, &res.Error, &metrics); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Status = domain.Status(status)
		if len(metrics) > 0 {
			if err := json.Unmarshal(metrics, &res.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics: %w", err)
			}
		}
		r.Results = append(r.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Incidents(ctx context.Context, status string) ([]domain.Incident, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := `SELECT id, test_name, start_time, end_time, status, resolved_by, resolution_notes
	        FROM incidents`
	args := []any{}
	status = strings.ToLower(status)
	if status != "" && status != "all" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY start_time DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("incidents: %w", err)
	}
	defer rows.Close()

	var out []domain.Incident
	for rows.Next() {
		var in domain.Incident
		var st string
		if err := rows.Scan(&in.ID, &in.TestName, &in.StartTime, &in.EndTime,
			&st, &in.ResolvedBy, &in.ResolutionNotes); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		in.Status = domain.IncidentStatus(st)
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *Store) ResolveIncident(ctx context.Context, id int64, resolvedBy, notes string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE incidents
		    SET status = 'resolved', end_time = now(), resolved_by = $2, resolution_notes = $3
		  WHERE id = $1 AND status = 'open'`,
		id, resolvedBy, notes)
	if err != nil {
		return false, fmt.Errorf("resolve incident: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UptimeStats(ctx context.Context, days int) ([]domain.UptimeStat, error) {
	if days <= 0 {
		days = 7
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT date::text, total_checks, successful_checks
		   FROM uptime_stats
		  WHERE date > current_date - $1::int
		  ORDER BY date DESC`, days)
	if err != nil {
		return nil, fmt.Errorf("uptime stats: %w", err)
	}
	defer rows.Close()

	var out []domain.UptimeStat
	for rows.Next() {
		var st domain.UptimeStat
		if err := rows.Scan(&st.Date, &st.TotalChecks, &st.SuccessfulChecks); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		st.UptimePercentage = domain.UptimePercent(st.TotalChecks, st.SuccessfulChecks)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CurrentStatus(ctx context.Context) (*domain.StatusSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var sum domain.StatusSummary
	err := s.pool.QueryRow(ctx, `
SELECT (SELECT count(*) FROM runs WHERE ts >= date_trunc('day', now())),
       (SELECT count(*) FROM incidents WHERE status = 'open'),
       (SELECT COALESCE((SELECT success_rate FROM runs ORDER BY ts DESC, id DESC LIMIT 1), 0)),
       (SELECT COALESCE(AVG(success_rate), 0) FROM runs WHERE ts >= now() - interval '7 days')`,
	).Scan(&sum.TodayRuns, &sum.OpenIncidents, &sum.LastSuccessRate, &sum.WeeklyAvg)
	if err != nil {
		return nil, fmt.Errorf("current status: %w", err)
	}
	sum.WeeklyAvg = domain.Round2(sum.WeeklyAvg)
	return &sum, nil
}
