package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/repo"
)

// Store is the in-memory adapter: used by tests and by deployments without
// a DATABASE_URL. Semantics mirror the postgres store.
type Store struct {
	mu             sync.RWMutex
	runs           []*domain.Run
	incidents      []*domain.Incident
	stats          map[string]*domain.UptimeStat
	nextRunID      int64
	nextIncidentID int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		stats: make(map[string]*domain.UptimeStat),
		now:   time.Now,
	}
}

func (m *Store) SaveCompleteRun(ctx context.Context, run *domain.Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextRunID++
	cp := *run
	cp.ID = m.nextRunID
	cp.Results = make([]domain.Result, len(run.Results))
	copy(cp.Results, run.Results)
	for i := range cp.Results {
		cp.Results[i].ID = int64(i + 1)
		cp.Results[i].RunID = cp.ID
	}
	m.runs = append(m.runs, &cp)

	// Daily aggregate: a run counts as successful when at least one check
	// passed, regardless of failures. Historical behavior, kept on purpose.
	day := cp.Timestamp.UTC().Format("2006-01-02")
	st := m.stats[day]
	if st == nil {
		st = &domain.UptimeStat{Date: day}
		m.stats[day] = st
	}
	st.TotalChecks++
	if cp.PassedTests > 0 {
		st.SuccessfulChecks++
	}

	// One incident per failing critical check per run, no dedup against
	// already-open incidents.
	for _, r := range cp.Results {
		if r.Critical && r.Status != domain.StatusPass {
			m.nextIncidentID++
			m.incidents = append(m.incidents, &domain.Incident{
				ID:        m.nextIncidentID,
				TestName:  r.Name,
				StartTime: cp.Timestamp,
				Status:    domain.IncidentOpen,
			})
		}
	}

	return cp.ID, nil
}

func (m *Store) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		cp.Results = nil
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) RunDetails(ctx context.Context, id int64) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			cp := *r
			cp.Results = make([]domain.Result, len(r.Results))
			copy(cp.Results, r.Results)
			return &cp, nil
		}
	}
	return nil, nil // not found
}

func (m *Store) Incidents(ctx context.Context, status string) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status = strings.ToLower(status)
	out := make([]domain.Incident, 0, len(m.incidents))
	for _, in := range m.incidents {
		if status != "" && status != "all" && string(in.Status) != status {
			continue
		}
		out = append(out, *in)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

func (m *Store) ResolveIncident(ctx context.Context, id int64, resolvedBy, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.incidents {
		if in.ID != id {
			continue
		}
		if in.Status != domain.IncidentOpen {
			return false, nil // already resolved; never double-set end_time
		}
		end := m.now().UTC()
		in.Status = domain.IncidentResolved
		in.EndTime = &end
		in.ResolvedBy = &resolvedBy
		in.ResolutionNotes = &notes
		return true, nil
	}
	return false, nil
}

func (m *Store) UptimeStats(ctx context.Context, days int) ([]domain.UptimeStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if days <= 0 {
		days = 7
	}
	cutoff := m.now().UTC().AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	out := make([]domain.UptimeStat, 0, len(m.stats))
	for day, st := range m.stats {
		if day < cutoff {
			continue
		}
		cp := *st
		cp.UptimePercentage = domain.UptimePercent(cp.TotalChecks, cp.SuccessfulChecks)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *Store) CurrentStatus(ctx context.Context) (*domain.StatusSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.AddDate(0, 0, -7)

	s := &domain.StatusSummary{}
	var last *domain.Run
	var weekSum float64
	var weekN int
	for _, r := range m.runs {
		if r.Timestamp.UTC().Format("2006-01-02") == today {
			s.TodayRuns++
		}
		if r.Timestamp.After(weekAgo) {
			weekSum += r.SuccessRate
			weekN++
		}
		if last == nil || r.Timestamp.After(last.Timestamp) {
			last = r
		}
	}
	if last != nil {
		s.LastSuccessRate = last.SuccessRate
	}
	if weekN > 0 {
		s.WeeklyAvg = domain.Round2(weekSum / float64(weekN))
	}
	for _, in := range m.incidents {
		if in.Status == domain.IncidentOpen {
			s.OpenIncidents++
		}
	}
	return s, nil
}

var _ repo.Store = (*Store)(nil)
