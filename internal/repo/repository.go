package repo

import (
	"context"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// Ports for the persistence layer; adapters live in memory/ and postgres/.

// RunStore persists completed runs. Rows are append-only: once written they
// are never mutated, so repeated reads of the same run return identical data.
type RunStore interface {
	// SaveCompleteRun inserts the run, its results, the daily uptime
	// increment, and any incidents as one logical unit, returning the
	// store-assigned run id.
	SaveCompleteRun(ctx context.Context, run *domain.Run) (int64, error)
	// RecentRuns returns runs newest first, without embedded results.
	RecentRuns(ctx context.Context, limit int) ([]domain.Run, error)
	// RunDetails returns the run with its results, or nil, nil when absent.
	RunDetails(ctx context.Context, id int64) (*domain.Run, error)
}

// IncidentStore reads and resolves incident rows. Incidents are opened by
// SaveCompleteRun and never deleted.
type IncidentStore interface {
	// Incidents filters by "open", "resolved" or "all", newest start first.
	Incidents(ctx context.Context, status string) ([]domain.Incident, error)
	// ResolveIncident returns true iff a matching open incident was updated.
	// Resolving an unknown or already-resolved incident is a false no-op.
	ResolveIncident(ctx context.Context, id int64, resolvedBy, notes string) (bool, error)
}

// StatsStore serves the dashboard aggregates.
type StatsStore interface {
	// UptimeStats returns per-day rows for the last `days` days, newest
	// first. Days without a recorded row are absent, not zero-filled.
	UptimeStats(ctx context.Context, days int) ([]domain.UptimeStat, error)
	CurrentStatus(ctx context.Context) (*domain.StatusSummary, error)
}

// Store is the full persistence surface the run executor and dashboard need.
type Store interface {
	RunStore
	IncidentStore
	StatsStore
}
