package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/config"
)

// Store is the postgres adapter over a pgx pool.
type Store struct {
	pool         *pgxpool.Pool
	log          *zap.Logger
	queryTimeout time.Duration
}

func New(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{pool: pool, log: log, queryTimeout: cfg.QueryTimeout}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           BIGSERIAL PRIMARY KEY,
    ts           TIMESTAMPTZ NOT NULL,
    total_tests  INT NOT NULL,
    passed_tests INT NOT NULL,
    failed_tests INT NOT NULL,
    success_rate DOUBLE PRECISION NOT NULL,
    duration_ms  BIGINT NOT NULL,
    triggered_by TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
    id          BIGSERIAL PRIMARY KEY,
    run_id      BIGINT NOT NULL REFERENCES runs(id),
    name        TEXT NOT NULL,
    category    TEXT NOT NULL,
    critical    BOOLEAN NOT NULL,
    status      TEXT NOT NULL,
    details     TEXT NOT NULL DEFAULT '',
    duration_ms BIGINT NOT NULL,
    screenshot  TEXT,
    error       TEXT,
    metrics     JSONB
);

CREATE TABLE IF NOT EXISTS incidents (
    id               BIGSERIAL PRIMARY KEY,
    test_name        TEXT NOT NULL,
    start_time       TIMESTAMPTZ NOT NULL,
    end_time         TIMESTAMPTZ,
    status           TEXT NOT NULL DEFAULT 'open',
    resolved_by      TEXT,
    resolution_notes TEXT
);

CREATE TABLE IF NOT EXISTS uptime_stats (
    date              DATE PRIMARY KEY,
    total_checks      INT NOT NULL DEFAULT 0,
    successful_checks INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs (ts DESC);
CREATE INDEX IF NOT EXISTS idx_results_run ON results (run_id);
CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents (status, start_time DESC);
`

// EnsureSchema provisions the tables. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
