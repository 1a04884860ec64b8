package scheduler

import (
	"testing"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/config"
)

func startScheduler(t *testing.T, cfg config.MonitoringConfig) *Scheduler {
	t.Helper()
	// jobs never fire within test lifetime; the service is only touched by
	// the cron callbacks, so nil collaborators are safe here
	s := New(zap.NewNop(), nil, nil, cfg)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestStart_AllJobsEnabled(t *testing.T) {
	s := startScheduler(t, config.MonitoringConfig{
		CheckIntervalHours: 6,
		Cleanup:            config.CleanupConfig{Enabled: true},
	})
	// interval runs + daily cleanup + hourly progress sweep
	if got := s.Entries(); got != 3 {
		t.Fatalf("want 3 entries, got %d", got)
	}
}

func TestStart_ZeroIntervalDisablesRuns(t *testing.T) {
	s := startScheduler(t, config.MonitoringConfig{
		Cleanup: config.CleanupConfig{Enabled: true},
	})
	if got := s.Entries(); got != 2 {
		t.Fatalf("want 2 entries, got %d", got)
	}
}

func TestStart_CleanupDisabled(t *testing.T) {
	s := startScheduler(t, config.MonitoringConfig{CheckIntervalHours: 6})
	if got := s.Entries(); got != 2 {
		t.Fatalf("want 2 entries, got %d", got)
	}
}
