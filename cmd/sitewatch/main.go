package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/internal/check"
	"github.com/sitewatch/sitewatch/internal/cleanup"
	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/httpapi"
	apimw "github.com/sitewatch/sitewatch/internal/httpapi/middleware"
	"github.com/sitewatch/sitewatch/internal/logging"
	"github.com/sitewatch/sitewatch/internal/notify"
	"github.com/sitewatch/sitewatch/internal/repo"
	"github.com/sitewatch/sitewatch/internal/repo/memory"
	"github.com/sitewatch/sitewatch/internal/repo/postgres"
	"github.com/sitewatch/sitewatch/internal/runner"
	"github.com/sitewatch/sitewatch/internal/scheduler"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("SITEWATCH_CONFIG"), "path to yaml config (env vars override)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Paths.Logs, cfg.LogLevel, cfg.Monitoring.Cleanup.MaxLogSizeMB, cfg.Monitoring.Cleanup.RetentionDays)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store repo.Store
	if cfg.Database.URL != "" {
		pg, err := postgres.New(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("db_connect_error", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("db_schema_error", zap.Error(err))
		}
		store = pg
		logger.Info("store_postgres")
	} else {
		store = memory.New()
		logger.Warn("store_memory", zap.String("hint", "set DATABASE_URL for durable history"))
	}

	registry := buildRegistry(cfg)

	notifier := notify.Multi{}
	if em := notify.NewEmail(cfg.Alerts.SMTP); em != nil {
		notifier = append(notifier, em)
	}
	if sl := notify.NewSlack(cfg.Alerts.SlackWebhook); sl != nil {
		notifier = append(notifier, sl)
	}

	tracker := runner.NewTracker()
	sweeper := cleanup.NewSweeper(logger, cfg.Monitoring.Cleanup, cfg.Paths)
	exec := runner.NewExecutor(cfg, logger, registry, store, tracker, notifier)
	svc := runner.NewService(logger, store, tracker, exec, sweeper)

	sched := scheduler.New(logger, svc, tracker, cfg.Monitoring)
	if err := sched.Start(); err != nil {
		logger.Fatal("scheduler_error", zap.Error(err))
	}
	defer sched.Stop()

	api := httpapi.NewServer(logger, svc)
	keys := apimw.Keys{Public: cfg.Server.PublicAPIKeys, Admin: cfg.Server.AdminAPIKeys}
	handler := api.Router(keys, cfg.Server.AllowedOrigins,
		cfg.Server.PublicRPM, cfg.Server.PublicBurst,
		cfg.Server.AdminRPM, cfg.Server.AdminBurst)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api_error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
}

// buildRegistry wires the built-in probes for each configured target site.
// Availability is the critical gate; cert expiry is advisory. Retries use
// the monitoring tuning so a flaky network blip doesn't page anyone.
func buildRegistry(cfg *config.Config) *check.Registry {
	reg := check.NewRegistry()
	for i, target := range cfg.Monitoring.Targets {
		t := target
		reg.Register(func(cfg *config.Config, _ *zap.Logger) (check.Check, error) {
			return &check.Retry{
				Inner:    check.NewAvailability(t, true, cfg.Monitoring.CheckTimeout),
				Attempts: cfg.Monitoring.RetryAttempts,
				Backoff:  cfg.Monitoring.RetryBackoff,
			}, nil
		}, check.Options{Enabled: true, Order: 10 + i})

		reg.Register(func(cfg *config.Config, _ *zap.Logger) (check.Check, error) {
			return check.NewCertExpiry(t, 0, cfg.Monitoring.CheckTimeout), nil
		}, check.Options{Enabled: true, Order: 100 + i})
	}
	return reg
}
