// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sitewatch/sitewatch/internal/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("SITEWATCH_CONFIG"), "path to yaml config")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(configPath)
	if err != nil {
		fail("config load: " + err.Error())
	}

	if len(cfg.Monitoring.Targets) == 0 {
		fail("monitoring.targets is empty; nothing to check.")
	}
	ok(fmt.Sprintf("%d target(s) configured", len(cfg.Monitoring.Targets)))

	if len(cfg.Server.AdminAPIKeys) == 0 {
		warn("server.admin_api_keys empty; admin routes are open (dev only).")
	}
	if len(cfg.Server.PublicAPIKeys) == 0 {
		warn("server.public_api_keys empty; read routes are open (dev only).")
	}

	if cfg.Database.URL == "" {
		warn("database.url empty; run history lives in memory and is lost on restart.")
	} else {
		ok("database.url present")
	}

	if cfg.Alerts.SMTP.Host == "" && cfg.Alerts.SlackWebhook == "" {
		warn("no alert channel configured; failures will only show on the dashboard.")
	} else {
		ok("alerting configured")
	}

	for name, dir := range map[string]string{
		"paths.logs":        cfg.Paths.Logs,
		"paths.reports":     cfg.Paths.Reports,
		"paths.screenshots": cfg.Paths.Screenshots,
	} {
		if dir == "" {
			fail(name + " is empty.")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail(name + ": " + err.Error())
		}
	}
	ok("artifact directories writable")

	if cfg.Monitoring.Cleanup.Enabled && cfg.Monitoring.Cleanup.RetentionDays <= 0 {
		fail("monitoring.cleanup.retention_days must be positive when cleanup is enabled.")
	}

	ok("preflight passed")
}
