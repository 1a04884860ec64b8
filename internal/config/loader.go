package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional yaml file, with environment
// variables overriding (dots become underscores, e.g. SERVER_ADDR,
// MONITORING_CLEANUP_RETENTION_DAYS).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.public_api_keys", []string{})
	v.SetDefault("server.admin_api_keys", []string{})
	v.SetDefault("server.public_rpm", 120)
	v.SetDefault("server.public_burst", 60)
	v.SetDefault("server.admin_rpm", 60)
	v.SetDefault("server.admin_burst", 30)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.query_timeout", "2s")

	v.SetDefault("monitoring.targets", []string{})
	v.SetDefault("monitoring.check_timeout", "30s")
	v.SetDefault("monitoring.stop_on_critical_failure", true)
	v.SetDefault("monitoring.check_interval_hours", 6)
	v.SetDefault("monitoring.retry_attempts", 2)
	v.SetDefault("monitoring.retry_backoff", "300ms")
	v.SetDefault("monitoring.cleanup.enabled", true)
	v.SetDefault("monitoring.cleanup.retention_days", 30)
	v.SetDefault("monitoring.cleanup.delete_empty_logs", true)
	v.SetDefault("monitoring.cleanup.max_log_size_mb", 10)

	v.SetDefault("paths.logs", "logs")
	v.SetDefault("paths.reports", "reports")
	v.SetDefault("paths.screenshots", "screenshots")

	v.SetDefault("alerts.smtp.host", "")
	v.SetDefault("alerts.smtp.port", 587)
	v.SetDefault("alerts.slack_webhook", "")

	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
