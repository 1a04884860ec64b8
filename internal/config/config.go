package config

import "time"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	LogLevel   string           `mapstructure:"log_level"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicAPIKeys  []string `mapstructure:"public_api_keys"`
	AdminAPIKeys   []string `mapstructure:"admin_api_keys"`
	PublicRPM      int      `mapstructure:"public_rpm"`
	PublicBurst    int      `mapstructure:"public_burst"`
	AdminRPM       int      `mapstructure:"admin_rpm"`
	AdminBurst     int      `mapstructure:"admin_burst"`
}

// DatabaseConfig tunes the pgx pool. An empty URL selects the in-memory
// store (handy for local runs and tests).
type DatabaseConfig struct {
	URL          string        `mapstructure:"url"`
	MaxConns     int32         `mapstructure:"max_conns"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type MonitoringConfig struct {
	Targets               []string      `mapstructure:"targets"`
	CheckTimeout          time.Duration `mapstructure:"check_timeout"`
	StopOnCriticalFailure bool          `mapstructure:"stop_on_critical_failure"`
	CheckIntervalHours    int           `mapstructure:"check_interval_hours"`
	RetryAttempts         int           `mapstructure:"retry_attempts"`
	RetryBackoff          time.Duration `mapstructure:"retry_backoff"`
	Cleanup               CleanupConfig `mapstructure:"cleanup"`
}

type CleanupConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RetentionDays   int  `mapstructure:"retention_days"`
	DeleteEmptyLogs bool `mapstructure:"delete_empty_logs"`
	MaxLogSizeMB    int  `mapstructure:"max_log_size_mb"`
}

// PathsConfig names the artifact directories the retention sweeper owns.
type PathsConfig struct {
	Logs        string `mapstructure:"logs"`
	Reports     string `mapstructure:"reports"`
	Screenshots string `mapstructure:"screenshots"`
}

type AlertsConfig struct {
	SMTP         SMTPConfig `mapstructure:"smtp"`
	SlackWebhook string     `mapstructure:"slack_webhook"`
}

type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}
