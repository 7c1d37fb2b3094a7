package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds process level configuration. Operator tunables such as
// thresholds and log paths live in the settings store instead.
type Config struct {
	Environment string
	LogLevel    string

	// DuckDBPath is the time-series database file; empty means in-memory.
	DuckDBPath string
	// DuckDBThreads and DuckDBMemoryMB tune the engine; zero keeps its
	// defaults.
	DuckDBThreads  int
	DuckDBMemoryMB int
	// SettingsPath is the SQLite file backing monitor settings.
	SettingsPath string
	Site         string

	// DBDriver selects the introspected database: "mysql", "postgres" or
	// empty to disable database sampling.
	DBDriver string
	DBDSN    string
	DBName   string

	// RedisAddr enables the shared settings cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MetricsAddr is where /metrics is served; empty disables it.
	MetricsAddr string

	MetricsInterval   time.Duration
	AlertsInterval    time.Duration
	LogsInterval      time.Duration
	RetentionInterval time.Duration
	CPUSampleInterval time.Duration
}

// Load constructs a Config from DEVOPSMON_* environment variables.
func Load() Config {
	return Config{
		Environment:       GetString("DEVOPSMON_ENV", "development"),
		LogLevel:          GetString("DEVOPSMON_LOG_LEVEL", "info"),
		DuckDBPath:        GetString("DEVOPSMON_DUCKDB_PATH", defaultDataPath("metrics.duckdb")),
		DuckDBThreads:     GetInt("DEVOPSMON_DUCKDB_THREADS", 0),
		DuckDBMemoryMB:    GetInt("DEVOPSMON_DUCKDB_MEMORY_MB", 0),
		SettingsPath:      GetString("DEVOPSMON_SETTINGS_PATH", defaultDataPath("settings.db")),
		Site:              GetString("DEVOPSMON_SITE", defaultSite()),
		DBDriver:          GetString("DEVOPSMON_DB_DRIVER", ""),
		DBDSN:             GetString("DEVOPSMON_DB_DSN", ""),
		DBName:            GetString("DEVOPSMON_DB_NAME", ""),
		RedisAddr:         GetString("DEVOPSMON_REDIS_ADDR", ""),
		RedisPassword:     GetString("DEVOPSMON_REDIS_PASSWORD", ""),
		RedisDB:           GetInt("DEVOPSMON_REDIS_DB", 0),
		MetricsAddr:       GetString("DEVOPSMON_METRICS_ADDR", ":9464"),
		MetricsInterval:   GetDuration("DEVOPSMON_METRICS_INTERVAL", 5*time.Minute),
		AlertsInterval:    GetDuration("DEVOPSMON_ALERTS_INTERVAL", 10*time.Minute),
		LogsInterval:      GetDuration("DEVOPSMON_LOGS_INTERVAL", 15*time.Minute),
		RetentionInterval: GetDuration("DEVOPSMON_RETENTION_INTERVAL", 24*time.Hour),
		CPUSampleInterval: GetDuration("DEVOPSMON_CPU_SAMPLE_INTERVAL", time.Second),
	}
}

// Validate checks the combinations Load cannot catch on its own.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "", "mysql", "postgres":
	default:
		return &ConfigError{Field: "DEVOPSMON_DB_DRIVER", Message: "must be mysql, postgres or empty"}
	}
	if c.DBDriver != "" && c.DBDSN == "" {
		return &ConfigError{Field: "DEVOPSMON_DB_DSN", Message: "is required when a driver is set"}
	}
	if c.DBDriver == "mysql" && c.DBName == "" {
		return &ConfigError{Field: "DEVOPSMON_DB_NAME", Message: "is required for mysql"}
	}
	if c.DuckDBThreads < 0 {
		return &ConfigError{Field: "DEVOPSMON_DUCKDB_THREADS", Message: "must not be negative"}
	}
	if c.DuckDBMemoryMB < 0 {
		return &ConfigError{Field: "DEVOPSMON_DUCKDB_MEMORY_MB", Message: "must not be negative"}
	}
	if c.SettingsPath == "" {
		return &ConfigError{Field: "DEVOPSMON_SETTINGS_PATH", Message: "must not be empty"}
	}
	durations := []struct {
		field string
		value time.Duration
	}{
		{"DEVOPSMON_METRICS_INTERVAL", c.MetricsInterval},
		{"DEVOPSMON_ALERTS_INTERVAL", c.AlertsInterval},
		{"DEVOPSMON_LOGS_INTERVAL", c.LogsInterval},
		{"DEVOPSMON_RETENTION_INTERVAL", c.RetentionInterval},
		{"DEVOPSMON_CPU_SAMPLE_INTERVAL", c.CPUSampleInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return &ConfigError{Field: d.field, Message: "must be positive"}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}

func defaultDataPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "devopsmon", name)
}

func defaultSite() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "localhost"
	}
	return host
}
