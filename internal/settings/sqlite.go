package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists settings.
type Store interface {
	Get(ctx context.Context, site string) (Settings, error)
	Put(ctx context.Context, s Settings) error
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS monitor_settings (
	site TEXT PRIMARY KEY,
	enable_monitoring INTEGER NOT NULL,
	frappe_log_path TEXT NOT NULL,
	nginx_log_path TEXT NOT NULL,
	supervisor_log_path TEXT NOT NULL,
	system_log_path TEXT NOT NULL,
	max_log_lines INTEGER NOT NULL,
	log_retention_days INTEGER NOT NULL,
	enable_alerts INTEGER NOT NULL,
	cpu_threshold REAL NOT NULL,
	memory_threshold REAL NOT NULL,
	disk_threshold REAL NOT NULL,
	error_rate_threshold REAL NOT NULL,
	slow_query_threshold INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS alert_recipients (
	site TEXT NOT NULL,
	position INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	notify_on_alert INTEGER NOT NULL,
	PRIMARY KEY (site, position)
);`

// SQLiteStore keeps settings in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the settings database at path.
// ":memory:" gives a private in-memory store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create settings dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate settings db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get loads the settings for site, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, site string) (Settings, error) {
	var out Settings
	row := s.db.QueryRowContext(ctx, `
		SELECT site, enable_monitoring, frappe_log_path, nginx_log_path, supervisor_log_path,
			system_log_path, max_log_lines, log_retention_days, enable_alerts, cpu_threshold,
			memory_threshold, disk_threshold, error_rate_threshold, slow_query_threshold
		FROM monitor_settings WHERE site = ?`, site)
	err := row.Scan(&out.Site, &out.EnableMonitoring, &out.FrappeLogPath, &out.NginxLogPath,
		&out.SupervisorLogPath, &out.SystemLogPath, &out.MaxLogLines, &out.LogRetentionDays,
		&out.EnableAlerts, &out.CPUThreshold, &out.MemoryThreshold, &out.DiskThreshold,
		&out.ErrorRateThreshold, &out.SlowQueryThreshold)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, notify_on_alert FROM alert_recipients WHERE site = ? ORDER BY position`, site)
	if err != nil {
		return Settings{}, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.User, &r.NotifyOnAlert); err != nil {
			return Settings{}, fmt.Errorf("scan recipient: %w", err)
		}
		out.Recipients = append(out.Recipients, r)
	}
	return out, rows.Err()
}

// Put validates and upserts settings together with the recipient list.
func (s *SQLiteStore) Put(ctx context.Context, in Settings) error {
	if err := in.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO monitor_settings (site, enable_monitoring, frappe_log_path, nginx_log_path,
			supervisor_log_path, system_log_path, max_log_lines, log_retention_days, enable_alerts,
			cpu_threshold, memory_threshold, disk_threshold, error_rate_threshold, slow_query_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site) DO UPDATE SET
			enable_monitoring = excluded.enable_monitoring,
			frappe_log_path = excluded.frappe_log_path,
			nginx_log_path = excluded.nginx_log_path,
			supervisor_log_path = excluded.supervisor_log_path,
			system_log_path = excluded.system_log_path,
			max_log_lines = excluded.max_log_lines,
			log_retention_days = excluded.log_retention_days,
			enable_alerts = excluded.enable_alerts,
			cpu_threshold = excluded.cpu_threshold,
			memory_threshold = excluded.memory_threshold,
			disk_threshold = excluded.disk_threshold,
			error_rate_threshold = excluded.error_rate_threshold,
			slow_query_threshold = excluded.slow_query_threshold`,
		in.Site, in.EnableMonitoring, in.FrappeLogPath, in.NginxLogPath, in.SupervisorLogPath,
		in.SystemLogPath, in.MaxLogLines, in.LogRetentionDays, in.EnableAlerts, in.CPUThreshold,
		in.MemoryThreshold, in.DiskThreshold, in.ErrorRateThreshold, in.SlowQueryThreshold)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM alert_recipients WHERE site = ?`, in.Site); err != nil {
		return fmt.Errorf("clear recipients: %w", err)
	}
	for i, r := range in.Recipients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alert_recipients (site, position, user_id, notify_on_alert) VALUES (?, ?, ?, ?)`,
			in.Site, i, r.User, r.NotifyOnAlert); err != nil {
			return fmt.Errorf("insert recipient %s: %w", r.User, err)
		}
	}
	return tx.Commit()
}

// EnsureDefaults writes Defaults(site) unless settings already exist.
func (s *SQLiteStore) EnsureDefaults(ctx context.Context, site string) (Settings, error) {
	existing, err := s.Get(ctx, site)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Settings{}, err
	}
	def := Defaults(site)
	if err := s.Put(ctx, def); err != nil {
		return Settings{}, err
	}
	return def, nil
}
