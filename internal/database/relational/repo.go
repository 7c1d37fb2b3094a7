package relational

import (
	"context"
	"database/sql"
	"math"
	"time"
)

// SchemaSQL creates the append-only series and the notification log.
const SchemaSQL = `
CREATE SEQUENCE IF NOT EXISTS metric_seq;

CREATE TABLE IF NOT EXISTS metrics (
  metric_id    BIGINT PRIMARY KEY DEFAULT nextval('metric_seq'),
  ts           TIMESTAMP NOT NULL,
  metric_type  VARCHAR NOT NULL,
  metric_name  VARCHAR NOT NULL,
  value        DOUBLE,
  unit         VARCHAR,
  details      VARCHAR
);
CREATE INDEX IF NOT EXISTS idx_metrics_type_name_ts ON metrics(metric_type, metric_name, ts);

CREATE TABLE IF NOT EXISTS log_entries (
  entry_id     VARCHAR PRIMARY KEY,
  ts           TIMESTAMP NOT NULL,
  ts_text      VARCHAR NOT NULL,
  log_type     VARCHAR NOT NULL,
  log_level    VARCHAR NOT NULL,
  source       VARCHAR NOT NULL,
  message      VARCHAR,
  raw          VARCHAR,
  created_at   TIMESTAMP NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_log_entries_ts ON log_entries(ts);

CREATE TABLE IF NOT EXISTS notifications (
  notification_id VARCHAR PRIMARY KEY,
  for_user        VARCHAR NOT NULL,
  subject         VARCHAR NOT NULL,
  body            VARCHAR,
  kind            VARCHAR NOT NULL,
  created_at      TIMESTAMP NOT NULL
);
`

// Repo is the time-series store.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, SchemaSQL)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Null helpers
func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
