package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"devopsmon/internal/logtail"
)

// LogRecord is a persisted log entry.
type LogRecord struct {
	ID        string        `json:"id"`
	Time      time.Time     `json:"time"`
	Timestamp string        `json:"timestamp"`
	LogType   string        `json:"log_type"`
	Level     logtail.Level `json:"log_level"`
	Source    string        `json:"source"`
	Message   string        `json:"message"`
	Raw       string        `json:"raw,omitempty"`
}

// LogOutcome reports what happened to one entry of a batch. Err is nil when
// the entry was stored under ID.
type LogOutcome struct {
	Entry logtail.Entry
	ID    string
	Err   error
}

// LogFilter narrows QueryLogEntries. Zero fields are ignored; Search is a
// case-insensitive substring match on the message.
type LogFilter struct {
	LogType string
	Level   logtail.Level
	Source  string
	Since   time.Time
	Until   time.Time
	Search  string
}

const unknownSource = "unknown"

var errEmptyLogType = errors.New("log type is required")

const insertLogSQL = `
	INSERT INTO log_entries (entry_id, ts, ts_text, log_type, log_level, source, message, raw, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// AppendLogEntries stores a batch and returns one outcome per entry, in
// input order. Valid entries are written in a single transaction; if that
// fails they are retried one by one so a bad row only fails itself.
func (r *Repo) AppendLogEntries(ctx context.Context, logType string, entries []logtail.Entry) []LogOutcome {
	outcomes := make([]LogOutcome, len(entries))
	var pending []int
	for i, e := range entries {
		outcomes[i].Entry = e
		switch {
		case logType == "":
			outcomes[i].Err = errEmptyLogType
		case !e.Level.Valid():
			outcomes[i].Err = fmt.Errorf("invalid log level %q", e.Level)
		default:
			outcomes[i].ID = uuid.NewString()
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return outcomes
	}

	if err := r.insertLogTx(ctx, logType, outcomes, pending); err == nil {
		return outcomes
	}

	for _, i := range pending {
		if err := r.insertLog(ctx, r.db, logType, outcomes[i]); err != nil {
			outcomes[i].ID = ""
			outcomes[i].Err = err
		}
	}
	return outcomes
}

func (r *Repo) insertLogTx(ctx context.Context, logType string, outcomes []LogOutcome, pending []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, i := range pending {
		if err := r.insertLog(ctx, tx, logType, outcomes[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) insertLog(ctx context.Context, ex execer, logType string, o LogOutcome) error {
	e := o.Entry
	now := r.now().UTC()
	ts := e.Time
	if ts.IsZero() {
		ts = now
	}
	text := e.Timestamp
	if text == "" {
		text = ts.Format(logtail.TimestampLayout)
	}
	source := e.Source
	if source == "" {
		source = unknownSource
	}
	_, err := ex.ExecContext(ctx, insertLogSQL,
		o.ID, ts.UTC(), text, logType, string(e.Level), source, e.Message, nullStr(e.Raw), now)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// QueryLogEntries returns matching entries newest first.
func (r *Repo) QueryLogEntries(ctx context.Context, f LogFilter, limit int) ([]LogRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.LogType != "" {
		where = append(where, "log_type = ?")
		args = append(args, f.LogType)
	}
	if f.Level != "" {
		where = append(where, "log_level = ?")
		args = append(args, string(f.Level))
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if !f.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, f.Until.UTC())
	}
	if f.Search != "" {
		where = append(where, "contains(lower(message), ?)")
		args = append(args, strings.ToLower(f.Search))
	}

	q := "SELECT entry_id, ts, ts_text, log_type, log_level, source, message, raw FROM log_entries"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY ts DESC, created_at DESC LIMIT ?"
	args = append(args, clampLimit(limit, 100, 5000))

	return r.queryLogs(ctx, q, args...)
}

func (r *Repo) queryLogs(ctx context.Context, q string, args ...any) ([]LogRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var out []LogRecord
	for rows.Next() {
		var (
			rec   LogRecord
			level string
			msg   sql.NullString
			raw   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Time, &rec.Timestamp, &rec.LogType, &level, &rec.Source, &msg, &raw); err != nil {
			return nil, err
		}
		rec.Level = logtail.Level(level)
		rec.Message = msg.String
		rec.Raw = raw.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteLogEntriesOlderThan removes entries strictly older than cutoff and
// returns how many were removed.
func (r *Repo) DeleteLogEntriesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin retention tx: %w", err)
	}
	defer tx.Rollback()

	var n int64
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM log_entries WHERE ts < ?`, cutoff.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expired log entries: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM log_entries WHERE ts < ?`, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("delete expired log entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// LevelCount is the number of entries of one type at one level.
type LevelCount struct {
	LogType string        `json:"log_type"`
	Level   logtail.Level `json:"log_level"`
	Count   int64         `json:"count"`
}

// SourceCount is the number of error entries from one source.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// LogSummary aggregates entries recorded since a point in time.
type LogSummary struct {
	Since        time.Time     `json:"since"`
	Counts       []LevelCount  `json:"counts"`
	RecentErrors []LogRecord   `json:"recent_errors"`
	TopSources   []SourceCount `json:"top_error_sources"`
}

// Total sums Counts, optionally restricted to one level.
func (s LogSummary) Total(level logtail.Level) int64 {
	var n int64
	for _, c := range s.Counts {
		if level == "" || c.Level == level {
			n += c.Count
		}
	}
	return n
}

const errorLevels = `('ERROR', 'CRITICAL')`

// LogSummary counts entries by type and level, and lists the 10 most recent
// errors and the 5 sources producing the most errors.
func (r *Repo) LogSummary(ctx context.Context, since time.Time) (LogSummary, error) {
	sum := LogSummary{Since: since}

	rows, err := r.db.QueryContext(ctx, `
		SELECT log_type, log_level, count(*)
		FROM log_entries
		WHERE ts >= ?
		GROUP BY log_type, log_level
		ORDER BY log_type, log_level`, since.UTC())
	if err != nil {
		return sum, fmt.Errorf("count log entries: %w", err)
	}
	for rows.Next() {
		var (
			c     LevelCount
			level string
		)
		if err := rows.Scan(&c.LogType, &level, &c.Count); err != nil {
			rows.Close()
			return sum, err
		}
		c.Level = logtail.Level(level)
		sum.Counts = append(sum.Counts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sum, err
	}

	sum.RecentErrors, err = r.queryLogs(ctx, `
		SELECT entry_id, ts, ts_text, log_type, log_level, source, message, raw
		FROM log_entries
		WHERE ts >= ? AND log_level IN `+errorLevels+`
		ORDER BY ts DESC
		LIMIT 10`, since.UTC())
	if err != nil {
		return sum, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT source, count(*) AS n
		FROM log_entries
		WHERE ts >= ? AND log_level IN `+errorLevels+`
		GROUP BY source
		ORDER BY n DESC, source
		LIMIT 5`, since.UTC())
	if err != nil {
		return sum, fmt.Errorf("top error sources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c SourceCount
		if err := rows.Scan(&c.Source, &c.Count); err != nil {
			return sum, err
		}
		sum.TopSources = append(sum.TopSources, c)
	}
	return sum, rows.Err()
}
