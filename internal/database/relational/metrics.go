package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"devopsmon/internal/collector"
)

// MetricFilter narrows QueryMetrics. Zero fields are ignored.
type MetricFilter struct {
	Type  collector.MetricType
	Name  string
	Since time.Time
	Until time.Time
	Limit int
}

// AppendMetrics writes the batch in one transaction.
func (r *Repo) AppendMetrics(ctx context.Context, metrics []collector.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin metrics tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metrics (ts, metric_type, metric_name, value, unit, details)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metric insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if !m.Type.Valid() {
			return fmt.Errorf("metric %q: unknown type %q", m.Name, m.Type)
		}
		details, err := encodeDetails(m.Details)
		if err != nil {
			return fmt.Errorf("metric %q details: %w", m.Name, err)
		}
		if _, err := stmt.ExecContext(ctx,
			m.Timestamp.UTC(), string(m.Type), m.Name, nullFloat(m.Value), nullStr(m.Unit), details,
		); err != nil {
			return fmt.Errorf("insert metric %q: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// QueryMetrics returns matching readings in ascending time order.
func (r *Repo) QueryMetrics(ctx context.Context, f MetricFilter) ([]collector.Metric, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "metric_type = ?")
		args = append(args, string(f.Type))
	}
	if f.Name != "" {
		where = append(where, "metric_name = ?")
		args = append(args, f.Name)
	}
	if !f.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, f.Until.UTC())
	}

	q := "SELECT ts, metric_type, metric_name, value, unit, details FROM metrics"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY ts ASC, metric_id ASC LIMIT ?"
	args = append(args, clampLimit(f.Limit, 10000, 100000))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()
	return scanMetrics(rows)
}

// LatestByName returns the newest value of every metric name of the given
// type. Rows are scanned newest first and the first occurrence of a name wins.
func (r *Repo) LatestByName(ctx context.Context, typ collector.MetricType) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT metric_name, value
		FROM metrics
		WHERE metric_type = ?
		ORDER BY ts DESC, metric_id DESC`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("query latest %s metrics: %w", typ, err)
	}
	defer rows.Close()

	latest := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value sql.NullFloat64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		if _, seen := latest[name]; seen {
			continue
		}
		latest[name] = value.Float64
	}
	return latest, rows.Err()
}

// LatestByType returns, per metric type, the newest reading of each name,
// newest first and at most perType names per type.
func (r *Repo) LatestByType(ctx context.Context, perType int) (map[collector.MetricType][]collector.Metric, error) {
	perType = clampLimit(perType, 20, 1000)
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, metric_type, metric_name, value, unit, details
		FROM metrics
		QUALIFY row_number() OVER (PARTITION BY metric_type, metric_name ORDER BY ts DESC, metric_id DESC) = 1
		ORDER BY metric_type, ts DESC, metric_name`)
	if err != nil {
		return nil, fmt.Errorf("query latest metrics: %w", err)
	}
	defer rows.Close()

	all, err := scanMetrics(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[collector.MetricType][]collector.Metric)
	for _, m := range all {
		if len(out[m.Type]) < perType {
			out[m.Type] = append(out[m.Type], m)
		}
	}
	return out, nil
}

func scanMetrics(rows *sql.Rows) ([]collector.Metric, error) {
	var out []collector.Metric
	for rows.Next() {
		var (
			m       collector.Metric
			typ     string
			value   sql.NullFloat64
			unit    sql.NullString
			details sql.NullString
		)
		if err := rows.Scan(&m.Timestamp, &typ, &m.Name, &value, &unit, &details); err != nil {
			return nil, err
		}
		m.Type = collector.MetricType(typ)
		m.Value = value.Float64
		m.Unit = unit.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &m.Details); err != nil {
				return nil, fmt.Errorf("decode details of %q: %w", m.Name, err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func encodeDetails(d map[string]any) (sql.NullString, error) {
	if len(d) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
