package collector

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSlowQueryThreshold applies when settings leave the threshold unset.
const DefaultSlowQueryThreshold = time.Second

// Introspector reads counters for one named database.
type Introspector interface {
	ActiveConnections(ctx context.Context) (int64, error)
	TableCount(ctx context.Context) (int64, error)
	SizeBytes(ctx context.Context) (int64, error)
	// SlowQueries counts in-flight operations running longer than threshold.
	SlowQueries(ctx context.Context, threshold time.Duration) (int64, error)
}

// DatabaseSampler emits Database metrics through an Introspector.
type DatabaseSampler struct {
	base
	intro Introspector
}

func NewDatabaseSampler(intro Introspector, provider SettingsGetter, store MetricAppender, logger *slog.Logger, opts ...Option) *DatabaseSampler {
	return &DatabaseSampler{
		base:  newBase(provider, store, logger, "db_sampler", opts),
		intro: intro,
	}
}

// Collect runs each query on its own; one failing query does not block the
// others. A nil Introspector or disabled monitoring makes it a no-op.
func (d *DatabaseSampler) Collect(ctx context.Context) ([]Metric, error) {
	if d.intro == nil {
		return nil, nil
	}
	s, on, err := d.enabled(ctx)
	if err != nil || !on {
		return nil, err
	}
	threshold := time.Duration(s.SlowQueryThreshold) * time.Millisecond
	if threshold <= 0 {
		threshold = DefaultSlowQueryThreshold
	}

	b := batch{typ: TypeDatabase}
	d.query("active_connections", func() error {
		n, err := d.intro.ActiveConnections(ctx)
		if err == nil {
			b.add("active_connections", float64(n), "connections")
		}
		return err
	})
	d.query("table_count", func() error {
		n, err := d.intro.TableCount(ctx)
		if err == nil {
			b.add("table_count", float64(n), "tables")
		}
		return err
	})
	d.query("database_size", func() error {
		size, err := d.intro.SizeBytes(ctx)
		if err == nil && size > 0 {
			b.add("database_size_mb", toMB(uint64(size)), "MB")
		}
		return err
	})
	d.query("slow_queries", func() error {
		n, err := d.intro.SlowQueries(ctx, threshold)
		if err == nil {
			b.add("slow_queries", float64(n), "queries")
		}
		return err
	})

	return d.commit(ctx, b.metrics)
}

func (d *DatabaseSampler) query(name string, fn func() error) {
	err := fn()
	d.telemetry.ObserveSample("db_"+name, err)
	if err != nil {
		d.logger.Warn("database query failed", "query", name, "error", err)
	}
}
