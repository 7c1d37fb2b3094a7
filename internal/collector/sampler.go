package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"devopsmon/internal/settings"
	"devopsmon/internal/telemetry"

	"golang.org/x/sync/singleflight"
)

// SettingsGetter returns the current monitor settings.
type SettingsGetter interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// MetricAppender persists one batch of readings.
type MetricAppender interface {
	AppendMetrics(ctx context.Context, batch []Metric) error
}

// Option configures a Sampler or DatabaseSampler.
type Option func(*base)

// WithTelemetry records per-group outcomes.
func WithTelemetry(m *telemetry.Metrics) Option {
	return func(b *base) { b.telemetry = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

type base struct {
	settings  SettingsGetter
	store     MetricAppender
	logger    *slog.Logger
	telemetry *telemetry.Metrics
	now       func() time.Time
}

func newBase(provider SettingsGetter, store MetricAppender, logger *slog.Logger, component string, opts []Option) base {
	b := base{
		settings: provider,
		store:    store,
		logger:   logger.With("component", component),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// enabled loads settings and reports whether monitoring is on. Missing
// settings mean monitoring is off.
func (b *base) enabled(ctx context.Context) (settings.Settings, bool, error) {
	s, err := b.settings.Get(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		b.logger.Debug("no settings found, monitoring disabled")
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("load settings: %w", err)
	}
	return s, s.EnableMonitoring, nil
}

// commit stamps and persists a batch. The returned slice is what was
// sampled even when persisting fails.
func (b *base) commit(ctx context.Context, metrics []Metric) ([]Metric, error) {
	ts := b.now()
	for i := range metrics {
		metrics[i].Timestamp = ts
	}
	if len(metrics) == 0 {
		return metrics, nil
	}
	if err := b.store.AppendMetrics(ctx, metrics); err != nil {
		b.logger.Error("metric batch not persisted", "count", len(metrics), "error", err)
		return metrics, fmt.Errorf("append metrics: %w", err)
	}
	return metrics, nil
}

type sampleGroup struct {
	name string
	run  func(ctx context.Context) ([]Metric, error)
}

// Sampler turns host counters into Metric batches.
type Sampler struct {
	base
	source HostSource
	cfg    SamplerConfig
	flight singleflight.Group
}

func NewSampler(source HostSource, provider SettingsGetter, store MetricAppender, cfg SamplerConfig, logger *slog.Logger, opts ...Option) *Sampler {
	return &Sampler{
		base:   newBase(provider, store, logger, "sampler", opts),
		source: source,
		cfg:    cfg,
	}
}

// Collect samples every group and persists the result as one batch. It is a
// no-op when monitoring is disabled. Concurrent calls share a single sample.
func (s *Sampler) Collect(ctx context.Context) ([]Metric, error) {
	_, on, err := s.enabled(ctx)
	if err != nil || !on {
		return nil, err
	}

	v, err, _ := s.flight.Do("collect", func() (any, error) {
		return s.commit(ctx, s.sample(ctx))
	})
	metrics, _ := v.([]Metric)
	return append([]Metric(nil), metrics...), err
}

// sample runs all groups concurrently. A failing group is logged and
// contributes nothing; the order of the result follows the group order.
func (s *Sampler) sample(ctx context.Context) []Metric {
	groups := []sampleGroup{
		{"cpu", s.sampleCPU},
		{"memory", s.sampleMemory},
		{"disk", s.sampleDisk},
		{"network", s.sampleNetwork},
		{"process", s.sampleProcesses},
	}

	results := make([][]Metric, len(groups))
	var wg sync.WaitGroup
	wg.Add(len(groups))
	for i, g := range groups {
		go func() {
			defer wg.Done()
			gctx, cancel := context.WithTimeout(ctx, s.cfg.GroupTimeout)
			defer cancel()

			ms, err := g.run(gctx)
			s.telemetry.ObserveSample(g.name, err)
			if err != nil {
				s.logger.Warn("sampling group failed", "group", g.name, "error", err)
				return
			}
			results[i] = ms
		}()
	}
	wg.Wait()

	var all []Metric
	for _, ms := range results {
		all = append(all, ms...)
	}
	return all
}

func (s *Sampler) sampleCPU(ctx context.Context) ([]Metric, error) {
	c, err := s.source.CPU(ctx, s.cfg.CPUInterval)
	if err != nil {
		return nil, err
	}
	b := batch{typ: TypeSystem}
	b.add("cpu_percent", c.TotalUsage, "%")
	b.add("cpu_count", float64(c.Cores), "cores")
	if c.FrequencyMHz > 0 {
		b.add("cpu_frequency", c.FrequencyMHz, "MHz")
	}
	b.add("load_avg_1min", c.Load1, "")
	b.add("load_avg_5min", c.Load5, "")
	b.add("load_avg_15min", c.Load15, "")
	for i, usage := range c.PerCore {
		b.add(fmt.Sprintf("cpu_%d_usage", i), usage, "%")
	}
	return b.metrics, nil
}

func (s *Sampler) sampleMemory(ctx context.Context) ([]Metric, error) {
	m, err := s.source.Memory(ctx)
	if err != nil {
		return nil, err
	}
	b := batch{typ: TypeSystem}
	b.add("memory_percent", m.UsedPercent, "%")
	b.add("memory_used_gb", toGB(m.Used), "GB")
	b.add("memory_available_gb", toGB(m.Available), "GB")
	b.add("memory_total_gb", toGB(m.Total), "GB")
	b.add("swap_percent", m.SwapPercent, "%")
	b.add("swap_used_gb", toGB(m.SwapUsed), "GB")
	return b.metrics, nil
}

func (s *Sampler) sampleDisk(ctx context.Context) ([]Metric, error) {
	d, err := s.source.Disk(ctx, s.cfg.DiskPath)
	if err != nil {
		return nil, err
	}
	b := batch{typ: TypeSystem}
	b.add("disk_percent", d.UsedPercent, "%")
	b.add("disk_used_gb", toGB(d.Used), "GB")
	b.add("disk_free_gb", toGB(d.Free), "GB")
	b.add("disk_total_gb", toGB(d.Total), "GB")
	if d.HasIO {
		b.add("disk_read_mb", toMB(d.ReadBytes), "MB")
		b.add("disk_write_mb", toMB(d.WriteBytes), "MB")
	}
	return b.metrics, nil
}

func (s *Sampler) sampleNetwork(ctx context.Context) ([]Metric, error) {
	n, err := s.source.Network(ctx)
	if err != nil {
		return nil, err
	}
	b := batch{typ: TypeNetwork}
	b.add("net_sent_mb", toMB(n.BytesSent), "MB")
	b.add("net_recv_mb", toMB(n.BytesRecv), "MB")
	b.add("net_packets_sent", float64(n.PacketsSent), "packets")
	b.add("net_packets_recv", float64(n.PacketsRecv), "packets")
	b.add("net_errors_in", float64(n.ErrIn), "errors")
	b.add("net_errors_out", float64(n.ErrOut), "errors")
	if n.Connections >= 0 {
		b.add("net_connections", float64(n.Connections), "connections")
	}
	return b.metrics, nil
}

func (s *Sampler) sampleProcesses(ctx context.Context) ([]Metric, error) {
	p, err := s.source.Processes(ctx, s.cfg.ProcessMarkers, s.cfg.TopProcesses)
	if err != nil {
		return nil, err
	}
	sys := batch{typ: TypeSystem}
	sys.add("process_count", float64(p.Total), "processes")

	app := batch{typ: TypeApplication}
	app.add("frappe_processes", float64(p.Matched), "processes")

	for i, proc := range p.Top {
		sys.addDetailed(fmt.Sprintf("top_proc_%d_memory", i+1), float64(proc.Memory), "%",
			map[string]any{"name": proc.Name, "pid": proc.PID})
	}
	return append(sys.metrics, app.metrics...), nil
}
