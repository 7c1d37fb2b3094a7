// Package logs collects, persists and searches application log files.
package logs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"devopsmon/internal/database/relational"
	"devopsmon/internal/logtail"
	"devopsmon/internal/settings"
	"devopsmon/internal/telemetry"
)

// MaxMessageLen caps the stored message, in characters.
const MaxMessageLen = 4000

var ErrUnknownGroup = errors.New("unknown log group")

// SettingsGetter returns the current monitor settings.
type SettingsGetter interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Store persists entries and summarizes them.
type Store interface {
	AppendLogEntries(ctx context.Context, logType string, entries []logtail.Entry) []relational.LogOutcome
	LogSummary(ctx context.Context, since time.Time) (relational.LogSummary, error)
}

// Option configures a Collector.
type Option func(*Collector)

func WithTelemetry(m *telemetry.Metrics) Option {
	return func(c *Collector) { c.telemetry = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithGroups replaces the known groups.
func WithGroups(groups map[string]Group) Option {
	return func(c *Collector) { c.groups = groups }
}

// Collector tails the configured log groups into entries.
type Collector struct {
	settings  SettingsGetter
	store     Store
	logger    *slog.Logger
	telemetry *telemetry.Metrics
	now       func() time.Time
	groups    map[string]Group
}

func NewCollector(provider SettingsGetter, store Store, logger *slog.Logger, opts ...Option) *Collector {
	c := &Collector{
		settings: provider,
		store:    store,
		logger:   logger.With("component", "log_collector"),
		now:      time.Now,
		groups:   Groups,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Group looks up a group by name.
func (c *Collector) Group(name string) (Group, error) {
	g, ok := c.groups[name]
	if !ok {
		return Group{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return g, nil
}

// GroupPaths resolves the files of a group against the current settings.
func (c *Collector) GroupPaths(ctx context.Context, name string) ([]string, error) {
	g, err := c.Group(name)
	if err != nil {
		return nil, err
	}
	s, err := c.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return groupPaths(g, s), nil
}

func groupPaths(g Group, s settings.Settings) []string {
	dir := ExpandHome(g.Dir(s))
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = filepath.Join(dir, f)
	}
	return paths
}

// Collect tails every file of the group and returns at most budget entries,
// newest first. Missing files are skipped. Missing settings yield nothing.
func (c *Collector) Collect(ctx context.Context, group string, budget int) ([]logtail.Entry, error) {
	g, err := c.Group(group)
	if err != nil {
		return nil, err
	}
	s, err := c.settings.Get(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if budget <= 0 {
		budget = s.MaxLogLines
	}

	now := c.now()
	var entries []logtail.Entry
	for i, path := range groupPaths(g, s) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := logtail.Tail(path, budget)
		if err != nil {
			c.logger.Warn("tail failed", "group", g.Name, "path", path, "error", err)
			continue
		}
		source := g.Source
		if source == "" {
			source = g.Files[i]
		}
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			entries = append(entries, logtail.Parse(line, source, now))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if len(entries) > budget {
		entries = entries[:budget]
	}
	return entries, nil
}

// Save persists entries under logType and returns one outcome per entry.
// Failed entries are logged and do not stop the rest.
func (c *Collector) Save(ctx context.Context, entries []logtail.Entry, logType string) []relational.LogOutcome {
	if len(entries) == 0 {
		return nil
	}
	capped := make([]logtail.Entry, len(entries))
	for i, e := range entries {
		e.Message = truncateRunes(e.Message, MaxMessageLen)
		capped[i] = e
	}

	outcomes := c.store.AppendLogEntries(ctx, logType, capped)
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			c.logger.Warn("log entry not saved", "log_type", logType, "source", o.Entry.Source, "error", o.Err)
		}
	}
	c.telemetry.AddLogEntries(logType, len(outcomes)-failed, failed)
	return outcomes
}

// CollectAll runs DefaultPlan and returns how many entries were saved per
// group. It is a no-op when monitoring is disabled.
func (c *Collector) CollectAll(ctx context.Context) (map[string]int, error) {
	s, err := c.settings.Get(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !s.EnableMonitoring {
		return nil, nil
	}

	saved := make(map[string]int, len(DefaultPlan))
	for _, step := range DefaultPlan {
		g, err := c.Group(step.Group)
		if err != nil {
			c.logger.Warn("skipping plan step", "group", step.Group, "error", err)
			continue
		}
		entries, err := c.Collect(ctx, step.Group, step.Budget)
		if err != nil {
			if ctx.Err() != nil {
				return saved, ctx.Err()
			}
			c.logger.Warn("collect failed", "group", step.Group, "error", err)
			continue
		}
		n := 0
		for _, o := range c.Save(ctx, entries, g.LogType) {
			if o.Err == nil {
				n++
			}
		}
		saved[step.Group] = n
	}
	c.logger.Info("logs collected", "saved", saved)
	return saved, nil
}

// Summary aggregates entries recorded within the last window.
func (c *Collector) Summary(ctx context.Context, window time.Duration) (relational.LogSummary, error) {
	return c.store.LogSummary(ctx, c.now().Add(-window))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
