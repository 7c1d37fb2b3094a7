package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"devopsmon/internal/collector"
	"devopsmon/internal/command"
	"devopsmon/internal/config"
	"devopsmon/internal/database"
	"devopsmon/internal/database/introspect"
	"devopsmon/internal/database/relational"
	"devopsmon/internal/engine"
	"devopsmon/internal/logs"
	"devopsmon/internal/notify"
	"devopsmon/internal/retention"
	"devopsmon/internal/settings"
	"devopsmon/internal/telemetry"
)

// app wires every component of the monitor for one site.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	registry  *prometheus.Registry
	telemetry *telemetry.Metrics

	duck     *relational.DuckDBClient
	repo     *relational.Repo
	settings *settings.SQLiteStore
	redis    *settings.RedisCache
	provider *settings.Provider
	appDB    introspect.Source

	source    *collector.SystemSource
	sampler   *collector.Sampler
	dbSampler *collector.DatabaseSampler
	logs      *logs.Collector
	evaluator *engine.Evaluator
	retention *retention.Service
	commands  *command.Runner
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// open builds the components in dependency order. On error the caller
// closes whatever was opened so far.
func (a *app) open(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	var err error

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.telemetry = telemetry.New(a.registry)

	if a.duck, err = relational.NewDuckDBClient(cfg.DuckDBPath,
		relational.WithThreads(cfg.DuckDBThreads),
		relational.WithMemoryLimitMB(cfg.DuckDBMemoryMB),
	); err != nil {
		return fmt.Errorf("open time-series store: %w", err)
	}
	a.repo = relational.NewRepo(a.duck.DB())
	if err = a.repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate time-series store: %w", err)
	}

	if a.settings, err = settings.OpenSQLite(cfg.SettingsPath); err != nil {
		return err
	}
	if _, err = a.settings.EnsureDefaults(ctx, cfg.Site); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	var cache settings.Cache
	if cfg.RedisAddr != "" {
		if a.redis, err = settings.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			return fmt.Errorf("connect settings cache: %w", err)
		}
		cache = a.redis
	}
	a.provider = settings.NewProvider(a.settings, cache, cfg.Site, logger)

	if cfg.DBDriver != "" {
		if a.appDB, err = introspect.Open(ctx, cfg.DBDriver, cfg.DBDSN, cfg.DBName); err != nil {
			return fmt.Errorf("connect application database: %w", err)
		}
	}

	a.source = collector.NewSystemSource()
	a.sampler = collector.NewSampler(a.source, a.provider, a.repo,
		collector.DefaultSamplerConfig().WithCPUInterval(cfg.CPUSampleInterval),
		logger, collector.WithTelemetry(a.telemetry))
	if a.appDB != nil {
		a.dbSampler = collector.NewDatabaseSampler(a.appDB, a.provider, a.repo, logger, collector.WithTelemetry(a.telemetry))
	}
	a.logs = logs.NewCollector(a.provider, a.repo, logger, logs.WithTelemetry(a.telemetry))

	notifier := notify.Multi{notify.NewStoreNotifier(a.repo), notify.NewLogNotifier(logger)}
	a.evaluator = engine.NewEvaluator(a.provider, a.repo, notifier, logger, a.telemetry)
	a.retention = retention.NewService(a.provider, a.repo, logger)
	a.commands = command.NewRunner(logger, command.DefaultTimeout)
	return nil
}

// worker builds the scheduler for every periodic job.
func (a *app) worker() (*database.DataWorker, error) {
	samplers := []database.MetricCollector{a.sampler}
	if a.dbSampler != nil {
		samplers = append(samplers, a.dbSampler)
	}
	jobs := database.Jobs(database.Intervals{
		Metrics:   a.cfg.MetricsInterval,
		Alerts:    a.cfg.AlertsInterval,
		Logs:      a.cfg.LogsInterval,
		Retention: a.cfg.RetentionInterval,
	}, samplers, a.evaluator, a.logs, a.retention)
	return database.NewDataWorker(jobs, a.logger, a.telemetry)
}

// Close releases every opened resource. It is safe on a partly built app.
func (a *app) Close() error {
	var errs []error
	if a.appDB != nil {
		errs = append(errs, a.appDB.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.settings != nil {
		errs = append(errs, a.settings.Close())
	}
	if a.duck != nil {
		errs = append(errs, a.duck.Close())
	}
	return errors.Join(errs...)
}
