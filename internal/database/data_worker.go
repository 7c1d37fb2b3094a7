// Package database schedules the periodic monitor jobs against the store.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"devopsmon/internal/collector"
	"devopsmon/internal/flagger"
	"devopsmon/internal/telemetry"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// MetricCollector samples and persists one batch.
type MetricCollector interface {
	Collect(ctx context.Context) ([]collector.Metric, error)
}

// AlertEvaluator runs one threshold pass.
type AlertEvaluator interface {
	Evaluate(ctx context.Context) ([]flagger.AlertEvent, error)
}

// LogCollector collects and persists every configured log group.
type LogCollector interface {
	CollectAll(ctx context.Context) (map[string]int, error)
}

// Sweeper deletes expired entries.
type Sweeper interface {
	Run(ctx context.Context) (int64, error)
}

// Intervals are the job periods.
type Intervals struct {
	Metrics   time.Duration
	Alerts    time.Duration
	Logs      time.Duration
	Retention time.Duration
}

// Jobs builds the standard job list. Sampling comes before alerting so a
// single PullOnce evaluates fresh values. Nil components are left out.
func Jobs(iv Intervals, samplers []MetricCollector, alerts AlertEvaluator, logs LogCollector, sweeper Sweeper) []Job {
	var jobs []Job
	if len(samplers) > 0 {
		jobs = append(jobs, Job{Name: "metrics", Interval: iv.Metrics, Run: func(ctx context.Context) error {
			var errs []error
			for _, s := range samplers {
				if _, err := s.Collect(ctx); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}})
	}
	if alerts != nil {
		jobs = append(jobs, Job{Name: "alerts", Interval: iv.Alerts, Run: func(ctx context.Context) error {
			_, err := alerts.Evaluate(ctx)
			return err
		}})
	}
	if logs != nil {
		jobs = append(jobs, Job{Name: "logs", Interval: iv.Logs, Run: func(ctx context.Context) error {
			_, err := logs.CollectAll(ctx)
			return err
		}})
	}
	if sweeper != nil {
		jobs = append(jobs, Job{Name: "retention", Interval: iv.Retention, Run: func(ctx context.Context) error {
			_, err := sweeper.Run(ctx)
			return err
		}})
	}
	return jobs
}

// DataWorker runs jobs on their own tickers.
type DataWorker struct {
	jobs      []Job
	logger    *slog.Logger
	telemetry *telemetry.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewDataWorker creates a new worker instance.
func NewDataWorker(jobs []Job, logger *slog.Logger, metrics *telemetry.Metrics) (*DataWorker, error) {
	if len(jobs) == 0 {
		return nil, errors.New("at least one job is required")
	}
	for _, j := range jobs {
		if j.Name == "" || j.Run == nil {
			return nil, fmt.Errorf("job %q: name and run func are required", j.Name)
		}
		if j.Interval <= 0 {
			return nil, fmt.Errorf("job %q: interval must be positive", j.Name)
		}
	}
	return &DataWorker{
		jobs:      jobs,
		logger:    logger.With("component", "worker"),
		telemetry: metrics,
	}, nil
}

// Start runs every job immediately and then on its interval until Stop or
// ctx is cancelled.
func (w *DataWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(len(w.jobs))
	w.mu.Unlock()

	for _, j := range w.jobs {
		go w.loop(ctx, j)
	}
	return nil
}

// Stop cancels the loops and waits for running jobs to return.
func (w *DataWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// PullOnce runs every job once, in order, and joins their errors.
func (w *DataWorker) PullOnce(ctx context.Context) error {
	var errs []error
	for _, j := range w.jobs {
		if err := w.execute(ctx, j); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", j.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (w *DataWorker) loop(ctx context.Context, j Job) {
	defer w.wg.Done()
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		// Errors are logged by execute; the loop keeps its schedule.
		_ = w.execute(ctx, j)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *DataWorker) execute(ctx context.Context, j Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := j.Run(ctx)
	elapsed := time.Since(start)
	w.telemetry.ObserveJob(j.Name, elapsed)
	if err != nil {
		w.logger.Error("job failed", "job", j.Name, "duration", elapsed, "error", err)
		return err
	}
	w.logger.Debug("job completed", "job", j.Name, "duration", elapsed)
	return nil
}
