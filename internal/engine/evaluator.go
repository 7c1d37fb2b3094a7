// Package engine turns the latest sampled values into alert notifications.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"devopsmon/internal/collector"
	"devopsmon/internal/flagger"
	"devopsmon/internal/notify"
	"devopsmon/internal/settings"
	"devopsmon/internal/telemetry"
)

// SubjectPrefix starts every alert subject.
const SubjectPrefix = "DevOps Alert: "

// SettingsGetter returns the current monitor settings.
type SettingsGetter interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// LatestReader returns the newest value of each metric name of a type.
type LatestReader interface {
	LatestByName(ctx context.Context, typ collector.MetricType) (map[string]float64, error)
}

// Evaluator checks thresholds and fans breaches out to recipients. It keeps
// no state between passes, so a breach that persists alerts on every pass.
type Evaluator struct {
	settings  SettingsGetter
	store     LatestReader
	notifier  notify.Notifier
	logger    *slog.Logger
	telemetry *telemetry.Metrics
}

func NewEvaluator(provider SettingsGetter, store LatestReader, notifier notify.Notifier, logger *slog.Logger, metrics *telemetry.Metrics) *Evaluator {
	return &Evaluator{
		settings:  provider,
		store:     store,
		notifier:  notifier,
		logger:    logger.With("component", "alerts"),
		telemetry: metrics,
	}
}

// Evaluate runs one pass and returns the breaches found. It does nothing when
// alerting is disabled or no settings exist. Delivery failures are logged and
// do not stop other deliveries.
func (e *Evaluator) Evaluate(ctx context.Context) ([]flagger.AlertEvent, error) {
	s, err := e.settings.Get(ctx)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !s.EnableAlerts {
		return nil, nil
	}

	latest, err := e.store.LatestByName(ctx, collector.TypeSystem)
	if err != nil {
		return nil, fmt.Errorf("latest system metrics: %w", err)
	}

	events := flagger.Check(latest, flagger.Rules(s))
	if len(events) == 0 {
		return nil, nil
	}
	users := s.AlertUsers()
	for _, ev := range events {
		e.logger.Warn("threshold breached", "type", ev.Type, "value", ev.Value, "threshold", ev.Threshold)
		e.dispatch(ctx, ev, users)
	}
	return events, nil
}

func (e *Evaluator) dispatch(ctx context.Context, ev flagger.AlertEvent, users []string) {
	subject := SubjectPrefix + ev.Type
	for _, user := range users {
		err := e.notifier.Notify(ctx, user, subject, ev.Message)
		e.telemetry.ObserveAlert(ev.Type, err)
		if err != nil {
			e.logger.Error("alert not delivered", "type", ev.Type, "user", user, "error", err)
		}
	}
}
