// Package retention deletes log entries older than the configured window.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"devopsmon/internal/settings"
)

// DefaultDays applies when settings carry no retention window.
const DefaultDays = 30

type SettingsGetter interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Deleter removes entries strictly older than cutoff.
type Deleter interface {
	DeleteLogEntriesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	settings SettingsGetter
	store    Deleter
	log      *slog.Logger
	now      func() time.Time
}

func NewService(provider SettingsGetter, store Deleter, logger *slog.Logger) *Service {
	return &Service{
		settings: provider,
		store:    store,
		log:      logger.With("component", "retention"),
		now:      time.Now,
	}
}

// Run sweeps once and returns the number of deleted entries.
func (s *Service) Run(ctx context.Context) (int64, error) {
	days := DefaultDays
	cfg, err := s.settings.Get(ctx)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("load settings: %w", err)
	case cfg.LogRetentionDays > 0:
		days = cfg.LogRetentionDays
	}

	cutoff := Cutoff(s.now(), days)
	n, err := s.store.DeleteLogEntriesOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("retention cleanup failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	s.log.Info("retention cleanup completed", "cutoff", cutoff, "deleted", n)
	return n, nil
}

// Cutoff is the instant days before now.
func Cutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days)
}
