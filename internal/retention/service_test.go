package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"devopsmon/internal/settings"
)

type staticSettings struct {
	s   settings.Settings
	err error
}

func (f staticSettings) Get(context.Context) (settings.Settings, error) { return f.s, f.err }

type recordingDeleter struct {
	cutoff time.Time
	n      int64
	err    error
	called bool
}

func (d *recordingDeleter) DeleteLogEntriesOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	d.called = true
	d.cutoff = cutoff
	return d.n, d.err
}

var now = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func newService(s staticSettings, d *recordingDeleter) *Service {
	svc := NewService(s, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return now }
	return svc
}

func TestRunUsesConfiguredDays(t *testing.T) {
	cfg := settings.Defaults("x")
	cfg.LogRetentionDays = 7
	d := &recordingDeleter{n: 42}

	n, err := newService(staticSettings{s: cfg}, d).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Errorf("deleted = %d, want 42", n)
	}
	if want := time.Date(2024, 3, 24, 12, 0, 0, 0, time.UTC); !d.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", d.cutoff, want)
	}
}

func TestRunDefaultsDays(t *testing.T) {
	cfg := settings.Defaults("x")
	cfg.LogRetentionDays = 0
	d := &recordingDeleter{}

	if _, err := newService(staticSettings{s: cfg}, d).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := Cutoff(now, DefaultDays); !d.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", d.cutoff, want)
	}
}

func TestRunWithoutSettings(t *testing.T) {
	d := &recordingDeleter{}
	n, err := newService(staticSettings{err: settings.ErrNotFound}, d).Run(context.Background())
	if err != nil || n != 0 || d.called {
		t.Errorf("expected no sweep, got n=%d err=%v called=%v", n, err, d.called)
	}
}

func TestRunPropagatesStoreError(t *testing.T) {
	boom := errors.New("disk gone")
	d := &recordingDeleter{err: boom}
	if _, err := newService(staticSettings{s: settings.Defaults("x")}, d).Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
