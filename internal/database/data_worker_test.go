package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"devopsmon/internal/collector"
	"devopsmon/internal/flagger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDataWorkerValidates(t *testing.T) {
	noop := func(context.Context) error { return nil }
	tests := []struct {
		name string
		jobs []Job
	}{
		{"no jobs", nil},
		{"missing name", []Job{{Interval: time.Second, Run: noop}}},
		{"missing run", []Job{{Name: "x", Interval: time.Second}}},
		{"zero interval", []Job{{Name: "x", Run: noop}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDataWorker(tt.jobs, discardLogger(), nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPullOnceRunsInOrderAndContinuesAfterFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	jobs := []Job{
		{Name: "a", Interval: time.Hour, Run: func(context.Context) error { order = append(order, "a"); return boom }},
		{Name: "b", Interval: time.Hour, Run: func(context.Context) error { order = append(order, "b"); return nil }},
	}
	w, err := NewDataWorker(jobs, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	err = w.PullOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v", order)
	}
}

func TestStartRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int32
	w, err := NewDataWorker([]Job{{Name: "tick", Interval: 20 * time.Millisecond, Run: func(context.Context) error {
		runs.Add(1)
		return errors.New("keeps going")
	}}}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()

	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}
	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job ran after Stop")
	}
}

type fakeSampler struct {
	name  string
	calls *[]string
	err   error
}

func (f fakeSampler) Collect(context.Context) ([]collector.Metric, error) {
	*f.calls = append(*f.calls, f.name)
	return nil, f.err
}

type fakeEvaluator struct{ calls *[]string }

func (f fakeEvaluator) Evaluate(context.Context) ([]flagger.AlertEvent, error) {
	*f.calls = append(*f.calls, "alerts")
	return nil, nil
}

type fakeLogs struct{ calls *[]string }

func (f fakeLogs) CollectAll(context.Context) (map[string]int, error) {
	*f.calls = append(*f.calls, "logs")
	return nil, nil
}

type fakeSweeper struct{ calls *[]string }

func (f fakeSweeper) Run(context.Context) (int64, error) {
	*f.calls = append(*f.calls, "retention")
	return 0, nil
}

func TestJobsOrderAndSamplerIsolation(t *testing.T) {
	var calls []string

	dbErr := errors.New("db down")
	iv := Intervals{Metrics: time.Minute, Alerts: time.Minute, Logs: time.Minute, Retention: time.Hour}
	jobs := Jobs(iv,
		[]MetricCollector{fakeSampler{"system", &calls, nil}, fakeSampler{"database", &calls, dbErr}, fakeSampler{"after", &calls, nil}},
		fakeEvaluator{&calls}, fakeLogs{&calls}, fakeSweeper{&calls})

	names := make([]string, len(jobs))
	for i, j := range jobs {
		names[i] = j.Name
	}
	want := []string{"metrics", "alerts", "logs", "retention"}
	if len(names) != len(want) {
		t.Fatalf("jobs = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("jobs = %v, want %v", names, want)
		}
	}

	w, err := NewDataWorker(jobs, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	err = w.PullOnce(context.Background())
	if !errors.Is(err, dbErr) {
		t.Errorf("expected database error to surface, got %v", err)
	}
	wantCalls := []string{"system", "database", "after", "alerts", "logs", "retention"}
	if len(calls) != len(wantCalls) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range wantCalls {
		if calls[i] != wantCalls[i] {
			t.Errorf("calls = %v, want %v", calls, wantCalls)
			break
		}
	}
}

func TestJobsSkipsMissingComponents(t *testing.T) {
	if jobs := Jobs(Intervals{}, nil, nil, nil, nil); len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}
