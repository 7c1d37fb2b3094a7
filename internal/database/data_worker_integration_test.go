package database_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"devopsmon/internal/collector"
	"devopsmon/internal/database"
	"devopsmon/internal/database/relational"
	"devopsmon/internal/engine"
	"devopsmon/internal/logs"
	"devopsmon/internal/logtail"
	"devopsmon/internal/notify"
	"devopsmon/internal/retention"
	"devopsmon/internal/settings"
)

// TestDataWorkerPullAndPersist runs every job end to end: host sensors and
// log files -> DataWorker -> DuckDB, with settings from SQLite.
func TestDataWorkerPullAndPersist(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// 1. Create in-memory DuckDB
	client, err := relational.NewDuckDBClient("")
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	defer client.Close()

	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	// 2. Settings pointing at a temp log dir, memory threshold 0 so any
	// host breaches it.
	store, err := settings.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open settings store: %v", err)
	}
	defer store.Close()

	dir := t.TempDir()
	s := settings.Defaults("test.local")
	s.FrappeLogPath = dir
	s.NginxLogPath = dir
	s.SupervisorLogPath = dir
	s.MemoryThreshold = 0
	s.Recipients = []settings.Recipient{{User: "ops@example.com", NotifyOnAlert: true}}
	provider := settings.NewProvider(store, nil, s.Site, logger)
	if err := provider.Put(ctx, s); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	recent := time.Now().Add(-time.Hour).UTC().Format(logtail.TimestampLayout)
	old := time.Now().AddDate(0, 0, -90).UTC().Format(logtail.TimestampLayout)
	lines := recent + " ERROR worker crashed\n" + old + " INFO ancient line\n"
	if err := os.WriteFile(filepath.Join(dir, "frappe.log"), []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	// 3. Create components
	sampler := collector.NewSampler(collector.NewSystemSource(), provider, repo,
		collector.DefaultSamplerConfig().WithCPUInterval(100*time.Millisecond), logger)
	dbSampler := collector.NewDatabaseSampler(nil, provider, repo, logger)
	evaluator := engine.NewEvaluator(provider, repo, notify.NewStoreNotifier(repo), logger, nil)
	logCollector := logs.NewCollector(provider, repo, logger)
	sweeper := retention.NewService(provider, repo, logger)

	jobs := database.Jobs(database.Intervals{
		Metrics: time.Minute, Alerts: time.Minute, Logs: time.Minute, Retention: time.Hour,
	}, []database.MetricCollector{sampler, dbSampler}, evaluator, logCollector, sweeper)

	worker, err := database.NewDataWorker(jobs, logger, nil)
	if err != nil {
		t.Fatalf("failed to create data worker: %v", err)
	}

	// 4. Execute PullOnce
	if err := worker.PullOnce(ctx); err != nil {
		t.Logf("PullOnce reported: %v", err)
	}

	// 5. Verify
	latest, err := repo.LatestByName(ctx, collector.TypeSystem)
	if err != nil {
		t.Fatalf("LatestByName: %v", err)
	}
	mem, ok := latest["memory_percent"]
	if !ok {
		t.Skipf("memory sensor unavailable on this host: %v", latest)
	}
	t.Logf("✓ %d system metrics, memory_percent=%.1f", len(latest), mem)

	notes, err := repo.QueryNotifications(ctx, "ops@example.com", 0)
	if err != nil {
		t.Fatalf("QueryNotifications: %v", err)
	}
	if mem > 0 && len(notes) == 0 {
		t.Error("expected a memory alert notification")
	}
	for _, n := range notes {
		t.Logf("✓ notification %q", n.Subject)
	}

	entries, err := repo.QueryLogEntries(ctx, relational.LogFilter{LogType: logs.TypeFrappe}, 0)
	if err != nil {
		t.Fatalf("QueryLogEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 frappe entry after retention, got %d", len(entries))
	}
	if entries[0].Message != "ERROR worker crashed" {
		t.Errorf("message = %q", entries[0].Message)
	}
}
