package mcpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"devopsmon/internal/collector"
	"devopsmon/internal/collector/services"
	"devopsmon/internal/command"
	"devopsmon/internal/database/introspect"
	"devopsmon/internal/database/relational"
	"devopsmon/internal/flagger"
	"devopsmon/internal/logs"
	"devopsmon/internal/logtail"
	"devopsmon/internal/settings"
)

// MockStore implements MetricStore and logs.Store.
type MockStore struct {
	Latest      map[collector.MetricType][]collector.Metric
	History     []collector.Metric
	Records     []relational.LogRecord
	Err         error
	MetricQuery relational.MetricFilter
	LogQuery    relational.LogFilter
	Appended    []logtail.Entry
}

func (m *MockStore) LatestByType(context.Context, int) (map[collector.MetricType][]collector.Metric, error) {
	return m.Latest, m.Err
}

func (m *MockStore) QueryMetrics(_ context.Context, f relational.MetricFilter) ([]collector.Metric, error) {
	m.MetricQuery = f
	return m.History, m.Err
}

func (m *MockStore) QueryLogEntries(_ context.Context, f relational.LogFilter, _ int) ([]relational.LogRecord, error) {
	m.LogQuery = f
	return m.Records, m.Err
}

func (m *MockStore) AppendLogEntries(_ context.Context, _ string, entries []logtail.Entry) []relational.LogOutcome {
	out := make([]relational.LogOutcome, len(entries))
	for i, e := range entries {
		out[i] = relational.LogOutcome{Entry: e, ID: "id"}
		m.Appended = append(m.Appended, e)
	}
	return out
}

func (m *MockStore) LogSummary(_ context.Context, since time.Time) (relational.LogSummary, error) {
	return relational.LogSummary{Since: since}, m.Err
}

// MockSettings is an in-memory SettingsService.
type MockSettings struct {
	Current settings.Settings
}

func (m *MockSettings) Get(context.Context) (settings.Settings, error) { return m.Current, nil }
func (m *MockSettings) Site() string                                   { return "site.local" }
func (m *MockSettings) Put(_ context.Context, s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.Current = s
	return nil
}

type MockSnapshotter struct{ Snap collector.Snapshot }

func (m MockSnapshotter) Snapshot(context.Context) collector.Snapshot { return m.Snap }

type MockInventory struct{ PartErr error }

func (m MockInventory) HostInfo(context.Context) (services.HostResult, error) {
	return services.HostResult{Hostname: "test-host"}, nil
}
func (m MockInventory) Partitions(context.Context) ([]services.PartitionStat, error) {
	return nil, m.PartErr
}
func (m MockInventory) Interfaces(context.Context) ([]services.InterfaceStat, error) {
	return []services.InterfaceStat{{Name: "eth0"}}, nil
}

type MockAlerts struct{ Events []flagger.AlertEvent }

func (m MockAlerts) Evaluate(context.Context) ([]flagger.AlertEvent, error) { return m.Events, nil }

type MockDatabase struct {
	Result introspect.Stats
	Err    error
}

func (m MockDatabase) Stats(context.Context) (introspect.Stats, error) { return m.Result, m.Err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, logDir string, store *MockStore) (*Server, *MockSettings) {
	t.Helper()
	cfg := settings.Defaults("site.local")
	cfg.FrappeLogPath = logDir
	cfg.NginxLogPath = logDir
	ms := &MockSettings{Current: cfg}
	deps := Deps{
		Snapshots: MockSnapshotter{Snap: collector.Snapshot{CPU: &services.CPUResult{TotalUsage: 45.5}}},
		Inventory: MockInventory{PartErr: errors.New("no partitions")},
		Store:     store,
		Logs:      logs.NewCollector(ms, store, discardLogger()),
		Alerts:    MockAlerts{Events: []flagger.AlertEvent{{Type: "CPU", Message: "CPU usage is 85.3%, exceeding threshold of 80%"}}},
		Commands:  command.NewRunner(discardLogger(), time.Second),
		Settings:  ms,
	}
	s, err := NewServer(Config{ServerName: "test", ServerVersion: "0.0.1"}, deps, discardLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return s, ms
}

func TestNewServerRequiresCoreDeps(t *testing.T) {
	if _, err := NewServer(Config{}, Deps{}, discardLogger()); err == nil {
		t.Fatal("expected error without dependencies")
	}
}

func TestHandleCollectLogs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frappe.log"),
		[]byte("2024-01-15 10:00:00 INFO a\n2024-01-15 10:01:00 ERROR b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &MockStore{}
	s, _ := newTestServer(t, dir, store)

	_, res, err := s.handleCollectLogs(context.Background(), nil, CollectLogsArgs{Group: "frappe", Save: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(res.Entries) != 2 || res.Entries[0].Level != logtail.LevelError {
		t.Errorf("entries = %+v", res.Entries)
	}
	if res.Saved != 2 || res.Failed != 0 || len(store.Appended) != 2 {
		t.Errorf("saved=%d failed=%d appended=%d", res.Saved, res.Failed, len(store.Appended))
	}

	if _, _, err := s.handleCollectLogs(context.Background(), nil, CollectLogsArgs{Group: "nope"}); !errors.Is(err, logs.ErrUnknownGroup) {
		t.Errorf("expected ErrUnknownGroup, got %v", err)
	}
}

func TestHandleSearchLogs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "error.log"), []byte("fine\nGateway Timeout\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, dir, &MockStore{})

	_, res, err := s.handleSearchLogs(context.Background(), nil, SearchLogsArgs{Group: "error", Term: "timeout"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Line != 2 || res.Matches[0].File != "error.log" {
		t.Errorf("matches = %+v", res.Matches)
	}

	if _, _, err := s.handleSearchLogs(context.Background(), nil, SearchLogsArgs{Term: "x"}); err == nil {
		t.Error("expected error without group or paths")
	}
}

func TestHandleTailLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("2024-01-15 10:00:00 INFO line\n")
	}
	b.WriteString("2024-01-15 10:00:01 WARNING last\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, dir, &MockStore{})

	_, res, err := s.handleTailLog(context.Background(), nil, TailLogArgs{Path: path, Lines: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
	if res.Entries[2].Level != logtail.LevelWarning || res.Entries[2].Message != "WARNING last" {
		t.Errorf("last entry = %+v", res.Entries[2])
	}

	if _, _, err := s.handleTailLog(context.Background(), nil, TailLogArgs{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestHandleGetRealtimeMetrics(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})
	_, snap, err := s.handleGetRealtimeMetrics(context.Background(), nil, NoArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if snap.CPU == nil || snap.CPU.TotalUsage != 45.5 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHandleGetLatestMetrics(t *testing.T) {
	store := &MockStore{Latest: map[collector.MetricType][]collector.Metric{
		collector.TypeSystem: {{Type: collector.TypeSystem, Name: "cpu_percent", Value: 12}},
	}}
	s, _ := newTestServer(t, t.TempDir(), store)
	_, res, err := s.handleGetLatestMetrics(context.Background(), nil, LatestMetricsArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Metrics["System"]; len(got) != 1 || got[0].Name != "cpu_percent" {
		t.Errorf("metrics = %+v", res.Metrics)
	}
}

func TestHandleGetMetricsHistory(t *testing.T) {
	store := &MockStore{}
	s, _ := newTestServer(t, t.TempDir(), store)

	_, _, err := s.handleGetMetricsHistory(context.Background(), nil, MetricsHistoryArgs{MetricType: "System", MetricName: "cpu_percent"})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC)
	if !store.MetricQuery.Since.Equal(want) || store.MetricQuery.Name != "cpu_percent" || store.MetricQuery.Type != collector.TypeSystem {
		t.Errorf("filter = %+v", store.MetricQuery)
	}

	if _, _, err := s.handleGetMetricsHistory(context.Background(), nil, MetricsHistoryArgs{MetricType: "Bogus"}); err == nil {
		t.Error("expected error for invalid type")
	}
}

func TestHandleGetRecentLogs(t *testing.T) {
	store := &MockStore{Records: []relational.LogRecord{{Message: "x"}}}
	s, _ := newTestServer(t, t.TempDir(), store)

	_, res, err := s.handleGetRecentLogs(context.Background(), nil, RecentLogsArgs{Level: "warn", LogType: "Nginx"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || store.LogQuery.Level != logtail.LevelWarning || store.LogQuery.LogType != "Nginx" {
		t.Errorf("res=%+v filter=%+v", res, store.LogQuery)
	}
	if _, _, err := s.handleGetRecentLogs(context.Background(), nil, RecentLogsArgs{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestHandleGetLogSummary(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})
	_, sum, err := s.handleGetLogSummary(context.Background(), nil, LogSummaryArgs{Hours: 2})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Since.IsZero() {
		t.Error("expected since to be set")
	}
}

func TestHandleEvaluateAlerts(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})
	_, res, err := s.handleEvaluateAlerts(context.Background(), nil, NoArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Type != "CPU" {
		t.Errorf("alerts = %+v", res.Alerts)
	}
}

func TestHandleExecuteCommandRefusal(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})
	_, res, err := s.handleExecuteCommand(context.Background(), nil, ExecuteCommandArgs{Command: "rm -rf /"})
	if err != nil {
		t.Fatalf("refusal must be reported in the result: %v", err)
	}
	if res.Success || res.Error != "Command 'rm' is not allowed" {
		t.Errorf("result = %+v", res)
	}
}

func TestHandleUpdateSettings(t *testing.T) {
	s, ms := newTestServer(t, t.TempDir(), &MockStore{})

	bad := ms.Current
	bad.CPUThreshold = 150
	_, res, err := s.handleUpdateSettings(context.Background(), nil, UpdateSettingsArgs{Settings: bad})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("expected rejection, got %+v", res)
	}
	if ms.Current.CPUThreshold != 80 {
		t.Error("rejected write must not change settings")
	}

	good := ms.Current
	good.CPUThreshold = 70
	good.Site = "someone-else"
	_, res, err = s.handleUpdateSettings(context.Background(), nil, UpdateSettingsArgs{Settings: good})
	if err != nil || !res.Success {
		t.Fatalf("update failed: %+v %v", res, err)
	}
	_, got, err := s.handleGetSettings(context.Background(), nil, NoArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if got.CPUThreshold != 70 || got.Site != "site.local" {
		t.Errorf("settings = %+v", got)
	}
}

func TestHandlePathTools(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "web.log"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, dir, &MockStore{})

	_, check, _ := s.handleValidateLogPath(context.Background(), nil, ValidateLogPathArgs{Path: dir})
	if !check.Valid {
		t.Errorf("check = %+v", check)
	}
	_, files, err := s.handleListLogFiles(context.Background(), nil, ListLogFilesArgs{Path: dir})
	if err != nil || len(files.Files) != 1 {
		t.Errorf("files = %+v, %v", files, err)
	}
}

func TestHandleGetSystemInfo(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})
	_, res, err := s.handleGetSystemInfo(context.Background(), nil, NoArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Host == nil || res.Host.Hostname != "test-host" || len(res.Interfaces) != 1 {
		t.Errorf("info = %+v", res)
	}
	if res.Errors["partitions"] != "no partitions" {
		t.Errorf("errors = %+v", res.Errors)
	}
}

func TestHandleGetDatabaseStats(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})
	if _, _, err := s.handleGetDatabaseStats(context.Background(), nil, NoArgs{}); !errors.Is(err, errNoDatabase) {
		t.Errorf("expected errNoDatabase, got %v", err)
	}

	s.deps.Database = MockDatabase{Result: introspect.Stats{Driver: "mysql", Database: "site_db"}}
	_, stats, err := s.handleGetDatabaseStats(context.Background(), nil, NoArgs{})
	if err != nil || stats.Database != "site_db" {
		t.Errorf("stats = %+v, %v", stats, err)
	}
}

func TestToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServer(t, t.TempDir(), &MockStore{})

	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverT)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	var names []string
	for tool, err := range cs.Tools(ctx, nil) {
		if err != nil {
			t.Fatalf("list tools: %v", err)
		}
		names = append(names, tool.Name)
	}
	if len(names) != 16 {
		t.Errorf("expected 16 tools, got %d: %v", len(names), names)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "validate_log_path",
		Arguments: map[string]any{"path": ""},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Errorf("validate_log_path reports invalid paths in its result, got tool error")
	}
}
