package mcpserver

import (
	"context"
	"errors"
	"fmt"
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

const (
	defaultLines   = 100
	maxLines       = 5000
	defaultHours   = 24
	defaultPerType = 20
)

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

type CollectLogsArgs struct {
	Group string `json:"group" jsonschema:"log group: frappe, error, scheduler, nginx_access, nginx_error, supervisor or system"`
	Lines int    `json:"lines,omitempty" jsonschema:"maximum entries to return (default 100)"`
	Save  bool   `json:"save,omitempty" jsonschema:"also persist the entries"`
}

type CollectLogsResult struct {
	Entries []logtail.Entry `json:"entries"`
	Saved   int             `json:"saved"`
	Failed  int             `json:"failed"`
}

type SearchLogsArgs struct {
	Term       string   `json:"term" jsonschema:"case-insensitive text to find"`
	Group      string   `json:"group,omitempty" jsonschema:"log group whose files are searched"`
	Paths      []string `json:"paths,omitempty" jsonschema:"explicit files to search"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"stop after this many matches (default 100)"`
}

type SearchLogsResult struct {
	Matches []logs.Match `json:"matches"`
}

type TailLogArgs struct {
	Path  string `json:"path" jsonschema:"log file to read"`
	Lines int    `json:"lines,omitempty" jsonschema:"number of trailing lines (default 100)"`
}

type TailLogResult struct {
	Path    string          `json:"path"`
	Entries []logtail.Entry `json:"entries"`
}

type LatestMetricsArgs struct {
	PerType int `json:"per_type,omitempty" jsonschema:"newest names per metric type (default 20)"`
}

type LatestMetricsResult struct {
	Metrics map[string][]collector.Metric `json:"metrics"`
}

type MetricsHistoryArgs struct {
	MetricType string `json:"metric_type,omitempty" jsonschema:"System, Database, Application or Network"`
	MetricName string `json:"metric_name,omitempty" jsonschema:"metric name such as cpu_percent"`
	Hours      int    `json:"hours,omitempty" jsonschema:"look-back window in hours (default 24)"`
}

type MetricsHistoryResult struct {
	Metrics []collector.Metric `json:"metrics"`
}

type LogSummaryArgs struct {
	Hours int `json:"hours,omitempty" jsonschema:"look-back window in hours (default 24)"`
}

type RecentLogsArgs struct {
	LogType string `json:"log_type,omitempty" jsonschema:"Frappe, Error, Nginx, Supervisor or System"`
	Level   string `json:"level,omitempty" jsonschema:"DEBUG, INFO, WARNING, ERROR or CRITICAL"`
	Source  string `json:"source,omitempty" jsonschema:"originating file or service"`
	Search  string `json:"search,omitempty" jsonschema:"case-insensitive message filter"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum entries (default 100)"`
}

type RecentLogsResult struct {
	Entries []relational.LogRecord `json:"entries"`
}

type EvaluateAlertsResult struct {
	Alerts []flagger.AlertEvent `json:"alerts"`
}

type ExecuteCommandArgs struct {
	Command string `json:"command" jsonschema:"allow-listed command line, e.g. df -h"`
}

type UpdateSettingsArgs struct {
	Settings settings.Settings `json:"settings" jsonschema:"complete settings document"`
}

type UpdateSettingsResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ValidateLogPathArgs struct {
	Path string `json:"path" jsonschema:"directory to check"`
}

type ListLogFilesArgs struct {
	Path       string   `json:"path" jsonschema:"directory to walk"`
	Extensions []string `json:"extensions,omitempty" jsonschema:"file suffixes (default .log)"`
}

type ListLogFilesResult struct {
	Files []logs.FileInfo `json:"files"`
}

type SystemInfoResult struct {
	Host       *services.HostResult     `json:"host,omitempty"`
	Partitions []services.PartitionStat `json:"partitions,omitempty"`
	Interfaces []services.InterfaceStat `json:"interfaces,omitempty"`
	Errors     map[string]string        `json:"errors,omitempty"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "collect_logs",
		Description: "Tail every file of a log group, classify each line and return the newest entries. Set save to persist them.",
	}, s.handleCollectLogs)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_logs",
		Description: "Search whole log files line by line for a term, ignoring case. Give a group or explicit paths.",
	}, s.handleSearchLogs)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "tail_log",
		Description: "Return exactly the last N lines of a log file, classified.",
	}, s.handleTailLog)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_realtime_metrics",
		Description: "Read CPU, memory, disk and network directly from the host without storing anything.",
	}, s.handleGetRealtimeMetrics)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_latest_metrics",
		Description: "Latest stored value of each metric, grouped by metric type.",
	}, s.handleGetLatestMetrics)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_metrics_history",
		Description: "Stored readings in ascending time order, optionally filtered by type and name.",
	}, s.handleGetMetricsHistory)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_log_summary",
		Description: "Counts of stored log entries by type and level, the most recent errors and the noisiest error sources.",
	}, s.handleGetLogSummary)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_recent_logs",
		Description: "Stored log entries, newest first, with optional type, level, source and text filters.",
	}, s.handleGetRecentLogs)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "evaluate_alerts",
		Description: "Compare the latest CPU, memory and disk values with their thresholds and notify recipients of breaches.",
	}, s.handleEvaluateAlerts)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "execute_command",
		Description: "Run a diagnostic command (ping, curl, netstat, ss, df, du, ps, top, htop) without a shell, with a 30s limit.",
	}, s.handleExecuteCommand)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_settings",
		Description: "Current monitor settings for this site.",
	}, s.handleGetSettings)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_settings",
		Description: "Replace the monitor settings. Percentage thresholds must be within 0-100.",
	}, s.handleUpdateSettings)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "validate_log_path",
		Description: "Check that a directory exists and is readable.",
	}, s.handleValidateLogPath)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_log_files",
		Description: "List log files below a directory with their sizes.",
	}, s.handleListLogFiles)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_system_info",
		Description: "Host platform, disk partitions and network interfaces.",
	}, s.handleGetSystemInfo)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_database_stats",
		Description: "Sessions and largest tables of the application database.",
	}, s.handleGetDatabaseStats)
}

func (s *Server) handleCollectLogs(ctx context.Context, _ *mcp.CallToolRequest, args CollectLogsArgs) (*mcp.CallToolResult, CollectLogsResult, error) {
	g, err := s.deps.Logs.Group(args.Group)
	if err != nil {
		return nil, CollectLogsResult{}, err
	}
	entries, err := s.deps.Logs.Collect(ctx, g.Name, clamp(args.Lines, defaultLines, maxLines))
	if err != nil {
		return nil, CollectLogsResult{}, fmt.Errorf("collect %s: %w", g.Name, err)
	}
	res := CollectLogsResult{Entries: entries}
	if args.Save {
		for _, o := range s.deps.Logs.Save(ctx, entries, g.LogType) {
			if o.Err != nil {
				res.Failed++
			} else {
				res.Saved++
			}
		}
	}
	return nil, res, nil
}

func (s *Server) handleSearchLogs(ctx context.Context, _ *mcp.CallToolRequest, args SearchLogsArgs) (*mcp.CallToolResult, SearchLogsResult, error) {
	paths := args.Paths
	if args.Group != "" {
		gp, err := s.deps.Logs.GroupPaths(ctx, args.Group)
		if err != nil {
			return nil, SearchLogsResult{}, err
		}
		paths = append(paths, gp...)
	}
	if len(paths) == 0 {
		return nil, SearchLogsResult{}, errors.New("group or paths required")
	}
	matches, err := s.deps.Logs.Search(ctx, paths, args.Term, args.MaxResults)
	if err != nil {
		return nil, SearchLogsResult{}, err
	}
	return nil, SearchLogsResult{Matches: matches}, nil
}

func (s *Server) handleTailLog(_ context.Context, _ *mcp.CallToolRequest, args TailLogArgs) (*mcp.CallToolResult, TailLogResult, error) {
	if args.Path == "" {
		return nil, TailLogResult{}, logs.ErrEmptyPath
	}
	path := logs.ExpandHome(args.Path)
	lines, err := logtail.TailExact(path, clamp(args.Lines, defaultLines, maxLines))
	if err != nil {
		return nil, TailLogResult{}, err
	}
	now := s.now()
	res := TailLogResult{Path: path, Entries: make([]logtail.Entry, 0, len(lines))}
	for _, line := range lines {
		res.Entries = append(res.Entries, logtail.Parse(line, path, now))
	}
	return nil, res, nil
}

func (s *Server) handleGetRealtimeMetrics(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, collector.Snapshot, error) {
	if s.deps.Snapshots == nil {
		return nil, collector.Snapshot{}, errors.New("live metrics unavailable")
	}
	return nil, s.deps.Snapshots.Snapshot(ctx), nil
}

func (s *Server) handleGetLatestMetrics(ctx context.Context, _ *mcp.CallToolRequest, args LatestMetricsArgs) (*mcp.CallToolResult, LatestMetricsResult, error) {
	latest, err := s.deps.Store.LatestByType(ctx, clamp(args.PerType, defaultPerType, 1000))
	if err != nil {
		return nil, LatestMetricsResult{}, err
	}
	res := LatestMetricsResult{Metrics: make(map[string][]collector.Metric, len(latest))}
	for typ, ms := range latest {
		res.Metrics[string(typ)] = ms
	}
	return nil, res, nil
}

func (s *Server) handleGetMetricsHistory(ctx context.Context, _ *mcp.CallToolRequest, args MetricsHistoryArgs) (*mcp.CallToolResult, MetricsHistoryResult, error) {
	typ := collector.MetricType(args.MetricType)
	if typ != "" && !typ.Valid() {
		return nil, MetricsHistoryResult{}, fmt.Errorf("invalid metric_type %q", args.MetricType)
	}
	hours := clamp(args.Hours, defaultHours, 24*365)
	metrics, err := s.deps.Store.QueryMetrics(ctx, relational.MetricFilter{
		Type:  typ,
		Name:  args.MetricName,
		Since: s.now().Add(-time.Duration(hours) * time.Hour),
	})
	if err != nil {
		return nil, MetricsHistoryResult{}, err
	}
	return nil, MetricsHistoryResult{Metrics: metrics}, nil
}

func (s *Server) handleGetLogSummary(ctx context.Context, _ *mcp.CallToolRequest, args LogSummaryArgs) (*mcp.CallToolResult, relational.LogSummary, error) {
	hours := clamp(args.Hours, defaultHours, 24*365)
	sum, err := s.deps.Logs.Summary(ctx, time.Duration(hours)*time.Hour)
	if err != nil {
		return nil, relational.LogSummary{}, err
	}
	return nil, sum, nil
}

func (s *Server) handleGetRecentLogs(ctx context.Context, _ *mcp.CallToolRequest, args RecentLogsArgs) (*mcp.CallToolResult, RecentLogsResult, error) {
	var level logtail.Level
	if args.Level != "" {
		var ok bool
		if level, ok = logtail.ParseLevel(args.Level); !ok {
			return nil, RecentLogsResult{}, fmt.Errorf("invalid level %q", args.Level)
		}
	}
	entries, err := s.deps.Store.QueryLogEntries(ctx, relational.LogFilter{
		LogType: args.LogType,
		Level:   level,
		Source:  args.Source,
		Search:  args.Search,
	}, args.Limit)
	if err != nil {
		return nil, RecentLogsResult{}, err
	}
	return nil, RecentLogsResult{Entries: entries}, nil
}

func (s *Server) handleEvaluateAlerts(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, EvaluateAlertsResult, error) {
	if s.deps.Alerts == nil {
		return nil, EvaluateAlertsResult{}, errors.New("alerting unavailable")
	}
	events, err := s.deps.Alerts.Evaluate(ctx)
	if err != nil {
		return nil, EvaluateAlertsResult{}, err
	}
	return nil, EvaluateAlertsResult{Alerts: events}, nil
}

// handleExecuteCommand reports refusals and failures in the result rather
// than as tool errors.
func (s *Server) handleExecuteCommand(ctx context.Context, _ *mcp.CallToolRequest, args ExecuteCommandArgs) (*mcp.CallToolResult, command.Result, error) {
	if s.deps.Commands == nil {
		return nil, command.Result{Error: "command execution unavailable"}, nil
	}
	res, err := s.deps.Commands.Run(ctx, args.Command)
	if err != nil {
		s.logger.Warn("command refused or failed", "command", args.Command, "error", err)
	}
	return nil, res, nil
}

func (s *Server) handleGetSettings(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, settings.Settings, error) {
	cfg, err := s.deps.Settings.Get(ctx)
	if err != nil {
		return nil, settings.Settings{}, err
	}
	return nil, cfg, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, _ *mcp.CallToolRequest, args UpdateSettingsArgs) (*mcp.CallToolResult, UpdateSettingsResult, error) {
	next := args.Settings
	next.Site = s.deps.Settings.Site()
	if err := s.deps.Settings.Put(ctx, next); err != nil {
		return nil, UpdateSettingsResult{Error: err.Error()}, nil
	}
	return nil, UpdateSettingsResult{Success: true}, nil
}

func (s *Server) handleValidateLogPath(_ context.Context, _ *mcp.CallToolRequest, args ValidateLogPathArgs) (*mcp.CallToolResult, logs.PathCheck, error) {
	return nil, logs.CheckPath(args.Path), nil
}

func (s *Server) handleListLogFiles(_ context.Context, _ *mcp.CallToolRequest, args ListLogFilesArgs) (*mcp.CallToolResult, ListLogFilesResult, error) {
	files, err := logs.ListLogFiles(args.Path, args.Extensions...)
	if err != nil {
		return nil, ListLogFilesResult{}, err
	}
	return nil, ListLogFilesResult{Files: files}, nil
}

func (s *Server) handleGetSystemInfo(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, SystemInfoResult, error) {
	if s.deps.Inventory == nil {
		return nil, SystemInfoResult{}, errors.New("host inventory unavailable")
	}
	var res SystemInfoResult
	fail := func(section string, err error) {
		if res.Errors == nil {
			res.Errors = make(map[string]string)
		}
		res.Errors[section] = err.Error()
	}
	if h, err := s.deps.Inventory.HostInfo(ctx); err != nil {
		fail("host", err)
	} else {
		res.Host = &h
	}
	if p, err := s.deps.Inventory.Partitions(ctx); err != nil {
		fail("partitions", err)
	} else {
		res.Partitions = p
	}
	if i, err := s.deps.Inventory.Interfaces(ctx); err != nil {
		fail("interfaces", err)
	} else {
		res.Interfaces = i
	}
	return nil, res, nil
}

func (s *Server) handleGetDatabaseStats(ctx context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, introspect.Stats, error) {
	if s.deps.Database == nil {
		return nil, introspect.Stats{}, errNoDatabase
	}
	stats, err := s.deps.Database.Stats(ctx)
	if err != nil {
		return nil, introspect.Stats{}, fmt.Errorf("database stats: %w", err)
	}
	return nil, stats, nil
}
