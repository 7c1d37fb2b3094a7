// Package mcpserver exposes the monitor to operators as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"devopsmon/internal/collector"
	"devopsmon/internal/command"
	"devopsmon/internal/database/introspect"
	"devopsmon/internal/database/relational"
	"devopsmon/internal/flagger"
	"devopsmon/internal/logs"
	"devopsmon/internal/settings"
)

// Snapshotter reads the host live.
type Snapshotter interface {
	Snapshot(ctx context.Context) collector.Snapshot
}

// MetricStore answers metric and log history queries.
type MetricStore interface {
	LatestByType(ctx context.Context, perType int) (map[collector.MetricType][]collector.Metric, error)
	QueryMetrics(ctx context.Context, f relational.MetricFilter) ([]collector.Metric, error)
	QueryLogEntries(ctx context.Context, f relational.LogFilter, limit int) ([]relational.LogRecord, error)
}

// AlertEvaluator runs one threshold pass.
type AlertEvaluator interface {
	Evaluate(ctx context.Context) ([]flagger.AlertEvent, error)
}

// CommandRunner executes allow-listed commands.
type CommandRunner interface {
	Run(ctx context.Context, line string) (command.Result, error)
}

// SettingsService reads and writes the monitor settings.
type SettingsService interface {
	Get(ctx context.Context) (settings.Settings, error)
	Put(ctx context.Context, s settings.Settings) error
	Site() string
}

// DatabaseStats reports on the application database.
type DatabaseStats interface {
	Stats(ctx context.Context) (introspect.Stats, error)
}

// Deps are the components behind the tools. Database may be nil when no
// application database is configured.
type Deps struct {
	Snapshots Snapshotter
	Inventory collector.Inventory
	Store     MetricStore
	Logs      *logs.Collector
	Alerts    AlertEvaluator
	Commands  CommandRunner
	Settings  SettingsService
	Database  DatabaseStats
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
}

// Server wraps the MCP server with monitor capabilities.
type Server struct {
	mcpServer *mcp.Server
	deps      Deps
	logger    *slog.Logger
	now       func() time.Time
}

var errNoDatabase = errors.New("no application database configured")

// NewServer creates a new MCP server instance with every tool registered.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Logs == nil || deps.Settings == nil {
		return nil, errors.New("store, logs and settings are required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "devopsmon"
	}
	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	s := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		deps:      deps,
		logger:    logger.With("component", "mcp"),
		now:       time.Now,
	}
	s.registerTools()
	return s, nil
}

// Start serves MCP over stdio until ctx is done or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over transport. Used by in-process clients.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}
