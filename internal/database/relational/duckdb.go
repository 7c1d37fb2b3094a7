// Package relational stores metrics, log entries and notifications in DuckDB.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb" // Register DuckDB driver
)

// memoryDSN selects a private in-memory database.
const memoryDSN = ":memory:"

// Tuning holds engine settings applied right after the database opens.
type Tuning struct {
	Threads       int           // worker threads, 0 keeps the engine default
	MemoryLimitMB int           // memory ceiling, 0 keeps the engine default
	PingTimeout   time.Duration // bound on the first connectivity check
}

// DuckDBClient owns the single connection to the time-series database.
type DuckDBClient struct {
	db     *sql.DB
	path   string
	tuning Tuning
}

// DuckDBOption configures the DuckDB client.
type DuckDBOption func(*Tuning)

// WithThreads caps the engine's worker threads.
func WithThreads(n int) DuckDBOption {
	return func(t *Tuning) { t.Threads = n }
}

// WithMemoryLimitMB caps the engine's memory use.
func WithMemoryLimitMB(mb int) DuckDBOption {
	return func(t *Tuning) { t.MemoryLimitMB = mb }
}

// WithPingTimeout bounds the connectivity check done while opening.
func WithPingTimeout(d time.Duration) DuckDBOption {
	return func(t *Tuning) { t.PingTimeout = d }
}

// NewDuckDBClient opens the database at path. An empty path or ":memory:"
// gives an in-memory database; a file path has its parent directory created.
func NewDuckDBClient(path string, opts ...DuckDBOption) (*DuckDBClient, error) {
	tuning := Tuning{PingTimeout: 10 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(&tuning)
		}
	}

	if path == "" {
		path = memoryDSN
	}
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	// The repo is the only writer, and an in-memory database lives and dies
	// with its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &DuckDBClient{db: db, path: path}
	ctx, cancel := context.WithTimeout(context.Background(), tuning.PingTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb %s: %w", path, err)
	}
	if err := c.Apply(ctx, tuning); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// NewInMemoryDB opens a private in-memory database.
func NewInMemoryDB(opts ...DuckDBOption) (*DuckDBClient, error) {
	return NewDuckDBClient(memoryDSN, opts...)
}

// DB returns the underlying sql.DB instance.
func (c *DuckDBClient) DB() *sql.DB {
	return c.db
}

// Path is the database file, or ":memory:".
func (c *DuckDBClient) Path() string {
	return c.path
}

// Tuning reports the settings last applied.
func (c *DuckDBClient) Tuning() Tuning {
	return c.tuning
}

// Apply sets the thread and memory limits. Zero fields are left alone.
func (c *DuckDBClient) Apply(ctx context.Context, t Tuning) error {
	if t.Threads > 0 {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf("SET threads = %d", t.Threads)); err != nil {
			return fmt.Errorf("set duckdb threads: %w", err)
		}
	}
	if t.MemoryLimitMB > 0 {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf("SET memory_limit = '%dMB'", t.MemoryLimitMB)); err != nil {
			return fmt.Errorf("set duckdb memory limit: %w", err)
		}
	}
	c.tuning = t
	return nil
}

func (c *DuckDBClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases database resources.
func (c *DuckDBClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
