// Package introspect reads connection, size and long-running query counters
// from the application database.
package introspect

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Process is one session on the database server.
type Process struct {
	ID      int64  `json:"id"`
	User    string `json:"user"`
	Host    string `json:"host"`
	DB      string `json:"db"`
	Command string `json:"command"`
	// Seconds is how long the current statement has been running.
	Seconds int64  `json:"time"`
	State   string `json:"state"`
	Info    string `json:"info"`
}

// TableStat is the storage footprint of one table.
type TableStat struct {
	Name       string  `json:"table_name"`
	Rows       int64   `json:"table_rows"`
	DataBytes  int64   `json:"data_length"`
	IndexBytes int64   `json:"index_length"`
	DataMB     float64 `json:"data_size_mb"`
	IndexMB    float64 `json:"index_size_mb"`
	TotalMB    float64 `json:"total_size_mb"`
}

func newTableStat(name string, rows, data, index int64) TableStat {
	return TableStat{
		Name:       name,
		Rows:       rows,
		DataBytes:  data,
		IndexBytes: index,
		DataMB:     bytesToMB(data),
		IndexMB:    bytesToMB(index),
		TotalMB:    bytesToMB(data + index),
	}
}

func bytesToMB(b int64) float64 {
	return math.Round(float64(b)/(1024*1024)*100) / 100
}

// Stats is the on-demand database report.
type Stats struct {
	Driver    string      `json:"driver"`
	Database  string      `json:"database"`
	Processes []Process   `json:"processes"`
	Tables    []TableStat `json:"tables"`
}

// Source is implemented by every supported database.
type Source interface {
	ActiveConnections(ctx context.Context) (int64, error)
	TableCount(ctx context.Context) (int64, error)
	SizeBytes(ctx context.Context) (int64, error)
	SlowQueries(ctx context.Context, threshold time.Duration) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// maxTables bounds the table list in Stats.
const maxTables = 20

// Open connects to driver ("mysql" or "postgres").
func Open(ctx context.Context, driver, dsn, dbName string) (Source, error) {
	switch driver {
	case "mysql":
		m, err := OpenMySQL(ctx, dsn, dbName)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "postgres":
		p, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
