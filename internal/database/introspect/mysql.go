package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL reads information_schema of a MariaDB or MySQL server.
type MySQL struct {
	db     *sql.DB
	dbName string
}

// OpenMySQL connects with dsn and scopes every query to dbName.
func OpenMySQL(ctx context.Context, dsn, dbName string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return &MySQL{db: db, dbName: dbName}, nil
}

func (m *MySQL) Close() error {
	return m.db.Close()
}

func (m *MySQL) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *MySQL) ActiveConnections(ctx context.Context) (int64, error) {
	return m.count(ctx, `SELECT COUNT(*) FROM information_schema.PROCESSLIST WHERE DB = ?`, m.dbName)
}

func (m *MySQL) TableCount(ctx context.Context) (int64, error) {
	return m.count(ctx, `SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ?`, m.dbName)
}

func (m *MySQL) SizeBytes(ctx context.Context) (int64, error) {
	var size sql.NullFloat64
	err := m.db.QueryRowContext(ctx, `
		SELECT SUM(DATA_LENGTH + INDEX_LENGTH)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?`, m.dbName).Scan(&size)
	if err != nil {
		return 0, err
	}
	return int64(size.Float64), nil
}

// SlowQueries compares PROCESSLIST.TIME, which is in whole seconds.
func (m *MySQL) SlowQueries(ctx context.Context, threshold time.Duration) (int64, error) {
	return m.count(ctx,
		`SELECT COUNT(*) FROM information_schema.PROCESSLIST WHERE DB = ? AND TIME > ?`,
		m.dbName, threshold.Seconds())
}

func (m *MySQL) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Driver: "mysql", Database: m.dbName}

	rows, err := m.db.QueryContext(ctx, `
		SELECT ID, USER, HOST, COALESCE(DB, ''), COMMAND, TIME, COALESCE(STATE, ''), COALESCE(INFO, '')
		FROM information_schema.PROCESSLIST
		WHERE DB = ?
		ORDER BY TIME DESC`, m.dbName)
	if err != nil {
		return st, fmt.Errorf("query processlist: %w", err)
	}
	for rows.Next() {
		var p Process
		if err := rows.Scan(&p.ID, &p.User, &p.Host, &p.DB, &p.Command, &p.Seconds, &p.State, &p.Info); err != nil {
			rows.Close()
			return st, fmt.Errorf("scan process: %w", err)
		}
		st.Processes = append(st.Processes, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, err
	}

	rows, err = m.db.QueryContext(ctx, `
		SELECT TABLE_NAME, COALESCE(TABLE_ROWS, 0), COALESCE(DATA_LENGTH, 0), COALESCE(INDEX_LENGTH, 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY (DATA_LENGTH + INDEX_LENGTH) DESC
		LIMIT ?`, m.dbName, maxTables)
	if err != nil {
		return st, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name              string
			tableRows, d, idx int64
		)
		if err := rows.Scan(&name, &tableRows, &d, &idx); err != nil {
			return st, fmt.Errorf("scan table: %w", err)
		}
		st.Tables = append(st.Tables, newTableStat(name, tableRows, d, idx))
	}
	return st, rows.Err()
}
