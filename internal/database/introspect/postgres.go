package introspect

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres reads pg_stat_activity and size functions for the connected
// database.
type Postgres struct {
	pool   *pgxpool.Pool
	dbName string
}

// OpenPostgres connects with a postgres:// URL or key=value DSN.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	var name string
	if err := pool.QueryRow(ctx, `SELECT current_database()`).Scan(&name); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool, dbName: name}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Postgres) ActiveConnections(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT count(*) FROM pg_stat_activity WHERE datname = current_database()`)
}

func (p *Postgres) TableCount(ctx context.Context) (int64, error) {
	return p.count(ctx, `
		SELECT count(*) FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`)
}

func (p *Postgres) SizeBytes(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT pg_database_size(current_database())`)
}

func (p *Postgres) SlowQueries(ctx context.Context, threshold time.Duration) (int64, error) {
	return p.count(ctx, `
		SELECT count(*) FROM pg_stat_activity
		WHERE datname = current_database()
			AND state <> 'idle'
			AND now() - query_start > make_interval(secs => $1)`, threshold.Seconds())
}

func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Driver: "postgres", Database: p.dbName}

	rows, err := p.pool.Query(ctx, `
		SELECT pid, COALESCE(usename, ''), COALESCE(client_addr::text, ''), COALESCE(datname, ''),
			COALESCE(backend_type, ''),
			COALESCE(EXTRACT(EPOCH FROM now() - query_start)::bigint, 0),
			COALESCE(state, ''), COALESCE(query, '')
		FROM pg_stat_activity
		WHERE datname = current_database()
		ORDER BY query_start NULLS LAST`)
	if err != nil {
		return st, fmt.Errorf("query pg_stat_activity: %w", err)
	}
	for rows.Next() {
		var (
			pr  Process
			pid int32
		)
		if err := rows.Scan(&pid, &pr.User, &pr.Host, &pr.DB, &pr.Command, &pr.Seconds, &pr.State, &pr.Info); err != nil {
			rows.Close()
			return st, fmt.Errorf("scan process: %w", err)
		}
		pr.ID = int64(pid)
		st.Processes = append(st.Processes, pr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, err
	}

	rows, err = p.pool.Query(ctx, `
		SELECT relname, n_live_tup, pg_table_size(relid), pg_indexes_size(relid)
		FROM pg_stat_user_tables
		ORDER BY pg_total_relation_size(relid) DESC
		LIMIT $1`, maxTables)
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
