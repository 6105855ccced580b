// Package store reads and writes the canonical routes table.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// DefaultTable is the canonical routes table.
const DefaultTable = "dmv_routes_2025"

// PostgresStore serves the routes table from a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	table   string
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString, table string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	s := NewWithPool(pool, table)
	s.closeFn = pool.Close
	return s, nil
}

// NewWithPool wraps an existing pool. An empty table selects DefaultTable.
func NewWithPool(pool db.Pool, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{pool: pool, table: table}
}

// Pool returns the underlying pool for subsystems that need direct access
// (run log, migrations, locking).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// Table returns the live table name.
func (s *PostgresStore) Table() string {
	return s.table
}

// Ping runs the startup connectivity check.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "SELECT 1"); err != nil {
		return eris.Wrap(err, "postgres: ping")
	}
	return nil
}

// Close releases the pool when the store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// TableExists reports whether the live table is present.
func (s *PostgresStore) TableExists(ctx context.Context) (bool, error) {
	return db.TableExists(ctx, s.pool, s.table)
}

// CountRows returns the number of rows in the live table.
func (s *PostgresStore) CountRows(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.ident())).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count rows")
	}
	return n, nil
}

func (s *PostgresStore) ident() string {
	return db.Identifier(s.table).Sanitize()
}

// Summary counts rows per stored (district, route_type).
func (s *PostgresStore) Summary(ctx context.Context) ([]route.Count, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT COALESCE(district, ''), route_type, COUNT(*)
		 FROM %s GROUP BY 1, 2 ORDER BY 1, 2`, s.ident()))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summary")
	}
	defer rows.Close()

	var out []route.Count
	for rows.Next() {
		var c route.Count
		if err := rows.Scan(&c.District, &c.RouteType, &c.Rows); err != nil {
			return nil, eris.Wrap(err, "postgres: scan summary")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
