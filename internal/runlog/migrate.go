// Package runlog records ingestion runs and owns the bookkeeping schema.
package runlog

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockKey serializes concurrent migrate invocations.
const migrationLockKey = 8675309

// querier is the part of a pool or transaction the migration helpers use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Migrate applies pending SQL migrations in lexicographic order and records
// each in dmv_schema_migrations. All files run in one transaction holding
// pg_advisory_xact_lock; a failure applies none of them.
func Migrate(ctx context.Context, pool db.Pool) ([]string, error) {
	log := zap.L().With(zap.String("component", "runlog.migrate"))

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: begin migration tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(migrationLockKey)); err != nil {
		return nil, eris.Wrap(err, "runlog: acquire migration advisory lock")
	}

	if err := ensureMigrationTable(ctx, tx); err != nil {
		return nil, err
	}

	applied, err := appliedMigrations(ctx, tx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, name := range names {
		if applied[name] {
			continue
		}

		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, eris.Wrapf(err, "runlog: read migration %s", name)
		}

		log.Info("applying migration", zap.String("file", name))

		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return nil, eris.Wrapf(err, "runlog: apply migration %s", name)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO dmv_schema_migrations (filename, applied_at) VALUES ($1, now())",
			name,
		); err != nil {
			return nil, eris.Wrapf(err, "runlog: record migration %s", name)
		}
		ran = append(ran, name)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "runlog: commit migrations")
	}

	log.Info("migrations complete", zap.Int("applied", len(ran)))
	return ran, nil
}

// Pending returns embedded migrations not yet recorded. A missing tracking
// table means everything is pending.
func Pending(ctx context.Context, pool db.Pool) ([]string, error) {
	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	exists, err := db.TableExists(ctx, pool, "dmv_schema_migrations")
	if err != nil {
		return nil, err
	}
	if !exists {
		return names, nil
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range names {
		if !applied[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "runlog: read migration dir")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func ensureMigrationTable(ctx context.Context, q querier) error {
	sql := `
		CREATE TABLE IF NOT EXISTS dmv_schema_migrations (
			id         SERIAL PRIMARY KEY,
			filename   TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := q.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "runlog: ensure migration table")
	}
	return nil
}

func appliedMigrations(ctx context.Context, q querier) (map[string]bool, error) {
	rows, err := q.Query(ctx, "SELECT filename FROM dmv_schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "runlog: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "runlog: scan migration row")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
