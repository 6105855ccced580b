package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// SwapTables replaces target with staging in a single transaction:
//  1. DROP target IF EXISTS
//  2. ALTER staging RENAME TO target
//
// Readers either see the previous target or the fully loaded staging table.
func SwapTables(ctx context.Context, pool Pool, staging, target string) error {
	if staging == "" || target == "" {
		return eris.New("db: swap: table names required")
	}
	if staging == target {
		return eris.Errorf("db: swap: staging and target are both %s", target)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "db: swap: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", sanitizeTable(target))); err != nil {
		return eris.Wrapf(err, "db: swap: drop %s", target)
	}

	// RENAME TO takes a bare name; the schema stays that of the staging table.
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		sanitizeTable(staging), pgx.Identifier{bareName(target)}.Sanitize(),
	)); err != nil {
		return eris.Wrapf(err, "db: swap: rename %s to %s", staging, target)
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "db: swap: commit tx")
	}
	return nil
}

// RecreateTable drops table if present and creates it from the column DDL list.
func RecreateTable(ctx context.Context, pool Pool, table string, columnDDL []string) error {
	if len(columnDDL) == 0 {
		return eris.New("db: recreate: no columns specified")
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", sanitizeTable(table))); err != nil {
		return eris.Wrapf(err, "db: recreate: drop %s", table)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", sanitizeTable(table), strings.Join(columnDDL, ",\n\t"))
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "db: recreate: create %s", table)
	}
	return nil
}

// TableExists reports whether a table is visible on the search path.
func TableExists(ctx context.Context, pool Pool, table string) (bool, error) {
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "db: check table %s", table)
	}
	return exists, nil
}

// Identifier splits a table name that may be schema-qualified, such as
// "public.dmv_routes_2025".
func Identifier(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}

func sanitizeTable(table string) string {
	return Identifier(table).Sanitize()
}

func bareName(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[i+1:]
	}
	return table
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
