package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// RowError describes a single row rejected by InsertRows.
type RowError struct {
	Index int
	Err   error
}

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, Identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}

// InsertRows inserts rows one statement at a time. A failing row is recorded
// and skipped; the remaining rows are still attempted.
func InsertRows(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, []RowError) {
	if len(rows) == 0 {
		return 0, nil
	}

	stmt := InsertSQL(table, columns)

	var inserted int64
	var failed []RowError
	for i, row := range rows {
		if ctx.Err() != nil {
			failed = append(failed, RowError{Index: i, Err: eris.Wrap(ctx.Err(), "db: insert cancelled")})
			continue
		}
		if _, err := pool.Exec(ctx, stmt, row...); err != nil {
			failed = append(failed, RowError{Index: i, Err: eris.Wrapf(err, "db: insert row %d into %s", i, table)})
			continue
		}
		inserted++
	}
	return inserted, failed
}

// InsertSQL builds a parameterized single-row INSERT for table and columns.
func InsertSQL(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sanitizeTable(table),
		quoteAndJoin(columns),
		strings.Join(placeholders, ", "),
	)
}
