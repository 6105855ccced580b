package store

import (
	"context"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// stagingSuffix names the scratch table an import loads before publishing.
const stagingSuffix = "_staging"

// Staging returns the scratch table name for the live table.
func (s *PostgresStore) Staging() string {
	return s.table + stagingSuffix
}

// Recreate drops and recreates the staging table with the canonical schema.
func (s *PostgresStore) Recreate(ctx context.Context) error {
	return db.RecreateTable(ctx, s.pool, s.Staging(), route.ColumnDDL())
}

// Copy bulk-loads records into the staging table.
func (s *PostgresStore) Copy(ctx context.Context, recs []route.Record) (int64, error) {
	return db.CopyFrom(ctx, s.pool, s.Staging(), route.Columns(), recordRows(recs))
}

// InsertEach loads records one INSERT at a time, skipping rejected rows.
func (s *PostgresStore) InsertEach(ctx context.Context, recs []route.Record) (int64, []db.RowError) {
	return db.InsertRows(ctx, s.pool, s.Staging(), route.Columns(), recordRows(recs))
}

// Publish swaps the staging table over the live table.
func (s *PostgresStore) Publish(ctx context.Context) error {
	return db.SwapTables(ctx, s.pool, s.Staging(), s.table)
}

func recordRows(recs []route.Record) [][]any {
	rows := make([][]any, len(recs))
	for i := range recs {
		rows[i] = recs[i].Values()
	}
	return rows
}
