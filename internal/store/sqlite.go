package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteSnapshot is an offline copy of the routes table in a single file.
type SQLiteSnapshot struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSnapshot, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSnapshot{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dmv_routes (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	district         TEXT,
	district_key     TEXT NOT NULL,
	route_type       TEXT NOT NULL,
	source_file      TEXT NOT NULL,
	company_name     TEXT,
	route_number     TEXT,
	route_name       TEXT,
	mileage_outbound REAL,
	mileage_return   REAL,
	freq_mon         INTEGER,
	freq_tue         INTEGER,
	freq_wed         INTEGER,
	freq_thu         INTEGER,
	freq_fri         INTEGER,
	freq_sat         INTEGER,
	freq_sun         INTEGER,
	stops_outbound   INTEGER,
	stops_return     INTEGER,
	vehicle_count    INTEGER,
	subsidy_route    TEXT,
	co_operators     TEXT,
	route_nature     TEXT,
	imported_at      TEXT
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_dmv_routes_district_key ON dmv_routes(district_key);
CREATE INDEX IF NOT EXISTS idx_dmv_routes_route_type ON dmv_routes(route_type);
`

// Migrate creates the snapshot schema.
func (s *SQLiteSnapshot) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSnapshot) Close() error {
	return s.db.Close()
}

const sqliteInsertRoute = `INSERT INTO dmv_routes (
	district, district_key, route_type, source_file,
	company_name, route_number, route_name,
	mileage_outbound, mileage_return,
	freq_mon, freq_tue, freq_wed, freq_thu, freq_fri, freq_sat, freq_sun,
	stops_outbound, stops_return, vehicle_count,
	subsidy_route, co_operators, route_nature, imported_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Write replaces the snapshot contents with rows and records the source table.
func (s *SQLiteSnapshot) Write(ctx context.Context, source string, rows []RouteRow) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM dmv_routes"); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear routes")
	}

	stmt, err := tx.PrepareContext(ctx, sqliteInsertRoute)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			r.DistrictCode, r.District, r.RouteType, r.SourceFile,
			r.CompanyName, r.RouteNumber, r.RouteName,
			r.MileageOutbound, r.MileageReturn,
			r.FreqMon, r.FreqTue, r.FreqWed, r.FreqThu, r.FreqFri, r.FreqSat, r.FreqSun,
			r.StopsOutbound, r.StopsReturn, r.VehicleCount,
			r.SubsidyRoute, r.CoOperators, r.RouteNature, r.ImportedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert row %d", i)
		}
		n++
	}

	for key, value := range map[string]string{
		"source_table": source,
		"taken_at":     time.Now().UTC().Format(time.RFC3339),
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: write meta %s", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

// CountByDistrict returns row counts keyed by district key.
func (s *SQLiteSnapshot) CountByDistrict(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT district_key, COUNT(*) FROM dmv_routes GROUP BY district_key")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by district")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		out[key] = n
	}
	return out, rows.Err()
}

// Meta returns a snapshot_meta value, or "" when unset.
func (s *SQLiteSnapshot) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: read meta %s", key)
	}
	return v, nil
}
