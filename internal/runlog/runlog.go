package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// RunEntry is one row of dmv_import_runs.
type RunEntry struct {
	ID             uuid.UUID  `json:"id"`
	SourceDir      string     `json:"source_dir"`
	Table          string     `json:"table"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	FilesSucceeded int        `json:"files_succeeded"`
	FilesFailed    int        `json:"files_failed"`
	FilesSkipped   int        `json:"files_skipped"`
	RowsInserted   int64      `json:"rows_inserted"`
	RowsDropped    int64      `json:"rows_dropped"`
	Published      bool       `json:"published"`
	Error          string     `json:"error,omitempty"`
}

// RunResult is passed to Complete.
type RunResult struct {
	FilesSucceeded int
	FilesFailed    int
	FilesSkipped   int
	RowsInserted   int64
	RowsDropped    int64
	Published      bool
}

// RunLog reads and writes dmv_import_runs.
type RunLog struct {
	pool  db.Pool
	newID func() uuid.UUID
}

// New creates a RunLog backed by pool.
func New(pool db.Pool) *RunLog {
	return &RunLog{pool: pool, newID: uuid.New}
}

// Start records the beginning of a run and returns its ID.
func (l *RunLog) Start(ctx context.Context, sourceDir, table string) (uuid.UUID, error) {
	id := l.newID()
	if _, err := l.pool.Exec(ctx,
		`INSERT INTO dmv_import_runs (id, source_dir, target_table, status, started_at)
		 VALUES ($1, $2, $3, 'running', now())`,
		id, sourceDir, table,
	); err != nil {
		return uuid.Nil, eris.Wrapf(err, "runlog: start run for %s", sourceDir)
	}
	return id, nil
}

// Complete marks a run finished.
func (l *RunLog) Complete(ctx context.Context, id uuid.UUID, r RunResult) error {
	if _, err := l.pool.Exec(ctx,
		`UPDATE dmv_import_runs
		 SET status = 'complete', completed_at = now(),
		     files_succeeded = $1, files_failed = $2, files_skipped = $3,
		     rows_inserted = $4, rows_dropped = $5, published = $6
		 WHERE id = $7`,
		r.FilesSucceeded, r.FilesFailed, r.FilesSkipped,
		r.RowsInserted, r.RowsDropped, r.Published, id,
	); err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", id)
	}
	return nil
}

// Fail marks a run failed with an error message.
func (l *RunLog) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	if _, err := l.pool.Exec(ctx,
		`UPDATE dmv_import_runs
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, id,
	); err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", id)
	}
	return nil
}

// List returns the most recent runs first. limit <= 0 returns all.
func (l *RunLog) List(ctx context.Context, limit int) ([]RunEntry, error) {
	sql := `SELECT id, source_dir, target_table, status, started_at, completed_at,
		       files_succeeded, files_failed, files_skipped,
		       rows_inserted, rows_dropped, published, error
		FROM dmv_import_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var errStr *string
		if err := rows.Scan(&e.ID, &e.SourceDir, &e.Table, &e.Status, &e.StartedAt, &e.CompletedAt,
			&e.FilesSucceeded, &e.FilesFailed, &e.FilesSkipped,
			&e.RowsInserted, &e.RowsDropped, &e.Published, &errStr,
		); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
