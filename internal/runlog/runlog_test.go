package runlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRunLog(t *testing.T) (*RunLog, pgxmock.PgxPoolIface, uuid.UUID) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	id := uuid.MustParse("5f0c6a4e-1b2d-4c3e-9f8a-7b6c5d4e3f2a")
	l := New(mock)
	l.newID = func() uuid.UUID { return id }
	return l, mock, id
}

func TestRunLog_Start(t *testing.T) {
	l, mock, id := newMockRunLog(t)
	mock.ExpectExec("INSERT INTO dmv_import_runs").
		WithArgs(id, "/data/114", "dmv_routes_2025").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := l.Start(context.Background(), "/data/114", "dmv_routes_2025")
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_StartError(t *testing.T) {
	l, mock, _ := newMockRunLog(t)
	mock.ExpectExec("INSERT INTO dmv_import_runs").WillReturnError(fmt.Errorf("relation does not exist"))

	got, err := l.Start(context.Background(), "/data", "t")
	require.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
	assert.Contains(t, err.Error(), "runlog: start run")
}

func TestRunLog_Complete(t *testing.T) {
	l, mock, id := newMockRunLog(t)
	mock.ExpectExec("UPDATE dmv_import_runs").
		WithArgs(10, 1, 3, int64(4200), int64(2), true, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := l.Complete(context.Background(), id, RunResult{
		FilesSucceeded: 10, FilesFailed: 1, FilesSkipped: 3,
		RowsInserted: 4200, RowsDropped: 2, Published: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_Fail(t *testing.T) {
	l, mock, id := newMockRunLog(t)
	mock.ExpectExec("UPDATE dmv_import_runs").
		WithArgs("ingest: read source dir", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, l.Fail(context.Background(), id, "ingest: read source dir"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_List(t *testing.T) {
	l, mock, id := newMockRunLog(t)
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	done := started.Add(90 * time.Second)
	errMsg := "lock held"

	cols := []string{"id", "source_dir", "target_table", "status", "started_at", "completed_at",
		"files_succeeded", "files_failed", "files_skipped", "rows_inserted", "rows_dropped", "published", "error"}
	mock.ExpectQuery("SELECT id, source_dir").WithArgs(5).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(id, "/data", "dmv_routes_2025", StatusComplete, started, &done, 12, 0, 2, int64(900), int64(0), true, (*string)(nil)).
			AddRow(uuid.Nil, "/data", "dmv_routes_2025", StatusFailed, started, (*time.Time)(nil), 0, 0, 0, int64(0), int64(0), false, &errMsg))

	entries, err := l.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, StatusComplete, entries[0].Status)
	require.NotNil(t, entries[0].CompletedAt)
	assert.Equal(t, done, *entries[0].CompletedAt)
	assert.Equal(t, 12, entries[0].FilesSucceeded)
	assert.True(t, entries[0].Published)
	assert.Empty(t, entries[0].Error)

	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Nil(t, entries[1].CompletedAt)
	assert.Equal(t, "lock held", entries[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_ListError(t *testing.T) {
	l, mock, _ := newMockRunLog(t)
	mock.ExpectQuery("SELECT id, source_dir").WillReturnError(fmt.Errorf("connection lost"))

	_, err := l.List(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runlog: list runs")
}
