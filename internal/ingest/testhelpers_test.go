package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// writeSheet saves rows as sheet `name` in dir/file.
func writeSheet(t *testing.T, dir, file, name string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(filepath.Join(dir, file)))
}

// memSink records staged rows in memory.
type memSink struct {
	mu        sync.Mutex
	recreates int
	copies    int
	staged    []route.Record
	live      []route.Record
	published bool

	recreateErr error
	copyErr     error
	publishErr  error
	// rejectRow makes InsertEach fail rows for which it returns true.
	rejectRow func(route.Record) bool
}

func (m *memSink) Recreate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recreateErr != nil {
		return m.recreateErr
	}
	m.recreates++
	m.staged = nil
	return nil
}

func (m *memSink) Copy(_ context.Context, recs []route.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copies++
	if m.copyErr != nil {
		return 0, m.copyErr
	}
	m.staged = append(m.staged, recs...)
	return int64(len(recs)), nil
}

func (m *memSink) InsertEach(_ context.Context, recs []route.Record) (int64, []db.RowError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	var failed []db.RowError
	for i, r := range recs {
		if m.rejectRow != nil && m.rejectRow(r) {
			failed = append(failed, db.RowError{Index: i, Err: errors.New("value too long for type character varying(20)")})
			continue
		}
		m.staged = append(m.staged, r)
		n++
	}
	return n, failed
}

func (m *memSink) Publish(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.live = m.staged
	m.staged = nil
	m.published = true
	return nil
}

func (m *memSink) Summary(context.Context) ([]route.Count, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[[2]string]int64{}
	var order [][2]string
	for _, r := range m.live {
		k := [2]string{string(r.District), string(r.RouteType)}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]route.Count, 0, len(order))
	for _, k := range order {
		out = append(out, route.Count{District: k[0], RouteType: k[1], Rows: counts[k]})
	}
	return out, nil
}
