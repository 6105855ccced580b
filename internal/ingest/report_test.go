package ingest

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func readReport(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, bom), "missing BOM in %s", path)
	rows, err := csv.NewReader(bytes.NewReader(data[len(bom):])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteReports_All(t *testing.T) {
	dir := t.TempDir()
	rep := &Report{
		Table: "dmv_routes_2025",
		Succeeded: []FileResult{
			{File: "a.xlsx", Inserted: 10},
			{File: "b.xlsx", Inserted: 4, Failures: []RowFailure{{File: "b.xlsx", SheetRow: 7, Err: "too long"}}},
		},
		Failed:  []FileResult{{File: "c.xlsx", Err: "xlsx: open file: zip: not a valid zip file"}},
		Skipped: []string{"114年花蓮路線.xlsx"},
	}

	paths, err := WriteReports(dir, rep)
	require.NoError(t, err)
	assert.Len(t, paths, 4)

	assert.Equal(t, [][]string{
		{"檔案名稱", "寫入資料表", "匯入筆數", "失敗筆數"},
		{"a.xlsx", "dmv_routes_2025", "10", "0"},
		{"b.xlsx", "dmv_routes_2025", "4", "1"},
	}, readReport(t, filepath.Join(dir, SuccessReport)))

	assert.Equal(t, [][]string{
		{"檔案名稱", "錯誤訊息"},
		{"c.xlsx", "xlsx: open file: zip: not a valid zip file"},
	}, readReport(t, filepath.Join(dir, FailureReport)))

	assert.Equal(t, [][]string{
		{"未識別檔案名稱"},
		{"114年花蓮路線.xlsx"},
	}, readReport(t, filepath.Join(dir, SkipReport)))

	assert.Equal(t, [][]string{
		{"檔案名稱", "列號", "錯誤訊息"},
		{"b.xlsx", "7", "too long"},
	}, readReport(t, filepath.Join(dir, RowReport)))
}

func TestWriteReports_OnlySuccess(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteReports(dir, &Report{Table: "t"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, SuccessReport)}, paths)

	assert.Equal(t, [][]string{{"檔案名稱", "寫入資料表", "匯入筆數", "失敗筆數"}},
		readReport(t, filepath.Join(dir, SuccessReport)))

	_, err = os.Stat(filepath.Join(dir, FailureReport))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, SkipReport))
	assert.True(t, os.IsNotExist(err))
}

func TestReport_Totals(t *testing.T) {
	rep := &Report{
		Succeeded: []FileResult{{Inserted: 3}, {Inserted: 5}},
		Counts: []route.Count{
			{District: "taipei", RouteType: "hwy_routes", Rows: 6},
			{District: "chiayi", RouteType: "local_routes", Rows: 2},
		},
	}
	assert.Equal(t, int64(8), rep.RowsInserted())
	assert.Equal(t, int64(8), rep.TotalRows())
	assert.Zero(t, rep.RowsDropped())
}
