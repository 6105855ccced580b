package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/stats"
)

func strPtr(s string) *string { return &s }

func groups() []route.Group {
	return []route.Group{
		{District: strPtr("kaohsiung"), SourceFile: "114年高雄國道.xlsx", Company: strPtr("乙客運"), RouteType: route.Highway, Routes: 2, Le24: 1, Ge25: 1},
		{District: strPtr("taipei"), SourceFile: "114年臺北區監理所國道.xlsx", Company: strPtr("甲客運"), RouteType: route.Highway, Routes: 5, Le24: 3, Ge25: 2},
		{District: strPtr("taipei"), SourceFile: "114年臺北區監理所一般.xlsx", Company: strPtr("甲客運"), RouteType: route.Local, Routes: 1, Le24: 1},
		{District: strPtr("taipei"), SourceFile: "114年臺北區監理所一般.xlsx", Company: strPtr("A客運"), RouteType: route.Local, Routes: 2, Ge25: 2},
		{District: nil, SourceFile: "", Company: strPtr("丙客運"), RouteType: route.Local, Routes: 9, Le24: 9},
	}
}

func TestDetailedTables(t *testing.T) {
	tables := DetailedTables(stats.DetailedStats(groups()))
	require.Len(t, tables, 2)

	company := tables[0]
	assert.Equal(t, "調查範圍_公司明細", company.Name)
	assert.Equal(t, []string{"各區監理所", "受評業者", "國道-調查路線數", "一般公路-調查路線數"}, company.Header)
	assert.Equal(t, [][]any{
		{route.AuthTaipeiDistrict, "A客運", 0, 2},
		{route.AuthTaipeiDistrict, "甲客運", 5, 1},
		{route.AuthKaohsiung, "乙客運", 2, 0},
	}, company.Rows)

	subtotal := tables[1]
	assert.Equal(t, "調查範圍_區小計", subtotal.Name)
	assert.Equal(t, [][]any{
		{route.AuthTaipeiDistrict, 5, 1, 3, 2},
		{route.AuthKaohsiung, 2, 1, 0, 0},
	}, subtotal.Rows)
}

func TestSampleTables(t *testing.T) {
	tables := SampleTables(stats.BuildSampleTable(groups()))
	require.Len(t, tables, 3)

	detail := tables[0]
	assert.Equal(t, "24_25樣本_明細", detail.Name)
	assert.Len(t, detail.Header, 9)
	assert.Equal(t, [][]any{
		{route.AuthTaipeiDistrict, "A客運", 0, 0, 0, 0, 2, 4, 4},
		{route.AuthTaipeiDistrict, "甲客運", 3, 2, 7, 1, 0, 1, 8},
		{route.AuthKaohsiung, "乙客運", 1, 1, 3, 0, 0, 0, 3},
	}, detail.Rows)

	subtotal := tables[1]
	assert.Equal(t, "24_25樣本_區小計", subtotal.Name)
	assert.Equal(t, "各區監理所", subtotal.Header[0])
	assert.Equal(t, [][]any{
		{route.AuthTaipeiDistrict, 3, 2, 7, 1, 2, 5, 12},
		{route.AuthKaohsiung, 1, 1, 3, 0, 0, 0, 3},
	}, subtotal.Rows)

	// 未知 rows are not in the grand total.
	total := tables[2]
	assert.Equal(t, "總計", total.Name)
	assert.Equal(t, "總計", total.Header[0])
	assert.Equal(t, [][]any{{"", 4, 3, 10, 1, 2, 5, 15}}, total.Rows)
}

func TestTables_EmptyKeepHeaders(t *testing.T) {
	for _, tbl := range DetailedTables(stats.DetailedStats(nil)) {
		assert.NotEmpty(t, tbl.Header)
		assert.Empty(t, tbl.Rows)
	}
	sample := SampleTables(stats.BuildSampleTable(nil))
	assert.Empty(t, sample[0].Rows)
	assert.Empty(t, sample[1].Rows)
	assert.Equal(t, [][]any{{"", 0, 0, 0, 0, 0, 0, 0}}, sample[2].Rows)
}

func TestWriteSample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSample(&buf, stats.BuildSampleTable(groups())))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)
	assert.Equal(t, "24_25樣本_明細", f.Sheets[0].Name)
	assert.Equal(t, "總計", f.Sheets[2].Name)
	require.Len(t, f.Sheets[0].Rows, 4)
	assert.Equal(t, "甲客運", f.Sheets[0].Rows[2].Cells[1].String())
	assert.Equal(t, "8", f.Sheets[0].Rows[2].Cells[8].String())
}

func TestWriteDetailed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, stats.DetailedStats(nil)))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, "調查範圍_公司明細", f.Sheets[0].Name)
	require.Len(t, f.Sheets[1].Rows, 1)
	assert.Equal(t, "國道-業者家數", f.Sheets[1].Rows[0].Cells[2].String())
}
