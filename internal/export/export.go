// Package export renders the statistics workbooks.
package export

import (
	"io"
	"sort"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/stats"
	"github.com/FutingLiang/dmv-routes-frontend/internal/workbook"
)

// Download filenames.
const (
	DetailedFilename = "調查範圍_標的.xlsx"
	SampleFilename   = "每日往返24_25樣本表.xlsx"
)

// ContentType is the xlsx MIME type.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	colAuthority = "各區監理所"
	colCompany   = "受評業者"
	colTotal     = "總計"
)

var (
	detailedCompanyHeader  = []string{colAuthority, colCompany, "國道-調查路線數", "一般公路-調查路線數"}
	detailedSubtotalHeader = []string{colAuthority, "國道-調查路線數", "國道-業者家數", "一般公路-調查路線數", "一般公路-業者家數"}

	sampleColumns = []string{
		"國道-24班次以下(a)", "國道-25班次以上(b)", "國道-樣本數(a*1+b*2)",
		"一般公路-24班次以下(c)", "一般公路-25班次以上(d)", "一般公路-樣本數(c*1+d*2)",
		"總樣本本數",
	}
)

// DetailedTables lays out the company detail and per-authority subtotal
// sheets. Authorities outside route.AuthorityOrder are omitted.
func DetailedTables(d stats.Detailed) []workbook.Table {
	company := workbook.Table{Name: "調查範圍_公司明細", Header: detailedCompanyHeader}
	subtotal := workbook.Table{Name: "調查範圍_區小計", Header: detailedSubtotalHeader}

	for _, auth := range route.AuthorityOrder {
		byCompany := d.ByAuthority[auth]
		if len(byCompany) == 0 {
			continue
		}
		for _, name := range sortedKeys(byCompany) {
			c := byCompany[name]
			company.Rows = append(company.Rows, []any{auth, name, c.Hwy, c.Local})
		}
		t := d.Totals[auth]
		subtotal.Rows = append(subtotal.Rows, []any{
			auth, t.Hwy, d.Companies(auth, route.Highway), t.Local, d.Companies(auth, route.Local),
		})
	}
	return []workbook.Table{company, subtotal}
}

// SampleTables lays out the sample detail, per-authority subtotal and grand
// total sheets. The grand total covers only the listed authorities.
func SampleTables(s stats.SampleTable) []workbook.Table {
	detail := workbook.Table{Name: "24_25樣本_明細", Header: append([]string{colAuthority, colCompany}, sampleColumns...)}
	subtotal := workbook.Table{Name: "24_25樣本_區小計", Header: append([]string{colAuthority}, sampleColumns...)}

	var grand stats.CompanySample
	for _, auth := range route.AuthorityOrder {
		byCompany := s.ByDistrict[auth]
		if len(byCompany) == 0 {
			continue
		}
		for _, name := range sortedKeys(byCompany) {
			detail.Rows = append(detail.Rows, append([]any{auth, name}, sampleValues(byCompany[name])...))
		}
		t := s.DistrictTotals[auth].CompanySample
		subtotal.Rows = append(subtotal.Rows, append([]any{auth}, sampleValues(t)...))
		grand = addSample(grand, t)
	}

	total := workbook.Table{
		Name:   colTotal,
		Header: append([]string{colTotal}, sampleColumns...),
		Rows:   [][]any{append([]any{""}, sampleValues(grand)...)},
	}
	return []workbook.Table{detail, subtotal, total}
}

// WriteDetailed streams the detailed statistics workbook to w.
func WriteDetailed(w io.Writer, d stats.Detailed) error {
	return workbook.Write(w, DetailedTables(d)...)
}

// WriteSample streams the sample workbook to w.
func WriteSample(w io.Writer, s stats.SampleTable) error {
	return workbook.Write(w, SampleTables(s)...)
}

func sampleValues(c stats.CompanySample) []any {
	return []any{
		c.Hwy.A, c.Hwy.B, c.Hwy.Samples,
		c.Local.C, c.Local.D, c.Local.Samples,
		c.Total(),
	}
}

func addSample(a, b stats.CompanySample) stats.CompanySample {
	a.Hwy.A += b.Hwy.A
	a.Hwy.B += b.Hwy.B
	a.Hwy.Samples += b.Hwy.Samples
	a.Local.C += b.Local.C
	a.Local.D += b.Local.D
	a.Local.Samples += b.Local.Samples
	return a
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
