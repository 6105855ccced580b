package stats

import (
	"sort"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// Weights applied to route counts below and above the daily frequency
// threshold.
const (
	WeightLe24 = 1
	WeightGe25 = 2
)

// Samples is the weighted sample count for le24 and ge25 routes.
func Samples(le24, ge25 int) int {
	return le24*WeightLe24 + ge25*WeightGe25
}

// HwyBucket is the highway tally: a routes at or under 24 trips, b at or
// over 25.
type HwyBucket struct {
	A       int `json:"a"`
	B       int `json:"b"`
	Samples int `json:"samples"`
}

// LocalBucket is the local-road tally: c at or under 24 trips, d at or over
// 25.
type LocalBucket struct {
	C       int `json:"c"`
	D       int `json:"d"`
	Samples int `json:"samples"`
}

// CompanySample holds both route types for one company.
type CompanySample struct {
	Hwy   HwyBucket   `json:"hwy"`
	Local LocalBucket `json:"local"`
}

// Total is the combined sample count.
func (c CompanySample) Total() int {
	return c.Hwy.Samples + c.Local.Samples
}

func (c *CompanySample) add(t route.RouteType, le24, ge25 int) {
	s := Samples(le24, ge25)
	switch t {
	case route.Highway:
		c.Hwy.A += le24
		c.Hwy.B += ge25
		c.Hwy.Samples += s
	case route.Local:
		c.Local.C += le24
		c.Local.D += ge25
		c.Local.Samples += s
	}
}

// SampleTotals rolls up CompanySample with the combined count.
type SampleTotals struct {
	CompanySample
	SamplesTotal int `json:"samples_total"`
}

func (t *SampleTotals) add(c CompanySample) {
	t.Hwy.A += c.Hwy.A
	t.Hwy.B += c.Hwy.B
	t.Hwy.Samples += c.Hwy.Samples
	t.Local.C += c.Local.C
	t.Local.D += c.Local.D
	t.Local.Samples += c.Local.Samples
	t.SamplesTotal = t.Total()
}

// SampleRow is one (authority, company, route type) line.
type SampleRow struct {
	District  string          `json:"district"`
	Company   string          `json:"company"`
	RouteType route.RouteType `json:"route_type"`
	Le24      int             `json:"cnt_24_less"`
	Ge25      int             `json:"cnt_25_more"`
	Samples   int             `json:"samples"`
}

// SampleTable is the weighted sampling breakdown.
type SampleTable struct {
	ByDistrict     map[string]map[string]CompanySample `json:"by_district"`
	DistrictTotals map[string]SampleTotals             `json:"district_totals"`
	GrandTotals    SampleTotals                        `json:"grand_totals"`
	Rows           []SampleRow                         `json:"rows"`
}

// BuildSampleTable weights routes by weekday frequency per authority and
// company. Rows without a company are skipped.
func BuildSampleTable(groups []route.Group) SampleTable {
	out := SampleTable{
		ByDistrict:     make(map[string]map[string]CompanySample),
		DistrictTotals: make(map[string]SampleTotals),
		Rows:           []SampleRow{},
	}

	type rowKey struct {
		auth, company string
		routeType     route.RouteType
	}
	rows := make(map[rowKey]*SampleRow)

	for _, g := range groups {
		if g.Company == nil {
			continue
		}
		auth := route.ResolveAuthority(g.District, g.SourceFile)
		byCompany, ok := out.ByDistrict[auth]
		if !ok {
			byCompany = make(map[string]CompanySample)
			out.ByDistrict[auth] = byCompany
		}
		c := byCompany[*g.Company]
		c.add(g.RouteType, g.Le24, g.Ge25)
		byCompany[*g.Company] = c

		k := rowKey{auth, *g.Company, g.RouteType}
		r, ok := rows[k]
		if !ok {
			r = &SampleRow{District: auth, Company: *g.Company, RouteType: g.RouteType}
			rows[k] = r
		}
		r.Le24 += g.Le24
		r.Ge25 += g.Ge25
		r.Samples = Samples(r.Le24, r.Ge25)
	}

	for auth, byCompany := range out.ByDistrict {
		var t SampleTotals
		for _, c := range byCompany {
			t.add(c)
		}
		out.DistrictTotals[auth] = t
		out.GrandTotals.add(t.CompanySample)
	}

	for _, r := range rows {
		out.Rows = append(out.Rows, *r)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if a.District != b.District {
			return a.District < b.District
		}
		if a.Company != b.Company {
			return a.Company < b.Company
		}
		return a.RouteType < b.RouteType
	})
	return out
}
