// Package stats rolls grouped route rows up into the statistics served by
// the API and the export workbooks.
package stats

import (
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// TypeCount is the route and company tally for one route type.
type TypeCount struct {
	RouteCount   int `json:"route_count"`
	CompanyCount int `json:"company_count"`
}

// Totals are the grand totals of the district statistics.
type Totals struct {
	TotalRoutes    int `json:"total_routes"`
	TotalCompanies int `json:"total_companies"`
}

// Statistics is the district × route-type breakdown.
type Statistics struct {
	ByDistrict map[string]map[route.RouteType]TypeCount `json:"statistics"`
	Totals     Totals                                   `json:"totals"`
}

type bucketKey struct {
	district  string
	routeType route.RouteType
}

// DistrictStats counts routes and distinct companies per (district key,
// route type). Rows with a NULL district are left out of the breakdown but
// their companies still count toward TotalCompanies.
func DistrictStats(groups []route.Group) Statistics {
	routes := make(map[bucketKey]int)
	companies := make(map[bucketKey]map[string]struct{})
	allCompanies := make(map[string]struct{})

	for _, g := range groups {
		if g.Company != nil {
			allCompanies[*g.Company] = struct{}{}
		}
		if g.District == nil {
			continue
		}
		k := bucketKey{route.DistrictKey(g.District, g.SourceFile), g.RouteType}
		routes[k] += g.Routes
		if g.Company != nil {
			if companies[k] == nil {
				companies[k] = make(map[string]struct{})
			}
			companies[k][*g.Company] = struct{}{}
		}
	}

	out := Statistics{ByDistrict: make(map[string]map[route.RouteType]TypeCount)}
	for k, n := range routes {
		d, ok := out.ByDistrict[k.district]
		if !ok {
			d = map[route.RouteType]TypeCount{route.Highway: {}, route.Local: {}}
			out.ByDistrict[k.district] = d
		}
		d[k.routeType] = TypeCount{RouteCount: n, CompanyCount: len(companies[k])}
		out.Totals.TotalRoutes += n
	}
	out.Totals.TotalCompanies = len(allCompanies)
	return out
}

// CompanyCounts are route counts for one company or authority.
type CompanyCounts struct {
	Hwy   int `json:"hwy_routes"`
	Local int `json:"local_routes"`
	Total int `json:"total"`
}

func (c *CompanyCounts) add(t route.RouteType, n int) {
	switch t {
	case route.Highway:
		c.Hwy += n
	case route.Local:
		c.Local += n
	}
	c.Total += n
}

// AuthorityTotals rolls up CompanyCounts for one authority.
type AuthorityTotals struct {
	CompanyCounts
	Companies int `json:"companies"`
}

// Detailed is the authority × company × route-type breakdown.
type Detailed struct {
	ByAuthority map[string]map[string]CompanyCounts `json:"detailed_statistics"`
	Totals      map[string]AuthorityTotals          `json:"district_totals"`
}

// DetailedStats counts routes per authority and company. Rows without a
// company are skipped.
func DetailedStats(groups []route.Group) Detailed {
	out := Detailed{
		ByAuthority: make(map[string]map[string]CompanyCounts),
		Totals:      make(map[string]AuthorityTotals),
	}
	for _, g := range groups {
		if g.Company == nil {
			continue
		}
		auth := route.ResolveAuthority(g.District, g.SourceFile)
		byCompany, ok := out.ByAuthority[auth]
		if !ok {
			byCompany = make(map[string]CompanyCounts)
			out.ByAuthority[auth] = byCompany
		}
		c := byCompany[*g.Company]
		c.add(g.RouteType, g.Routes)
		byCompany[*g.Company] = c
	}

	for auth, byCompany := range out.ByAuthority {
		var t AuthorityTotals
		for _, c := range byCompany {
			t.Hwy += c.Hwy
			t.Local += c.Local
			t.Total += c.Total
		}
		t.Companies = len(byCompany)
		out.Totals[auth] = t
	}
	return out
}

// Companies returns the authority's companies with at least one route of
// type t.
func (d Detailed) Companies(auth string, t route.RouteType) int {
	n := 0
	for _, c := range d.ByAuthority[auth] {
		if (t == route.Highway && c.Hwy > 0) || (t == route.Local && c.Local > 0) {
			n++
		}
	}
	return n
}

// TotalPages is ceil(total / perPage).
func TotalPages(total int64, perPage int) int64 {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}
