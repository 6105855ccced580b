package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// Listing and search defaults.
const (
	DefaultLimit   = 300
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 1000
	// MaxPage keeps (page-1)*per_page inside a Postgres integer OFFSET.
	MaxPage = 1_000_000
)

// districtKeySQL mirrors route.DistrictKey for filtering in SQL.
const districtKeySQL = `CASE
	WHEN source_file LIKE '%臺北區監理所%' THEN 'taipei_district'
	WHEN source_file LIKE '%臺北市區監理所%' THEN 'taipei_city'
	WHEN district = 'taipei' AND (
		regexp_replace(source_file, '[[:space:]]', '', 'g') LIKE '%臺北市區%'
		OR regexp_replace(source_file, '[[:space:]]', '', 'g') LIKE '%台北市區%'
	) THEN 'taipei_city'
	WHEN district = 'taipei' THEN 'taipei_district'
	ELSE district
END`

// routeColumns is the row projection shared by listing and search.
var routeColumns = strings.Join(route.Columns(), ", ")

// RouteRow is one route as returned by the API. District is the read-time
// key; DistrictCode is the stored value.
type RouteRow struct {
	District        string   `json:"district"`
	DistrictCode    *string  `json:"district_code"`
	RouteType       string   `json:"route_type"`
	SourceFile      string   `json:"source_file"`
	CompanyName     *string  `json:"company_name"`
	RouteNumber     *string  `json:"route_number"`
	RouteName       *string  `json:"route_name"`
	MileageOutbound *float64 `json:"mileage_outbound"`
	MileageReturn   *float64 `json:"mileage_return"`
	FreqMon         *int     `json:"freq_mon"`
	FreqTue         *int     `json:"freq_tue"`
	FreqWed         *int     `json:"freq_wed"`
	FreqThu         *int     `json:"freq_thu"`
	FreqFri         *int     `json:"freq_fri"`
	FreqSat         *int     `json:"freq_sat"`
	FreqSun         *int     `json:"freq_sun"`
	StopsOutbound   *int     `json:"stops_outbound"`
	StopsReturn     *int     `json:"stops_return"`
	VehicleCount    *int     `json:"vehicle_count"`
	SubsidyRoute    *string  `json:"subsidy_route"`
	CoOperators     *string  `json:"co_operators"`
	RouteNature     *string  `json:"route_nature"`
	ImportedAt      *string  `json:"imported_at"`
}

// scanDest returns scan targets in route.Columns order.
func (r *RouteRow) scanDest() []any {
	return []any{
		&r.DistrictCode, &r.RouteType, &r.SourceFile,
		&r.CompanyName, &r.RouteNumber, &r.RouteName,
		&r.MileageOutbound, &r.MileageReturn,
		&r.FreqMon, &r.FreqTue, &r.FreqWed, &r.FreqThu, &r.FreqFri, &r.FreqSat, &r.FreqSun,
		&r.StopsOutbound, &r.StopsReturn, &r.VehicleCount,
		&r.SubsidyRoute, &r.CoOperators, &r.RouteNature,
		&r.ImportedAt,
	}
}

// TableStats are whole-table counts shown next to the listing.
type TableStats struct {
	Total       int64 `json:"total"`
	Districts   int64 `json:"districts"`
	LocalRoutes int64 `json:"local_routes"`
	HwyRoutes   int64 `json:"hwy_routes"`
}

// SearchParams filters and pages a route search. Empty filters match all.
type SearchParams struct {
	District  string
	RouteType string
	Search    string
	Page      int
	PerPage   int
}

// Normalize applies defaults and bounds to paging.
func (p SearchParams) Normalize() SearchParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	p.District = strings.TrimSpace(p.District)
	p.RouteType = strings.TrimSpace(p.RouteType)
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// ListRoutes returns up to limit rows; non-positive limits use DefaultLimit.
func (s *PostgresStore) ListRoutes(ctx context.Context, limit int) ([]RouteRow, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.queryRoutes(ctx, "list routes",
		fmt.Sprintf("SELECT %s FROM %s LIMIT $1", routeColumns, s.ident()), limit)
}

// AllRoutes returns every row in display order.
func (s *PostgresStore) AllRoutes(ctx context.Context) ([]RouteRow, error) {
	return s.queryRoutes(ctx, "all routes", fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY district, route_type, route_number", routeColumns, s.ident()))
}

// TableStats returns whole-table totals.
func (s *PostgresStore) TableStats(ctx context.Context) (TableStats, error) {
	var st TableStats
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT
			COUNT(*),
			COUNT(DISTINCT district),
			COALESCE(SUM(CASE WHEN route_type = 'local_routes' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN route_type = 'hwy_routes' THEN 1 ELSE 0 END), 0)
		FROM %s`, s.ident()),
	).Scan(&st.Total, &st.Districts, &st.LocalRoutes, &st.HwyRoutes)
	if err != nil {
		return TableStats{}, eris.Wrap(err, "postgres: table stats")
	}
	return st, nil
}

// SearchRoutes returns one page of matching rows and the total match count.
// The district filter accepts either a stored code (taipei) or a read-time
// key (taipei_city).
func (s *PostgresStore) SearchRoutes(ctx context.Context, p SearchParams) ([]RouteRow, int64, error) {
	p = p.Normalize()

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if p.District != "" {
		ph := arg(p.District)
		conds = append(conds, fmt.Sprintf("(district = %s OR %s = %s)", ph, districtKeySQL, ph))
	}
	if p.RouteType != "" {
		conds = append(conds, "route_type = "+arg(p.RouteType))
	}
	if p.Search != "" {
		ph := arg("%" + escapeLike(p.Search) + "%")
		conds = append(conds, fmt.Sprintf("(route_name ILIKE %s OR route_number ILIKE %s OR company_name ILIKE %s)", ph, ph, ph))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.ident(), where), args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count search")
	}

	limitPh := arg(p.PerPage)
	offsetPh := arg((p.Page - 1) * p.PerPage)
	rows, err := s.queryRoutes(ctx, "search routes", fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY district, route_type, route_number LIMIT %s OFFSET %s",
		routeColumns, s.ident(), where, limitPh, offsetPh,
	), args...)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *PostgresStore) queryRoutes(ctx context.Context, op, sql string, args ...any) ([]RouteRow, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	out := []RouteRow{}
	for rows.Next() {
		var r RouteRow
		if err := rows.Scan(r.scanDest()...); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", op)
		}
		r.District = route.DistrictKey(r.DistrictCode, r.SourceFile)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	return out, nil
}

// RouteGroups aggregates the table per (district, source file, company,
// route type), splitting routes by the weekday frequency threshold. NULL
// freq_mon counts as 0.
func (s *PostgresStore) RouteGroups(ctx context.Context) ([]route.Group, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT
			district, source_file, company_name, route_type,
			COUNT(*),
			SUM(CASE WHEN COALESCE(freq_mon, 0) <= 24 THEN 1 ELSE 0 END),
			SUM(CASE WHEN COALESCE(freq_mon, 0) >= 25 THEN 1 ELSE 0 END)
		FROM %s
		GROUP BY district, source_file, company_name, route_type
		ORDER BY district, source_file, company_name, route_type`, s.ident()))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: route groups")
	}
	defer rows.Close()

	var out []route.Group
	for rows.Next() {
		var g route.Group
		var sourceFile *string
		var routeType string
		if err := rows.Scan(&g.District, &sourceFile, &g.Company, &routeType, &g.Routes, &g.Le24, &g.Ge25); err != nil {
			return nil, eris.Wrap(err, "postgres: scan route group")
		}
		if sourceFile != nil {
			g.SourceFile = *sourceFile
		}
		g.RouteType = route.RouteType(routeType)
		if !g.RouteType.Valid() {
			zap.L().Warn("postgres: route group with unknown route_type skipped",
				zap.String("component", "store"), zap.String("route_type", routeType), zap.Int("routes", g.Routes))
			continue
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes a search term match literally inside ILIKE.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
