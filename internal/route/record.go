package route

import "strings"

// District is the stored ingestion district code.
type District string

// Stored district codes.
const (
	Taipei    District = "taipei"
	Hsinchu   District = "hsinchu"
	Taichung  District = "taichung"
	Chiayi    District = "chiayi"
	Kaohsiung District = "kaohsiung"
)

// RouteType separates highway (國道) and local (一般公路) routes.
type RouteType string

// Route types.
const (
	Highway RouteType = "hwy_routes"
	Local   RouteType = "local_routes"
)

// Valid reports whether t is one of the two known route types.
func (t RouteType) Valid() bool { return t == Highway || t == Local }

// Record is one canonical route row. Nil pointers are stored as NULL.
type Record struct {
	District   District
	RouteType  RouteType
	SourceFile string
	ImportedAt string

	CompanyName     *string
	RouteNumber     *string
	RouteName       *string
	MileageOutbound *float64
	MileageReturn   *float64
	FreqMon         *int
	FreqTue         *int
	FreqWed         *int
	FreqThu         *int
	FreqFri         *int
	FreqSat         *int
	FreqSun         *int
	StopsOutbound   *int
	StopsReturn     *int
	VehicleCount    *int
	SubsidyRoute    *string
	CoOperators     *string
	RouteNature     *string

	// SheetRow is the 1-based spreadsheet row the record came from.
	SheetRow int
}

// Set assigns a cleaned value to field f. The value must be *string for text
// fields, *int for integer fields and *float64 for decimal fields; anything
// else leaves the field NULL.
func (r *Record) Set(f Field, v any) {
	switch f.Kind() {
	case KindText, KindRouteNumber:
		s, _ := v.(*string)
		*r.textPtr(f) = s
	case KindInteger:
		n, _ := v.(*int)
		*r.intPtr(f) = n
	case KindDecimal:
		d, _ := v.(*float64)
		*r.decimalPtr(f) = d
	}
}

func (r *Record) textPtr(f Field) **string {
	switch f {
	case CompanyName:
		return &r.CompanyName
	case RouteNumber:
		return &r.RouteNumber
	case RouteName:
		return &r.RouteName
	case SubsidyRoute:
		return &r.SubsidyRoute
	case CoOperators:
		return &r.CoOperators
	default:
		return &r.RouteNature
	}
}

func (r *Record) intPtr(f Field) **int {
	switch f {
	case FreqMon:
		return &r.FreqMon
	case FreqTue:
		return &r.FreqTue
	case FreqWed:
		return &r.FreqWed
	case FreqThu:
		return &r.FreqThu
	case FreqFri:
		return &r.FreqFri
	case FreqSat:
		return &r.FreqSat
	case FreqSun:
		return &r.FreqSun
	case StopsOutbound:
		return &r.StopsOutbound
	case StopsReturn:
		return &r.StopsReturn
	default:
		return &r.VehicleCount
	}
}

func (r *Record) decimalPtr(f Field) **float64 {
	if f == MileageOutbound {
		return &r.MileageOutbound
	}
	return &r.MileageReturn
}

// Columns lists the table columns in insert order.
func Columns() []string {
	cols := []string{"district", "route_type", "source_file"}
	for _, f := range Fields() {
		cols = append(cols, f.Column())
	}
	return append(cols, "imported_at")
}

// ColumnDDL returns the CREATE TABLE column definitions matching Columns.
func ColumnDDL() []string {
	ddl := []string{"district VARCHAR(20)", "route_type VARCHAR(20)", "source_file VARCHAR(200)"}
	for _, f := range Fields() {
		ddl = append(ddl, f.Column()+" "+f.SQLType())
	}
	return append(ddl, "imported_at VARCHAR(30)")
}

// Values returns the row in Columns order, with NULLs as untyped nil.
func (r *Record) Values() []any {
	vals := []any{string(r.District), string(r.RouteType), r.SourceFile}
	for _, f := range Fields() {
		vals = append(vals, r.value(f))
	}
	return append(vals, r.ImportedAt)
}

func (r *Record) value(f Field) any {
	switch f.Kind() {
	case KindInteger:
		if p := *r.intPtr(f); p != nil {
			return int32(*p)
		}
	case KindDecimal:
		if p := *r.decimalPtr(f); p != nil {
			return *p
		}
	default:
		if p := *r.textPtr(f); p != nil {
			return *p
		}
	}
	return nil
}

// Group is one aggregate row read back from the table: the number of routes
// for a (district, source file, company, route type) bucket, split by the
// weekday frequency threshold.
type Group struct {
	District   *string
	SourceFile string
	Company    *string
	RouteType  RouteType
	Routes     int
	Le24       int
	Ge25       int
}

// SpaceFree removes all whitespace from s; filename keyword matching runs on
// this form.
func SpaceFree(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Count is the number of stored rows for one (district, route type) pair.
type Count struct {
	District  string
	RouteType string
	Rows      int64
}
