// Package route defines the canonical bus-route record, its fields, and the
// district and authority vocabulary shared by ingestion and the API.
package route

// Kind is the storage type of a canonical field.
type Kind int

// Field kinds.
const (
	KindText Kind = iota
	KindRouteNumber
	KindInteger
	KindDecimal
)

// Field identifies one canonical survey column.
type Field int

// Canonical fields, in table column order.
const (
	CompanyName Field = iota
	RouteNumber
	RouteName
	MileageOutbound
	MileageReturn
	FreqMon
	FreqTue
	FreqWed
	FreqThu
	FreqFri
	FreqSat
	FreqSun
	StopsOutbound
	StopsReturn
	VehicleCount
	SubsidyRoute
	CoOperators
	RouteNature

	fieldCount
)

type fieldSpec struct {
	header  string
	column  string
	kind    Kind
	sqlType string
}

var fieldSpecs = [fieldCount]fieldSpec{
	CompanyName:     {"公司名稱", "company_name", KindText, "VARCHAR(100)"},
	RouteNumber:     {"路線編號", "route_number", KindRouteNumber, "VARCHAR(20)"},
	RouteName:       {"路線名稱", "route_name", KindText, "VARCHAR(200)"},
	MileageOutbound: {"里程往", "mileage_outbound", KindDecimal, "DECIMAL(10,2)"},
	MileageReturn:   {"里程返", "mileage_return", KindDecimal, "DECIMAL(10,2)"},
	FreqMon:         {"班次一", "freq_mon", KindInteger, "INTEGER"},
	FreqTue:         {"班次二", "freq_tue", KindInteger, "INTEGER"},
	FreqWed:         {"班次三", "freq_wed", KindInteger, "INTEGER"},
	FreqThu:         {"班次四", "freq_thu", KindInteger, "INTEGER"},
	FreqFri:         {"班次五", "freq_fri", KindInteger, "INTEGER"},
	FreqSat:         {"班次六", "freq_sat", KindInteger, "INTEGER"},
	FreqSun:         {"班次日", "freq_sun", KindInteger, "INTEGER"},
	StopsOutbound:   {"站牌數往", "stops_outbound", KindInteger, "INTEGER"},
	StopsReturn:     {"站牌數返", "stops_return", KindInteger, "INTEGER"},
	VehicleCount:    {"車輛數", "vehicle_count", KindInteger, "INTEGER"},
	SubsidyRoute:    {"補貼_路線", "subsidy_route", KindText, "VARCHAR(10)"},
	CoOperators:     {"聯營業者", "co_operators", KindText, "VARCHAR(200)"},
	RouteNature:     {"路線性質", "route_nature", KindText, "VARCHAR(20)"},
}

// Fields returns every canonical field in column order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool { return f >= 0 && f < fieldCount }

// Header is the canonical spreadsheet header, e.g. 班次一.
func (f Field) Header() string {
	if !f.Valid() {
		return ""
	}
	return fieldSpecs[f].header
}

// Column is the database column name.
func (f Field) Column() string {
	if !f.Valid() {
		return ""
	}
	return fieldSpecs[f].column
}

// Kind is the storage type.
func (f Field) Kind() Kind {
	if !f.Valid() {
		return KindText
	}
	return fieldSpecs[f].kind
}

// SQLType is the column DDL type.
func (f Field) SQLType() string {
	if !f.Valid() {
		return ""
	}
	return fieldSpecs[f].sqlType
}

func (f Field) String() string { return f.Column() }

var byHeader = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for _, f := range Fields() {
		m[f.Header()] = f
	}
	return m
}()

// FieldByHeader resolves a canonical header to its field.
func FieldByHeader(header string) (Field, bool) {
	f, ok := byHeader[header]
	return f, ok
}
