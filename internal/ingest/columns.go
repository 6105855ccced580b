package ingest

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// whitespaceRe also covers Unicode spaces such as U+3000 and NBSP, which
// RE2 leaves out of \s.
var whitespaceRe = regexp.MustCompile(`[\s\p{Z}\x{85}]+`)

// Aliases maps a normalized header to its canonical field.
type Aliases map[string]route.Field

// defaultVariants lists known header spellings per canonical header.
// Canonical headers always map to themselves.
var defaultVariants = map[string][]string{
	"里程往":   {"里_程", "里程", "里程_往"},
	"里程返":   {"里程_返"},
	"班次一":   {"班_次", "班_次一", "班次_一"},
	"班次二":   {"班_次二", "班次_二"},
	"班次三":   {"班_次三", "班次_三"},
	"班次四":   {"班_次四", "班次_四"},
	"班次五":   {"班_次五", "班次_五"},
	"班次六":   {"班_次六", "班次_六"},
	"班次日":   {"班_次日", "班次_日"},
	"路線性質":  {"路線性質_(機場/一般)", "路線性質_機場_一般"},
	"公司名稱":  {"公司_名稱"},
	"路線編號":  {"路線_編號"},
	"路線名稱":  {"路線_名稱"},
	"補貼_路線": {"補貼__路線"},
	"站牌數往":  {"站牌數", "站牌數_往"},
	"站牌數返":  {"站牌數_返"},
	"車輛數":   {"車輛_數"},
	"聯營業者":  {"聯營_業者"},
}

// DefaultAliases returns a fresh copy of the built-in alias table.
func DefaultAliases() Aliases {
	a := make(Aliases)
	for _, f := range route.Fields() {
		a[f.Header()] = f
	}
	for canonical, variants := range defaultVariants {
		f, ok := route.FieldByHeader(canonical)
		if !ok {
			continue
		}
		for _, v := range variants {
			a[NormalizeHeader(v)] = f
		}
	}
	return a
}

// NormalizeHeader folds full-width forms, trims, and replaces every
// whitespace run (including line breaks inside a cell) with "_".
func NormalizeHeader(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(s)
	return whitespaceRe.ReplaceAllString(s, "_")
}

// placeholder reports headers that carry no name.
func placeholder(h string) bool {
	return h == "" || strings.HasPrefix(h, "Unnamed:")
}

// ColumnMap is the resolved header layout of one sheet.
type ColumnMap struct {
	// Index maps each present canonical field to its column position.
	Index map[route.Field]int
	// Missing lists canonical fields absent from the sheet; they load as NULL.
	Missing []route.Field
	// Unmapped lists named headers that match no canonical field.
	Unmapped []string
	// Duplicates lists headers that resolved to an already mapped field.
	Duplicates []string
	// Dropped counts empty or placeholder headers.
	Dropped int
}

// MapColumns resolves a raw header row against aliases. When two headers map
// to the same field the leftmost one wins.
func MapColumns(header []string, aliases Aliases) ColumnMap {
	cm := ColumnMap{Index: make(map[route.Field]int)}
	for i, raw := range header {
		h := NormalizeHeader(raw)
		if placeholder(h) {
			cm.Dropped++
			continue
		}
		f, ok := aliases[h]
		if !ok {
			cm.Unmapped = append(cm.Unmapped, h)
			continue
		}
		if _, dup := cm.Index[f]; dup {
			cm.Duplicates = append(cm.Duplicates, h)
			continue
		}
		cm.Index[f] = i
	}
	for _, f := range route.Fields() {
		if _, ok := cm.Index[f]; !ok {
			cm.Missing = append(cm.Missing, f)
		}
	}
	return cm
}

// Cell returns the raw value of field f in row, or "" when the column is
// missing or the row is short.
func (cm ColumnMap) Cell(row []string, f route.Field) (string, bool) {
	i, ok := cm.Index[f]
	if !ok || i >= len(row) {
		return "", false
	}
	return row[i], true
}

// MissingHeaders returns the canonical headers of Missing.
func (cm ColumnMap) MissingHeaders() []string {
	out := make([]string, len(cm.Missing))
	for i, f := range cm.Missing {
		out[i] = f.Header()
	}
	return out
}
