package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

var (
	nonNumericRe = regexp.MustCompile(`[^\d.]`)
	firstNumRe   = regexp.MustCompile(`\d+\.?\d*`)
)

// CleanText collapses whitespace runs to one space and trims. Empty values
// and the exact literal "nan" become nil; "NaN" is kept as text.
func CleanText(raw string) *string {
	s := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	if s == "" || s == "nan" {
		return nil
	}
	return &s
}

// CleanRouteNumber keeps route numbers textual: "0801" and "9001A" stay as
// written.
func CleanRouteNumber(raw string) *string {
	s := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return nil
	}
	return &s
}

// ParseNumber extracts a number from a survey cell. Cells with any character
// other than ASCII digits and "." yield their first numeric run ("25班" is 25).
// The bool is false when no number can be read.
func ParseNumber(raw string) (float64, bool) {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	if s == "" {
		return 0, false
	}

	if nonNumericRe.MatchString(s) {
		m := firstNumRe.FindString(s)
		if m == "" {
			return 0, false
		}
		s = m
	}

	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

// CleanInt parses an integer counter. Fractional values round half away from
// zero; values outside the INTEGER column range are nil.
func CleanInt(raw string) *int {
	f, ok := ParseNumber(raw)
	if !ok {
		return nil
	}
	f = math.Round(f)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// CleanDecimal parses a DECIMAL(10,2) value, rounded to two places.
func CleanDecimal(raw string) *float64 {
	f, ok := ParseNumber(raw)
	if !ok {
		return nil
	}
	f = math.Round(f*100) / 100
	if f >= 1e8 {
		return nil
	}
	return &f
}

// CleanField applies the cleaner for f's kind and returns a value suitable
// for route.Record.Set.
func CleanField(f route.Field, raw string) any {
	switch f.Kind() {
	case route.KindRouteNumber:
		return CleanRouteNumber(raw)
	case route.KindInteger:
		return CleanInt(raw)
	case route.KindDecimal:
		return CleanDecimal(raw)
	default:
		return CleanText(raw)
	}
}
