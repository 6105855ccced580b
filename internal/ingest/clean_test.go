package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"  X客運  ", strPtr("X客運")},
		{"台北\n-\t基隆", strPtr("台北 - 基隆")},
		{"   ", nil},
		{"", nil},
		{"nan", nil},
		{" nan ", nil},
		{"NaN", strPtr("NaN")},
		{"nano", strPtr("nano")},
		{"X\u3000\u3000客運", strPtr("X 客運")},
		{"A\u00a0\u00a0B", strPtr("A B")},
		{"\u3000X客運\u3000", strPtr("X客運")},
		{"\u3000\u3000", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestCleanRouteNumber(t *testing.T) {
	assert.Equal(t, strPtr("0801"), CleanRouteNumber(" 0801 "))
	assert.Equal(t, strPtr("9001 A"), CleanRouteNumber("9001 \n A"))
	assert.Equal(t, strPtr("9001 A"), CleanRouteNumber("9001\u3000A"))
	assert.Equal(t, strPtr("9001 A"), CleanRouteNumber("9001\u00a0\u3000A"))
	assert.Nil(t, CleanRouteNumber("  "))
	// Not treated as a missing-value marker.
	assert.Equal(t, strPtr("nan"), CleanRouteNumber("nan"))
}

func TestCleanRouteNumber_Idempotent(t *testing.T) {
	for _, in := range []string{" 1812 ", "9001\tA", "0801", "紅 1", "紅\u30001"} {
		once := CleanRouteNumber(in)
		require.NotNil(t, once)
		assert.Equal(t, once, CleanRouteNumber(*once))
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"25", 25, true},
		{"25班", 25, true},
		{" 12.5 ", 12.5, true},
		{"約 30.25 公里", 30.25, true},
		{"無", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"３０", 30, true},
		{"1.2.3", 0, false},
		{"5.", 5, true},
		{"-7", 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCleanInt(t *testing.T) {
	assert.Equal(t, intPtr(25), CleanInt("25班"))
	assert.Nil(t, CleanInt("無"))
	assert.Equal(t, intPtr(3), CleanInt("2.5"))
	assert.Equal(t, intPtr(2), CleanInt("2.4"))
	assert.Nil(t, CleanInt("99999999999"))
	assert.Equal(t, intPtr(0), CleanInt("0"))
}

func TestCleanDecimal(t *testing.T) {
	d := CleanDecimal("12.345")
	require.NotNil(t, d)
	assert.InDelta(t, 12.35, *d, 1e-9)

	d = CleanDecimal("42")
	require.NotNil(t, d)
	assert.InDelta(t, 42.0, *d, 1e-9)

	assert.Nil(t, CleanDecimal("N/A"))
	assert.Nil(t, CleanDecimal("123456789"))
}

func TestCleanField(t *testing.T) {
	assert.Equal(t, strPtr("0801"), CleanField(route.RouteNumber, "0801"))
	assert.Equal(t, intPtr(30), CleanField(route.FreqMon, "30"))
	assert.Equal(t, strPtr("國道"), CleanField(route.RouteNature, " 國道 "))

	v, ok := CleanField(route.MileageReturn, "8").(*float64)
	require.True(t, ok)
	assert.InDelta(t, 8.0, *v, 1e-9)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
