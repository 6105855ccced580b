package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

func TestClassifier_IsCandidate(t *testing.T) {
	c := Classifier{YearTag: "114"}
	tests := []struct {
		name string
		want bool
	}{
		{"114年臺北區國道路線.xlsx", true},
		{"114_Route_Taipei.xlsx", true},
		{"114_ROUTE.xlsx", true},
		{"113年臺北區國道路線.xlsx", false},
		{"114年臺北區國道.xlsx", false},
		{"路線清單.xlsx", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsCandidate(tt.name))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := Classifier{YearTag: "114"}
	tests := []struct {
		name     string
		outcome  Outcome
		district route.District
		rt       route.RouteType
	}{
		{"114年臺北區監理所國道路線.xlsx", Classified, route.Taipei, route.Highway},
		{"114年臺北市區監理所一般公路路線.xlsx", Classified, route.Taipei, route.Local},
		{"114年 台 北 一般客運路線.xlsx", Classified, route.Taipei, route.Local},
		{"114年新竹區國道路線.xlsx", Classified, route.Hsinchu, route.Highway},
		{"114年臺中一般路線.xlsx", Classified, route.Taichung, route.Local},
		{"114年台中國道路線.xlsx", Classified, route.Taichung, route.Highway},
		{"114年嘉義區一般公路路線.xlsx", Classified, route.Chiayi, route.Local},
		{"114年高雄區國道路線.xlsx", Classified, route.Kaohsiung, route.Highway},
		{"114年花蓮區國道路線.xlsx", Unclassified, "", route.Highway},
		{"114年臺北區路線資料.xlsx", Unclassified, route.Taipei, ""},
		{"2024_summary.xlsx", NotCandidate, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.name)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.district, got.District)
			assert.Equal(t, tt.rt, got.RouteType)
		})
	}
}

func TestClassifier_HighwayBeatsLocal(t *testing.T) {
	got := Classifier{YearTag: "114"}.Classify("114年高雄國道及一般公路路線.xlsx")
	assert.Equal(t, route.Highway, got.RouteType)
}
