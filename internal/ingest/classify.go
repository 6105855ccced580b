// Package ingest loads the per-authority route survey spreadsheets into the
// canonical routes table.
package ingest

import (
	"strings"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// Outcome is the result of classifying a filename.
type Outcome int

// Classification outcomes.
const (
	// NotCandidate files are ignored silently.
	NotCandidate Outcome = iota
	// Unclassified candidates are recorded in the skipped list.
	Unclassified
	// Classified files carry both a district and a route type.
	Classified
)

type keyword[T any] struct {
	token string
	value T
}

// Priority ordered: the first matching token wins.
var districtKeywords = []keyword[route.District]{
	{"臺北市區", route.Taipei},
	{"臺北", route.Taipei},
	{"台北", route.Taipei},
	{"新竹", route.Hsinchu},
	{"臺中", route.Taichung},
	{"台中", route.Taichung},
	{"嘉義", route.Chiayi},
	{"高雄", route.Kaohsiung},
}

var routeTypeKeywords = []keyword[route.RouteType]{
	{"國道", route.Highway},
	{"一般公路", route.Local},
	{"一般客運", route.Local},
	{"一般", route.Local},
}

// Classification is the district and route type derived from a filename.
type Classification struct {
	Outcome   Outcome
	District  route.District
	RouteType route.RouteType
}

// Classifier decides which files belong to the survey and what they hold.
type Classifier struct {
	YearTag string
}

// IsCandidate reports whether name carries the dataset tag and mentions
// routes (路線, or "route" in any case).
func (c Classifier) IsCandidate(name string) bool {
	if !strings.Contains(name, c.YearTag) {
		return false
	}
	return strings.Contains(name, "路線") || strings.Contains(strings.ToLower(name), "route")
}

// Classify derives district and route type from the whitespace-stripped
// filename.
func (c Classifier) Classify(name string) Classification {
	if !c.IsCandidate(name) {
		return Classification{Outcome: NotCandidate}
	}

	compact := route.SpaceFree(name)
	district, okD := firstMatch(compact, districtKeywords)
	routeType, okT := firstMatch(compact, routeTypeKeywords)
	if !okD || !okT {
		return Classification{Outcome: Unclassified, District: district, RouteType: routeType}
	}
	return Classification{Outcome: Classified, District: district, RouteType: routeType}
}

func firstMatch[T any](name string, keywords []keyword[T]) (T, bool) {
	for _, k := range keywords {
		if strings.Contains(name, k.token) {
			return k.value, true
		}
	}
	var zero T
	return zero, false
}
