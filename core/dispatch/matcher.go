package dispatch

import (
	"github.com/kilianp07/resq112/core/callset"
	"github.com/kilianp07/resq112/core/geo"
	"github.com/kilianp07/resq112/core/model"
)

// DefaultRadiusMeters bounds how far from the drop point a call may be and
// still receive a dispatched unit.
const DefaultRadiusMeters = 200.0

// Matcher finds the nearest eligible call for a dispatch action. It is a
// pure read over the call set.
type Matcher struct {
	calls *callset.CallSet
}

// NewMatcher creates a Matcher over the given call set.
func NewMatcher(calls *callset.CallSet) *Matcher {
	return &Matcher{calls: calls}
}

// Match carries the result of a successful nearest-call search.
type Match struct {
	CallID    string
	DistanceM float64
}

// FindNearestEligible scans all calls with open demand for the resource type
// and returns the one closest to target within radius. Ties go to the first
// call encountered in insertion order. ok is false when no call qualifies.
// A NaN distance never qualifies.
func (m *Matcher) FindNearestEligible(t model.ResourceType, target model.Coordinate, radius float64) (Match, bool) {
	var best Match
	found := false
	for _, id := range m.calls.ActiveCallsNeeding(t) {
		call, err := m.calls.Get(id)
		if err != nil {
			continue
		}
		dist := geo.Distance(call.Location, target)
		if !(dist <= radius) {
			continue
		}
		if !found || dist < best.DistanceM {
			best = Match{CallID: id, DistanceM: dist}
			found = true
		}
	}
	return best, found
}
