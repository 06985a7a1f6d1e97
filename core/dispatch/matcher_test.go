package dispatch

import (
	"testing"

	"github.com/kilianp07/resq112/core/callset"
	"github.com/kilianp07/resq112/core/model"
)

// offsets in degrees latitude; 1 degree of latitude is ~111.2 km, so
// 0.00045 deg is ~50 m.
const (
	deg50m  = 0.00045
	deg150m = 0.00135
	deg250m = 0.00225
	deg300m = 0.00270
)

func ingestAt(t *testing.T, s *callset.CallSet, lat, lon float64, reqs ...model.Request) string {
	t.Helper()
	id, err := s.Ingest(model.RawCall{
		City:      "Brasov",
		County:    "Brasov",
		Latitude:  lat,
		Longitude: lon,
		Requests:  reqs,
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return id
}

func TestFindNearestEligiblePrefersCloser(t *testing.T) {
	s := callset.New()
	target := model.Coordinate{Lat: 45.6, Lon: 25.5}
	far := ingestAt(t, s, target.Lat+deg150m, target.Lon, model.Request{Type: "Medical", Quantity: 1})
	near := ingestAt(t, s, target.Lat+deg50m, target.Lon, model.Request{Type: "Medical", Quantity: 1})

	m := NewMatcher(s)
	match, ok := m.FindNearestEligible(model.ResourceMedical, target, DefaultRadiusMeters)
	if !ok {
		t.Fatal("no match found")
	}
	if match.CallID != near {
		t.Fatalf("matched %s, want near call %s (far was %s)", match.CallID, near, far)
	}
	if match.DistanceM > 60 {
		t.Errorf("distance = %f, want ~50 m", match.DistanceM)
	}
}

func TestFindNearestEligibleRespectsRadius(t *testing.T) {
	s := callset.New()
	target := model.Coordinate{Lat: 45.6, Lon: 25.5}
	ingestAt(t, s, target.Lat+deg250m, target.Lon, model.Request{Type: "Medical", Quantity: 1})
	ingestAt(t, s, target.Lat+deg300m, target.Lon, model.Request{Type: "Medical", Quantity: 1})

	m := NewMatcher(s)
	if _, ok := m.FindNearestEligible(model.ResourceMedical, target, DefaultRadiusMeters); ok {
		t.Fatal("matched a call outside the 200 m radius")
	}
}

func TestFindNearestEligibleFiltersType(t *testing.T) {
	s := callset.New()
	target := model.Coordinate{Lat: 45.6, Lon: 25.5}
	ingestAt(t, s, target.Lat+deg50m, target.Lon, model.Request{Type: "Fire", Quantity: 2})

	m := NewMatcher(s)
	if _, ok := m.FindNearestEligible(model.ResourceMedical, target, DefaultRadiusMeters); ok {
		t.Fatal("matched a call with no medical demand")
	}
	if _, ok := m.FindNearestEligible(model.ResourceFire, target, DefaultRadiusMeters); !ok {
		t.Fatal("fire demand not matched")
	}
}

func TestFindNearestEligibleTieFirstWins(t *testing.T) {
	s := callset.New()
	target := model.Coordinate{Lat: 45.6, Lon: 25.5}
	first := ingestAt(t, s, target.Lat+deg50m, target.Lon, model.Request{Type: "Police", Quantity: 1})
	ingestAt(t, s, target.Lat+deg50m, target.Lon, model.Request{Type: "Police", Quantity: 1})

	m := NewMatcher(s)
	match, ok := m.FindNearestEligible(model.ResourcePolice, target, DefaultRadiusMeters)
	if !ok || match.CallID != first {
		t.Fatalf("tie not broken by insertion order: got %s want %s", match.CallID, first)
	}
}

func TestFindNearestEligibleEmptySet(t *testing.T) {
	m := NewMatcher(callset.New())
	if _, ok := m.FindNearestEligible(model.ResourceRescue, model.Coordinate{Lat: 45, Lon: 25}, DefaultRadiusMeters); ok {
		t.Fatal("match found in empty set")
	}
}
