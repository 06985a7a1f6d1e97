// Package geo provides great-circle distance helpers used by the dispatch
// matcher. Distances are straight-line; no road network is involved.
package geo

import (
	"math"

	"github.com/kilianp07/resq112/core/model"
)

const earthRadiusMeters = 6371000.0

// Distance returns the haversine distance between two coordinates in meters.
// It is symmetric. Invalid inputs (NaN, infinities) propagate as NaN, which
// callers must treat as "never within radius".
func Distance(a, b model.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}
