package model

import "math"

// Coordinate is a WGS84 geographic point.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// IsZero reports whether the coordinate is the (0,0) origin sentinel used by
// the feed for calls without a resolved location.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

// Valid reports whether the coordinate is a finite point inside the WGS84
// latitude/longitude range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
