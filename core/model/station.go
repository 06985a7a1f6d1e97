package model

import "fmt"

// Station is a source of exactly one resource type with a mutable available
// count. Stations are created once at startup from a roster and are never
// removed during a session.
type Station struct {
	City      string     `json:"city"`
	County    string     `json:"county"`
	Location  Coordinate `json:"location"`
	Available int        `json:"quantity"`
}

// Key returns the station identity, unique within its resource type.
func (s Station) Key() string {
	return fmt.Sprintf("%s/%s", s.City, s.County)
}
