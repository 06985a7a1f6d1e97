// Package scenarios loads scripted emergency scenarios from YAML. A scenario
// fixes the station rosters and the sequence of calls the emulated feed
// serves, so engine behavior can be replayed deterministically.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/resq112/core/model"
)

// StationDef describes one station in a scripted roster.
type StationDef struct {
	City      string  `yaml:"city"`
	County    string  `yaml:"county"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Quantity  int     `yaml:"quantity"`
}

func (s StationDef) ToModel() model.Station {
	return model.Station{
		City:      s.City,
		County:    s.County,
		Location:  model.Coordinate{Lat: s.Latitude, Lon: s.Longitude},
		Available: s.Quantity,
	}
}

// RequestDef describes one resource demand inside a scripted call.
type RequestDef struct {
	Type     string `yaml:"type"`
	Quantity int    `yaml:"quantity"`
}

// CallDef describes one scripted emergency call. Calls are served by the
// emulated feed in definition order, one per poll.
type CallDef struct {
	City      string       `yaml:"city"`
	County    string       `yaml:"county"`
	Latitude  float64      `yaml:"latitude"`
	Longitude float64      `yaml:"longitude"`
	Requests  []RequestDef `yaml:"requests"`
}

func (c CallDef) ToRaw() model.RawCall {
	reqs := make([]model.Request, 0, len(c.Requests))
	for _, r := range c.Requests {
		reqs = append(reqs, model.Request{Type: r.Type, Quantity: r.Quantity})
	}
	return model.RawCall{
		City:      c.City,
		County:    c.County,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Requests:  reqs,
	}
}

// Scenario is one scripted run: named rosters plus an ordered call sequence.
type Scenario struct {
	Name    string                  `yaml:"name"`
	Rosters map[string][]StationDef `yaml:"rosters"`
	Calls   []CallDef               `yaml:"calls"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks that every roster key and request type names a known
// resource type.
func (s *Scenario) Validate() error {
	for name := range s.Rosters {
		if _, ok := model.ResourceTypeFromString(name); !ok {
			return fmt.Errorf("unknown resource type %q in rosters", name)
		}
	}
	for i, c := range s.Calls {
		for _, r := range c.Requests {
			if _, ok := model.ResourceTypeFromString(r.Type); !ok {
				return fmt.Errorf("unknown resource type %q in call %d", r.Type, i)
			}
		}
	}
	return nil
}

// RostersByType resolves the roster map to typed keys.
func (s *Scenario) RostersByType() map[model.ResourceType][]model.Station {
	out := make(map[model.ResourceType][]model.Station, len(s.Rosters))
	for name, defs := range s.Rosters {
		t, ok := model.ResourceTypeFromString(name)
		if !ok {
			continue
		}
		stations := make([]model.Station, 0, len(defs))
		for _, d := range defs {
			stations = append(stations, d.ToModel())
		}
		out[t] = stations
	}
	return out
}

// RawCalls returns the scripted calls in feed wire shape, in order.
func (s *Scenario) RawCalls() []model.RawCall {
	out := make([]model.RawCall, 0, len(s.Calls))
	for _, c := range s.Calls {
		out = append(out, c.ToRaw())
	}
	return out
}
