package model

import "time"

// Request is the wire shape of one resource demand inside a feed call.
// The capitalised JSON keys match what the feed produces.
type Request struct {
	Type     string `json:"Type"`
	Quantity int    `json:"Quantity"`
}

// RawCall is an emergency call as delivered by the external feed, before
// validation and identity assignment.
type RawCall struct {
	City      string    `json:"city"`
	County    string    `json:"county"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Requests  []Request `json:"requests"`
	Timestamp string    `json:"timestamp"`
}

// Location returns the call coordinate.
func (r RawCall) Location() Coordinate {
	return Coordinate{Lat: r.Latitude, Lon: r.Longitude}
}

// HasPositiveRequest reports whether at least one known resource type is
// requested with a positive quantity.
func (r RawCall) HasPositiveRequest() bool {
	for _, req := range r.Requests {
		if _, ok := ResourceTypeFromString(req.Type); !ok {
			continue
		}
		if req.Quantity > 0 {
			return true
		}
	}
	return false
}

// EmergencyCall is an accepted call tracked by the engine. Needs holds the
// remaining demand per resource type; Initial snapshots the demand at
// ingestion time for audit display and registry sync.
type EmergencyCall struct {
	ID         string               `json:"id"`
	City       string               `json:"city"`
	County     string               `json:"county"`
	Location   Coordinate           `json:"location"`
	Needs      map[ResourceType]int `json:"needs"`
	Initial    map[ResourceType]int `json:"initial"`
	ReceivedAt time.Time            `json:"received_at"`
}

// NeedFor returns the remaining demand for the given resource type.
func (c *EmergencyCall) NeedFor(t ResourceType) int {
	return c.Needs[t]
}

// ActiveFor reports whether the call still demands the given resource type.
func (c *EmergencyCall) ActiveFor(t ResourceType) bool {
	return c.Needs[t] > 0
}

// Fulfilled reports whether every remaining need is zero or below.
func (c *EmergencyCall) Fulfilled() bool {
	for _, n := range c.Needs {
		if n > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to hand to observers and sync clients.
func (c *EmergencyCall) Clone() *EmergencyCall {
	cp := *c
	cp.Needs = make(map[ResourceType]int, len(c.Needs))
	for t, n := range c.Needs {
		cp.Needs[t] = n
	}
	cp.Initial = make(map[ResourceType]int, len(c.Initial))
	for t, n := range c.Initial {
		cp.Initial[t] = n
	}
	return &cp
}

// RequestsWire converts the remaining needs back to the feed wire shape,
// used when PATCHing the updated call to the registry.
func (c *EmergencyCall) RequestsWire() []Request {
	out := make([]Request, 0, len(c.Needs))
	for _, t := range ResourceTypes {
		n, ok := c.Needs[t]
		if !ok {
			continue
		}
		out = append(out, Request{Type: t.String(), Quantity: n})
	}
	return out
}

// DispatchLogEntry is the immutable audit record of one dispatch action.
type DispatchLogEntry struct {
	SourceCounty string       `json:"sourceCounty"`
	SourceCity   string       `json:"sourceCity"`
	TargetCounty string       `json:"targetCounty"`
	TargetCity   string       `json:"targetCity"`
	Type         ResourceType `json:"type"`
	Quantity     int          `json:"quantity"`
	Timestamp    time.Time    `json:"timestamp"`
}
