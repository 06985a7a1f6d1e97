// Package callset maintains the live collection of open emergency calls.
// Calls enter through Ingest, have their needs reduced through
// ApplyFulfillment and leave the active set exactly when every need reaches
// zero.
package callset

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/resq112/core/model"
)

var (
	// ErrRejected wraps every ingestion rejection reason.
	ErrRejected = errors.New("call rejected")
	// ErrNotFound is returned when a call id is not in the active set.
	ErrNotFound = errors.New("call not found")
)

// CallSet is the active set of open emergency calls.
type CallSet struct {
	mu    sync.Mutex
	calls map[string]*model.EmergencyCall
	order []string
	now   func() time.Time
}

// New creates an empty call set.
func New() *CallSet {
	return &CallSet{
		calls: make(map[string]*model.EmergencyCall),
		now:   time.Now,
	}
}

// SetClock overrides the timestamp source, used by tests.
func (s *CallSet) SetClock(now func() time.Time) { s.now = now }

// Ingest validates a raw feed call and, if acceptable, assigns it a fresh
// identity and adds it to the active set. A call is rejected when its
// coordinate is the (0,0) sentinel, out of range, or when no known resource
// type is requested with a positive quantity. Each accepted call is an
// independent unit of work: repeated feed entries for the same real-world
// event mint separate identities.
func (s *CallSet) Ingest(raw model.RawCall) (string, error) {
	loc := raw.Location()
	if loc.IsZero() {
		return "", fmt.Errorf("%w: unset location for %s, %s", ErrRejected, raw.City, raw.County)
	}
	if !loc.Valid() {
		return "", fmt.Errorf("%w: invalid coordinate (%f, %f)", ErrRejected, raw.Latitude, raw.Longitude)
	}
	if !raw.HasPositiveRequest() {
		return "", fmt.Errorf("%w: no positive resource demand for %s, %s", ErrRejected, raw.City, raw.County)
	}

	// Only positive quantities contribute demand; a zero or negative entry
	// next to a valid one is degenerate feed data, not a credit.
	needs := make(map[model.ResourceType]int)
	initial := make(map[model.ResourceType]int)
	for _, req := range raw.Requests {
		t, ok := model.ResourceTypeFromString(req.Type)
		if !ok || req.Quantity <= 0 {
			continue
		}
		needs[t] += req.Quantity
		initial[t] += req.Quantity
	}

	call := &model.EmergencyCall{
		ID:         uuid.NewString(),
		City:       raw.City,
		County:     raw.County,
		Location:   loc,
		Needs:      needs,
		Initial:    initial,
		ReceivedAt: s.now(),
	}

	s.mu.Lock()
	s.calls[call.ID] = call
	s.order = append(s.order, call.ID)
	s.mu.Unlock()
	return call.ID, nil
}

// ActiveCallsNeeding returns, in insertion order, the ids of all calls whose
// remaining need for the given resource type is positive.
func (s *CallSet) ActiveCallsNeeding(t model.ResourceType) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, id := range s.order {
		c, ok := s.calls[id]
		if !ok {
			continue
		}
		if c.ActiveFor(t) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ApplyFulfillment reduces the call's remaining need for the given resource
// type by delta, clamping at zero. Delta must be positive. When every need on
// the call reaches zero the call is removed from the active set; it is never
// re-added.
func (s *CallSet) ApplyFulfillment(id string, t model.ResourceType, delta int) error {
	if delta <= 0 {
		return fmt.Errorf("fulfillment delta must be positive, got %d", delta)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	remaining := c.Needs[t] - delta
	if remaining < 0 {
		remaining = 0
	}
	c.Needs[t] = remaining
	if c.Fulfilled() {
		s.remove(id)
	}
	return nil
}

// remove deletes id from the set. Caller must hold s.mu.
func (s *CallSet) remove(id string) {
	delete(s.calls, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Get returns a copy of the call with the given id.
func (s *CallSet) Get(id string) (*model.EmergencyCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.Clone(), nil
}

// Len returns the number of calls in the active set.
func (s *CallSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Snapshot returns copies of all active calls in insertion order.
func (s *CallSet) Snapshot() []*model.EmergencyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.EmergencyCall, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := s.calls[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out
}
