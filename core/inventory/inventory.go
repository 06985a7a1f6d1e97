// Package inventory tracks per-station available counts for one resource
// type. The dispatch coordinator is the sole writer.
package inventory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/resq112/core/model"
)

// ErrInsufficientInventory is returned when a decrement exceeds the
// available count. Callers clamp before decrementing, so hitting this is an
// invariant violation rather than a normal-path error.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrUnknownStation is returned for a station key not present in the roster.
var ErrUnknownStation = errors.New("unknown station")

// Inventory holds every station of one resource type.
type Inventory struct {
	resource model.ResourceType
	mu       sync.Mutex
	stations map[string]*model.Station
	order    []string
}

// New creates an empty inventory for the given resource type.
func New(resource model.ResourceType) *Inventory {
	return &Inventory{
		resource: resource,
		stations: make(map[string]*model.Station),
	}
}

// FromRoster creates an inventory pre-populated with the given stations.
func FromRoster(resource model.ResourceType, roster []model.Station) *Inventory {
	inv := New(resource)
	for _, s := range roster {
		inv.Add(s)
	}
	return inv
}

// Resource returns the resource type this inventory holds.
func (i *Inventory) Resource() model.ResourceType { return i.resource }

// Add registers a station. A station with an already-known key replaces the
// previous entry.
func (i *Inventory) Add(s model.Station) {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := s.Key()
	if _, ok := i.stations[key]; !ok {
		i.order = append(i.order, key)
	}
	cp := s
	i.stations[key] = &cp
}

// Available returns the current available count for the station.
func (i *Inventory) Available(key string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	s, ok := i.stations[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStation, key)
	}
	return s.Available, nil
}

// Decrement reduces the station's available count by amount. Amount must be
// positive and must not exceed the available count.
func (i *Inventory) Decrement(key string, amount int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	s, ok := i.stations[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStation, key)
	}
	if amount <= 0 {
		return fmt.Errorf("decrement amount must be positive, got %d", amount)
	}
	if amount > s.Available {
		return fmt.Errorf("%w: station %s has %d, requested %d", ErrInsufficientInventory, key, s.Available, amount)
	}
	s.Available -= amount
	return nil
}

// Get returns a copy of the station for the given key.
func (i *Inventory) Get(key string) (model.Station, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	s, ok := i.stations[key]
	if !ok {
		return model.Station{}, fmt.Errorf("%w: %s", ErrUnknownStation, key)
	}
	return *s, nil
}

// Stations returns a snapshot of all stations in registration order.
func (i *Inventory) Stations() []model.Station {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]model.Station, 0, len(i.order))
	for _, key := range i.order {
		out = append(out, *i.stations[key])
	}
	return out
}
