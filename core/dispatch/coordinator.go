package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/resq112/core/callset"
	"github.com/kilianp07/resq112/core/events"
	"github.com/kilianp07/resq112/core/inventory"
	"github.com/kilianp07/resq112/core/logger"
	"github.com/kilianp07/resq112/core/metrics"
	"github.com/kilianp07/resq112/core/model"
	"github.com/kilianp07/resq112/internal/eventbus"
)

// Target binds a resource type to its inventory and audit sink. One entry
// exists per resource type; the coordinator consults the table instead of
// carrying per-type dispatch paths.
type Target struct {
	Inventory *inventory.Inventory
	Sink      AuditSink
}

// Coordinator orchestrates one dispatch action end to end: confirmation,
// matching, quantity computation, inventory and call-set mutation, audit
// logging and registry sync. Actions are serialized; a second action cannot
// observe the state between another action's match and its mutations.
type Coordinator struct {
	calls   *callset.CallSet
	matcher *Matcher
	targets map[model.ResourceType]Target
	gate    ConfirmationGate
	sync    RegistrySync
	radius  float64
	log     logger.Logger
	bus     eventbus.EventBus
	sink    metrics.Sink
	now     func() time.Time
	mu      sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRadius overrides the default 200 m match radius.
func WithRadius(meters float64) Option {
	return func(c *Coordinator) { c.radius = meters }
}

// WithEventBus publishes dispatch events on the given bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// WithMetrics records dispatch events on the given sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// WithRegistrySync propagates post-dispatch call state to the registry.
func WithRegistrySync(s RegistrySync) Option {
	return func(c *Coordinator) { c.sync = s }
}

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator over the given call set and per-type
// dispatch targets.
func NewCoordinator(calls *callset.CallSet, targets map[model.ResourceType]Target, gate ConfirmationGate, log logger.Logger, opts ...Option) (*Coordinator, error) {
	if calls == nil {
		return nil, fmt.Errorf("call set is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("confirmation gate is required")
	}
	c := &Coordinator{
		calls:   calls,
		matcher: NewMatcher(calls),
		targets: targets,
		gate:    gate,
		sync:    NopSync{},
		radius:  DefaultRadiusMeters,
		log:     log,
		sink:    metrics.NopSink{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dispatch runs one dispatch action: move resource of type t from the given
// station toward target. Early exits (declined confirmation, no eligible
// call, zero dispatchable quantity) return a Result with nil error and no
// state change. Errors indicate misconfiguration or invariant violations,
// never a normal abort.
func (c *Coordinator) Dispatch(ctx context.Context, t model.ResourceType, stationKey string, target model.Coordinate) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tgt, ok := c.targets[t]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownResource, t)
	}
	station, err := tgt.Inventory.Get(stationKey)
	if err != nil {
		return Result{}, fmt.Errorf("dispatch %s: %w", t, err)
	}

	// Confirming
	if !c.gate.Confirm(ctx, Action{Type: t, Station: station, Target: target}) {
		c.log.Infof("dispatch of %s from %s declined", t, stationKey)
		return Result{Outcome: OutcomeDeclined}, nil
	}

	// Matching
	match, ok := c.matcher.FindNearestEligible(t, target, c.radius)
	if !ok {
		c.log.Infof("no call within %.0f m needing %s near (%f, %f)", c.radius, t, target.Lat, target.Lon)
		c.record(metrics.DispatchEvent{Type: t, SourceCity: station.City, SourceCounty: station.County, Matched: false, Timestamp: c.now()})
		return Result{Outcome: OutcomeNoMatch}, nil
	}
	call, err := c.calls.Get(match.CallID)
	if err != nil {
		return Result{}, fmt.Errorf("matched call vanished: %w", err)
	}

	// Applying
	needed := call.NeedFor(t)
	dispatched := needed
	if station.Available < dispatched {
		dispatched = station.Available
	}
	if dispatched <= 0 {
		c.log.Infof("no %s units available at %s", t, stationKey)
		return Result{Outcome: OutcomeNoInventory, CallID: match.CallID}, nil
	}
	if err := tgt.Inventory.Decrement(stationKey, dispatched); err != nil {
		return Result{}, fmt.Errorf("inventory decrement: %w", err)
	}
	// The fulfillment is a pure clamp and cannot fail after the decrement
	// succeeded; an error here means the call was removed concurrently,
	// which the serialized action order excludes.
	if err := c.calls.ApplyFulfillment(match.CallID, t, dispatched); err != nil {
		return Result{}, fmt.Errorf("apply fulfillment: %w", err)
	}

	updated, err := c.calls.Get(match.CallID)
	resolved := err != nil // removed from the active set means fully served
	if resolved {
		updated = call.Clone()
		updated.Needs[t] = 0
	}

	c.log.Debugw("dispatched", map[string]any{
		"type":     t.String(),
		"from":     stationKey,
		"call":     match.CallID,
		"quantity": dispatched,
		"distance": match.DistanceM,
		"resolved": resolved,
	})

	// Logging
	entry := model.DispatchLogEntry{
		SourceCounty: station.County,
		SourceCity:   station.City,
		TargetCounty: call.County,
		TargetCity:   call.City,
		Type:         t,
		Quantity:     dispatched,
		Timestamp:    c.now(),
	}
	if tgt.Sink != nil {
		if err := tgt.Sink.Record(ctx, entry); err != nil {
			c.log.Errorf("dispatch log for %s: %v", t, err)
		}
	}

	// Syncing
	if err := c.sync.SyncCall(ctx, updated); err != nil {
		c.log.Errorf("registry sync for call %s: %v", match.CallID, err)
	}

	c.record(metrics.DispatchEvent{
		Type:         t,
		SourceCity:   station.City,
		SourceCounty: station.County,
		TargetCity:   call.City,
		TargetCounty: call.County,
		Quantity:     dispatched,
		Matched:      true,
		Timestamp:    entry.Timestamp,
	})
	if c.bus != nil {
		c.bus.Publish(events.DispatchEvent{
			Type:          t,
			SourceStation: stationKey,
			CallID:        match.CallID,
			Quantity:      dispatched,
			Matched:       true,
			CallResolved:  resolved,
			Timestamp:     entry.Timestamp,
		})
	}

	return Result{
		Outcome:      OutcomeDispatched,
		CallID:       match.CallID,
		Quantity:     dispatched,
		CallResolved: resolved,
		DistanceM:    match.DistanceM,
	}, nil
}

// Station returns the current state of the named station for resource t.
func (c *Coordinator) Station(t model.ResourceType, key string) (model.Station, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tgt, ok := c.targets[t]
	if !ok {
		return model.Station{}, fmt.Errorf("%w: %s", ErrUnknownResource, t)
	}
	return tgt.Inventory.Get(key)
}

func (c *Coordinator) record(ev metrics.DispatchEvent) {
	if c.sink == nil {
		return
	}
	if err := c.sink.RecordDispatch([]metrics.DispatchEvent{ev}); err != nil {
		c.log.Errorf("metrics sink: %v", err)
	}
}
