// Package ingest pulls candidate calls from the external feed on a fixed
// interval and merges the valid ones into the active call set.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/resq112/core/callset"
	"github.com/kilianp07/resq112/core/events"
	"github.com/kilianp07/resq112/core/logger"
	"github.com/kilianp07/resq112/core/model"
	"github.com/kilianp07/resq112/internal/eventbus"
)

// ErrFeedExhausted signals that the feed has no further calls for the
// session. It is terminal: polling stops and only an external restart
// resumes it.
var ErrFeedExhausted = errors.New("emergency feed exhausted")

// DefaultPollInterval matches the upstream feed refresh cadence.
const DefaultPollInterval = 10 * time.Second

// Fetcher retrieves a batch of candidate calls from the external feed.
// Implementations return ErrFeedExhausted when the feed signals permanent
// exhaustion.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.RawCall, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]model.RawCall, error)

func (f FetcherFunc) Fetch(ctx context.Context) ([]model.RawCall, error) { return f(ctx) }

// FallbackCall returns the synthetic call seeded when a feed fetch fails
// while the active set is empty. It keeps the rest of the system exercisable
// in degraded mode; it is not a production guarantee.
func FallbackCall() model.RawCall {
	return model.RawCall{
		City:      "Brasov",
		County:    "Brasov",
		Latitude:  45.6427,
		Longitude: 25.5887,
		Requests: []model.Request{
			{Type: "Medical", Quantity: 3},
			{Type: "Police", Quantity: 2},
			{Type: "Fire", Quantity: 1},
			{Type: "Rescue", Quantity: 1},
			{Type: "Utility", Quantity: 1},
		},
	}
}

// Pipeline polls the feed and ingests valid calls into the call set.
type Pipeline struct {
	fetcher  Fetcher
	calls    *callset.CallSet
	log      logger.Logger
	bus      eventbus.EventBus
	interval time.Duration

	stopOnce sync.Once
	stopped  chan struct{}
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithInterval overrides the default 10 s poll interval.
func WithInterval(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.interval = d }
}

// WithEventBus publishes ingest and exhaustion events on the given bus.
func WithEventBus(bus eventbus.EventBus) PipelineOption {
	return func(p *Pipeline) { p.bus = bus }
}

// NewPipeline creates a Pipeline over the given fetcher and call set.
func NewPipeline(fetcher Fetcher, calls *callset.CallSet, log logger.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		calls:    calls,
		log:      log,
		interval: DefaultPollInterval,
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOnce performs a single fetch-filter-ingest cycle and returns the number
// of calls accepted. ErrFeedExhausted is propagated so callers stop polling.
// Any other fetch error leaves the active set unchanged, except that an
// empty set is seeded with the fallback call.
func (p *Pipeline) RunOnce(ctx context.Context) (int, error) {
	batch, err := p.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrFeedExhausted) {
			return 0, err
		}
		p.log.Errorf("feed fetch: %v", err)
		if p.calls.Len() == 0 {
			p.log.Warnf("active set empty after fetch failure, seeding fallback call")
			if id, ierr := p.calls.Ingest(FallbackCall()); ierr == nil {
				p.publishIngest(id)
				return 1, nil
			}
		}
		return 0, nil
	}

	accepted := 0
	for _, raw := range batch {
		id, err := p.calls.Ingest(raw)
		if err != nil {
			p.log.Debugf("call dropped: %v", err)
			continue
		}
		p.log.Infof("ingested call %s for %s, %s", id, raw.City, raw.County)
		p.publishIngest(id)
		accepted++
	}
	return accepted, nil
}

// Run polls the feed until the context is canceled, Stop is called, or the
// feed signals exhaustion. One cycle runs immediately on start.
func (p *Pipeline) Run(ctx context.Context) {
	if _, err := p.RunOnce(ctx); errors.Is(err, ErrFeedExhausted) {
		p.exhausted()
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopped:
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); errors.Is(err, ErrFeedExhausted) {
				p.exhausted()
				return
			}
		}
	}
}

// Stop ends the polling loop. Safe to call multiple times and after the loop
// has already exited.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

func (p *Pipeline) exhausted() {
	p.log.Infof("feed exhausted, polling stopped for this session")
	if p.bus != nil {
		p.bus.Publish(events.FeedExhaustedEvent{At: time.Now()})
	}
	p.Stop()
}

func (p *Pipeline) publishIngest(id string) {
	if p.bus == nil {
		return
	}
	if c, err := p.calls.Get(id); err == nil {
		p.bus.Publish(events.IngestEvent{CallID: id, City: c.City, County: c.County, ReceivedAt: c.ReceivedAt})
	}
}
