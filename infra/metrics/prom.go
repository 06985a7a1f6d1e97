package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/resq112/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	events     *prometheus.CounterVec
	quantities *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The metrics server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A
// nil registerer defaults to the global one; already-registered collectors
// are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_events_total",
		Help: "Total number of dispatch actions",
	}, []string{"resource_type", "matched"})
	quantities := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_quantity",
		Help:    "Units moved per dispatch action",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	}, []string{"resource_type"})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(quantities); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			quantities = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{events: events, quantities: quantities}, nil
}

// RecordDispatch increments the counters for each dispatch event.
func (s *PromSink) RecordDispatch(events []coremetrics.DispatchEvent) error {
	for _, ev := range events {
		s.events.WithLabelValues(ev.Type.String(), strconv.FormatBool(ev.Matched)).Inc()
		if ev.Matched {
			s.quantities.WithLabelValues(ev.Type.String()).Observe(float64(ev.Quantity))
		}
	}
	return nil
}
