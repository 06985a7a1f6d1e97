package metrics

import coremetrics "github.com/kilianp07/resq112/core/metrics"

// MultiSink fans dispatch events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDispatch forwards the events to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordDispatch(events []coremetrics.DispatchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDispatch(events); err != nil {
			return err
		}
	}
	return nil
}
