package metrics

import (
	"time"

	"github.com/kilianp07/resq112/core/model"
)

// DispatchEvent represents one dispatch action to be recorded for
// observability purposes. Matched is false for actions that found no
// eligible call within radius.
type DispatchEvent struct {
	Type         model.ResourceType
	SourceCity   string
	SourceCounty string
	TargetCity   string
	TargetCounty string
	Quantity     int
	Matched      bool
	Timestamp    time.Time
}

// Sink records dispatch events.
type Sink interface {
	RecordDispatch(events []DispatchEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordDispatch([]DispatchEvent) error { return nil }
