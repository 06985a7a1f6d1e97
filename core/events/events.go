// Package events defines the engine events emitted on the event bus.
// Presentation layers and metrics collectors subscribe read-only; nothing in
// the engine depends on a subscriber being present.
package events

import (
	"time"

	"github.com/kilianp07/resq112/core/model"
)

// DispatchEvent is published after one dispatch action runs to completion,
// whether or not a call was matched.
type DispatchEvent struct {
	Type          model.ResourceType
	SourceStation string
	CallID        string
	Quantity      int
	Matched       bool
	CallResolved  bool
	Timestamp     time.Time
}

// IngestEvent is published when a feed call is accepted into the active set.
type IngestEvent struct {
	CallID     string
	City       string
	County     string
	ReceivedAt time.Time
}

// FeedExhaustedEvent is published once when the feed signals permanent
// exhaustion and polling stops for the session.
type FeedExhaustedEvent struct {
	At time.Time
}
