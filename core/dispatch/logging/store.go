// Package logging persists the local copy of the dispatch audit log. The
// remote per-type log sink owns the authoritative record; the local store
// exists so operators can query recent dispatch history without the remote
// service.
package logging

import (
	"context"
	"time"

	"github.com/kilianp07/resq112/core/model"
)

// Query defines filters for retrieving audit entries. Zero values match
// everything.
type Query struct {
	Start      time.Time
	End        time.Time
	Type       string // resource type name, case-insensitive
	SourceCity string
	TargetCity string
}

// matches reports whether the entry passes every filter in q.
func (q Query) matches(e model.DispatchLogEntry) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.Type != "" {
		t, ok := model.ResourceTypeFromString(q.Type)
		if !ok || e.Type != t {
			return false
		}
	}
	if q.SourceCity != "" && e.SourceCity != q.SourceCity {
		return false
	}
	if q.TargetCity != "" && e.TargetCity != q.TargetCity {
		return false
	}
	return true
}

// Store persists dispatch log entries and supports querying.
type Store interface {
	Append(ctx context.Context, entry model.DispatchLogEntry) error
	Query(ctx context.Context, q Query) ([]model.DispatchLogEntry, error)
	Close() error
}

// Sink adapts a Store to the coordinator's audit sink interface.
type Sink struct {
	Store Store
}

// Record appends the entry to the underlying store.
func (s Sink) Record(ctx context.Context, entry model.DispatchLogEntry) error {
	return s.Store.Append(ctx, entry)
}
