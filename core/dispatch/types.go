package dispatch

import (
	"context"
	"errors"

	"github.com/kilianp07/resq112/core/model"
)

var (
	// ErrUnknownResource is returned for a resource type with no configured
	// inventory and audit sink.
	ErrUnknownResource = errors.New("no dispatch target configured for resource type")
)

// Outcome classifies how a dispatch action ended.
type Outcome int

const (
	// OutcomeDispatched means inventory and call needs were both updated.
	OutcomeDispatched Outcome = iota
	// OutcomeDeclined means the confirmation gate rejected the action.
	OutcomeDeclined
	// OutcomeNoMatch means no eligible call was found within radius.
	OutcomeNoMatch
	// OutcomeNoInventory means the dispatchable quantity was zero.
	OutcomeNoInventory
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeDeclined:
		return "declined"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeNoInventory:
		return "no_inventory"
	default:
		return "unknown"
	}
}

// Result reports what one dispatch action did. No state is mutated unless
// Outcome is OutcomeDispatched.
type Result struct {
	Outcome      Outcome
	CallID       string
	Quantity     int
	CallResolved bool
	DistanceM    float64
}

// Action describes a pending dispatch action presented to the confirmation
// gate before anything commits.
type Action struct {
	Type    model.ResourceType
	Station model.Station
	Target  model.Coordinate
}

// ConfirmationGate approves or declines a dispatch action before it commits.
// Policy is the integrator's concern; the engine only requires a boolean
// answer.
type ConfirmationGate interface {
	Confirm(ctx context.Context, action Action) bool
}

// GateFunc adapts a function to the ConfirmationGate interface.
type GateFunc func(ctx context.Context, action Action) bool

func (f GateFunc) Confirm(ctx context.Context, action Action) bool { return f(ctx, action) }

// AutoApprove is a ConfirmationGate that approves every action.
type AutoApprove struct{}

func (AutoApprove) Confirm(context.Context, Action) bool { return true }

// AuditSink receives the append-only dispatch log.
type AuditSink interface {
	Record(ctx context.Context, entry model.DispatchLogEntry) error
}

// RegistrySync propagates a post-dispatch call state to the external call
// registry. Failures are logged, never retried by the coordinator, and never
// rolled back: the next feed poll converges observers.
type RegistrySync interface {
	SyncCall(ctx context.Context, call *model.EmergencyCall) error
}

// NopSync implements RegistrySync with a no-op.
type NopSync struct{}

func (NopSync) SyncCall(context.Context, *model.EmergencyCall) error { return nil }

// MultiSink fans audit entries out to several sinks, returning the first
// error encountered after attempting all of them.
type MultiSink []AuditSink

func (m MultiSink) Record(ctx context.Context, entry model.DispatchLogEntry) error {
	var first error
	for _, s := range m {
		if err := s.Record(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
