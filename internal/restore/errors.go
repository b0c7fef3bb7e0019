package restore

import "fmt"

// ReasonKind classifies why an entity was left out of a restore run.
// These are per-entity conditions, never fatal to the run.
type ReasonKind int

const (
	// ReasonDeviceNotPaired: the physical device behind this entity's
	// unique id is not paired on the destination bridge yet.
	ReasonDeviceNotPaired ReasonKind = iota

	// ReasonCycle: the entity sits on a reference cycle. The operator
	// must break the cycle and re-run.
	ReasonCycle

	// ReasonBlocked: a dependency of this entity was itself skipped,
	// failed, or is otherwise unavailable on the destination.
	ReasonBlocked

	// ReasonTypeMismatch: the destination holds an entity with the same
	// identity but an incompatible type; overwriting it would be unsafe.
	ReasonTypeMismatch

	// ReasonNoLights: none of the member lights resolve on the
	// destination, so creating the entity would leave it controlling
	// nothing.
	ReasonNoLights

	// ReasonCommandFailed: the destination bridge rejected the operation.
	ReasonCommandFailed

	// ReasonIncomplete: the snapshot record lacks data required for
	// restoring this entity (e.g. a scene without stored light states).
	ReasonIncomplete
)

func (k ReasonKind) String() string {
	switch k {
	case ReasonDeviceNotPaired:
		return "device not paired"
	case ReasonCycle:
		return "cyclic dependency"
	case ReasonBlocked:
		return "blocked dependency"
	case ReasonTypeMismatch:
		return "type mismatch"
	case ReasonNoLights:
		return "no lights on destination"
	case ReasonCommandFailed:
		return "bridge rejected command"
	case ReasonIncomplete:
		return "incomplete snapshot record"
	default:
		return "unknown"
	}
}

// SkipReason explains why one entity was skipped, in terms an operator
// can act on.
type SkipReason struct {
	Kind   ReasonKind
	Detail string
}

func (r SkipReason) String() string {
	if r.Detail == "" {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
}
