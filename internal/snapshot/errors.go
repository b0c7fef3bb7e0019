package snapshot

import "errors"

// Domain errors for the snapshot package.
//
// All three are fatal: they indicate a snapshot that must not be applied to
// a bridge. Check with errors.Is().
var (
	// ErrDataFormat is returned when a snapshot file or record payload is
	// malformed (bad JSON, unknown scene type, missing required field).
	ErrDataFormat = errors.New("snapshot: malformed data")

	// ErrInvalidAddress is returned when a command, condition, or link
	// address does not match the bridge's address grammar or names an
	// unsupported resource class.
	ErrInvalidAddress = errors.New("snapshot: invalid address")

	// ErrUnresolvableReference is returned when an entity references a
	// (class, id) pair that does not exist in the same snapshot. This is a
	// capture-integrity error, not a restore-time condition.
	ErrUnresolvableReference = errors.New("snapshot: unresolvable reference")
)
