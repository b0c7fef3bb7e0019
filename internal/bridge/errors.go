package bridge

import (
	"errors"
	"fmt"
)

// Transport-level errors for the bridge package.
var (
	// ErrUnexpectedStatus is returned when the bridge answers with a
	// non-200 HTTP status. The bridge API reports its own failures inside
	// 200 responses, so any other status means something in between broke.
	ErrUnexpectedStatus = errors.New("bridge: unexpected response status")

	// ErrUnexpectedResponse is returned when a response body does not
	// match the bridge's result protocol.
	ErrUnexpectedResponse = errors.New("bridge: unexpected response shape")
)

// Error is a command rejection reported by the bridge itself, carried
// inside an otherwise successful HTTP response. Operations failing with
// *Error are non-fatal to a restore run: the affected entity is skipped
// and the run continues.
type Error struct {
	// Type is the bridge's numeric error code.
	Type int `json:"type"`

	// Address is the resource path the error refers to.
	Address string `json:"address"`

	// Description is the bridge's human-readable message.
	Description string `json:"description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("bridge: error %d at %s: %s", e.Type, e.Address, e.Description)
}
