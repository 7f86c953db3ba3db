package auth

import (
	"errors"
	"fmt"
)

// ErrCallbackTimeout is returned when no authorization redirect arrives
// before the configured deadline, typically because the user closed the
// browser tab without authorizing.
var ErrCallbackTimeout = errors.New("timed out waiting for authorization callback")

// CallbackError is returned when the provider redirected back without a
// usable authorization code.
type CallbackError struct {
	// Reason is the provider-supplied error parameter when present,
	// otherwise a description of what was missing.
	Reason string
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("authorization callback rejected: %s", e.Reason)
}
