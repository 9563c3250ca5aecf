package checkout

import (
	"errors"
	"fmt"
)

// ErrCredentialMismatch is surfaced when a supplied credential does not
// verify against the resolved identity. The session stays in place for
// retry; there is no lockout.
var ErrCredentialMismatch = errors.New("credential does not match")

// ErrInvalidTransition is surfaced when an event is applied in a state
// that does not accept it.
var ErrInvalidTransition = errors.New("event not valid in current state")

// ValidationError is a local, deterministic, recoverable failure tied to
// a specific field. The session is never mutated when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CollaboratorError wraps a failure from an external collaborator. All
// collaborator failures are retryable and leave the session untouched.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
