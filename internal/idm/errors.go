package idm

import (
	"errors"
	"fmt"
)

// ErrServiceFailure is returned for any non-2xx response from the IDM core.
// Finalize steps must abort on it without mutating local records.
var ErrServiceFailure = errors.New("identity service failure")

// StatusError wraps ErrServiceFailure with the offending call and status.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("idm: %s returned status %d", e.Op, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrServiceFailure }
