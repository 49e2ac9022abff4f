package earlystop

import "errors"

// ErrNoParams is returned by Open when the tracked parameter set is empty.
var ErrNoParams = errors.New("tracked parameters must not be empty")

// ErrClosed is returned when a controller is updated or closed after Close
// already ran.
var ErrClosed = errors.New("early stopping scope already closed")

// ResolveError wraps a failure to reduce a metric value to a scalar.
// Use errors.As to recover it from a wrapped chain.
type ResolveError struct {
	Err error
}

func (e *ResolveError) Error() string {
	return "failed to resolve metric: " + e.Err.Error()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
