// Package apperr holds the error types every externally reachable
// operation reports to its caller.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a bad colour, a coordinate that is
// not an integer, a payload of the wrong shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// BoundsError reports a pixel index outside the strip.
type BoundsError struct {
	Index int
	Limit int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("pixel %d out of bounds (strip has %d pixels)", e.Index, e.Limit)
}

// IsInput reports whether err was caused by the caller's input rather than by
// the engine, i.e. whether it is a ValidationError or a BoundsError.
func IsInput(err error) bool {
	var ve *ValidationError
	var be *BoundsError
	return errors.As(err, &ve) || errors.As(err, &be)
}

// NotFoundError reports a named resource, such as a sound file, that does
// not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NotFound builds a NotFoundError.
func NotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
