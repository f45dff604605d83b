package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned by the congestion scorer when invoked on zero
// readings. Callers are expected to branch on empty correlation results
// instead of relying on this error for control flow.
var ErrEmptyInput = errors.New("no readings to score")

// ErrNotFound marks a referenced entity or incident that does not exist
var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed required input. It is never
// retried and is surfaced to the caller verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// MissingField is the common case of a required field left unset
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required field is missing"}
}

// UpstreamError wraps a collaborator store failure so HTTP callers can map
// it to a 5xx. The core never retries these.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError, or passes nil through
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}
