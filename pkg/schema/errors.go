package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError represents a single parameter validation failure.
type FieldError struct {
	Key    string // Parameter name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("parameter %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("parameter %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d problems: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// FieldErrors returns all field errors if err wraps an AggregateError.
// Otherwise returns nil.
func FieldErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
