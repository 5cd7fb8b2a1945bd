package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one variable whose value does not fit its declared type.
type ValidationError struct {
	Key    string // variable id
	Reason string
	Value  string // offending value, or the declared type for declaration errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("variable %q: %s", e.Key, e.Reason)
}

// AggregateError carries every failure of one validation pass.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns the failures carried by err, or nil when err is not an AggregateError.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
