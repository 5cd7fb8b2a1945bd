package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingDestination is returned when an entry point or route target cannot be resolved.
	ErrMissingDestination = errors.New("missing destination")

	// ErrMissingOrigin is returned by loopback when the current entry has no origin.
	ErrMissingOrigin = errors.New("missing origin")

	// ErrNoOpenRoute is the sentinel wrapped by NoOpenRouteError.
	ErrNoOpenRoute = errors.New("no open route")

	// ErrAmbiguousRoute is returned in strict mode when more than one Path is open for one origin.
	ErrAmbiguousRoute = errors.New("ambiguous route")

	// ErrDuplicateAdvance marks a submission against an entry that already has a result.
	ErrDuplicateAdvance = errors.New("entry already resolved")

	// ErrEntryClosed is returned by stores when a result is written to a closed entry.
	ErrEntryClosed = errors.New("entry closed")

	// ErrBranchingLog is returned by stores when a second entry claims the same prev.
	ErrBranchingLog = errors.New("log entry already has a successor")

	// ErrNotInstalled is returned when a World has no initial entry.
	ErrNotInstalled = errors.New("world not installed")

	// ErrInvalidOutcome is returned for malformed route submissions.
	ErrInvalidOutcome = errors.New("invalid route outcome")

	// ErrUnsupportedExpression marks {...} spans outside the supported grammar.
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

// StoreError is a persistence failure. It is propagated unchanged by the runtime.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// GraphIntegrityError reports a dangling reference in the story graph.
// It halts the current navigation step.
type GraphIntegrityError struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *GraphIntegrityError) Error() string {
	return fmt.Sprintf("graph integrity: %s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *GraphIntegrityError) Unwrap() error { return e.Err }

// NoOpenRouteError is returned when no Path can be traversed from an origin.
// It is not fatal: loopback and restart stay available.
type NoOpenRouteError struct {
	OriginID string
}

func (e *NoOpenRouteError) Error() string {
	return fmt.Sprintf("no open route from %q", e.OriginID)
}

func (e *NoOpenRouteError) Unwrap() error { return ErrNoOpenRoute }

// ExpressionError is a failed {...} span. It never leaves the renderer: the span renders
// as the error sentinel and the rest of the passage is unaffected.
type ExpressionError struct {
	Source string
	Err    error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression {%s}: %v", e.Source, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }
