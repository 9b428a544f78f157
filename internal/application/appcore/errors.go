package appcore

import (
	"errors"
	"fmt"
)

// Error taxonomy for the coordination core.
var (
	// ErrAggregateNotFound is returned when an aggregate has no events.
	ErrAggregateNotFound = errors.New("aggregate not found")

	// ErrConcurrencyConflict is returned when an append's expected version
	// does not match the stream's persisted version. Recoverable by
	// reload-and-retry; the store never retries on the caller's behalf.
	ErrConcurrencyConflict = errors.New("concurrency conflict detected")

	// ErrSnapshotNotFound is returned when no snapshot exists for an aggregate.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrHandlerNotFound is returned when a command has no registered handler.
	ErrHandlerNotFound = errors.New("no handler registered for command")
)

// BusinessRuleError is an expected domain failure (insufficient stock,
// inactive product). It drives the saga to Failed with a recorded reason
// instead of bubbling up as an infrastructure error.
type BusinessRuleError struct {
	Rule   string
	Reason string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %q violated: %s", e.Rule, e.Reason)
}

// NewBusinessRuleError creates a BusinessRuleError.
func NewBusinessRuleError(rule, reason string) error {
	return &BusinessRuleError{Rule: rule, Reason: reason}
}
