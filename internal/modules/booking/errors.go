// README: Booking error taxonomy; terminal vs retryable kinds.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
)

// ValidationError reports every violated rule of a booking request, not just
// the first, so the caller can fix all of them in one pass. Terminal.
type ValidationError struct {
	Violations []string
}

func (e ValidationError) Error() string {
	return "invalid booking request: " + strings.Join(e.Violations, "; ")
}

// InsufficientSeatsError names the actual remaining count so the caller can
// adjust rather than receive a bare rejection. Terminal.
type InsufficientSeatsError struct {
	Requested int
	Remaining int
}

func (e InsufficientSeatsError) Error() string {
	return fmt.Sprintf("only %d seat(s) available, %d requested", e.Remaining, e.Requested)
}

// ConflictError means the conditional seat decrement lost an optimistic race
// with a concurrent booking. Retryable: the caller should re-fetch the trip
// and re-attempt with fresh data. Remaining is a best-effort re-read taken
// after the loss; -1 when it could not be determined.
type ConflictError struct {
	Remaining int
}

func (e ConflictError) Error() string {
	if e.Remaining < 0 {
		return "seat availability changed, please re-fetch the trip and retry"
	}
	return fmt.Sprintf("seat availability changed, only %d seat(s) now available; please retry", e.Remaining)
}

// PersistenceError wraps an underlying store failure. Terminal.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("booking store %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may safely re-attempt with fresh data.
func Retryable(err error) bool {
	var conflict ConflictError
	return errors.As(err, &conflict)
}
