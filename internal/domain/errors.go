package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrNoCapacity             = errors.New("no seats available")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPaymentFailure         = errors.New("payment failure")
	ErrValidation             = errors.New("validation error")
	ErrAlreadyIssued          = errors.New("ticket already issued")
	ErrInvalidBookingState    = errors.New("invalid booking state")
	ErrTokenSpent             = errors.New("seat token already released")

	// ErrInvariantViolation marks internal consistency faults that need an operator.
	// Every error wrapping it is reported separately from customer-actionable errors.
	ErrInvariantViolation = errors.New("inventory invariant violation")
	ErrFlightQuarantined  = fmt.Errorf("flight quarantined: %w", ErrInvariantViolation)
	ErrSeatPoolExhausted  = fmt.Errorf("seat pool exhausted: %w", ErrInvariantViolation)
)

// ValidationError builds an ErrValidation with a message for the caller.
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TransitionError reports an illegal booking transition.
func TransitionError(from, to BookingStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from, to)
}
