package resilience

import (
	"context"
	"errors"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when an operation exceeds its time limit.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// isCanceled reports whether err comes from the caller giving up.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Transient reports whether err is worth retrying: any failure except caller
// cancellation and an open circuit.
func Transient(err error) bool {
	return err != nil && !isCanceled(err) && !errors.Is(err, ErrCircuitOpen)
}
