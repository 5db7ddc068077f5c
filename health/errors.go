package health

import "errors"

var (
	// ErrCheckTimeout is reported for a checker that missed the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCircuitOpen is reported when calls to a dependency are being refused.
	ErrCircuitOpen = errors.New("health: circuit open")

	// ErrBudgetExhausted is reported when the cache is at its byte budget.
	ErrBudgetExhausted = errors.New("health: cache budget exhausted")
)
