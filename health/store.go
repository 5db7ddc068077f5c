package health

import (
	"context"

	"github.com/threadkit/threadcache/comment"
	"github.com/threadkit/threadcache/resilience"
)

// StoreChecker reports durable store reachability.
//
// With a breaker configured, an open circuit is reported as unhealthy
// without pinging, and a half-open circuit as degraded.
type StoreChecker struct {
	store   comment.Pinger
	breaker *resilience.CircuitBreaker
}

// NewStoreChecker checks store. breaker may be nil.
func NewStoreChecker(store comment.Pinger, breaker *resilience.CircuitBreaker) *StoreChecker {
	return &StoreChecker{store: store, breaker: breaker}
}

// Name implements Checker.
func (c *StoreChecker) Name() string { return "store" }

// Check implements Checker.
func (c *StoreChecker) Check(ctx context.Context) Result {
	details := map[string]any{}
	state := resilience.StateClosed
	if c.breaker != nil {
		snap := c.breaker.Snapshot()
		state = snap.State
		details["circuit"] = state.String()
		details["failures"] = snap.Failures
		if state == resilience.StateOpen {
			details["opened_at"] = snap.OpenedAt
			return Unhealthy("store calls are being refused", ErrCircuitOpen).With(details)
		}
	}

	if err := c.store.Ping(ctx); err != nil {
		return Unhealthy("store unreachable", err).With(details)
	}
	if state == resilience.StateHalfOpen {
		return Degraded("store recovering", nil).With(details)
	}
	return Healthy("store reachable").With(details)
}

var _ Checker = (*StoreChecker)(nil)
