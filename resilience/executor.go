package resilience

import (
	"context"
	"time"
)

// Executor composes resilience patterns around an operation.
//
// The order, outermost first, is circuit breaker, retry, timeout: an open
// circuit fails fast without retries, and each attempt gets its own deadline.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor. With no options it runs
// operations unchanged.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds every attempt by d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(TimeoutConfig{Timeout: d}) }
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs op through the configured patterns.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	run := op

	if e.timeout != nil {
		inner := run
		run = func(ctx context.Context) error { return e.timeout.Execute(ctx, inner) }
	}
	if e.retry != nil {
		inner := run
		run = func(ctx context.Context) error { return e.retry.Execute(ctx, inner) }
	}
	if e.circuitBreaker != nil {
		inner := run
		run = func(ctx context.Context) error { return e.circuitBreaker.Execute(ctx, inner) }
	}

	return run(ctx)
}

// Do runs fn through e and returns its value from the last attempt.
func Do[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
