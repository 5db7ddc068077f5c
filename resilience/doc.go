// Package resilience guards calls to the durable comment store.
//
// It provides a circuit breaker, retry with backoff and a per-call timeout,
// composed by an Executor, and a Store decorator that runs every store call
// through an Executor:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: 30 * time.Second,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(3*time.Second),
//	)
//	store := resilience.NewStore(mongoStore, exec)
//
// Caller cancellation is never retried and never counts against the breaker.
package resilience
