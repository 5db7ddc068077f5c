package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without reaching the store.
	StateOpen
	// StateHalfOpen means a limited number of trial calls are allowed.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of concurrent trial calls allowed.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called on every transition, under the breaker's lock.
	OnStateChange func(from, to State)

	// IsFailure decides whether err counts against the circuit.
	// Default: any error except caller cancellation.
	IsFailure func(err error) bool

	// Clock replaces time.Now.
	Clock func() time.Time
}

// CircuitBreaker stops calling a failing dependency until it recovers.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	halfOpenCount int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil && !isCanceled(err) }
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
	cb.failures = 0
}

// Snapshot is a point-in-time view of the breaker.
type Snapshot struct {
	State    State
	Failures int
	OpenedAt time.Time
}

// Snapshot returns the breaker's current state and counters.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Snapshot{State: cb.stateLocked(), Failures: cb.failures, OpenedAt: cb.openedAt}
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.halfOpenCount++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.openLocked()
		}

	case StateHalfOpen:
		if failed {
			cb.openLocked()
			return
		}
		if err == nil {
			cb.transitionLocked(StateClosed)
			cb.failures = 0
			return
		}
		// A non-failure error (cancellation) says nothing about recovery.
		cb.halfOpenCount--
	}
}

func (cb *CircuitBreaker) openLocked() {
	cb.openedAt = cb.config.Clock()
	cb.transitionLocked(StateOpen)
}

// stateLocked moves an open circuit to half-open once ResetTimeout elapsed.
func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && cb.config.Clock().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	cb.state = to
	if to == StateHalfOpen {
		cb.halfOpenCount = 0
	}
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
