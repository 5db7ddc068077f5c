package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout bounds a single attempt.
	// Default: 3 seconds
	Timeout time.Duration
}

// Timeout bounds operations with a deadline.
//
// The operation runs on the caller's goroutine and must honor ctx; the
// deadline is delivered through it. Results captured by op are therefore
// never written after Execute returns.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op with the configured deadline. Exceeding this deadline
// yields ErrTimeout; a deadline inherited from the caller is returned as is.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
