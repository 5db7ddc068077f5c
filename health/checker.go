package health

import (
	"context"
	"time"
)

// Status is the health of one component or of the whole service.
// Larger values are worse.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of one check.
type Result struct {
	Status   Status
	Message  string
	Details  map[string]any
	Duration time.Duration
	Checked  time.Time
	Err      error
}

// Healthy returns a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded returns a degraded result. err may be nil.
func Degraded(message string, err error) Result {
	return Result{Status: StatusDegraded, Message: message, Err: err}
}

// Unhealthy returns an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Err: err}
}

// With returns r with details merged in.
func (r Result) With(details map[string]any) Result {
	if r.Details == nil {
		r.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		r.Details[k] = v
	}
	return r
}

// Checker inspects one dependency.
//
// Contract:
//   - Concurrency: Check may be called concurrently.
//   - Context: Check must return promptly once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckFunc returns a Checker named name that runs fn.
func NewCheckFunc(name string, fn func(context.Context) Result) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name implements Checker.
func (c *CheckFunc) Name() string { return c.name }

// Check implements Checker.
func (c *CheckFunc) Check(ctx context.Context) Result { return c.fn(ctx) }
