package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Timeout bounds one round of checks.
	// Default: 5 seconds
	Timeout time.Duration

	// Clock replaces time.Now.
	Clock func() time.Time
}

// Report is the outcome of one round of checks.
type Report struct {
	Status  Status
	Checks  map[string]Result
	Checked time.Time
}

// Aggregator runs registered checkers and combines their results.
//
// Contract:
//   - Concurrency: safe for concurrent use; Register may race with Run.
//   - Timeouts: a checker that misses the deadline is reported unhealthy with
//     ErrCheckTimeout; Run never waits past the deadline.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an Aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Aggregator{config: config, checkers: make(map[string]Checker)}
}

// Register adds checkers under their names, replacing any with the same name.
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range checkers {
		if _, ok := a.checkers[c.Name()]; !ok {
			a.order = append(a.order, c.Name())
		}
		a.checkers[c.Name()] = c
	}
}

// Names returns checker names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...)
}

// Check runs the checker registered as name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	c, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.run(ctx, c), nil
}

// Run executes every checker concurrently and returns the combined report.
// With no checkers the service is healthy.
func (a *Aggregator) Run(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.order))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = a.run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:  StatusHealthy,
		Checks:  make(map[string]Result, len(checkers)),
		Checked: a.config.Clock(),
	}
	for i, c := range checkers {
		report.Checks[c.Name()] = results[i]
		report.Status = max(report.Status, results[i].Status)
	}
	return report
}

// run executes c, giving up when ctx is done. An abandoned check finishes in
// the background and its result is dropped.
func (a *Aggregator) run(ctx context.Context, c Checker) Result {
	start := a.config.Clock()
	done := make(chan Result, 1)

	go func() { done <- c.Check(ctx) }()

	var r Result
	select {
	case r = <-done:
	case <-ctx.Done():
		r = Unhealthy("check timed out", ErrCheckTimeout)
	}

	r.Checked = start
	r.Duration = a.config.Clock().Sub(start)
	return r
}
