package health

import (
	"context"
	"fmt"

	"github.com/threadkit/threadcache/cache"
)

// DefaultCacheWarning is the budget share at which the cache reports degraded.
const DefaultCacheWarning = 0.9

// CacheChecker reports result-cache occupancy against its byte budget.
//
// A full cache still serves requests; eviction keeps it within budget. High
// occupancy is therefore degraded, never unhealthy.
type CacheChecker struct {
	stats   func() cache.Stats
	warning float64
}

// NewCacheChecker reads occupancy from stats. A warning outside (0, 1]
// means DefaultCacheWarning.
func NewCacheChecker(stats func() cache.Stats, warning float64) *CacheChecker {
	if warning <= 0 || warning > 1 {
		warning = DefaultCacheWarning
	}
	return &CacheChecker{stats: stats, warning: warning}
}

// Name implements Checker.
func (c *CacheChecker) Name() string { return "cache" }

// Check implements Checker.
func (c *CacheChecker) Check(context.Context) Result {
	s := c.stats()
	details := map[string]any{
		"entries":        s.Entries,
		"size_bytes":     s.TotalSizeBytes,
		"max_size_bytes": s.MaxSizeBytes,
	}

	if s.MaxSizeBytes <= 0 {
		return Healthy("cache unbounded").With(details)
	}

	usage := float64(s.TotalSizeBytes) / float64(s.MaxSizeBytes)
	details["usage_percent"] = usage * 100

	msg := fmt.Sprintf("cache at %.1f%% of budget", usage*100)
	if usage >= c.warning {
		var err error
		if usage >= 1 {
			err = ErrBudgetExhausted
		}
		return Degraded(msg, err).With(details)
	}
	return Healthy(msg).With(details)
}

var _ Checker = (*CacheChecker)(nil)
