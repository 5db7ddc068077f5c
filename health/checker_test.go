package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/resilience"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestStatus_String(t *testing.T) {
	tests := map[Status]string{
		StatusHealthy:   "healthy",
		StatusDegraded:  "degraded",
		StatusUnhealthy: "unhealthy",
		Status(9):       "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestResult_WithMerges(t *testing.T) {
	r := Healthy("ok").With(map[string]any{"a": 1}).With(map[string]any{"b": 2})
	if len(r.Details) != 2 {
		t.Errorf("Details = %v, want two keys", r.Details)
	}
}

func TestStoreChecker(t *testing.T) {
	pingErr := errors.New("no route to host")

	tests := []struct {
		name    string
		pinger  fakePinger
		breaker func() *resilience.CircuitBreaker
		want    Status
		wantErr error
	}{
		{"reachable", fakePinger{}, nil, StatusHealthy, nil},
		{"unreachable", fakePinger{err: pingErr}, nil, StatusUnhealthy, pingErr},
		{"circuit closed", fakePinger{}, func() *resilience.CircuitBreaker {
			return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
		}, StatusHealthy, nil},
		{"circuit open", fakePinger{}, func() *resilience.CircuitBreaker {
			cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
			_ = cb.Execute(context.Background(), func(context.Context) error { return pingErr })
			return cb
		}, StatusUnhealthy, ErrCircuitOpen},
		{"circuit half-open", fakePinger{}, func() *resilience.CircuitBreaker {
			now := time.Now()
			cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
				MaxFailures:  1,
				ResetTimeout: time.Minute,
				Clock:        func() time.Time { return now },
			})
			_ = cb.Execute(context.Background(), func(context.Context) error { return pingErr })
			now = now.Add(time.Minute)
			return cb
		}, StatusDegraded, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cb *resilience.CircuitBreaker
			if tt.breaker != nil {
				cb = tt.breaker()
			}
			got := NewStoreChecker(tt.pinger, cb).Check(context.Background())
			if got.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", got.Status, tt.want, got.Message)
			}
			if !errors.Is(got.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", got.Err, tt.wantErr)
			}
		})
	}
}

func TestCacheChecker(t *testing.T) {
	tests := []struct {
		name    string
		stats   cache.Stats
		want    Status
		wantErr error
	}{
		{"unbounded", cache.Stats{Entries: 3, TotalSizeBytes: 900}, StatusHealthy, nil},
		{"low usage", cache.Stats{TotalSizeBytes: 100, MaxSizeBytes: 1000}, StatusHealthy, nil},
		{"just below warning", cache.Stats{TotalSizeBytes: 899, MaxSizeBytes: 1000}, StatusHealthy, nil},
		{"at warning", cache.Stats{TotalSizeBytes: 900, MaxSizeBytes: 1000}, StatusDegraded, nil},
		{"full", cache.Stats{TotalSizeBytes: 1000, MaxSizeBytes: 1000}, StatusDegraded, ErrBudgetExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCacheChecker(func() cache.Stats { return tt.stats }, 0)
			got := c.Check(context.Background())
			if got.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", got.Status, tt.want, got.Message)
			}
			if !errors.Is(got.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", got.Err, tt.wantErr)
			}
			if got.Details["max_size_bytes"] != tt.stats.MaxSizeBytes {
				t.Errorf("Details = %v", got.Details)
			}
		})
	}
}

func TestCacheChecker_LiveCache(t *testing.T) {
	mc := cache.NewMemoryCache(cache.Policy{DefaultTTL: time.Minute, MaxBytes: 100})
	c := NewCacheChecker(mc.Stats, 0.5)

	if got := c.Check(context.Background()).Status; got != StatusHealthy {
		t.Fatalf("empty cache Status = %v", got)
	}

	if err := mc.Set(context.Background(), "k", make([]byte, 60), time.Minute); err != nil {
		t.Fatal(err)
	}
	if got := c.Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("Status = %v, want degraded above warning", got)
	}
}
