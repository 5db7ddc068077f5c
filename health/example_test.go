package health_test

import (
	"context"
	"fmt"
	"time"

	"github.com/threadkit/threadcache/cache"
	"github.com/threadkit/threadcache/health"
	"github.com/threadkit/threadcache/store/memstore"
)

func ExampleAggregator_Run() {
	mc := cache.NewMemoryCache(cache.Policy{DefaultTTL: time.Minute, MaxBytes: 10})
	_ = mc.Set(context.Background(), "page", []byte("123456789"), time.Minute)

	agg := health.NewAggregator(health.AggregatorConfig{})
	agg.Register(
		health.NewStoreChecker(memstore.New(), nil),
		health.NewCacheChecker(mc.Stats, 0),
	)

	report := agg.Run(context.Background())
	fmt.Println(report.Status)
	fmt.Println(report.Checks["store"].Status, report.Checks["cache"].Message)
	// Output:
	// degraded
	// healthy cache at 90.0% of budget
}
