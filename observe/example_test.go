package observe_test

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/threadkit/threadcache/observe"
)

func ExampleNewObserver() {
	obs, err := observe.NewObserver(context.Background(), observe.Config{
		ServiceName: "threadcache",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer obs.Shutdown(context.Background())

	fmt.Println(obs.Tracer() != nil, obs.Meter() != nil)
	// Output:
	// true true
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "threadcache",
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "statsd"},
	}
	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidMetricsExporter))
	// Output:
	// true
}

func ExampleOperation_SpanName() {
	op := observe.Operation{Name: "get_paginated", Namespace: "comments-paginated"}
	fmt.Println(op.SpanName())
	// Output:
	// retrieval.get_paginated
}

func ExampleMiddleware_Run() {
	mw := observe.NewMiddleware(nil, nil, observe.NopLogger())

	err := mw.Run(context.Background(), observe.Operation{Name: "search"}, func(ctx context.Context) (observe.Outcome, error) {
		return observe.Outcome{CacheHit: true}, nil
	})
	fmt.Println(err)
	// Output:
	// <nil>
}

func ExampleNewLoggerWithWriter() {
	logger := observe.NewLoggerWithWriter("warn", os.Stdout)

	// Below the configured level: dropped.
	logger.Info(context.Background(), "not shown")

	fmt.Println(observe.ParseLogLevel("warn"))
	// Output:
	// warn
}
