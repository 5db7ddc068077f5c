package observe

import (
	"context"
	"io"
	"testing"
	"time"
)

func BenchmarkLogger_Info(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info(ctx, "operation completed", F("cache_key", "comments-paginated:entityId:1"), F("duration_ms", 1.2))
	}
}

func BenchmarkLogger_LevelFiltered(b *testing.B) {
	logger := NewLoggerWithWriter("error", io.Discard)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug(ctx, "dropped", F("k", "v"))
	}
}

func BenchmarkMetrics_RecordOperation(b *testing.B) {
	tm := newTelemetry(b)
	ctx := context.Background()
	op := Operation{Name: "get_paginated", Namespace: "comments-paginated"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tm.metric.RecordOperation(ctx, op, time.Millisecond, i%2 == 0, nil)
	}
}

func BenchmarkMiddleware_Run(b *testing.B) {
	tm := newTelemetry(b)
	mw := NewMiddleware(tm.tracer, tm.metric, NewLoggerWithWriter("info", io.Discard))
	ctx := context.Background()
	op := Operation{Name: "get_paginated"}
	fn := func(context.Context) (Outcome, error) { return Outcome{CacheHit: true}, nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mw.Run(ctx, op, fn)
	}
}
