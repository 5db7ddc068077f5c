package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metrics records retrieval operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one operation with its duration, cache outcome
	// and error status.
	RecordOperation(ctx context.Context, op Operation, duration time.Duration, cacheHit bool, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	hitCount     metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the retrieval instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"retrieval.ops.total",
		metric.WithDescription("Total number of retrieval operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"retrieval.ops.errors",
		metric.WithDescription("Total number of failed retrieval operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	hitCount, err := meter.Int64Counter(
		"retrieval.cache.hits",
		metric.WithDescription("Retrieval operations served from the result cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"retrieval.op.duration_ms",
		metric.WithDescription("Retrieval operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		hitCount:     hitCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, op Operation, duration time.Duration, cacheHit bool, err error) {
	opt := metric.WithAttributes(op.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	if cacheHit {
		m.hitCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// CacheGauge reports cache occupancy for observable gauges.
type CacheGauge func() (entries int, sizeBytes, maxBytes int64)

// RegisterCacheGauges exposes cache occupancy as observable gauges.
func RegisterCacheGauges(meter metric.Meter, gauge CacheGauge) error {
	entries, err := meter.Int64ObservableGauge(
		"retrieval.cache.entries",
		metric.WithDescription("Entries held by the result cache"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}
	size, err := meter.Int64ObservableGauge(
		"retrieval.cache.size_bytes",
		metric.WithDescription("Payload bytes held by the result cache"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}
	budget, err := meter.Int64ObservableGauge(
		"retrieval.cache.max_bytes",
		metric.WithDescription("Byte budget of the result cache"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		n, used, limit := gauge()
		o.ObserveInt64(entries, int64(n))
		o.ObserveInt64(size, used)
		o.ObserveInt64(budget, limit)
		return nil
	}, entries, size, budget)
	return err
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordOperation(context.Context, Operation, time.Duration, bool, error) {}
