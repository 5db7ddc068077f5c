package observe

import (
	"context"
	"time"
)

// Outcome describes how an operation completed.
type Outcome struct {
	// CacheHit is true when the result came from the cache.
	CacheHit bool

	// Fields are added to the operation's log line, on success and failure.
	Fields []Field
}

// OpFunc is the signature of an instrumented operation.
type OpFunc func(ctx context.Context, op Operation) (Outcome, error)

// Middleware wraps operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a thread-safe OpFunc.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger, now: time.Now}
}

// NopMiddleware returns a Middleware that only runs the wrapped function.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps fn with tracing, metrics and logging.
//
// Successful operations log at debug; failures log at error with the
// underlying cause in the "error" field.
func (m *Middleware) Wrap(fn OpFunc) OpFunc {
	return func(ctx context.Context, op Operation) (Outcome, error) {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := m.now()

		out, err := fn(ctx, op)

		duration := m.now().Sub(start)
		m.tracer.EndSpan(span, out.CacheHit, err)
		m.metrics.RecordOperation(ctx, op, duration, out.CacheHit, err)

		fields := append(op.fields(),
			F("duration_ms", float64(duration.Microseconds())/1000),
			F("cache_hit", out.CacheHit),
		)
		fields = append(fields, out.Fields...)

		if err != nil {
			m.logger.Error(ctx, "operation failed", append(fields, Err(err))...)
		} else {
			m.logger.Debug(ctx, "operation completed", fields...)
		}
		return out, err
	}
}

// Run executes fn for op through the middleware.
func (m *Middleware) Run(ctx context.Context, op Operation, fn func(ctx context.Context) (Outcome, error)) error {
	_, err := m.Wrap(func(ctx context.Context, _ Operation) (Outcome, error) {
		return fn(ctx)
	})(ctx, op)
	return err
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
