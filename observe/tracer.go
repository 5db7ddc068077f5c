package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultComponent is used when Operation.Component is empty.
const DefaultComponent = "retrieval"

// Operation identifies an instrumented unit of work.
type Operation struct {
	Name      string // operation name, e.g. get_paginated (required)
	Component string // owning component (default: retrieval)
	Namespace string // cache namespace the operation reads, if any
}

func (o Operation) component() string {
	if o.Component != "" {
		return o.Component
	}
	return DefaultComponent
}

// SpanName returns the deterministic span name: <component>.<name>.
func (o Operation) SpanName() string {
	return o.component() + "." + o.Name
}

// Validate reports whether the operation is usable for telemetry.
func (o Operation) Validate() error {
	if o.Name == "" {
		return ErrMissingOperationName
	}
	return nil
}

func (o Operation) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("op.name", o.Name),
		attribute.String("op.component", o.component()),
	}
	if o.Namespace != "" {
		attrs = append(attrs, attribute.String("cache.namespace", o.Namespace))
	}
	return attrs
}

func (o Operation) fields() []Field {
	fields := []Field{F("op", o.SpanName())}
	if o.Namespace != "" {
		fields = append(fields, F("cache_namespace", o.Namespace))
	}
	return fields
}

// Tracer wraps OpenTelemetry tracing with operation-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for op.
	StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span)

	// EndSpan ends the span, recording the cache outcome and any error.
	EndSpan(span trace.Span, cacheHit bool, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	attrs := append(op.attributes(), attribute.Bool("op.error", false))
	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, cacheHit bool, err error) {
	span.SetAttributes(attribute.Bool("cache.hit", cacheHit))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("op.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans record nothing.
func NopTracer() Tracer {
	return &tracerImpl{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
