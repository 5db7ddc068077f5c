package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestOperation_SpanName(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Operation{Name: "get_paginated"}, "retrieval.get_paginated"},
		{Operation{Name: "search", Namespace: "comments-search"}, "retrieval.search"},
		{Operation{Name: "flush", Component: "cache"}, "cache.flush"},
	}

	for _, tt := range tests {
		if got := tt.op.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}

func TestOperation_Validate(t *testing.T) {
	if err := (Operation{}).Validate(); !errors.Is(err, ErrMissingOperationName) {
		t.Errorf("Validate() = %v, want ErrMissingOperationName", err)
	}
	if err := (Operation{Name: "search"}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestTracer_SpanAttributes(t *testing.T) {
	tm := newTelemetry(t)
	op := Operation{Name: "get_paginated", Namespace: "comments-paginated"}

	_, span := tm.tracer.StartSpan(context.Background(), op)
	tm.tracer.EndSpan(span, true, nil)

	spans := tm.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "retrieval.get_paginated" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.SpanKind() != trace.SpanKindInternal {
		t.Errorf("span kind = %v, want internal", s.SpanKind())
	}
	attrs := attrMap(s.Attributes())
	if attrs["op.name"].AsString() != "get_paginated" {
		t.Errorf("op.name = %v", attrs["op.name"])
	}
	if attrs["cache.namespace"].AsString() != "comments-paginated" {
		t.Errorf("cache.namespace = %v", attrs["cache.namespace"])
	}
	if !attrs["cache.hit"].AsBool() {
		t.Error("cache.hit = false, want true")
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	tm := newTelemetry(t)

	_, span := tm.tracer.StartSpan(context.Background(), Operation{Name: "search"})
	tm.tracer.EndSpan(span, false, errors.New("store down"))

	s := tm.spans.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "store down" {
		t.Errorf("status = %+v", s.Status())
	}
	if !attrMap(s.Attributes())["op.error"].AsBool() {
		t.Error("op.error = false, want true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	tm := newTelemetry(t)

	ctx, parent := tm.tracer.StartSpan(context.Background(), Operation{Name: "outer"})
	_, child := tm.tracer.StartSpan(ctx, Operation{Name: "inner"})
	tm.tracer.EndSpan(child, false, nil)
	tm.tracer.EndSpan(parent, false, nil)

	spans := tm.spans.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	inner, outer := spans[0], spans[1]
	if inner.Parent().SpanID() != outer.SpanContext().SpanID() {
		t.Error("inner span is not a child of outer span")
	}
}

func TestNopTracer(t *testing.T) {
	tr := NopTracer()
	_, span := tr.StartSpan(context.Background(), Operation{Name: "noop"})
	tr.EndSpan(span, false, errors.New("ignored"))
}
