// Package tracing wraps OpenTelemetry span handling behind a few helpers.
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/okian/tcd"

// Attrs are string span attributes.
type Attrs map[string]string

var (
	mu       sync.RWMutex
	provider trace.TracerProvider = noop.NewTracerProvider()
)

// ConfigureTraceProvider installs tp for StartSpan and as the otel global.
func ConfigureTraceProvider(tp trace.TracerProvider) {
	mu.Lock()
	provider = tp
	mu.Unlock()
	otel.SetTracerProvider(tp)
}

// Reset restores the no-op provider.
func Reset() {
	ConfigureTraceProvider(noop.NewTracerProvider())
}

func tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return provider.Tracer(instrumentationName)
}

// StartSpan starts a span named name carrying attrs.
func StartSpan(ctx context.Context, name string, attrs Attrs) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(keyValues(attrs)...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AddEvent adds a named event with attributes to the span in ctx.
func AddEvent(ctx context.Context, name string, attrs Attrs) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(keyValues(attrs)...))
}

// SetFloat attaches a numeric attribute to the span in ctx.
func SetFloat(ctx context.Context, key string, v float64) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Float64(key, v))
}

func keyValues(attrs Attrs) []attribute.KeyValue {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	return kv
}
