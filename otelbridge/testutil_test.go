package otelbridge_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/amp-labs/amp-spanbridge/logspan"
)

// newTestTracer creates a tracer backed by an in-memory exporter with a
// synchronous processor, so every exported span is visible as soon as it ends.
func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	return tp.Tracer("test"), exporter
}

// spanByName finds the exported span with the given name.
func spanByName(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()

	for _, s := range spans {
		if s.Name == name {
			return s
		}
	}

	t.Fatalf("no exported span named %q", name)

	return tracetest.SpanStub{}
}

// attrValue finds an attribute by key on an exported span.
func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}

	return attribute.Value{}, false
}

// noopLayer is an embeddable logspan.Layer that ignores everything.
type noopLayer struct{}

func (noopLayer) OnAttach(*logspan.Pipeline) {}
func (noopLayer) OnNewSpan(*logspan.Span, *logspan.Span, context.Context, []attribute.KeyValue) {
}
func (noopLayer) OnRecord(*logspan.Span, []attribute.KeyValue)    {}
func (noopLayer) OnFollowsFrom(*logspan.Span, logspan.SpanID)     {}
func (noopLayer) OnEvent(*logspan.Event, *logspan.Span)           {}
func (noopLayer) OnEnter(*logspan.Span)                           {}
func (noopLayer) OnExit(*logspan.Span)                            {}
func (noopLayer) OnClose(*logspan.Span)                           {}
