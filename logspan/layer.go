package logspan

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// Layer observes every lifecycle transition flowing through a Pipeline. Layers
// keep their per-span state in the span's extension slot and must tolerate
// spans they never instrumented.
//
// Span identifiers are immutable for the lifetime of a pipeline, so there is
// no id-change hook.
//
// All hooks may be invoked concurrently from independent goroutines; a layer
// must rely on Span.WithExtensions (per-span locking) rather than assume any
// ordering between hooks for different spans.
type Layer interface {
	// OnAttach is called once when the layer is attached to a pipeline,
	// before any span is created. Layers that expose capabilities to
	// external observers register them here via Pipeline.RegisterCapability.
	OnAttach(p *Pipeline)

	// OnNewSpan is called when a span is created. parent is the in-process
	// parent span, or nil for a root span. ctx is the context the span was
	// created from; layers may extract externally propagated state from it.
	OnNewSpan(span *Span, parent *Span, ctx context.Context, attrs []attribute.KeyValue)

	// OnRecord is called when attributes are recorded on an open span.
	OnRecord(span *Span, attrs []attribute.KeyValue)

	// OnFollowsFrom is called when span declares that it causally follows the
	// span identified by follows. The followed span may already be closed;
	// layers resolve it through span.Pipeline().Span and treat absence as an
	// expected no-op.
	OnFollowsFrom(span *Span, follows SpanID)

	// OnEvent is called for every event whose parent span resolved. scope is
	// never nil.
	OnEvent(event *Event, scope *Span)

	// OnEnter is called when a span is entered.
	OnEnter(span *Span)

	// OnExit is called when a span is exited.
	OnExit(span *Span)

	// OnClose is called exactly once when a span is closed, while the span is
	// still resolvable through the pipeline. The pipeline removes the span
	// from its registry only after every layer's OnClose returns.
	OnClose(span *Span)
}
