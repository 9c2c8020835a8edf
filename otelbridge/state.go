package otelbridge

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/amp-labs/amp-spanbridge/logspan"
)

// Reserved attribute keys interpreted by the bridge instead of being recorded
// verbatim. They steer the exported span's identity and status.
const (
	// NameKey overrides the exported span's name.
	NameKey = attribute.Key("otel.name")
	// KindKey sets the exported span's kind. Accepted values: "server",
	// "client", "producer", "consumer", "internal".
	KindKey = attribute.Key("otel.kind")
	// StatusCodeKey sets the exported span's status. Accepted values: "ok",
	// "error", "unset" (case-insensitive).
	StatusCodeKey = attribute.Key("otel.status_code")
	// StatusDescriptionKey sets the status description reported alongside an
	// error status.
	StatusDescriptionKey = attribute.Key("otel.status_description")
)

// spanState is the per-span state holder the bridge keeps in the span's
// extension slot. Exactly one of pending and active is non-nil. The transition
// pending -> active happens at most once, under the span's lock, and is never
// reversed; the close path removes the holder entirely.
type spanState struct {
	pending *spanBuilder
	active  *activeContext
}

// variantOrPanic validates the holder's tag. Both variants set, or neither,
// cannot happen under correct usage and indicates a framework-integration bug,
// so it is reported loudly rather than tolerated.
func (s *spanState) variantOrPanic() {
	if (s.pending == nil) == (s.active == nil) {
		panic("otelbridge: span state holder is neither pending nor active; this is a bug")
	}
}

// activeContext is the activated variant: a context carrying the live
// OpenTelemetry span. The context value is immutable; attribute writes go
// through the span it carries.
type activeContext struct {
	ctx context.Context
}

func (a *activeContext) span() trace.Span {
	return trace.SpanFromContext(a.ctx)
}

// spanBuilder is the pending variant: everything needed to build the
// OpenTelemetry span once activation is requested.
type spanBuilder struct {
	name      string
	kind      trace.SpanKind
	startTime time.Time

	attrs  []attribute.KeyValue
	links  []trace.Link
	events []pendingEvent

	statusSet  bool
	status     codes.Code
	statusDesc string

	// parent is the in-process parent span; its own state holder supplies the
	// parent context at activation time.
	parent *logspan.Span
	// remote is the caller-supplied parent span context captured from the
	// creation context of a root span. hasRemote distinguishes "no parent
	// supplied" from "a zero-valued, malformed parent supplied".
	remote    trace.SpanContext
	hasRemote bool
}

// pendingEvent buffers an event delivered before activation.
type pendingEvent struct {
	name  string
	time  time.Time
	attrs []attribute.KeyValue
}

// apply folds attrs into the builder, interpreting the reserved keys.
func (b *spanBuilder) apply(attrs []attribute.KeyValue) {
	for _, kv := range attrs {
		switch kv.Key {
		case NameKey:
			b.name = kv.Value.AsString()
		case KindKey:
			b.kind = parseSpanKind(kv.Value.AsString())
		case StatusCodeKey:
			b.statusSet = true
			b.status = parseStatusCode(kv.Value.AsString())
		case StatusDescriptionKey:
			b.statusSet = true
			b.statusDesc = kv.Value.AsString()
		default:
			b.attrs = append(b.attrs, kv)
		}
	}
}

// applyLive writes attrs onto the live span, interpreting the reserved keys.
func applyLive(span trace.Span, attrs []attribute.KeyValue) {
	for _, kv := range attrs {
		switch kv.Key {
		case NameKey:
			span.SetName(kv.Value.AsString())
		case KindKey:
			// Span kind is fixed at start; ignored after activation.
		case StatusCodeKey:
			span.SetStatus(parseStatusCode(kv.Value.AsString()), "")
		case StatusDescriptionKey:
			span.SetStatus(codes.Error, kv.Value.AsString())
		default:
			span.SetAttributes(kv)
		}
	}
}

func parseSpanKind(s string) trace.SpanKind {
	switch s {
	case "server", "SERVER":
		return trace.SpanKindServer
	case "client", "CLIENT":
		return trace.SpanKindClient
	case "producer", "PRODUCER":
		return trace.SpanKindProducer
	case "consumer", "CONSUMER":
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}

func parseStatusCode(s string) codes.Code {
	switch s {
	case "ok", "Ok", "OK":
		return codes.Ok
	case "error", "Error", "ERROR":
		return codes.Error
	default:
		return codes.Unset
	}
}
