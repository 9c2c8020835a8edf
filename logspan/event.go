package logspan

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Event is a single log event delivered through the pipeline. Events are
// attached to a span: either explicitly (EventForSpan) or contextually, by
// resolving the currently entered span from the caller's context.
type Event struct {
	// Time is when the event was delivered.
	Time time.Time
	// Level is the event's severity.
	Level slog.Level
	// Message is the human-readable event text.
	Message string
	// Attributes are additional key-value pairs recorded with the event.
	Attributes []attribute.KeyValue

	// parent is the explicitly declared parent span, or 0 when the event is
	// contextual.
	parent SpanID
}

// ExplicitParent returns the explicitly declared parent span id. The second
// return is false when the event is contextual.
func (e *Event) ExplicitParent() (SpanID, bool) {
	return e.parent, e.parent != 0
}
