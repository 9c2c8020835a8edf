package logspan

import (
	"context"

	"github.com/amp-labs/amp-spanbridge/contexts"
)

// contextKey is a private type for context keys to avoid collisions with other
// packages.
type contextKey string

// currentSpanKey is the context key under which the currently entered span is
// stored.
const currentSpanKey contextKey = "currentSpan"

// ContextWithSpan returns a context with span installed as the current span.
// Span.Enter calls this on the caller's behalf; it is exported for adapters
// that carry the current span across custom propagation boundaries.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return contexts.WithValue[contextKey, *Span](ctx, currentSpanKey, span)
}

// SpanFromContext returns the current span stored in ctx, or false if there is
// none.
func SpanFromContext(ctx context.Context) (*Span, bool) {
	return contexts.GetValue[contextKey, *Span](ctx, currentSpanKey)
}
