// Package logspan provides a span-structured logging pipeline: named intervals
// of work (spans) arranged in a hierarchy, with events, attributes, and causal
// (follows-from) links recorded against them.
//
// The pipeline itself stores almost nothing. All interpretation of spans is
// delegated to layers (see Layer), which receive every lifecycle transition and
// keep whatever per-span state they need in the span's extension slot. The
// companion package otelbridge ships a layer that turns log spans into
// OpenTelemetry trace spans.
//
// Basic usage:
//
//	pipe := logspan.New(myLayer)
//	defer pipe.Shutdown()
//
//	span := pipe.NewSpan(ctx, "handle-request",
//	    attribute.String("request.id", reqID),
//	)
//	ctx, exit := span.Enter(ctx)
//	defer exit()
//
//	pipe.Event(ctx, slog.LevelInfo, "request accepted")
//	defer span.Close()
//
// Thread safety: a Pipeline and its Spans are safe for concurrent use by
// multiple goroutines. Each span's extension slot is guarded by that span's own
// lock, so operations on unrelated spans never contend.
package logspan
