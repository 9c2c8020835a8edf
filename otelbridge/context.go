package otelbridge

import (
	"context"

	"github.com/amp-labs/amp-spanbridge/logspan"
)

// withContextKey is the capability key under which the bridge layer registers
// its finalize-and-expose operation on the pipeline.
type withContextKey struct{}

// withContext is the registered capability: given a locked view of a span's
// extension slot, finalize the span's context if needed and return it. It is a
// plain function value so that holders of a pipeline handle never depend on
// the Layer type.
type withContext func(ext *logspan.Extensions) (context.Context, error)

// ContextFromExtensions recovers a span's activated OpenTelemetry context
// through the pipeline's capability registry, finalizing the context first if
// the span is still pending. ext must be the locked view obtained inside
// Span.WithExtensions.
//
// The boolean is false, with a nil error, when the pipeline does not carry
// the bridge capability (no bridge layer attached, or the pipeline was shut
// down) or the span was never instrumented by the bridge. Neither condition is
// an error. A non-nil error means activation itself failed, which the caller
// can log and continue from.
//
// Observers that outlive the pipeline should hold a logspan.Weak and upgrade
// it before calling:
//
//	if pipe, ok := weak.Upgrade(); ok {
//	    span.WithExtensions(func(ext *logspan.Extensions) {
//	        if cx, ok, err := otelbridge.ContextFromExtensions(ext, pipe); ok && err == nil {
//	            // use cx
//	        }
//	    })
//	}
func ContextFromExtensions(ext *logspan.Extensions, p *logspan.Pipeline) (context.Context, bool, error) {
	if p == nil {
		return nil, false, nil
	}

	capability, ok := p.Capability(withContextKey{}).(withContext)
	if !ok {
		return nil, false, nil
	}

	cx, err := capability(ext)
	if err != nil {
		return nil, false, err
	}

	if cx == nil {
		return nil, false, nil
	}

	return cx, true, nil
}

// ContextFromSpan is the convenience form of ContextFromExtensions for callers
// that do not already hold the span's extension lock.
func ContextFromSpan(span *logspan.Span, p *logspan.Pipeline) (context.Context, bool, error) {
	var (
		cx  context.Context
		ok  bool
		err error
	)

	span.WithExtensions(func(ext *logspan.Extensions) {
		cx, ok, err = ContextFromExtensions(ext, p)
	})

	return cx, ok, err
}
