package otelbridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amp-labs/amp-spanbridge/logspan"
	"github.com/amp-labs/amp-spanbridge/otelbridge"
)

// TestFollowsFromOpenSpan verifies that a link to a still-open span lands on
// the declaring span with the followed span's identity.
func TestFollowsFromOpenSpan(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	pipe := logspan.New(otelbridge.NewLayer(otelbridge.WithTracer(tracer)))

	cause := pipe.NewSpan(context.Background(), "cause")

	effect := pipe.NewSpan(context.Background(), "effect")
	effect.FollowsFrom(cause.ID())

	effect.Close()
	cause.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	causeStub := spanByName(t, spans, "cause")
	effectStub := spanByName(t, spans, "effect")

	require.Len(t, effectStub.Links, 1)
	assert.Equal(t, causeStub.SpanContext.SpanID(), effectStub.Links[0].SpanContext.SpanID())
	assert.Equal(t, causeStub.SpanContext.TraceID(), effectStub.Links[0].SpanContext.TraceID())
}

// TestFollowsFromClosedSpan verifies the tolerated-absence path: declaring a
// link to a span that has already closed is a silent no-op, and both spans
// still export well-formed records.
func TestFollowsFromClosedSpan(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	pipe := logspan.New(otelbridge.NewLayer(otelbridge.WithTracer(tracer)))

	cause := pipe.NewSpan(context.Background(), "cause")
	causeID := cause.ID()
	cause.Close()

	effect := pipe.NewSpan(context.Background(), "effect")
	// Must not panic even though the cause's slot is gone.
	effect.FollowsFrom(causeID)
	effect.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	effectStub := spanByName(t, spans, "effect")
	assert.Empty(t, effectStub.Links, "unresolvable follows-from leaves no link")
	assert.True(t, effectStub.SpanContext.IsValid(), "the declaring span's own record is well-formed")
}

// slowCloseLayer simulates a slow downstream layer: its OnClose takes 20ms,
// stretching the window in which a closing span is still resolvable.
type slowCloseLayer struct {
	noopLayer
}

func (slowCloseLayer) OnClose(*logspan.Span) {
	time.Sleep(20 * time.Millisecond)
}

// TestFollowsFromRacesClose races a follows-from declaration against a close
// that is stalled in a slow downstream layer on another goroutine. Whatever
// interleaving occurs, nothing may panic, and the exported batch must contain
// exactly the spans that were closed.
func TestFollowsFromRacesClose(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	pipe := logspan.New(
		otelbridge.NewLayer(otelbridge.WithTracer(tracer)),
		slowCloseLayer{},
	)

	const rounds = 25

	workers := pond.NewPool(8)

	for i := 0; i < rounds; i++ {
		cause := pipe.NewSpan(context.Background(), "cause")
		causeID := cause.ID()

		group := workers.NewGroup()

		group.Submit(func() {
			cause.Close()
		})
		group.Submit(func() {
			time.Sleep(5 * time.Millisecond)

			effect := pipe.NewSpan(context.Background(), "effect")
			effect.FollowsFrom(causeID)
			effect.Close()
		})

		require.NoError(t, group.Wait())
	}

	workers.StopAndWait()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2*rounds, "exactly the closed spans are exported")

	// Wherever a link did resolve, it must carry the cause's trace id.
	causes := make(map[string]bool)

	for _, s := range spans {
		if s.Name == "cause" {
			causes[s.SpanContext.TraceID().String()] = true
		}
	}

	for _, s := range spans {
		if s.Name != "effect" {
			continue
		}

		assert.True(t, s.SpanContext.IsValid())

		for _, link := range s.Links {
			assert.True(t, causes[link.SpanContext.TraceID().String()],
				"resolved link must reference an exported cause span")
		}
	}
}
