package otelbridge_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amp-labs/amp-spanbridge/logspan"
	"github.com/amp-labs/amp-spanbridge/otelbridge"
)

// TestCountingFilterTotals verifies the central counting property: 5 events
// with 3 filtered out yield exactly 2 recorded span events, while the
// event-count attribute still reports all 5.
func TestCountingFilterTotals(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	layer := otelbridge.NewLayer(otelbridge.WithTracer(tracer))
	pipe := logspan.New(layer.WithCountingFilter(otelbridge.LevelFilter(slog.LevelWarn)))

	span := pipe.NewSpan(context.Background(), "op")
	ctx, exit := span.Enter(context.Background())

	pipe.Event(ctx, slog.LevelDebug, "suppressed 1")
	pipe.Event(ctx, slog.LevelInfo, "suppressed 2")
	pipe.Event(ctx, slog.LevelInfo, "suppressed 3")
	pipe.Event(ctx, slog.LevelWarn, "kept 1")
	pipe.Event(ctx, slog.LevelError, "kept 2")

	exit()
	span.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	stub := spans[0]
	require.Len(t, stub.Events, 2, "only approved events are recorded")
	assert.Equal(t, "kept 1", stub.Events[0].Name)
	assert.Equal(t, "kept 2", stub.Events[1].Name)

	total, ok := attrValue(stub.Attributes, otelbridge.EventCountKey)
	require.True(t, ok, "event count attribute must be present")
	assert.Equal(t, int64(5), total.AsInt64(), "total covers suppressed events too")
}

// TestCountingFilterZeroEvents verifies that a span that saw no events still
// closes with an explicit zero count.
func TestCountingFilterZeroEvents(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	layer := otelbridge.NewLayer(otelbridge.WithTracer(tracer))
	pipe := logspan.New(layer.WithCountingFilter(nil))

	pipe.NewSpan(context.Background(), "quiet").Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	total, ok := attrValue(spans[0].Attributes, otelbridge.EventCountKey)
	require.True(t, ok)
	assert.Equal(t, int64(0), total.AsInt64())
}

// TestCountingFilterPendingSpan verifies counting for a span that is never
// activated before close: the count is injected into the builder variant.
func TestCountingFilterPendingSpan(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	layer := otelbridge.NewLayer(otelbridge.WithTracer(tracer))
	pipe := logspan.New(layer.WithCountingFilter(otelbridge.FilterFunc(func(*logspan.Event) bool {
		return false
	})))

	span := pipe.NewSpan(context.Background(), "never-entered")
	pipe.EventForSpan(span.ID(), slog.LevelInfo, "counted, not recorded")
	pipe.EventForSpan(span.ID(), slog.LevelInfo, "counted, not recorded")
	span.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Empty(t, spans[0].Events)

	total, ok := attrValue(spans[0].Attributes, otelbridge.EventCountKey)
	require.True(t, ok)
	assert.Equal(t, int64(2), total.AsInt64())
}

// TestCountingFilterPassThrough verifies that the filter preserves the
// wrapped layer's behavior for the non-event hooks, including the capability
// advertisement used by the context bridge.
func TestCountingFilterPassThrough(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	layer := otelbridge.NewLayer(otelbridge.WithTracer(tracer))
	pipe := logspan.New(layer.WithCountingFilter(otelbridge.LevelFilter(slog.LevelInfo)))

	span := pipe.NewSpan(context.Background(), "op")

	cx, ok, err := otelbridge.ContextFromSpan(span, pipe)
	require.NoError(t, err)
	require.True(t, ok, "capability must be advertised through the filter")
	require.NotNil(t, cx)

	other := pipe.NewSpan(context.Background(), "other")
	span.FollowsFrom(other.ID())

	span.Close()
	other.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Len(t, spanByName(t, spans, "op").Links, 1, "follows-from passes through")
}

// TestCountingFilterConcurrentEvents hammers one span with events from many
// goroutines and verifies no delivery is lost from the total.
func TestCountingFilterConcurrentEvents(t *testing.T) {
	t.Parallel()

	const (
		goroutines = 8
		perWorker  = 50
	)

	tracer, exporter := newTestTracer(t)
	layer := otelbridge.NewLayer(otelbridge.WithTracer(tracer))
	pipe := logspan.New(layer.WithCountingFilter(otelbridge.LevelFilter(slog.LevelWarn)))

	span := pipe.NewSpan(context.Background(), "busy")

	var wg sync.WaitGroup

	for w := 0; w < goroutines; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < perWorker; i++ {
				pipe.EventForSpan(span.ID(), slog.LevelDebug, fmt.Sprintf("worker %d event %d", w, i))
			}
		}(w)
	}

	wg.Wait()
	span.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	total, ok := attrValue(spans[0].Attributes, otelbridge.EventCountKey)
	require.True(t, ok)
	assert.Equal(t, int64(goroutines*perWorker), total.AsInt64())
}
