package contexts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amp-labs/amp-spanbridge/contexts"
)

type testKey string

func TestEnsureContext(t *testing.T) {
	t.Parallel()

	t.Run("first non-nil wins", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), testKey("k"), "v")
		assert.Equal(t, ctx, contexts.EnsureContext(nil, ctx))
	})

	t.Run("all nil yields background", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, contexts.EnsureContext(nil, nil))
		require.NotNil(t, contexts.EnsureContext())
	})
}

func TestWithValueGetValue(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := contexts.WithValue[testKey, int](context.Background(), "count", 7)

		val, ok := contexts.GetValue[testKey, int](ctx, "count")
		require.True(t, ok)
		assert.Equal(t, 7, val)
	})

	t.Run("nil context tolerated", func(t *testing.T) {
		t.Parallel()

		ctx := contexts.WithValue[testKey, string](nil, "k", "v")

		val, ok := contexts.GetValue[testKey, string](ctx, "k")
		require.True(t, ok)
		assert.Equal(t, "v", val)

		_, ok = contexts.GetValue[testKey, string](nil, "k")
		assert.False(t, ok)
	})

	t.Run("type mismatch reports absent", func(t *testing.T) {
		t.Parallel()

		ctx := contexts.WithValue[testKey, int](context.Background(), "k", 1)

		_, ok := contexts.GetValue[testKey, string](ctx, "k")
		assert.False(t, ok)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		_, ok := contexts.GetValue[testKey, int](context.Background(), "absent")
		assert.False(t, ok)
	})
}
