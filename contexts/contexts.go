// Package contexts provides small, type-safe helpers over context.Context.
package contexts

import "context"

// EnsureContext returns the first non-nil context from ctx, falling back to a
// fresh background context when none is given. Use it at API boundaries where
// callers may legitimately pass nil.
func EnsureContext(ctx ...context.Context) context.Context {
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// WithValue stores value under key, with the key and value types fixed at
// compile time. A nil ctx is replaced with a background context.
func WithValue[K any, V any](ctx context.Context, key K, value V) context.Context {
	return context.WithValue(EnsureContext(ctx), key, value)
}

// GetValue retrieves the value stored under key, if it is present and has type
// V. A nil ctx, a missing key, or a value of a different type all yield the
// zero value of V and false.
func GetValue[K any, V any](ctx context.Context, key K) (V, bool) {
	if ctx == nil {
		var zero V

		return zero, false
	}

	v, ok := ctx.Value(key).(V)

	return v, ok
}
