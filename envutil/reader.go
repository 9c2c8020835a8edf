//nolint:ireturn
package envutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
)

// Reader represents a value read from an environment variable: the raw
// presence, any parse error, and the (possibly transformed) value. It lets
// callers decide late how strictly to treat missing or malformed variables.
type Reader[A any] struct {
	key     string
	present bool
	err     error

	value A
}

// Key returns the key of the environment variable.
func (e Reader[A]) Key() string {
	return e.key
}

// Value returns the value, or an error when the variable is missing or failed
// to parse.
func (e Reader[A]) Value() (A, error) {
	if e.err != nil {
		return e.value, fmt.Errorf("%w %s: %w (given value is %v)", ErrBadEnvVar, e.key, e.err, e.value)
	}

	if !e.present {
		return e.value, fmt.Errorf("%w %s", ErrEnvVarMissing, e.key)
	}

	return e.value, nil
}

// ValueOrElse returns the value, or v when the variable is missing or failed
// to parse. Parse failures are logged before falling back; plain absence is
// silent.
func (e Reader[A]) ValueOrElse(v A) A {
	if e.present && e.err == nil {
		return e.value
	}

	if e.err != nil {
		slog.Warn("error reading environment variable, using fallback value",
			"key", e.key, "value", e.value, "error", e.err, "fallback", v)
	}

	return v
}

// ValueOrFatal returns the value, or exits the program when the variable is
// missing or failed to parse. Reserved for configuration without which the
// process cannot meaningfully run.
func (e Reader[A]) ValueOrFatal() A {
	value, err := e.Value()
	if err != nil {
		slog.Error("error reading environment variable", "key", e.key, "error", err)
		os.Exit(1)
	}

	return value
}

// HasValue returns true when the variable was set and parsed cleanly.
func (e Reader[A]) HasValue() bool {
	return e.present && e.err == nil
}

// WithDefault returns a Reader that falls back to dfl when the variable is
// missing. Parse errors are preserved, not masked.
func (e Reader[A]) WithDefault(dfl A) Reader[A] {
	if e.present {
		return e
	}

	return Reader[A]{
		key:     e.key,
		present: true,
		value:   dfl,
	}
}

// WithErrorIfMissing returns a Reader that reports err when the variable is
// missing.
func (e Reader[A]) WithErrorIfMissing(err error) Reader[A] {
	if e.present || e.err != nil {
		return e
	}

	return Reader[A]{
		key: e.key,
		err: err,
	}
}

// Map transforms a Reader's value with f, carrying presence and prior errors
// through unchanged. Go methods cannot introduce type parameters, so Map is a
// free function.
func Map[A, B any](rdr Reader[A], f func(A) (B, error)) Reader[B] {
	out := Reader[B]{
		key:     rdr.key,
		present: rdr.present,
		err:     rdr.err,
	}

	if rdr.present && rdr.err == nil {
		out.value, out.err = f(rdr.value)
	}

	return out
}
