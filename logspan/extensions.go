package logspan

import "reflect"

// Extensions is a heterogeneous, by-type store attached to a single span. Each
// layer may keep at most one value per Go type; the type is the key. The store
// is owned exclusively by its span and must only be touched from inside
// Span.WithExtensions, which holds the span's lock for the duration.
//
// Values are accessed through the package-level generics GetExt, InsertExt and
// RemoveExt. Go methods cannot be generic, so these are free functions taking
// the *Extensions view.
type Extensions struct {
	values map[reflect.Type]any
}

// extKey returns the map key for type T.
func extKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// GetExt returns a mutable reference to the value of type T stored in ext, or
// false if no value of that type is present.
func GetExt[T any](ext *Extensions) (*T, bool) {
	if ext == nil || ext.values == nil {
		return nil, false
	}

	val, ok := ext.values[extKey[T]()].(*T)

	return val, ok
}

// InsertExt stores value in ext, replacing any existing value of type T.
func InsertExt[T any](ext *Extensions, value *T) {
	if ext.values == nil {
		ext.values = make(map[reflect.Type]any)
	}

	ext.values[extKey[T]()] = value
}

// RemoveExt removes and returns the value of type T from ext. The second
// return is false if no value of that type was present.
func RemoveExt[T any](ext *Extensions) (*T, bool) {
	val, ok := GetExt[T](ext)
	if ok {
		delete(ext.values, extKey[T]())
	}

	return val, ok
}

// Len returns the number of values currently stored.
func (e *Extensions) Len() int {
	return len(e.values)
}
