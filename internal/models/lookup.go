package models

// Lookup is an optional result that records why a value is absent.
type Lookup[T any] struct {
	Value  T
	Found  bool
	Reason string
}

// Found wraps a present value.
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Value: v, Found: true}
}

// Missing records an absence and its reason.
func Missing[T any](reason string) Lookup[T] {
	return Lookup[T]{Reason: reason}
}
