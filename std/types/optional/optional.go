package optional

// Optional is a value that may be absent.
type Optional[T any] struct {
	value T
	isSet bool
}

// Some creates an optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, isSet: true}
}

// None creates an empty optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet returns true if the optional value is set
func (o Optional[T]) IsSet() bool {
	return o.isSet
}

// Set sets the optional value
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.isSet = true
}

// Unset clears the optional value
func (o *Optional[T]) Unset() {
	var zero T
	o.value = zero
	o.isSet = false
}

// Get returns the value and whether it is set
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.isSet
}

// GetOr returns the value, or def if it is not set
func (o Optional[T]) GetOr(def T) T {
	if o.isSet {
		return o.value
	}
	return def
}

// Unwrap returns the value and panics if it is not set
func (o Optional[T]) Unwrap() T {
	if !o.isSet {
		panic("optional value is not set")
	}
	return o.value
}
