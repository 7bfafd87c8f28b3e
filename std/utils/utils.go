package utils

import "golang.org/x/exp/constraints"

// KiteVersion is set from source control at build time.
var KiteVersion string = "unknown"

// ConvIntPtr converts an integer pointer to another type
func ConvIntPtr[A, B constraints.Integer](a *A) *B {
	if a == nil {
		return nil
	}
	b := B(*a)
	return &b
}

// If is the ternary operator (eager evaluation)
func If[T any](cond bool, t, f T) T {
	if cond {
		return t
	}
	return f
}
