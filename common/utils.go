package common

import "golang.org/x/exp/constraints"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// AlignUp rounds v up to the next multiple of alignment. Alignment must be a power of two.
//
// Parameters:
//   - v: the value to round
//   - alignment: the power-of-two alignment
//
// Returns:
//   - T: the smallest multiple of alignment that is >= v
func AlignUp[T constraints.Unsigned](v, alignment T) T {
	return (v + alignment - 1) &^ (alignment - 1)
}

// NextPowerOfTwo returns the smallest power of two >= v, and 1 for 0.
func NextPowerOfTwo[T constraints.Unsigned](v T) T {
	p := T(1)
	for p < v {
		p <<= 1
	}
	return p
}
