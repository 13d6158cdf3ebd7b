// Package gamemath holds the small numeric helpers every simulation system leans on.
package gamemath

import (
	"math"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
)

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates between start and end by t.
func Lerp[T constraints.Float](start, end, t T) T {
	return start*(1-t) + end*t
}

// SafeDiv returns a/b, or 0 when b is zero or the quotient is not finite.
// Every ratio in the simulation goes through here so a zero labor force or an
// empty market yields a neutral value instead of NaN.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	q := a / b
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// NewUUID returns a random (v4) UUID string.
func NewUUID() string {
	return uuid.NewString()
}
