package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Peak returns the index and value of the largest entry, or (-1, 0) for an
// empty series.
func Peak(xs []float64) (int, float64) {
	if len(xs) == 0 {
		return -1, 0
	}
	idx := floats.MaxIdx(xs)
	return idx, xs[idx]
}

// HalfMaxTime returns the first time the series reaches half its peak,
// interpolating linearly between samples. ok is false when the peak is not
// positive.
func HalfMaxTime(times, xs []float64) (float64, bool) {
	_, peak := Peak(xs)
	if !(peak > 0) || len(times) != len(xs) {
		return 0, false
	}
	half := peak / 2
	for i, v := range xs {
		if v < half {
			continue
		}
		if i == 0 || xs[i] == xs[i-1] {
			return times[i], true
		}
		frac := (half - xs[i-1]) / (xs[i] - xs[i-1])
		return times[i-1] + frac*(times[i]-times[i-1]), true
	}
	return 0, false
}

// NonDecreasing reports whether every step drops by no more than tol.
func NonDecreasing(xs []float64, tol float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1]-tol {
			return false
		}
	}
	return true
}

// PlateauReached reports whether the last window samples all lie within
// relTol of the final value.
func PlateauReached(xs []float64, window int, relTol float64) bool {
	if window <= 0 || len(xs) < window {
		return false
	}
	last := xs[len(xs)-1]
	scale := math.Max(math.Abs(last), 1e-300)
	for _, v := range xs[len(xs)-window:] {
		if math.Abs(v-last) > relTol*scale {
			return false
		}
	}
	return true
}
