package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// stabilitySafety scales both explicit limits below their theoretical bound.
const stabilitySafety = 0.4

// RateScale sums the pseudo-first-order rates of the network evaluated at the
// initial totals. It bounds how fast any concentration can relax.
func RateScale(k *Kinetics, in Initial) float64 {
	return k.KS2f*in.SHP2 + k.KS2r +
		k.KG1f*(in.GRB2+in.GAB1) + k.KG1r +
		k.KG2f*in.EGFR + k.KG2r +
		k.KG1p*in.SFK + k.KG1dp +
		k.KSa*in.EGFR + k.KSi +
		k.KEGFf*k.EGF + k.KEGFr +
		k.KDf*in.EGFR + k.KDr +
		k.KEp + k.KEdp
}

// DefaultTimeStep returns the time step used when the caller does not pick
// one: the smaller of the diffusion bound dr²/Dmax and the reaction
// bound 1/RateScale, both scaled by a safety factor.
func DefaultTimeStep(dr float64, d Cytosol, k *Kinetics, in Initial) float64 {
	dmax := floats.Max(d[:])
	dt := math.Inf(1)
	if dmax > 0 {
		dt = stabilitySafety * dr * dr / dmax
	}
	if rate := RateScale(k, in); rate > 0 {
		dt = math.Min(dt, stabilitySafety/rate)
	}
	return dt
}
