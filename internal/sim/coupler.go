package sim

import (
	"math"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/model"
)

// boundaryValues solves the one-sided flux balance at the membrane node for
// every cytosolic species, given the new interior neighbour and a membrane
// estimate m.
func (st *state) boundaryValues(inner, out *model.Cytosol, m *model.Membrane) {
	dr := st.grid.Dr
	a := model.ActiveDimer(m)

	// SFK is consumed and active SFK injected at the same rate.
	sfk := inner[model.SFK] / (1 + st.k.KSa*a*dr/st.diff[model.SFK])
	out[model.SFK] = sfk
	out[model.SFKActive] = inner[model.SFKActive] + st.k.KSa*a*sfk*dr/st.diff[model.SFKActive]

	ex := model.Exchange(&st.k, m)
	for s := model.GAB1; int(s) < model.NumCytosolic; s++ {
		d := st.diff[s]
		out[s] = (ex[s].Release*dr/d + inner[s]) / (1 + ex[s].Capture*dr/d)
	}
}

// couple resolves the membrane node and the membrane species together by
// fixed-point iteration. The last iterate is written to the next level
// whether or not it met tol.
func (st *state) couple(dt float64, maxIter int, tol float64, trace bool) CouplingReport {
	nr := st.grid.Nr

	var inner, prevB, b model.Cytosol
	for s, buf := range st.cyto {
		inner[s] = buf.Next[nr-1]
		prevB[s] = buf.Cur[nr]
	}
	shell := inner[model.SFKActive]

	mOld := st.memb
	prevM, mEst := mOld, mOld
	var rates, mNext model.Membrane

	var rep CouplingReport
	for it := 1; it <= maxIter; it++ {
		st.boundaryValues(&inner, &b, &mEst)
		model.MembraneRates(&st.k, &mOld, &b, shell, &rates)
		for i := range mNext {
			mNext[i] = mOld[i] + dt*rates[i]
		}

		res := 0.0
		for i := range b {
			res = math.Max(res, dynamo.RelChange(b[i], prevB[i]))
		}
		for i := range mNext {
			res = math.Max(res, dynamo.RelChange(mNext[i], prevM[i]))
		}
		prevB, prevM, mEst = b, mNext, mNext

		rep.Iterations = it
		rep.Residual = res
		if trace {
			rep.Residuals = append(rep.Residuals, res)
		}
		if res <= tol {
			rep.Converged = true
			break
		}
	}

	for s, buf := range st.cyto {
		buf.Next[nr] = prevB[s]
	}
	st.membNext = prevM
	return rep
}
