package sim

import (
	"math"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/grid"
	"github.com/san-kum/egfrsim/internal/model"
)

// state is owned by one Run. Cytosolic species are double buffered per node;
// the membrane keeps its current and next level side by side.
type state struct {
	grid *grid.Radial
	diff model.Cytosol
	k    model.Kinetics

	cyto     [model.NumCytosolic]*dynamo.Buffer
	memb     model.Membrane
	membNext model.Membrane

	node  model.Cytosol
	rates model.Cytosol
}

func newState(g *grid.Radial, p model.Params, confine bool, in model.Initial) *state {
	st := &state{
		grid: g,
		diff: p.Diffusivity.PerSpecies(confine),
		k:    p.Kinetics,
	}
	seed := in.Cytosol()
	for i := range st.cyto {
		st.cyto[i] = dynamo.NewBuffer(g.Len())
		st.cyto[i].Fill(seed[i])
	}
	st.memb = in.Membrane()
	st.membNext = st.memb
	return st
}

func (st *state) commit() {
	for _, b := range st.cyto {
		b.Swap()
	}
	st.memb = st.membNext
}

// checkNext returns the name of the first field whose next level holds a
// non-finite value.
func (st *state) checkNext() (string, bool) {
	for i, b := range st.cyto {
		if !b.Next.IsValid() {
			return model.Species(i).String(), false
		}
	}
	for i, v := range st.membNext {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.MembraneSpecies(i).String(), false
		}
	}
	return "", true
}

func (st *state) snapshot(step int, t float64, dt, tf, egfrTotal float64) *Snapshot {
	s := &Snapshot{
		Step:      step,
		Time:      t,
		FinalTime: tf,
		Dt:        dt,
		Grid:      st.grid,
		Membrane:  st.memb,
		EGFRTotal: egfrTotal,
	}
	for i, b := range st.cyto {
		s.Cytosol[i] = b.Cur
	}
	s.SHP2Fraction = model.SHP2Fraction(&st.memb, egfrTotal)
	s.PhosphoFraction = model.PhosphoFraction(&st.memb, egfrTotal)
	return s
}
