package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/egfrsim/internal/grid"
	"github.com/san-kum/egfrsim/internal/model"
)

func newResult(g *grid.Radial, dt, egfrTotal float64, capacity int) *Result {
	r := &Result{
		Grid:            g,
		Dt:              dt,
		EGFRTotal:       egfrTotal,
		Times:           make([]float64, 0, capacity),
		SHP2Fraction:    make([]float64, 0, capacity),
		PhosphoFraction: make([]float64, 0, capacity),
		Metrics:         make(map[string]float64),
		Errors:          make([]error, 0),
	}
	r.Diagnostics.FirstNonConverged = -1
	for i := range r.Membrane {
		r.Membrane[i] = make([]float64, 0, capacity)
	}
	for i := range r.columns {
		r.columns[i] = make([][]float64, 0, capacity)
	}
	return r
}

func (r *Result) record(s *Snapshot) {
	r.Times = append(r.Times, s.Time)
	for i, c := range s.Cytosol {
		col := make([]float64, len(c))
		copy(col, c)
		r.columns[i] = append(r.columns[i], col)
	}
	for i, v := range s.Membrane {
		r.Membrane[i] = append(r.Membrane[i], v)
	}
	r.SHP2Fraction = append(r.SHP2Fraction, s.SHP2Fraction)
	r.PhosphoFraction = append(r.PhosphoFraction, s.PhosphoFraction)
}

// finish assembles the profile matrices and collects metric values.
func (r *Result) finish(metrics []Metric) {
	k := len(r.Times)
	rows := r.Grid.Len()
	for i, cols := range r.columns {
		if k == 0 {
			r.Profiles[i] = nil
			continue
		}
		m := mat.NewDense(rows, k, nil)
		for j, col := range cols {
			m.SetCol(j, col)
		}
		r.Profiles[i] = m
		r.columns[i] = nil
	}
	for _, m := range metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func (r *Result) Samples() int { return len(r.Times) }

// Profile returns the nodes x samples matrix of s. See Result for the
// membrane-node value of active SFK in confined runs.
func (r *Result) Profile(s model.Species) *mat.Dense { return r.Profiles[s] }

// Column returns the profile of s at sample k as a fresh slice.
func (r *Result) Column(s model.Species, k int) []float64 {
	return mat.Col(nil, k, r.Profiles[s])
}

// FinalProfile returns the last sampled profile of s, or nil without samples.
func (r *Result) FinalProfile(s model.Species) []float64 {
	if r.Samples() == 0 {
		return nil
	}
	return r.Column(s, r.Samples()-1)
}

// MembraneAt returns the membrane state recorded at sample k.
func (r *Result) MembraneAt(k int) model.Membrane {
	var m model.Membrane
	for i := range m {
		m[i] = r.Membrane[i][k]
	}
	return m
}

func (r *Result) summed(forms []model.Species, k int) []float64 {
	total := make([]float64, r.Grid.Len())
	for _, s := range forms {
		floats.Add(total, r.Column(s, k))
	}
	return total
}

// CytosolTotal sums forms over interior nodes, weighted by dr, at sample k.
// Together with the membrane-held amount this is the conserved quantity of
// the planar stencil.
func (r *Result) CytosolTotal(forms []model.Species, k int) float64 {
	return r.Grid.InteriorSum(r.summed(forms, k))
}

// CytosolIntegral integrates forms over the full mesh with the trapezoidal rule.
func (r *Result) CytosolIntegral(forms []model.Species, k int) float64 {
	return r.Grid.Integrate(r.summed(forms, k))
}

// Readouts returns the two normalized readouts at sample k.
func (r *Result) Readouts(k int) (shp2, phospho float64) {
	return r.SHP2Fraction[k], r.PhosphoFraction[k]
}
