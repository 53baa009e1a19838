package metrics

import (
	"math"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

// Drift tracks the largest relative departure of a conserved total from its
// value at the first sample.
type Drift struct {
	name     string
	total    func(s *sim.Snapshot) float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift(name string, total func(s *sim.Snapshot) float64) *Drift {
	return &Drift{name: name, total: total}
}

// NewReceptorDrift follows EGFR + EGFRL + 2*(dimer forms).
func NewReceptorDrift() *Drift {
	return NewDrift("receptor_drift", func(s *sim.Snapshot) float64 {
		return model.TotalReceptor(&s.Membrane)
	})
}

// NewSFKDrift follows both kinase states over the interior nodes.
func NewSFKDrift() *Drift {
	return NewDrift("sfk_drift", func(s *sim.Snapshot) float64 {
		return interiorTotal(s, model.SFKForms)
	})
}

// NewGRB2Drift follows GRB2 in the cytosol plus GRB2 docked at the membrane.
func NewGRB2Drift() *Drift {
	return NewDrift("grb2_drift", func(s *sim.Snapshot) float64 {
		return interiorTotal(s, model.GRB2Forms) + model.MembraneGRB2(&s.Membrane)
	})
}

func interiorTotal(s *sim.Snapshot, forms []model.Species) float64 {
	var total float64
	for _, sp := range forms {
		total += s.Grid.InteriorSum(s.Cytosol[sp])
	}
	return total
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(s *sim.Snapshot) {
	v := d.total(s)
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++
	if d.initial != 0 {
		d.maxDrift = math.Max(d.maxDrift, math.Abs(v-d.initial)/math.Abs(d.initial))
	}
}

func (d *Drift) Value() float64 {
	return d.maxDrift
}

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
