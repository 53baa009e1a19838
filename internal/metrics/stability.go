package metrics

import (
	"github.com/san-kum/egfrsim/internal/sim"
)

// NonNegative is the fraction of samples in which no concentration fell
// below -tolerance.
type NonNegative struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewNonNegative(tolerance float64) *NonNegative {
	return &NonNegative{
		name:      "non_negative",
		tolerance: tolerance,
	}
}

func (n *NonNegative) Name() string {
	return n.name
}

func (n *NonNegative) Observe(s *sim.Snapshot) {
	n.samples++
	if n.violated(s) {
		n.violations++
	}
}

func (n *NonNegative) violated(s *sim.Snapshot) bool {
	for _, c := range s.Cytosol {
		for _, v := range c {
			if v < -n.tolerance {
				return true
			}
		}
	}
	for _, v := range s.Membrane {
		if v < -n.tolerance {
			return true
		}
	}
	return false
}

func (n *NonNegative) Value() float64 {
	if n.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(n.violations)/float64(n.samples)
}

func (n *NonNegative) Reset() {
	n.violations = 0
	n.samples = 0
}
