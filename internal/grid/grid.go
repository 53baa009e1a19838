// Package grid builds the uniform radial mesh the solver runs on.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/egfrsim/internal/dynamo"
)

// MinIntervals is the smallest mesh that still has one interior node
// between the center and the membrane.
const MinIntervals = 2

// Radial is a uniform mesh 0, dr, ..., Nr*dr. Node 0 is the center of
// symmetry and node Nr the membrane.
type Radial struct {
	Dr    float64
	Nr    int
	Nodes []float64
}

// New picks Nr = ceil(radius/dr) so the last node sits at or just past radius.
func New(radius, dr float64) (*Radial, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", dynamo.ErrInvalidConfig, radius)
	}
	if !(dr > 0) || math.IsInf(dr, 0) {
		return nil, fmt.Errorf("%w: dr must be positive, got %g", dynamo.ErrInvalidConfig, dr)
	}
	nr := int(math.Ceil(radius/dr - 1e-9))
	if nr < MinIntervals {
		return nil, fmt.Errorf("%w: radius %g with dr %g gives %d intervals, need at least %d",
			dynamo.ErrInvalidConfig, radius, dr, nr, MinIntervals)
	}
	nodes := floats.Span(make([]float64, nr+1), 0, float64(nr)*dr)
	return &Radial{Dr: dr, Nr: nr, Nodes: nodes}, nil
}

// Len is the node count, Nr+1.
func (g *Radial) Len() int { return g.Nr + 1 }

// Radius is the position of the membrane node.
func (g *Radial) Radius() float64 { return g.Nodes[g.Nr] }

// InteriorSum returns dr times the sum over nodes 1..Nr-1. For the explicit
// planar stencil with zero-flux ends this quantity changes only through
// reactions and boundary exchange.
func (g *Radial) InteriorSum(v []float64) float64 {
	return floats.Sum(v[1:g.Nr]) * g.Dr
}

// Integrate applies the trapezoidal rule over the full mesh.
func (g *Radial) Integrate(v []float64) float64 {
	return integrate.Trapezoidal(g.Nodes, v)
}

// Uniform reports whether every spacing equals Dr within tol.
func (g *Radial) Uniform(tol float64) bool {
	for i := 1; i < len(g.Nodes); i++ {
		if math.Abs(g.Nodes[i]-g.Nodes[i-1]-g.Dr) > tol {
			return false
		}
	}
	return true
}
