package model

import "fmt"

// Species indexes the cytosolic species. The order is part of the output
// layout and must not change.
type Species int

const (
	SFK Species = iota
	SFKActive
	GAB1
	PGAB1
	GRB2
	GRB2GAB1
	GRB2PGAB1
	SHP2
	PGAB1SHP2
	GRB2PGAB1SHP2

	NumCytosolic = int(GRB2PGAB1SHP2) + 1
)

var speciesNames = [NumCytosolic]string{
	"sfk",
	"sfk_active",
	"gab1",
	"pgab1",
	"grb2",
	"grb2_gab1",
	"grb2_pgab1",
	"shp2",
	"pgab1_shp2",
	"grb2_pgab1_shp2",
}

func (s Species) String() string {
	if s < 0 || int(s) >= NumCytosolic {
		return fmt.Sprintf("species(%d)", int(s))
	}
	return speciesNames[s]
}

// MembraneSpecies indexes the receptor species at the membrane.
type MembraneSpecies int

const (
	EGFR MembraneSpecies = iota
	EGFRL
	Dimer
	DimerP
	DimerGRB2
	DimerGRB2GAB1
	DimerGRB2PGAB1
	DimerGRB2PGAB1SHP2

	NumMembrane = int(DimerGRB2PGAB1SHP2) + 1
)

var membraneNames = [NumMembrane]string{
	"egfr",
	"egfr_egf",
	"dimer",
	"dimer_p",
	"dimer_grb2",
	"dimer_grb2_gab1",
	"dimer_grb2_pgab1",
	"dimer_grb2_pgab1_shp2",
}

func (m MembraneSpecies) String() string {
	if m < 0 || int(m) >= NumMembrane {
		return fmt.Sprintf("membrane(%d)", int(m))
	}
	return membraneNames[m]
}

// AllSpecies lists the cytosolic species in index order.
func AllSpecies() []Species {
	out := make([]Species, NumCytosolic)
	for i := range out {
		out[i] = Species(i)
	}
	return out
}

// AllMembrane lists the membrane species in index order.
func AllMembrane() []MembraneSpecies {
	out := make([]MembraneSpecies, NumMembrane)
	for i := range out {
		out[i] = MembraneSpecies(i)
	}
	return out
}

// ParseSpecies resolves a cytosolic species by its output name.
func ParseSpecies(name string) (Species, error) {
	for i, n := range speciesNames {
		if n == name {
			return Species(i), nil
		}
	}
	return 0, fmt.Errorf("unknown species: %s", name)
}

// Cytosol holds one value per cytosolic species.
type Cytosol [NumCytosolic]float64

// Membrane holds one value per membrane species.
type Membrane [NumMembrane]float64

// GRB2Forms lists every cytosolic species that carries a GRB2 molecule.
var GRB2Forms = []Species{GRB2, GRB2GAB1, GRB2PGAB1, GRB2PGAB1SHP2}

// GAB1Forms lists every cytosolic species that carries a GAB1 molecule.
var GAB1Forms = []Species{GAB1, PGAB1, GRB2GAB1, GRB2PGAB1, PGAB1SHP2, GRB2PGAB1SHP2}

// SHP2Forms lists every cytosolic species that carries a SHP2 molecule.
var SHP2Forms = []Species{SHP2, PGAB1SHP2, GRB2PGAB1SHP2}

// SFKForms lists both kinase states.
var SFKForms = []Species{SFK, SFKActive}

// DockedForms lists the membrane complexes that hold a GRB2 molecule.
var DockedForms = []MembraneSpecies{DimerGRB2, DimerGRB2GAB1, DimerGRB2PGAB1, DimerGRB2PGAB1SHP2}
