package model

// ActiveDimer is the surface density of phosphorylated dimers, docked or not.
// It drives SFK activation at the membrane.
func ActiveDimer(m *Membrane) float64 {
	a := m[DimerP]
	for _, s := range DockedForms {
		a += m[s]
	}
	return a
}

// TotalReceptor counts receptors: monomers once, every dimer form twice.
func TotalReceptor(m *Membrane) float64 {
	total := m[EGFR] + m[EGFRL]
	for s := Dimer; int(s) < NumMembrane; s++ {
		total += 2 * m[s]
	}
	return total
}

// SHP2Fraction is the fraction of receptors in the dimer-GRB2-pGAB1-SHP2 state.
func SHP2Fraction(m *Membrane, egfrTotal float64) float64 {
	if egfrTotal <= 0 {
		return 0
	}
	return 2 * m[DimerGRB2PGAB1SHP2] / egfrTotal
}

// PhosphoFraction is the fraction of receptors held in phosphorylated dimers.
func PhosphoFraction(m *Membrane, egfrTotal float64) float64 {
	if egfrTotal <= 0 {
		return 0
	}
	return 2 * ActiveDimer(m) / egfrTotal
}

// MembraneGRB2 is the GRB2 held at the membrane.
func MembraneGRB2(m *Membrane) float64 {
	var total float64
	for _, s := range DockedForms {
		total += m[s]
	}
	return total
}
