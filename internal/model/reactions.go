package model

// CytosolicRates writes the net reaction rate of every cytosolic species for
// the concentrations c at one node. SFK activation happens only at the
// membrane and is therefore absent here.
func CytosolicRates(k *Kinetics, c *Cytosol, out *Cytosol) {
	// complex formation, net forward
	r1 := k.KS2f*c[PGAB1]*c[SHP2] - k.KS2r*c[PGAB1SHP2]
	r2 := k.KS2f*c[GRB2PGAB1]*c[SHP2] - k.KS2r*c[GRB2PGAB1SHP2]
	r3 := k.KG1f*c[GRB2]*c[GAB1] - k.KG1r*c[GRB2GAB1]
	r4 := k.KG1f*c[GRB2]*c[PGAB1] - k.KG1r*c[GRB2PGAB1]
	r5 := k.KG1f*c[GRB2]*c[PGAB1SHP2] - k.KG1r*c[GRB2PGAB1SHP2]

	// kinase-driven GAB1 phosphorylation, free and GRB2-bound
	p1 := k.KG1p*c[SFKActive]*c[GAB1] - k.KG1dp*c[PGAB1]
	p2 := k.KG1p*c[SFKActive]*c[GRB2GAB1] - k.KG1dp*c[GRB2PGAB1]

	inact := k.KSi * c[SFKActive]

	out[SFK] = inact
	out[SFKActive] = -inact
	out[GAB1] = -r3 - p1
	out[PGAB1] = p1 - r1 - r4
	out[GRB2] = -r3 - r4 - r5
	out[GRB2GAB1] = r3 - p2
	out[GRB2PGAB1] = r4 + p2 - r2
	out[SHP2] = -r1 - r2
	out[PGAB1SHP2] = r1 - r5
	out[GRB2PGAB1SHP2] = r2 + r5
}

// MembraneRates writes the net rate of every membrane species. m is the
// membrane state, b the cytosolic concentrations at the membrane node and
// shellKinase the active SFK level in the membrane-adjacent shell.
func MembraneRates(k *Kinetics, m *Membrane, b *Cytosol, shellKinase float64, out *Membrane) {
	bind := k.KEGFf*k.EGF*m[EGFR] - k.KEGFr*m[EGFRL]
	dimer := k.KDf*m[EGFRL]*m[EGFRL] - k.KDr*m[Dimer]
	phos := k.KEp*m[Dimer] - k.KEdp*m[DimerP]

	dockG2 := k.KG2f*m[DimerP]*b[GRB2] - k.KG2r*m[DimerGRB2]
	dockG2G1 := k.KG2f*m[DimerP]*b[GRB2GAB1] - k.KG2r*m[DimerGRB2GAB1]
	dockG2PG1 := k.KG2f*m[DimerP]*b[GRB2PGAB1] - k.KG2r*m[DimerGRB2PGAB1]
	dockG2PG1S2 := k.KG2f*m[DimerP]*b[GRB2PGAB1SHP2] - k.KG2r*m[DimerGRB2PGAB1SHP2]

	g1 := k.KG1f*m[DimerGRB2]*b[GAB1] - k.KG1r*m[DimerGRB2GAB1]
	pg1 := k.KG1f*m[DimerGRB2]*b[PGAB1] - k.KG1r*m[DimerGRB2PGAB1]
	pg1s2 := k.KG1f*m[DimerGRB2]*b[PGAB1SHP2] - k.KG1r*m[DimerGRB2PGAB1SHP2]

	kin := k.KG1p*shellKinase*m[DimerGRB2GAB1] - k.KG1dp*m[DimerGRB2PGAB1]
	shp := k.KS2f*m[DimerGRB2PGAB1]*b[SHP2] - k.KS2r*m[DimerGRB2PGAB1SHP2]

	out[EGFR] = -bind
	out[EGFRL] = bind - 2*dimer
	out[Dimer] = dimer - phos
	out[DimerP] = phos - dockG2 - dockG2G1 - dockG2PG1 - dockG2PG1S2
	out[DimerGRB2] = dockG2 - g1 - pg1 - pg1s2
	out[DimerGRB2GAB1] = dockG2G1 + g1 - kin
	out[DimerGRB2PGAB1] = dockG2PG1 + pg1 + kin - shp
	out[DimerGRB2PGAB1SHP2] = dockG2PG1S2 + pg1s2 + shp
}

// BoundaryExchange describes the membrane-side sink and source of one
// cytosolic species: flux into the cell = Release - Capture*c.
type BoundaryExchange struct {
	Release float64
	Capture float64
}

// Exchange returns the release/capture pair of every non-SFK cytosolic
// species for membrane state m. SFK entries are left zero; their flux is
// driven by [ActiveDimer].
func Exchange(k *Kinetics, m *Membrane) [NumCytosolic]BoundaryExchange {
	var ex [NumCytosolic]BoundaryExchange
	dock := k.KG2f * m[DimerP]
	ex[GRB2] = BoundaryExchange{Release: k.KG2r * m[DimerGRB2], Capture: dock}
	ex[GRB2GAB1] = BoundaryExchange{Release: k.KG2r * m[DimerGRB2GAB1], Capture: dock}
	ex[GRB2PGAB1] = BoundaryExchange{Release: k.KG2r * m[DimerGRB2PGAB1], Capture: dock}
	ex[GRB2PGAB1SHP2] = BoundaryExchange{Release: k.KG2r * m[DimerGRB2PGAB1SHP2], Capture: dock}

	adaptor := k.KG1f * m[DimerGRB2]
	ex[GAB1] = BoundaryExchange{Release: k.KG1r * m[DimerGRB2GAB1], Capture: adaptor}
	ex[PGAB1] = BoundaryExchange{Release: k.KG1r * m[DimerGRB2PGAB1], Capture: adaptor}
	ex[PGAB1SHP2] = BoundaryExchange{Release: k.KG1r * m[DimerGRB2PGAB1SHP2], Capture: adaptor}

	ex[SHP2] = BoundaryExchange{Release: k.KS2r * m[DimerGRB2PGAB1SHP2], Capture: k.KS2f * m[DimerGRB2PGAB1]}
	return ex
}
