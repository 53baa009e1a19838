// Package model defines the EGFR/SFK/GRB2/GAB1/SHP2 signaling network that the
// solver integrates.
//
// The network has two compartments:
//
//   - [Species]: ten cytosolic species that diffuse along the radial coordinate
//   - [MembraneSpecies]: eight receptor species held as well-mixed scalars at
//     the membrane
//
// Parameters are carried by named structs ([Diffusivities], [Kinetics],
// [Initial]). The positional vector layouts used by older drivers are still
// accepted through the FromVector helpers, which keep the original ordering.
//
// # Rate Laws
//
// [CytosolicRates] returns the net reaction rate of every cytosolic species at
// one grid node. [MembraneRates] returns the net rate of every membrane species
// given the membrane state and the cytosolic concentrations at the boundary.
// Both conserve their respective totals exactly:
//
//	var c model.Cytosol
//	var dc model.Cytosol
//	model.CytosolicRates(&k, &c, &dc)
package model
