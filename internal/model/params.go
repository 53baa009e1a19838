package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/egfrsim/internal/dynamo"
)

// ConfinedDiffusivity is the near-zero transport coefficient used for active
// SFK when confinement is requested without an explicit override. It stays
// strictly positive so the membrane flux closed forms never divide by zero.
const ConfinedDiffusivity = 1e-10

// Diffusivities holds one transport coefficient per diffusing class.
// SFK covers both kinase states unless ActiveSFK overrides the active form.
type Diffusivities struct {
	SFK           float64 `yaml:"sfk" json:"sfk"`
	GAB1          float64 `yaml:"gab1" json:"gab1"`
	GRB2          float64 `yaml:"grb2" json:"grb2"`
	GRB2GAB1      float64 `yaml:"grb2_gab1" json:"grb2_gab1"`
	SHP2          float64 `yaml:"shp2" json:"shp2"`
	PGAB1SHP2     float64 `yaml:"pgab1_shp2" json:"pgab1_shp2"`
	GRB2PGAB1SHP2 float64 `yaml:"grb2_pgab1_shp2" json:"grb2_pgab1_shp2"`
	ActiveSFK     float64 `yaml:"active_sfk,omitempty" json:"active_sfk,omitempty"`
}

// DiffusivitiesFromVector reads the legacy positional layout:
// [SFK, GAB1, GRB2, GRB2-GAB1, SHP2, pGAB1-SHP2, GRB2-pGAB1-SHP2, (active SFK)].
func DiffusivitiesFromVector(v []float64) (Diffusivities, error) {
	if len(v) != 7 && len(v) != 8 {
		return Diffusivities{}, fmt.Errorf("%w: diffusivity vector needs 7 or 8 entries, got %d", dynamo.ErrInvalidParams, len(v))
	}
	d := Diffusivities{
		SFK:           v[0],
		GAB1:          v[1],
		GRB2:          v[2],
		GRB2GAB1:      v[3],
		SHP2:          v[4],
		PGAB1SHP2:     v[5],
		GRB2PGAB1SHP2: v[6],
	}
	if len(v) == 8 {
		d.ActiveSFK = v[7]
	}
	return d, nil
}

// Vector returns the legacy positional layout. The override is appended only when set.
func (d Diffusivities) Vector() []float64 {
	v := []float64{d.SFK, d.GAB1, d.GRB2, d.GRB2GAB1, d.SHP2, d.PGAB1SHP2, d.GRB2PGAB1SHP2}
	if d.ActiveSFK > 0 {
		v = append(v, d.ActiveSFK)
	}
	return v
}

func (d Diffusivities) Validate() error {
	for i, v := range d.Vector()[:7] {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: diffusivity %d must be positive and finite, got %g", dynamo.ErrInvalidParams, i, v)
		}
	}
	if d.ActiveSFK < 0 || math.IsNaN(d.ActiveSFK) || math.IsInf(d.ActiveSFK, 0) {
		return fmt.Errorf("%w: active SFK diffusivity must be non-negative, got %g", dynamo.ErrInvalidParams, d.ActiveSFK)
	}
	return nil
}

// PerSpecies expands the classes onto the ten cytosolic species. When confine
// is set the active kinase uses ActiveSFK, or ConfinedDiffusivity if unset.
func (d Diffusivities) PerSpecies(confine bool) Cytosol {
	active := d.SFK
	if confine {
		active = d.ActiveSFK
		if active <= 0 {
			active = ConfinedDiffusivity
		}
	}
	return Cytosol{
		SFK:           d.SFK,
		SFKActive:     active,
		GAB1:          d.GAB1,
		PGAB1:         d.GAB1,
		GRB2:          d.GRB2,
		GRB2GAB1:      d.GRB2GAB1,
		GRB2PGAB1:     d.GRB2GAB1,
		SHP2:          d.SHP2,
		PGAB1SHP2:     d.PGAB1SHP2,
		GRB2PGAB1SHP2: d.GRB2PGAB1SHP2,
	}
}

// Kinetics holds the rate constants of the network plus the ligand level.
// Suffix f/r marks binding/unbinding, p/dp phosphorylation/dephosphorylation.
type Kinetics struct {
	KS2f  float64 `yaml:"ks2f" json:"ks2f"`   // SHP2 binding to pGAB1
	KS2r  float64 `yaml:"ks2r" json:"ks2r"`   // SHP2 release
	KG1f  float64 `yaml:"kg1f" json:"kg1f"`   // GAB1 binding to GRB2
	KG1r  float64 `yaml:"kg1r" json:"kg1r"`   // GAB1 release
	KG2f  float64 `yaml:"kg2f" json:"kg2f"`   // GRB2 docking on the phosphorylated dimer
	KG2r  float64 `yaml:"kg2r" json:"kg2r"`   // GRB2 undocking
	KG1p  float64 `yaml:"kg1p" json:"kg1p"`   // GAB1 phosphorylation by active SFK
	KG1dp float64 `yaml:"kg1dp" json:"kg1dp"` // GAB1 dephosphorylation
	KSa   float64 `yaml:"ksa" json:"ksa"`     // SFK activation by active dimers
	KSi   float64 `yaml:"ksi" json:"ksi"`     // SFK inactivation
	KEGFf float64 `yaml:"kegff" json:"kegff"` // EGF binding
	KEGFr float64 `yaml:"kegfr" json:"kegfr"` // EGF release
	EGF   float64 `yaml:"egf" json:"egf"`     // ligand concentration
	KDf   float64 `yaml:"kdf" json:"kdf"`     // dimerization
	KDr   float64 `yaml:"kdr" json:"kdr"`     // dimer dissociation
	KEp   float64 `yaml:"kep" json:"kep"`     // dimer phosphorylation
	KEdp  float64 `yaml:"kedp" json:"kedp"`   // dimer dephosphorylation
}

// NumKinetics is the length of the legacy kinetic vector.
const NumKinetics = 17

var kineticNames = [NumKinetics]string{
	"ks2f", "ks2r", "kg1f", "kg1r", "kg2f", "kg2r", "kg1p", "kg1dp",
	"ksa", "ksi", "kegff", "kegfr", "egf", "kdf", "kdr", "kep", "kedp",
}

func (k *Kinetics) fields() [NumKinetics]*float64 {
	return [NumKinetics]*float64{
		&k.KS2f, &k.KS2r, &k.KG1f, &k.KG1r, &k.KG2f, &k.KG2r, &k.KG1p, &k.KG1dp,
		&k.KSa, &k.KSi, &k.KEGFf, &k.KEGFr, &k.EGF, &k.KDf, &k.KDr, &k.KEp, &k.KEdp,
	}
}

// KineticsFromVector reads the legacy 17-entry layout (see KineticNames for the order).
func KineticsFromVector(v []float64) (Kinetics, error) {
	var k Kinetics
	if len(v) != NumKinetics {
		return k, fmt.Errorf("%w: kinetic vector needs %d entries, got %d", dynamo.ErrInvalidParams, NumKinetics, len(v))
	}
	for i, p := range k.fields() {
		*p = v[i]
	}
	return k, nil
}

func (k Kinetics) Vector() []float64 {
	v := make([]float64, NumKinetics)
	for i, p := range k.fields() {
		v[i] = *p
	}
	return v
}

// KineticNames returns the parameter names in legacy vector order.
func KineticNames() []string {
	out := make([]string, NumKinetics)
	copy(out, kineticNames[:])
	return out
}

func (k Kinetics) Validate() error {
	for i, v := range k.Vector() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be non-negative and finite, got %g", dynamo.ErrInvalidParams, kineticNames[i], v)
		}
	}
	return nil
}

func (k *Kinetics) GetParams() map[string]float64 {
	out := make(map[string]float64, NumKinetics)
	for i, p := range k.fields() {
		out[kineticNames[i]] = *p
	}
	return out
}

func (k *Kinetics) SetParam(name string, value float64) error {
	for i, p := range k.fields() {
		if kineticNames[i] == name {
			*p = value
			return nil
		}
	}
	names := KineticNames()
	sort.Strings(names)
	return fmt.Errorf("%w: unknown kinetic parameter %q (known: %v)", dynamo.ErrInvalidParams, name, names)
}

// Initial holds the total amounts seeded at t=0. Cytosolic totals start as the
// free form, uniform in r; EGFR starts as free monomer.
type Initial struct {
	SFK  float64 `yaml:"sfk" json:"sfk"`
	GRB2 float64 `yaml:"grb2" json:"grb2"`
	GAB1 float64 `yaml:"gab1" json:"gab1"`
	SHP2 float64 `yaml:"shp2" json:"shp2"`
	EGFR float64 `yaml:"egfr" json:"egfr"`
}

// InitialFromVector reads the legacy layout [SFK, GRB2, GAB1, SHP2, EGFR].
func InitialFromVector(v []float64) (Initial, error) {
	if len(v) != 5 {
		return Initial{}, fmt.Errorf("%w: initial vector needs 5 entries, got %d", dynamo.ErrInvalidParams, len(v))
	}
	return Initial{SFK: v[0], GRB2: v[1], GAB1: v[2], SHP2: v[3], EGFR: v[4]}, nil
}

func (in Initial) Vector() []float64 {
	return []float64{in.SFK, in.GRB2, in.GAB1, in.SHP2, in.EGFR}
}

func (in Initial) Validate() error {
	for i, v := range in.Vector() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: initial concentration %d must be non-negative and finite, got %g", dynamo.ErrInvalidParams, i, v)
		}
	}
	return nil
}

// Cytosol returns the seeded value of every cytosolic species.
func (in Initial) Cytosol() Cytosol {
	var c Cytosol
	c[SFK] = in.SFK
	c[GRB2] = in.GRB2
	c[GAB1] = in.GAB1
	c[SHP2] = in.SHP2
	return c
}

// Membrane returns the seeded membrane state.
func (in Initial) Membrane() Membrane {
	var m Membrane
	m[EGFR] = in.EGFR
	return m
}

// Params bundles everything fixed for one run.
type Params struct {
	Diffusivity Diffusivities `yaml:"diffusivity" json:"diffusivity"`
	Kinetics    Kinetics      `yaml:"kinetics" json:"kinetics"`
}

func (p Params) Validate() error {
	if err := p.Diffusivity.Validate(); err != nil {
		return err
	}
	return p.Kinetics.Validate()
}

// DefaultParams returns a moderate, dimensionless parameter set on which the
// membrane coupling converges in a handful of iterations.
func DefaultParams() Params {
	return Params{
		Diffusivity: Diffusivities{
			SFK: 1, GAB1: 1, GRB2: 1, GRB2GAB1: 1, SHP2: 1, PGAB1SHP2: 1, GRB2PGAB1SHP2: 1,
		},
		Kinetics: Kinetics{
			KS2f: 1, KS2r: 0.1,
			KG1f: 1, KG1r: 0.1,
			KG2f: 1, KG2r: 0.1,
			KG1p: 1, KG1dp: 0.1,
			KSa: 1, KSi: 0.1,
			KEGFf: 1, KEGFr: 0.1, EGF: 1,
			KDf: 1, KDr: 0.1,
			KEp: 1, KEdp: 0.1,
		},
	}
}

// DefaultInitial returns unit totals for every species.
func DefaultInitial() Initial {
	return Initial{SFK: 1, GRB2: 1, GAB1: 1, SHP2: 1, EGFR: 1}
}
