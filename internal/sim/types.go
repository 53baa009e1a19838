package sim

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/grid"
	"github.com/san-kum/egfrsim/internal/model"
)

const (
	DefaultMaxIter   = 20
	DefaultTolerance = 1e-6
)

// Phase is the driver's position in its run state machine.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseStepping
	PhaseSampling
	PhaseDone
)

var phaseNames = [...]string{"uninitialized", "stepping", "sampling", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// SamplePolicy selects when output snapshots are taken.
type SamplePolicy int

const (
	// SampleInterval records whenever elapsed time reaches the next output time.
	SampleInterval SamplePolicy = iota
	// SampleStride records every round(interval/dt) steps.
	SampleStride
)

func (p SamplePolicy) String() string {
	switch p {
	case SampleInterval:
		return "interval"
	case SampleStride:
		return "stride"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func ParseSamplePolicy(name string) (SamplePolicy, error) {
	switch name {
	case "", "interval":
		return SampleInterval, nil
	case "stride":
		return SampleStride, nil
	}
	return 0, fmt.Errorf("%w: unknown sampling policy %q", dynamo.ErrInvalidConfig, name)
}

// SampleStart places the first output time.
type SampleStart int

const (
	StartAtInterval SampleStart = iota
	StartAtDt
)

// Config holds everything about a run that is not a model parameter.
type Config struct {
	Radius     float64
	Dr         float64
	FinalTime  float64
	NumSamples int

	// Dt is the fixed time step. Zero derives it from model.DefaultTimeStep.
	Dt float64

	MaxIter   int
	Tolerance float64

	// ConfineActiveSFK replaces the active kinase diffusivity with the
	// ActiveSFK override (or model.ConfinedDiffusivity).
	ConfineActiveSFK bool

	Sampling    SamplePolicy
	SampleStart SampleStart

	// ValidateState stops the run at the first non-finite value.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Radius:        1,
		Dr:            0.1,
		FinalTime:     1,
		NumSamples:    10,
		MaxIter:       DefaultMaxIter,
		Tolerance:     DefaultTolerance,
		ValidateState: true,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxIter == 0 {
		c.MaxIter = DefaultMaxIter
	}
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	return c
}

// Snapshot is what metrics and observers see at a sample. Cytosol holds
// views into solver memory and must not be retained past the callback.
type Snapshot struct {
	Step      int
	Time      float64
	FinalTime float64
	Dt        float64
	Grid      *grid.Radial
	Cytosol   [model.NumCytosolic][]float64
	Membrane  model.Membrane
	EGFRTotal float64

	SHP2Fraction    float64
	PhosphoFraction float64
}

type Metric interface {
	Name() string
	Observe(s *Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s *Snapshot)
}

// PhaseObserver is implemented by observers that follow the state machine.
type PhaseObserver interface {
	OnPhase(p Phase)
}

// CouplingObserver is implemented by observers that want every membrane
// fixed-point report, including the per-iteration residual trace.
type CouplingObserver interface {
	OnCoupling(step int, r CouplingReport)
}

// CouplingReport describes one membrane fixed-point solve.
type CouplingReport struct {
	Iterations int
	Residual   float64
	Converged  bool
	Residuals  []float64
}

// Diagnostics aggregates coupler behaviour over a run.
type Diagnostics struct {
	Steps             int
	NonConvergedSteps int
	TotalIterations   int
	MaxIterations     int
	WorstResidual     float64
	// FirstNonConverged is the time of the first non-converged step, or -1.
	FirstNonConverged float64
}

func (d *Diagnostics) record(r CouplingReport, t float64) {
	d.Steps++
	d.TotalIterations += r.Iterations
	d.MaxIterations = max(d.MaxIterations, r.Iterations)
	if !r.Converged {
		if d.NonConvergedSteps == 0 {
			d.FirstNonConverged = t
		}
		d.NonConvergedSteps++
		d.WorstResidual = math.Max(d.WorstResidual, r.Residual)
	}
}

func (d Diagnostics) MeanIterations() float64 {
	if d.Steps == 0 {
		return 0
	}
	return float64(d.TotalIterations) / float64(d.Steps)
}

// Err reports non-convergence as an error wrapping dynamo.ErrNotConverged.
func (d Diagnostics) Err() error {
	if d.NonConvergedSteps == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d steps, first at t=%.6g, worst residual %.3g",
		dynamo.ErrNotConverged, d.NonConvergedSteps, d.Steps, d.FirstNonConverged, d.WorstResidual)
}

func (d Diagnostics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("steps", d.Steps),
		slog.Int("non_converged", d.NonConvergedSteps),
		slog.Float64("mean_iterations", d.MeanIterations()),
		slog.Int("max_iterations", d.MaxIterations),
		slog.Float64("worst_residual", d.WorstResidual),
	)
}

// Result is the output bundle of one run. Profiles are nodes x samples.
//
// In confined runs the active-SFK row at the membrane node (row Nr) holds the
// flux balance against model.ConfinedDiffusivity and is many orders of
// magnitude above the interior; readouts and totals never include it.
type Result struct {
	Grid  *grid.Radial
	Times []float64
	Dt    float64
	Steps int

	Profiles [model.NumCytosolic]*mat.Dense
	Membrane [model.NumMembrane][]float64

	SHP2Fraction    []float64
	PhosphoFraction []float64
	EGFRTotal       float64

	Metrics     map[string]float64
	Diagnostics Diagnostics
	Errors      []error

	columns [model.NumCytosolic][][]float64
}
