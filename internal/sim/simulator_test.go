package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/model"
)

func quietSimulator(p model.Params) *Simulator {
	s := New(p)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s
}

func zeroKinetics() model.Params {
	p := model.DefaultParams()
	p.Kinetics = model.Kinetics{}
	return p
}

func baseConfig() Config {
	return Config{Radius: 1, Dr: 0.1, FinalTime: 1, NumSamples: 10, ValidateState: true}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := quietSimulator(model.DefaultParams())

	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero radius", func(c *Config) { c.Radius = 0 }},
		{"negative dr", func(c *Config) { c.Dr = -0.1 }},
		{"zero final time", func(c *Config) { c.FinalTime = 0 }},
		{"no samples", func(c *Config) { c.NumSamples = 0 }},
		{"negative dt", func(c *Config) { c.Dt = -1 }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"bad policy", func(c *Config) { c.Sampling = SamplePolicy(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mod(&cfg)
			res, err := s.Run(context.Background(), model.DefaultInitial(), cfg)
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
			if res != nil {
				t.Error("expected no result for invalid config")
			}
			if s.Phase() != PhaseUninitialized {
				t.Errorf("phase = %v, want uninitialized", s.Phase())
			}
		})
	}
}

func TestSimulatorInvalidParams(t *testing.T) {
	p := model.DefaultParams()
	p.Diffusivity.SHP2 = 0
	if _, err := quietSimulator(p).Run(context.Background(), model.DefaultInitial(), baseConfig()); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("zero diffusivity: got %v", err)
	}

	in := model.DefaultInitial()
	in.GRB2 = -1
	if _, err := quietSimulator(model.DefaultParams()).Run(context.Background(), in, baseConfig()); !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("negative initial: got %v", err)
	}
}

func TestSimulatorSteadyState(t *testing.T) {
	s := quietSimulator(zeroKinetics())
	in := model.Initial{SFK: 0.7, GRB2: 1.3, GAB1: 2, SHP2: 0.4, EGFR: 1}

	res, err := s.Run(context.Background(), in, baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	seed := in.Cytosol()
	for sp := range seed {
		p := res.Profiles[sp]
		r, c := p.Dims()
		for i := 0; i < r; i++ {
			for k := 0; k < c; k++ {
				if p.At(i, k) != seed[sp] {
					t.Fatalf("%s node %d sample %d = %g, want %g", model.Species(sp), i, k, p.At(i, k), seed[sp])
				}
			}
		}
	}
	if s.Phase() != PhaseDone {
		t.Errorf("phase = %v, want done", s.Phase())
	}
}

type innerBoundaryCheck struct {
	t *testing.T
}

func (o innerBoundaryCheck) OnSample(s *Snapshot) {
	for i, c := range s.Cytosol {
		if c[0] != c[1] {
			o.t.Errorf("step %d %s: node0 %g != node1 %g", s.Step, model.Species(i), c[0], c[1])
		}
	}
}

func TestSimulatorZeroFluxCenter(t *testing.T) {
	s := quietSimulator(model.DefaultParams())
	s.AddObserver(innerBoundaryCheck{t})
	cfg := baseConfig()
	cfg.Sampling = SampleStride
	cfg.NumSamples = 1000

	if _, err := s.Run(context.Background(), model.DefaultInitial(), cfg); err != nil {
		t.Fatal(err)
	}
}

func TestSimulatorSampling(t *testing.T) {
	tests := []struct {
		name    string
		dt, tf  float64
		samples int
		start   SampleStart
		policy  SamplePolicy
		want    int
	}{
		{"aligned", 0.1, 3, 30, StartAtInterval, SampleInterval, 30},
		{"misaligned", 0.003, 1, 7, StartAtInterval, SampleInterval, 7},
		{"start at dt", 0.1, 3, 30, StartAtDt, SampleInterval, 30},
		{"coarser than dt", 0.25, 1, 10, StartAtInterval, SampleInterval, 4},
		{"stride", 0.01, 1, 10, StartAtInterval, SampleStride, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Radius: 1, Dr: 0.5, FinalTime: tt.tf, NumSamples: tt.samples,
				Dt: tt.dt, SampleStart: tt.start, Sampling: tt.policy,
			}
			res, err := quietSimulator(zeroKinetics()).Run(context.Background(), model.DefaultInitial(), cfg)
			if err != nil {
				t.Fatal(err)
			}
			if res.Samples() != tt.want {
				t.Fatalf("samples = %d, want %d (times %v)", res.Samples(), tt.want, res.Times)
			}
			for k := 1; k < len(res.Times); k++ {
				if res.Times[k] <= res.Times[k-1] {
					t.Errorf("times not increasing at %d: %v", k, res.Times)
				}
			}
			last := res.Times[len(res.Times)-1]
			if math.Abs(last-tt.tf) > tt.dt+1e-12 {
				t.Errorf("last sample %g more than dt from %g", last, tt.tf)
			}
			if _, c := res.Profiles[model.GRB2].Dims(); c != tt.want {
				t.Errorf("profile columns = %d, want %d", c, tt.want)
			}
		})
	}
}

func TestSimulatorDerivedTimeStep(t *testing.T) {
	p := model.DefaultParams()
	res, err := quietSimulator(p).Run(context.Background(), model.DefaultInitial(), baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	want := model.DefaultTimeStep(0.1, p.Diffusivity.PerSpecies(false), &p.Kinetics, model.DefaultInitial())
	if res.Dt != want {
		t.Errorf("dt = %g, want %g", res.Dt, want)
	}
	if res.Steps != int(math.Ceil(1/want-1e-9)) {
		t.Errorf("steps = %d", res.Steps)
	}
}

func TestSimulatorConfinedMatchesOpen(t *testing.T) {
	p := model.DefaultParams()
	p.Diffusivity.ActiveSFK = p.Diffusivity.SFK
	cfg := baseConfig()

	open, err := quietSimulator(p).Run(context.Background(), model.DefaultInitial(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ConfineActiveSFK = true
	confined, err := quietSimulator(p).Run(context.Background(), model.DefaultInitial(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	for sp := range open.Profiles {
		a, b := open.Profiles[sp], confined.Profiles[sp]
		r, c := a.Dims()
		for i := 0; i < r; i++ {
			for k := 0; k < c; k++ {
				if a.At(i, k) != b.At(i, k) {
					t.Fatalf("%s differs at node %d sample %d", model.Species(sp), i, k)
				}
			}
		}
	}
	for k := range open.SHP2Fraction {
		if open.SHP2Fraction[k] != confined.SHP2Fraction[k] {
			t.Fatalf("readout differs at sample %d", k)
		}
	}
}

func TestSimulatorConfinedRuns(t *testing.T) {
	cfg := baseConfig()
	cfg.ConfineActiveSFK = true
	res, err := quietSimulator(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	last := res.Samples() - 1
	prof := res.FinalProfile(model.SFKActive)
	nr := res.Grid.Nr
	if !(prof[nr] > 1e3*prof[nr-1]) || math.IsInf(prof[nr], 0) {
		t.Errorf("membrane active SFK %g, interior %g", prof[nr], prof[nr-1])
	}
	before := model.DefaultInitial().SFK * 0.9
	if got := res.CytosolTotal(model.SFKForms, last); math.Abs(got-before) > 1e-8 {
		t.Errorf("SFK total = %.12g, want %.12g", got, before)
	}
}

func TestSimulatorConservation(t *testing.T) {
	res, err := quietSimulator(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	in := model.DefaultInitial()
	interior := 0.9 // nodes 1..9 at dr=0.1

	for k := 0; k < res.Samples(); k++ {
		if got := res.CytosolTotal(model.SFKForms, k); math.Abs(got-in.SFK*interior) > 1e-8 {
			t.Errorf("sample %d: SFK total %.12g", k, got)
		}
		m := res.MembraneAt(k)
		if got := model.TotalReceptor(&m); math.Abs(got-in.EGFR) > 1e-9 {
			t.Errorf("sample %d: receptor total %.12g", k, got)
		}
		grb2 := res.CytosolTotal(model.GRB2Forms, k) + model.MembraneGRB2(&m)
		if math.Abs(grb2-in.GRB2*interior) > 0.03*in.GRB2*interior {
			t.Errorf("sample %d: GRB2 total %.6g", k, grb2)
		}
	}
	if res.Diagnostics.NonConvergedSteps != 0 {
		t.Errorf("non-converged steps: %d", res.Diagnostics.NonConvergedSteps)
	}
	if res.Diagnostics.MaxIterations >= DefaultMaxIter {
		t.Errorf("max iterations %d hit the cap", res.Diagnostics.MaxIterations)
	}
}

func TestSimulatorInstability(t *testing.T) {
	cfg := baseConfig()
	cfg.Dt = 0.05 // 5x the diffusion limit at dr=0.1, D=1
	cfg.FinalTime = 50

	res, err := quietSimulator(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), cfg)
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Fatalf("got %v, want ErrUnstable", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if res == nil || res.Steps >= 1000 {
		t.Fatalf("expected partial result, got %+v", res)
	}
	if simErr.Step != res.Steps+1 {
		t.Errorf("failed at step %d after %d committed steps", simErr.Step, res.Steps)
	}
	want := 1
	if res.Diagnostics.NonConvergedSteps > 0 {
		want = 2
	}
	if len(res.Errors) != want || !errors.Is(res.Errors[0], dynamo.ErrUnstable) {
		t.Errorf("errors = %v", res.Errors)
	}
	for _, v := range res.SHP2Fraction {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatal("non-finite readout recorded")
		}
	}
}

func TestSimulatorInstabilityKeepsDiagnostics(t *testing.T) {
	cfg := baseConfig()
	cfg.Dt = 0.05
	cfg.FinalTime = 50
	cfg.MaxIter = 1
	cfg.Tolerance = 1e-300

	res, err := quietSimulator(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), cfg)
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Fatalf("got %v, want ErrUnstable", err)
	}
	if res.Diagnostics.NonConvergedSteps == 0 {
		t.Fatalf("diagnostics %+v", res.Diagnostics)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if !errors.Is(res.Errors[0], dynamo.ErrUnstable) || !errors.Is(res.Errors[1], dynamo.ErrNotConverged) {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestSimulatorNonConvergenceIsCounted(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxIter = 1
	cfg.Tolerance = 1e-300

	res, err := quietSimulator(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), cfg)
	if err != nil {
		t.Fatalf("non-convergence must not abort: %v", err)
	}
	d := res.Diagnostics
	if d.NonConvergedSteps == 0 || d.FirstNonConverged < 0 {
		t.Errorf("diagnostics %+v", d)
	}
	if !errors.Is(d.Err(), dynamo.ErrNotConverged) {
		t.Errorf("Err() = %v", d.Err())
	}
	if len(res.Errors) != 1 {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := quietSimulator(model.DefaultParams()).Run(ctx, model.DefaultInitial(), baseConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	if res == nil || res.Steps != 0 || res.Samples() != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Profiles[model.GRB2] != nil {
		t.Error("expected nil profiles without samples")
	}
}

type countingMetric struct{ n int }

func (m *countingMetric) Name() string      { return "count" }
func (m *countingMetric) Observe(*Snapshot) { m.n++ }
func (m *countingMetric) Value() float64    { return float64(m.n) }
func (m *countingMetric) Reset()            { m.n = 0 }

func TestSimulatorMetricsReset(t *testing.T) {
	s := quietSimulator(zeroKinetics())
	m := &countingMetric{}
	s.AddMetric(m)

	for i := 0; i < 2; i++ {
		res, err := s.Run(context.Background(), model.DefaultInitial(), baseConfig())
		if err != nil {
			t.Fatal(err)
		}
		if res.Metrics["count"] != 10 {
			t.Errorf("run %d: count = %g, want 10", i, res.Metrics["count"])
		}
	}
}

type phaseRecorder struct{ phases []Phase }

func (p *phaseRecorder) OnSample(*Snapshot) {}
func (p *phaseRecorder) OnPhase(ph Phase)   { p.phases = append(p.phases, ph) }

func TestSimulatorPhases(t *testing.T) {
	s := quietSimulator(zeroKinetics())
	rec := &phaseRecorder{}
	s.AddObserver(rec)
	cfg := baseConfig()
	cfg.NumSamples = 1

	if _, err := s.Run(context.Background(), model.DefaultInitial(), cfg); err != nil {
		t.Fatal(err)
	}
	want := []Phase{PhaseStepping, PhaseSampling, PhaseStepping, PhaseDone}
	if len(rec.phases) != len(want) {
		t.Fatalf("phases = %v, want %v", rec.phases, want)
	}
	for i := range want {
		if rec.phases[i] != want[i] {
			t.Errorf("phase %d = %v, want %v", i, rec.phases[i], want[i])
		}
	}
}

func TestEnsemble(t *testing.T) {
	bad := model.DefaultParams()
	bad.Diffusivity.GRB2 = -1

	jobs := []Job{
		{Name: "a", Params: model.DefaultParams(), Initial: model.DefaultInitial(), Config: baseConfig()},
		{Name: "b", Params: zeroKinetics(), Initial: model.DefaultInitial(), Config: baseConfig()},
		{Name: "bad", Params: bad, Initial: model.DefaultInitial(), Config: baseConfig()},
	}
	e := NewEnsemble(2).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithMetrics(func() []Metric { return []Metric{&countingMetric{}} })

	results, err := e.Run(context.Background(), jobs)
	if !errors.Is(err, dynamo.ErrInvalidParams) {
		t.Errorf("joined error = %v", err)
	}
	if results[0] == nil || results[1] == nil || results[2] != nil {
		t.Fatalf("results = %v", results)
	}
	if results[0].Metrics["count"] != 10 || results[1].Metrics["count"] != 10 {
		t.Errorf("metrics = %v, %v", results[0].Metrics, results[1].Metrics)
	}

	single, err := quietSimulator(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), baseConfig())
	if err != nil {
		t.Fatal(err)
	}
	for k := range single.SHP2Fraction {
		if single.SHP2Fraction[k] != results[0].SHP2Fraction[k] {
			t.Fatalf("ensemble run differs from a direct run at sample %d", k)
		}
	}
}
