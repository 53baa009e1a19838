package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/grid"
	"github.com/san-kum/egfrsim/internal/model"
)

// Simulator integrates the reaction-diffusion network for one parameter set.
// A Simulator runs one simulation at a time; use one per goroutine.
type Simulator struct {
	params    model.Params
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
	phase     Phase
}

func New(p model.Params) *Simulator {
	return &Simulator{
		params:    p,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    slog.Default(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Simulator) Params() model.Params { return s.params }
func (s *Simulator) Phase() Phase        { return s.phase }

// Run integrates from the uniform initial state to cfg.FinalTime.
//
// Configuration and parameter errors are returned before any step is taken.
// An instability stops the run; the samples recorded so far are returned with
// a *dynamo.SimulationError wrapping dynamo.ErrUnstable. Membrane coupling
// that misses its tolerance never stops the run and is reported in
// Result.Diagnostics.
func (s *Simulator) Run(ctx context.Context, in model.Initial, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	g, err := grid.New(cfg.Radius, cfg.Dr)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	st := newState(g, s.params, cfg.ConfineActiveSFK, in)
	dt := cfg.Dt
	if dt == 0 {
		dt = model.DefaultTimeStep(g.Dr, st.diff, &st.k, in)
	}
	steps := int(math.Ceil(cfg.FinalTime/dt - 1e-9))
	smp := newSampler(cfg, dt)
	egfrTotal := in.EGFR

	result := newResult(g, dt, egfrTotal, smp.capacity(steps))
	for _, m := range s.metrics {
		m.Reset()
	}

	var couplers []CouplingObserver
	for _, o := range s.observers {
		if c, ok := o.(CouplingObserver); ok {
			couplers = append(couplers, c)
		}
	}
	trace := len(couplers) > 0

	s.logger.Debug("run start",
		"nodes", g.Len(), "dr", g.Dr, "dt", dt, "steps", steps,
		"samples", cfg.NumSamples, "confined", cfg.ConfineActiveSFK)

	s.setPhase(PhaseStepping)
	for n := 1; n <= steps; n++ {
		select {
		case <-ctx.Done():
			s.setPhase(PhaseDone)
			result.finish(s.metrics)
			return result, ctx.Err()
		default:
		}

		t := float64(n) * dt

		st.bulk(dt)
		st.innerBoundary()
		rep := st.couple(dt, cfg.MaxIter, cfg.Tolerance, trace)

		result.Diagnostics.record(rep, t)
		if !rep.Converged && result.Diagnostics.NonConvergedSteps == 1 {
			s.logger.Warn("membrane coupling did not converge",
				"step", n, "t", t, "iterations", rep.Iterations, "residual", rep.Residual)
		}
		for _, c := range couplers {
			c.OnCoupling(n, rep)
		}

		if cfg.ValidateState {
			if field, ok := st.checkNext(); !ok {
				err := &dynamo.SimulationError{Step: n, Time: t, Field: field, Wrapped: dynamo.ErrUnstable}
				result.Errors = append(result.Errors, err)
				s.logger.Error("simulation unstable", "step", n, "t", t, "field", field, "dt", dt)
				s.setPhase(PhaseDone)
				result.finish(s.metrics)
				if derr := result.Diagnostics.Err(); derr != nil {
					result.Errors = append(result.Errors, derr)
				}
				s.logger.Info("run stopped",
					"steps", result.Steps, "samples", result.Samples(), "diagnostics", result.Diagnostics)
				return result, err
			}
		}

		st.commit()
		result.Steps = n

		if smp.due(n, t) {
			s.setPhase(PhaseSampling)
			snap := st.snapshot(n, t, dt, cfg.FinalTime, egfrTotal)
			result.record(snap)
			for _, m := range s.metrics {
				m.Observe(snap)
			}
			for _, o := range s.observers {
				o.OnSample(snap)
			}
			s.setPhase(PhaseStepping)
		}
	}

	s.setPhase(PhaseDone)
	result.finish(s.metrics)
	if err := result.Diagnostics.Err(); err != nil {
		result.Errors = append(result.Errors, err)
	}

	s.logger.Info("run complete",
		"steps", result.Steps, "samples", result.Samples(), "diagnostics", result.Diagnostics)
	return result, nil
}

func (s *Simulator) setPhase(p Phase) {
	s.phase = p
	for _, o := range s.observers {
		if po, ok := o.(PhaseObserver); ok {
			po.OnPhase(p)
		}
	}
}

func validateConfig(cfg Config) error {
	if !(cfg.FinalTime > 0) || math.IsInf(cfg.FinalTime, 0) {
		return fmt.Errorf("%w: final time must be positive, got %g", dynamo.ErrInvalidConfig, cfg.FinalTime)
	}
	if cfg.NumSamples <= 0 {
		return fmt.Errorf("%w: number of samples must be positive, got %d", dynamo.ErrInvalidConfig, cfg.NumSamples)
	}
	if cfg.Dt < 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, cfg.Dt)
	}
	if cfg.MaxIter < 0 {
		return fmt.Errorf("%w: iteration cap must be positive, got %d", dynamo.ErrInvalidConfig, cfg.MaxIter)
	}
	if !(cfg.Tolerance > 0) {
		return fmt.Errorf("%w: tolerance must be positive, got %g", dynamo.ErrInvalidConfig, cfg.Tolerance)
	}
	if cfg.Sampling != SampleInterval && cfg.Sampling != SampleStride {
		return fmt.Errorf("%w: unknown sampling policy %d", dynamo.ErrInvalidConfig, int(cfg.Sampling))
	}
	return nil
}
