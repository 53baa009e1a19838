package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/egfrsim/internal/config"
	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/experiment"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
	"github.com/san-kum/egfrsim/internal/storage"
)

// Scenario defines a scripted batch of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. A step starts from a preset or
// a config file and applies its overrides on top.
type ScenarioStep struct {
	Name      string             `yaml:"name"`
	Preset    string             `yaml:"preset"`
	Config    string             `yaml:"config"`
	FinalTime float64            `yaml:"final_time"`
	Samples   int                `yaml:"samples"`
	Dt        float64            `yaml:"dt"`
	Confine   *bool              `yaml:"confine"`
	Params    map[string]float64 `yaml:"params"`
	Initial   *model.Initial     `yaml:"initial"`
	Metrics   string             `yaml:"metrics"`
	Save      bool               `yaml:"save"`
}

// StepResult pairs a scenario step with its outcome.
type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrInvalidConfig, scenario.Name)
	}
	return &scenario, nil
}

// Resolve builds the run configuration of the step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		c, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if s.Name != "" {
		cfg.Name = s.Name
	}
	if s.FinalTime > 0 {
		cfg.Time.Final = s.FinalTime
	}
	if s.Samples > 0 {
		cfg.Time.Samples = s.Samples
	}
	if s.Dt > 0 {
		cfg.Time.Dt = s.Dt
	}
	if s.Confine != nil {
		cfg.Solver.ConfineActiveSFK = *s.Confine
	}
	if s.Initial != nil {
		cfg.Initial = *s.Initial
	}
	for k, v := range s.Params {
		if err := cfg.Kinetics.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Runs are saved to st when the step
// asks for it and st is not nil. An unstable step keeps its partial result and
// stops the scenario.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", cfg.Name)

		setName := step.Metrics
		if setName == "" {
			setName = "default"
		}
		ms, err := registry.GetMetrics(setName)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(ms, logger); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, runErr := exp.Run(ctx)
		sr := StepResult{Name: cfg.Name, Result: result}
		if result != nil && step.Save && st != nil {
			id, err := st.Save(cfg, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = id
		}
		if result != nil {
			results = append(results, sr)
		}
		if runErr != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, runErr)
		}
	}

	return results, nil
}

// MonteCarloConfig perturbs the initial totals of a base configuration.
type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation is the relative half-width of the uniform noise, in [0, 1].
	Perturbation float64
	NumTrials    int
	Seed         int64
	Workers      int
}

// MonteCarloResult holds one perturbed trial.
type MonteCarloResult struct {
	TrialID int
	Initial model.Initial
	Result  *sim.Result
	Stable  bool
	Err     error
}

// RunMonteCarlo runs every trial through an ensemble. Per-trial failures are
// recorded on the trial; only setup errors are returned.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, metrics func() []sim.Metric, logger *slog.Logger) ([]MonteCarloResult, error) {
	if cfg.Base == nil {
		return nil, fmt.Errorf("%w: monte carlo needs a base config", dynamo.ErrInvalidConfig)
	}
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", dynamo.ErrInvalidConfig, cfg.NumTrials)
	}
	if cfg.Perturbation < 0 || cfg.Perturbation > 1 {
		return nil, fmt.Errorf("%w: perturbation must be in [0, 1], got %g", dynamo.ErrInvalidConfig, cfg.Perturbation)
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}
	simCfg, err := cfg.Base.SimConfig()
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	jobs := make([]sim.Job, cfg.NumTrials)
	for trial := range jobs {
		base := cfg.Base.Initial.Vector()
		for i, v := range base {
			base[i] = v * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
		}
		in, err := model.InitialFromVector(base)
		if err != nil {
			return nil, err
		}
		jobs[trial] = sim.Job{
			Name:    fmt.Sprintf("trial-%d", trial),
			Params:  cfg.Base.Params(),
			Initial: in,
			Config:  simCfg,
		}
	}

	ens := sim.NewEnsemble(cfg.Workers).WithMetrics(metrics).WithLogger(logger)
	runs, _ := ens.Run(ctx, jobs)

	results := make([]MonteCarloResult, len(jobs))
	for i, job := range jobs {
		r := MonteCarloResult{TrialID: i, Initial: job.Initial, Result: runs[i]}
		if runs[i] != nil {
			r.Err = errors.Join(runs[i].Errors...)
		}
		r.Stable = runs[i] != nil && !errors.Is(r.Err, dynamo.ErrUnstable)
		results[i] = r
	}
	return results, ctx.Err()
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
