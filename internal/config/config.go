package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

const (
	DefaultRadius     = 1.0
	DefaultDr         = 0.1
	DefaultFinalTime  = 1.0
	DefaultNumSamples = 10
)

type Config struct {
	Name        string              `yaml:"name,omitempty"`
	Grid        GridConfig          `yaml:"grid"`
	Time        TimeConfig          `yaml:"time"`
	Solver      SolverConfig        `yaml:"solver"`
	Diffusivity model.Diffusivities `yaml:"diffusivity"`
	Kinetics    model.Kinetics      `yaml:"kinetics"`
	Initial     model.Initial       `yaml:"initial"`
}

type GridConfig struct {
	Radius float64 `yaml:"radius"`
	Dr     float64 `yaml:"dr"`
}

type TimeConfig struct {
	Final   float64 `yaml:"final"`
	Dt      float64 `yaml:"dt,omitempty"`
	Samples int     `yaml:"samples"`
	// Sampling is "interval" (default) or "stride".
	Sampling string `yaml:"sampling,omitempty"`
	// SampleStart is "interval" (default) or "dt".
	SampleStart string `yaml:"sample_start,omitempty"`
}

type SolverConfig struct {
	MaxIter          int     `yaml:"max_iter"`
	Tolerance        float64 `yaml:"tolerance"`
	ConfineActiveSFK bool    `yaml:"confine_active_sfk"`
	ValidateState    bool    `yaml:"validate_state"`
}

func DefaultConfig() *Config {
	p := model.DefaultParams()
	return &Config{
		Name: "baseline",
		Grid: GridConfig{Radius: DefaultRadius, Dr: DefaultDr},
		Time: TimeConfig{Final: DefaultFinalTime, Samples: DefaultNumSamples},
		Solver: SolverConfig{
			MaxIter:       sim.DefaultMaxIter,
			Tolerance:     sim.DefaultTolerance,
			ValidateState: true,
		},
		Diffusivity: p.Diffusivity,
		Kinetics:    p.Kinetics,
		Initial:     model.DefaultInitial(),
	}
}

// Load overlays the file at path on DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate checks everything that can be checked without building a grid.
func (c *Config) Validate() error {
	if c.Grid.Radius <= 0 || c.Grid.Dr <= 0 {
		return fmt.Errorf("%w: grid radius and dr must be positive", dynamo.ErrInvalidConfig)
	}
	if c.Time.Final <= 0 || c.Time.Samples <= 0 {
		return fmt.Errorf("%w: final time and samples must be positive", dynamo.ErrInvalidConfig)
	}
	if _, err := c.SimConfig(); err != nil {
		return err
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	return c.Initial.Validate()
}

func (c *Config) Params() model.Params {
	return model.Params{Diffusivity: c.Diffusivity, Kinetics: c.Kinetics}
}

func (c *Config) SimConfig() (sim.Config, error) {
	policy, err := sim.ParseSamplePolicy(c.Time.Sampling)
	if err != nil {
		return sim.Config{}, err
	}
	var start sim.SampleStart
	switch c.Time.SampleStart {
	case "", "interval":
		start = sim.StartAtInterval
	case "dt":
		start = sim.StartAtDt
	default:
		return sim.Config{}, fmt.Errorf("%w: unknown sample start %q", dynamo.ErrInvalidConfig, c.Time.SampleStart)
	}
	return sim.Config{
		Radius:           c.Grid.Radius,
		Dr:               c.Grid.Dr,
		FinalTime:        c.Time.Final,
		NumSamples:       c.Time.Samples,
		Dt:               c.Time.Dt,
		MaxIter:          c.Solver.MaxIter,
		Tolerance:        c.Solver.Tolerance,
		ConfineActiveSFK: c.Solver.ConfineActiveSFK,
		Sampling:         policy,
		SampleStart:      start,
		ValidateState:    c.Solver.ValidateState,
	}, nil
}
