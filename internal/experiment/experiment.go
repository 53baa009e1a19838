package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/egfrsim/internal/config"
	"github.com/san-kum/egfrsim/internal/sim"
)

// Experiment binds a loaded configuration to a ready simulator.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(metrics []sim.Metric, logger *slog.Logger) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	e.simulator = sim.New(e.cfg.Params())
	e.simulator.SetLogger(logger)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	simCfg, err := e.cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	return e.simulator.Run(ctx, e.cfg.Initial, simCfg)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
