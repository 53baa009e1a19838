package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/egfrsim/internal/config"
	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/experiment"
	"github.com/san-kum/egfrsim/internal/metrics"
	"github.com/san-kum/egfrsim/internal/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const batch = `
name: egf-series
description: two short runs
steps:
  - name: low
    preset: baseline
    final_time: 0.5
    samples: 5
    params:
      egf: 0.5
    save: true
  - name: binding
    preset: grb2_gab1
    metrics: conservation
    initial:
      sfk: 1
      grb2: 2
      gab1: 1
      shp2: 1
      egfr: 1
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(batch))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "egf-series" || len(sc.Steps) != 2 {
		t.Fatalf("scenario = %+v", sc)
	}
	cfg, err := sc.Steps[0].Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "low" || cfg.Time.Final != 0.5 || cfg.Time.Samples != 5 || cfg.Kinetics.EGF != 0.5 {
		t.Errorf("resolved = %+v", cfg)
	}

	if _, err := ParseScenario([]byte("name: empty\n")); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("empty scenario err = %v", err)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
	}{
		{"unknown preset", ScenarioStep{Preset: "nope"}},
		{"unknown param", ScenarioStep{Params: map[string]float64{"kzz": 1}}},
		{"negative param", ScenarioStep{Params: map[string]float64{"kg1f": -1}}},
		{"missing file", ScenarioStep{Config: "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.step.Resolve(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(batch))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), st, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].RunID == "" || results[1].RunID != "" {
		t.Errorf("run ids = %q, %q", results[0].RunID, results[1].RunID)
	}
	if results[0].Result.Samples() != 5 {
		t.Errorf("samples = %d", results[0].Result.Samples())
	}
	if _, ok := results[1].Result.Metrics["grb2_drift"]; !ok {
		t.Errorf("metrics = %v", results[1].Result.Metrics)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Name != "low" {
		t.Errorf("stored runs = %+v", runs)
	}
}

func TestRunScenarioStopsOnInstability(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{
		{Name: "unstable", Dt: 0.05, FinalTime: 50},
		{Name: "never"},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, quiet)
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Fatalf("err = %v", err)
	}
	if len(results) != 1 || results[0].Name != "unstable" {
		t.Errorf("results = %+v", results)
	}
}

func TestRunMonteCarlo(t *testing.T) {
	cfg := &MonteCarloConfig{
		Base:         config.DefaultConfig(),
		Perturbation: 0.2,
		NumTrials:    4,
		Seed:         7,
		Workers:      2,
	}
	results, err := RunMonteCarlo(context.Background(), cfg, metrics.Default, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d", len(results))
	}
	for _, r := range results {
		for i, v := range r.Initial.Vector() {
			base := cfg.Base.Initial.Vector()[i]
			if v < base*0.8-1e-12 || v > base*1.2+1e-12 {
				t.Errorf("trial %d: initial %d = %g outside perturbation", r.TrialID, i, v)
			}
		}
		if r.Result == nil || r.Result.Samples() != cfg.Base.Time.Samples {
			t.Errorf("trial %d: bad result", r.TrialID)
		}
	}
	stable, unstable := MonteCarloStats(results)
	if stable != 4 || unstable != 0 {
		t.Errorf("stable = %d, unstable = %d", stable, unstable)
	}

	again, err := RunMonteCarlo(context.Background(), cfg, nil, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if again[2].Initial != results[2].Initial {
		t.Error("same seed should give the same trials")
	}
}

func TestRunMonteCarloInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  MonteCarloConfig
	}{
		{"no base", MonteCarloConfig{NumTrials: 1}},
		{"no trials", MonteCarloConfig{Base: config.DefaultConfig()}},
		{"perturbation", MonteCarloConfig{Base: config.DefaultConfig(), NumTrials: 1, Perturbation: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RunMonteCarlo(context.Background(), &tt.cfg, nil, quiet); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("err = %v", err)
			}
		})
	}
}
