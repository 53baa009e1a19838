package experiment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/egfrsim/internal/config"
)

func TestExperimentRun(t *testing.T) {
	cfg := config.GetPreset("grb2_gab1")
	exp := New(cfg)
	if _, err := exp.Run(context.Background()); err == nil {
		t.Fatal("expected error before setup")
	}

	ms, err := NewRegistry().GetMetrics("conservation")
	if err != nil {
		t.Fatal(err)
	}
	if err := exp.Setup(ms, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Samples() != cfg.Time.Samples {
		t.Errorf("samples = %d, want %d", res.Samples(), cfg.Time.Samples)
	}
	if res.Metrics["sfk_drift"] != 0 || res.Metrics["non_negative"] != 1 {
		t.Errorf("metrics = %v", res.Metrics)
	}
	if exp.GetSimulator() == nil {
		t.Error("simulator not exposed")
	}
}

func TestExperimentSetupRejectsInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Grid.Dr = 0
	if err := New(cfg).Setup(nil, nil); err == nil {
		t.Error("expected validation error")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.ListMetricSets()
	if len(names) != 4 || names[0] != "conservation" {
		t.Errorf("sets = %v", names)
	}
	a, _ := r.GetMetrics("default")
	b, _ := r.GetMetrics("default")
	if len(a) == 0 || a[0] == b[0] {
		t.Error("metric sets must be built fresh")
	}
	if _, err := r.GetMetrics("bogus"); err == nil {
		t.Error("expected unknown set error")
	}
}
