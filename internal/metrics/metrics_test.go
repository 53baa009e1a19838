package metrics

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/san-kum/egfrsim/internal/grid"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

func snapshot(t *testing.T, at float64, shp2 float64) *sim.Snapshot {
	t.Helper()
	g, err := grid.New(1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	s := &sim.Snapshot{Time: at, Grid: g, SHP2Fraction: shp2, PhosphoFraction: 2 * shp2}
	for i := range s.Cytosol {
		s.Cytosol[i] = []float64{1, 1, 1}
	}
	s.Membrane[model.EGFR] = 1
	return s
}

func TestPeak(t *testing.T) {
	m := NewPeak("peak", Phospho)
	for i, v := range []float64{0.1, 0.3, 0.2} {
		m.Observe(snapshot(t, float64(i), v))
	}
	if m.Value() != 0.6 {
		t.Errorf("peak = %g, want 0.6", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Errorf("after reset = %g", m.Value())
	}
}

func TestHalfMax(t *testing.T) {
	m := NewHalfMax("half", SHP2)
	for i, v := range []float64{0, 0.2, 0.4} {
		m.Observe(snapshot(t, float64(i), v))
	}
	if got := m.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("half max time = %g, want 1", got)
	}
	m.Reset()
	if got := m.Value(); got != -1 {
		t.Errorf("empty half max = %g, want -1", got)
	}
}

func TestNonNegative(t *testing.T) {
	m := NewNonNegative(1e-12)
	m.Observe(snapshot(t, 0, 0))
	bad := snapshot(t, 1, 0)
	bad.Cytosol[model.GRB2] = []float64{1, -1, 1}
	m.Observe(bad)
	if m.Value() != 0.5 {
		t.Errorf("value = %g, want 0.5", m.Value())
	}
	m.Reset()
	if m.Value() != 1 {
		t.Errorf("after reset = %g", m.Value())
	}
}

func TestDrift(t *testing.T) {
	m := NewGRB2Drift()
	first := snapshot(t, 0, 0)
	m.Observe(first)

	moved := snapshot(t, 1, 0)
	moved.Cytosol[model.GRB2] = []float64{1, 0.5, 1}
	moved.Membrane[model.DimerGRB2] = 0.125
	m.Observe(moved)

	// interior GRB2 forms: 4 species x 1 node x dr 0.5 = 2, then 1.75 + 0.125
	if got := m.Value(); math.Abs(got-0.0625) > 1e-12 {
		t.Errorf("drift = %g, want 0.0625", got)
	}
}

func TestDefaultMetricsOnRun(t *testing.T) {
	s := sim.New(model.DefaultParams())
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, m := range Default() {
		s.AddMetric(m)
	}
	res, err := s.Run(context.Background(), model.DefaultInitial(),
		sim.Config{Radius: 1, Dr: 0.1, FinalTime: 1, NumSamples: 10, ValidateState: true})
	if err != nil {
		t.Fatal(err)
	}

	if res.Metrics["receptor_drift"] > 1e-12 {
		t.Errorf("receptor drift = %g", res.Metrics["receptor_drift"])
	}
	if res.Metrics["sfk_drift"] > 1e-10 {
		t.Errorf("SFK drift = %g", res.Metrics["sfk_drift"])
	}
	if res.Metrics["grb2_drift"] > 1e-3 {
		t.Errorf("GRB2 drift = %g", res.Metrics["grb2_drift"])
	}
	if res.Metrics["non_negative"] != 1 {
		t.Errorf("non_negative = %g", res.Metrics["non_negative"])
	}
	if res.Metrics["peak_phospho"] != res.PhosphoFraction[len(res.PhosphoFraction)-1] {
		t.Errorf("phospho should peak at the last sample: %g", res.Metrics["peak_phospho"])
	}
	if res.Metrics["half_max_shp2"] <= 0 {
		t.Errorf("half max time = %g", res.Metrics["half_max_shp2"])
	}
}
