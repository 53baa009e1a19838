package metrics

import (
	"github.com/san-kum/egfrsim/internal/analysis"
	"github.com/san-kum/egfrsim/internal/sim"
)

// Readout selects one of the normalized readouts from a snapshot.
type Readout func(s *sim.Snapshot) float64

func SHP2(s *sim.Snapshot) float64    { return s.SHP2Fraction }
func Phospho(s *sim.Snapshot) float64 { return s.PhosphoFraction }

type Peak struct {
	name string
	read Readout
	peak float64
}

func NewPeak(name string, read Readout) *Peak {
	return &Peak{name: name, read: read}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s *sim.Snapshot) {
	p.peak = max(p.peak, p.read(s))
}

func (p *Peak) Value() float64 { return p.peak }
func (p *Peak) Reset()         { p.peak = 0 }

// HalfMax reports the time a readout first reaches half its running peak,
// or -1 if it never rises.
type HalfMax struct {
	name   string
	read   Readout
	times  []float64
	values []float64
}

func NewHalfMax(name string, read Readout) *HalfMax {
	return &HalfMax{name: name, read: read}
}

func (h *HalfMax) Name() string { return h.name }

func (h *HalfMax) Observe(s *sim.Snapshot) {
	h.times = append(h.times, s.Time)
	h.values = append(h.values, h.read(s))
}

func (h *HalfMax) Value() float64 {
	t, ok := analysis.HalfMaxTime(h.times, h.values)
	if !ok {
		return -1
	}
	return t
}

func (h *HalfMax) Reset() {
	h.times = h.times[:0]
	h.values = h.values[:0]
}

// Default returns the metric set attached to every CLI run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewPeak("peak_shp2", SHP2),
		NewPeak("peak_phospho", Phospho),
		NewHalfMax("half_max_shp2", SHP2),
		NewReceptorDrift(),
		NewSFKDrift(),
		NewGRB2Drift(),
		NewNonNegative(1e-12),
	}
}
