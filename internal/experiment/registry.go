package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/egfrsim/internal/metrics"
	"github.com/san-kum/egfrsim/internal/sim"
)

// Registry maps metric set names to constructors. Metrics are stateful, so
// every lookup builds a fresh set.
type Registry struct {
	sets map[string]func() []sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{sets: make(map[string]func() []sim.Metric)}

	r.sets["default"] = metrics.Default
	r.sets["readouts"] = func() []sim.Metric {
		return []sim.Metric{
			metrics.NewPeak("peak_shp2", metrics.SHP2),
			metrics.NewPeak("peak_phospho", metrics.Phospho),
			metrics.NewHalfMax("half_max_shp2", metrics.SHP2),
			metrics.NewHalfMax("half_max_phospho", metrics.Phospho),
		}
	}
	r.sets["conservation"] = func() []sim.Metric {
		return []sim.Metric{
			metrics.NewReceptorDrift(),
			metrics.NewSFKDrift(),
			metrics.NewGRB2Drift(),
			metrics.NewNonNegative(1e-12),
		}
	}
	r.sets["none"] = func() []sim.Metric { return nil }

	return r
}

func (r *Registry) Register(name string, build func() []sim.Metric) {
	r.sets[name] = build
}

func (r *Registry) GetMetrics(name string) ([]sim.Metric, error) {
	fn, ok := r.sets[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric set: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetricSets() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return metrics.Default()
}
