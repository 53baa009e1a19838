package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

// SensitivityEntry is d ln(readout) / d ln(k) for one kinetic parameter.
type SensitivityEntry struct {
	Name  string
	Value float64
	Base  float64
}

// Sensitivity perturbs each named parameter by a factor (1 ± relStep) and
// returns the normalized sensitivity of the final SHP2 fraction, sorted by
// decreasing magnitude. Parameters at zero are reported with value 0.
func Sensitivity(
	ctx context.Context,
	base model.Params,
	init model.Initial,
	cfg sim.Config,
	names []string,
	relStep float64,
	workers int,
) ([]SensitivityEntry, error) {
	if !(relStep > 0 && relStep < 1) {
		return nil, fmt.Errorf("relative step must be in (0, 1), got %g", relStep)
	}
	current := base.Kinetics.GetParams()

	jobs := []sim.Job{{Name: "base", Params: base, Initial: init, Config: cfg}}
	for _, name := range names {
		v, ok := current[name]
		if !ok {
			return nil, fmt.Errorf("unknown kinetic parameter %q", name)
		}
		for _, f := range []float64{1 - relStep, 1 + relStep} {
			p := base
			if err := p.Kinetics.SetParam(name, v*f); err != nil {
				return nil, err
			}
			jobs = append(jobs, sim.Job{Name: fmt.Sprintf("%s*%g", name, f), Params: p, Initial: init, Config: cfg})
		}
	}

	results, err := sim.NewEnsemble(workers).Run(ctx, jobs)
	if err != nil {
		return nil, err
	}

	final := func(r *sim.Result) float64 {
		if r == nil || len(r.SHP2Fraction) == 0 {
			return 0
		}
		return r.SHP2Fraction[len(r.SHP2Fraction)-1]
	}
	baseValue := final(results[0])

	entries := make([]SensitivityEntry, len(names))
	for i, name := range names {
		entries[i] = SensitivityEntry{Name: name, Base: baseValue}
		if current[name] == 0 || baseValue == 0 {
			continue
		}
		lo, hi := final(results[1+2*i]), final(results[2+2*i])
		entries[i].Value = (hi - lo) / (2 * relStep * baseValue)
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return math.Abs(entries[a].Value) > math.Abs(entries[b].Value)
	})
	return entries, nil
}
