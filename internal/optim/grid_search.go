package optim

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

// GridSearch evaluates every combination of kinetic parameter values and
// keeps the one that minimizes (or maximizes) a result metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

func (g *GridSearch) Workers(n int) *GridSearch {
	g.workers = n
	return g
}

// Point is one evaluated combination.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs all combinations in parallel. metrics builds the metric set of
// each run; the named metric is read from every result. Failed runs are kept
// in the returned points but never chosen as best.
func (g *GridSearch) Search(
	ctx context.Context,
	base model.Params,
	init model.Initial,
	cfg sim.Config,
	metrics func() []sim.Metric,
	metricName string,
) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("%d parameter names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	var combos []map[string]float64
	g.expand(0, make(map[string]float64), &combos)

	jobs := make([]sim.Job, len(combos))
	for i, combo := range combos {
		p := base
		var label []string
		for _, name := range g.paramNames {
			if err := p.Kinetics.SetParam(name, combo[name]); err != nil {
				return Point{}, nil, err
			}
			label = append(label, fmt.Sprintf("%s=%g", name, combo[name]))
		}
		jobs[i] = sim.Job{Name: strings.Join(label, ","), Params: p, Initial: init, Config: cfg}
	}

	results, _ := sim.NewEnsemble(g.workers).WithMetrics(metrics).Run(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return Point{}, nil, err
	}

	points := make([]Point, len(combos))
	bestIdx := -1
	for i, res := range results {
		points[i] = Point{Params: combos[i], Value: math.NaN()}
		switch {
		case res == nil:
			points[i].Err = fmt.Errorf("%s: run rejected", jobs[i].Name)
			continue
		case len(res.Errors) > 0 && res.Diagnostics.Err() == nil:
			points[i].Err = res.Errors[0]
			continue
		}
		v, ok := res.Metrics[metricName]
		if !ok {
			return Point{}, nil, fmt.Errorf("metric %q not produced", metricName)
		}
		points[i].Value = v
		if bestIdx < 0 || g.better(v, points[bestIdx].Value) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Point{}, points, fmt.Errorf("no successful run among %d combinations", len(points))
	}
	return points[bestIdx], points, nil
}

func (g *GridSearch) better(v, best float64) bool {
	if g.maximize {
		return v > best
	}
	return v < best
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		combo := make(map[string]float64, len(current))
		for k, v := range current {
			combo[k] = v
		}
		*out = append(*out, combo)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.expand(depth+1, current, out)
	}
	delete(current, paramName)
}
