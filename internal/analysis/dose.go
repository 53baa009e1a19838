package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/egfrsim/internal/dynamo"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

// DosePoint holds the readouts of one run in a parameter sweep.
type DosePoint struct {
	Param        float64
	PeakSHP2     float64
	FinalSHP2    float64
	FinalPhospho float64
	// Err is set when the run failed; readouts then come from the partial result.
	Err error
}

// DoseResponse runs one simulation per value of the named kinetic parameter,
// evenly spaced in [lo, hi], on at most workers goroutines.
func DoseResponse(
	ctx context.Context,
	base model.Params,
	init model.Initial,
	cfg sim.Config,
	name string,
	lo, hi float64,
	steps int,
	workers int,
) ([]DosePoint, error) {
	if steps < 2 {
		steps = 2
	}
	values := make([]float64, steps)
	for i := range values {
		values[i] = lo + float64(i)*(hi-lo)/float64(steps-1)
	}

	jobs := make([]sim.Job, steps)
	for i, v := range values {
		p := base
		if err := p.Kinetics.SetParam(name, v); err != nil {
			return nil, err
		}
		jobs[i] = sim.Job{Name: fmt.Sprintf("%s=%g", name, v), Params: p, Initial: init, Config: cfg}
	}

	results, err := sim.NewEnsemble(workers).Run(ctx, jobs)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	points := make([]DosePoint, steps)
	for i, res := range results {
		points[i] = DosePoint{Param: values[i]}
		if res == nil || res.Samples() == 0 {
			points[i].Err = fmt.Errorf("%w: %s produced no samples", dynamo.ErrInvalidParams, jobs[i].Name)
			continue
		}
		last := res.Samples() - 1
		_, points[i].PeakSHP2 = Peak(res.SHP2Fraction)
		points[i].FinalSHP2, points[i].FinalPhospho = res.Readouts(last)
		if len(res.Errors) > 0 {
			points[i].Err = res.Errors[0]
		}
	}
	return points, nil
}

// DoseToASCII plots the final SHP2 fraction of every point, one column each.
func DoseToASCII(points []DosePoint, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 1 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.FinalSHP2)
		hi = math.Max(hi, p.FinalSHP2)
	}
	if hi == lo {
		hi = lo + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	for i, p := range points {
		col := min(i*width/len(points), width-1)
		row := height - 1 - int((p.FinalSHP2-lo)/(hi-lo)*float64(height-1))
		if row >= 0 && row < height {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
