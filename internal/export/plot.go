// Package export renders stored or fresh runs as PNG, SVG or PDF figures.
// The format follows the file extension.
package export

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/store"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

func series(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, min(len(xs), len(ys)))
	for i := range pts {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// Readouts plots both normalized readouts against time.
func Readouts(data *store.ExportData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "EGFR readouts: " + data.Name
	p.X.Label.Text = "time"
	p.Y.Label.Text = "fraction of EGFR"

	err := plotutil.AddLinePoints(p,
		"SHP2-bound", series(data.Times, data.SHP2Fraction),
		"phosphorylated", series(data.Times, data.PhosphoFraction),
	)
	if err != nil {
		return nil, fmt.Errorf("add readouts: %w", err)
	}
	return p, nil
}

// Membrane plots every membrane species against time.
func Membrane(data *store.ExportData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Membrane species: " + data.Name
	p.X.Label.Text = "time"
	p.Y.Label.Text = "surface density"

	var lines []any
	for _, m := range model.AllMembrane() {
		lines = append(lines, m.String(), series(data.Times, data.Membrane[m.String()]))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("add membrane: %w", err)
	}
	return p, nil
}

// Profile plots the radial profile of s at up to maxCurves evenly spaced samples.
func Profile(data *store.ExportData, s model.Species, maxCurves int) (*plot.Plot, error) {
	m := data.Profile(s)
	if m == nil {
		return nil, fmt.Errorf("no %s profile in %s", s, data.Name)
	}
	_, samples := m.Dims()
	if maxCurves <= 0 || maxCurves > samples {
		maxCurves = samples
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s profile: %s", s, data.Name)
	p.X.Label.Text = "r"
	p.Y.Label.Text = "concentration"

	var lines []any
	for i := 0; i < maxCurves; i++ {
		k := samples - 1
		if maxCurves > 1 {
			k = i * (samples - 1) / (maxCurves - 1)
		}
		col := make([]float64, len(data.Grid))
		for j := range col {
			col[j] = m.At(j, k)
		}
		lines = append(lines, "t="+strconv.FormatFloat(data.Times[k], 'g', 4, 64), series(data.Grid, col))
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("add profile: %w", err)
	}
	return p, nil
}

// Save writes p to path at the default size.
func Save(p *plot.Plot, path string) error {
	return p.Save(DefaultWidth, DefaultHeight, path)
}
