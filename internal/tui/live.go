package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

const (
	width       = 70
	height      = 12
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws a plain terminal frame while a run progresses: the
// radial profile of one species as bars, then the readout history. It needs
// no alternate screen, so it also works when output is piped.
type LiveRenderer struct {
	w         io.Writer
	title     string
	species   model.Species
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	shp2      []float64
	phospho   []float64
	frames    int
	ansi      bool
}

// NewLiveRenderer draws at most frameRate frames per second; frameRate <= 0
// draws every sample.
func NewLiveRenderer(w io.Writer, title string, species model.Species, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		w:         w,
		title:     title,
		species:   species,
		frameRate: frameRate,
		canvas:    canvas,
		ansi:      true,
	}
}

// WithoutANSI disables cursor and screen control sequences.
func (r *LiveRenderer) WithoutANSI() *LiveRenderer {
	r.ansi = false
	return r
}

// Frames reports how many frames were drawn.
func (r *LiveRenderer) Frames() int { return r.frames }

func (r *LiveRenderer) OnSample(s *sim.Snapshot) {
	r.shp2 = append(r.shp2, s.SHP2Fraction)
	r.phospho = append(r.phospho, s.PhosphoFraction)

	last := s.Time >= s.FinalTime-s.Dt/2
	if r.frameRate > 0 && !last {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
	}
	r.lastFrame = time.Now()

	r.clear()
	r.drawProfile(s.Cytosol[r.species])
	r.render(s)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

// drawProfile draws one bar per grid node, center on the left, scaled to the
// profile maximum.
func (r *LiveRenderer) drawProfile(prof []float64) {
	base := height - 1
	for x := 0; x < width; x++ {
		r.set(x, base, '-')
	}
	if len(prof) == 0 {
		return
	}

	bw := max(1, (width-2)/len(prof))
	maxVal := 0.0
	for _, v := range prof {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		return
	}

	for i, v := range prof {
		bx := 1 + i*bw
		bh := int(v / maxVal * float64(height-2))
		for y := base - 1; y >= base-bh && y >= 0; y-- {
			for dx := 0; dx < max(1, bw-1); dx++ {
				r.set(bx+dx, y, '#')
			}
		}
	}
}

func (r *LiveRenderer) render(s *sim.Snapshot) {
	var b strings.Builder
	if r.ansi {
		b.WriteString(clearScreen)
	}
	b.WriteString(fmt.Sprintf("  %s  t=%.4g/%.4g  step %d\n", r.title, s.Time, s.FinalTime, s.Step))
	b.WriteString(fmt.Sprintf("  %s(r), r = 0 .. %.3g\n", r.species, s.Grid.Radius()))

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("  shp2=%.4f  phospho=%.4f\n", s.SHP2Fraction, s.PhosphoFraction))
	if len(r.shp2) > 1 {
		b.WriteString(asciigraph.PlotMany([][]float64{r.shp2, r.phospho},
			asciigraph.Height(6),
			asciigraph.Width(width-10),
			asciigraph.Offset(4),
			asciigraph.Caption("SHP2 / phosphorylated fraction")))
		b.WriteString("\n")
	}

	fmt.Fprint(r.w, b.String())
	r.frames++
}

func (r *LiveRenderer) Start() {
	if r.ansi {
		fmt.Fprint(r.w, hideCursor)
	}
}

func (r *LiveRenderer) Stop() {
	if r.ansi {
		fmt.Fprint(r.w, showCursor)
	}
}
