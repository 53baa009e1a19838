package analysis

import "strings"

// Point is one sample of a two-readout portrait.
type Point struct{ X, Y float64 }

// Portrait pairs two readout series sample by sample.
type Portrait struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPortrait pairs xs and ys up to the shorter length.
func NewPortrait(xLabel string, xs []float64, yLabel string, ys []float64) *Portrait {
	n := min(len(xs), len(ys))
	p := &Portrait{XLabel: xLabel, YLabel: yLabel, Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		p.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return p
}

// PortraitToASCII draws the portrait on a width x height character canvas.
func PortraitToASCII(p *Portrait, width, height int) string {
	if p == nil || len(p.Points) == 0 || width <= 1 || height <= 1 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		switch {
		case i == len(p.Points)-1:
			canvas[row][col] = '◆'
		case canvas[row][col] == ' ':
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	if p.YLabel != "" {
		sb.WriteString(p.YLabel)
		sb.WriteRune('\n')
	}
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	if p.XLabel != "" {
		sb.WriteString(strings.Repeat(" ", max(0, width-len(p.XLabel))))
		sb.WriteString(p.XLabel)
		sb.WriteRune('\n')
	}
	return sb.String()
}
