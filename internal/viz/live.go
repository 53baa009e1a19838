package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

const (
	chartWidth  = 56
	chartHeight = 8
	barWidth    = 40
)

// Model follows one simulation run: readout history, the radial profile of a
// selected species and the membrane state of the latest sample.
type Model struct {
	title   string
	stream  *Stream
	cancel  context.CancelFunc
	pending bool

	phase    sim.Phase
	paused   bool
	done     bool
	showHelp bool

	frame   Frame
	frames  int
	shp2    []float64
	phospho []float64
	species model.Species

	result *sim.Result
	err    error
}

// NewModel builds the view for a stream already launched. cancel is called
// when the user quits.
func NewModel(title string, stream *Stream, cancel context.CancelFunc) Model {
	return Model{
		title:   title,
		stream:  stream,
		cancel:  cancel,
		species: model.SHP2,
		pending: true,
	}
}

func (m Model) Init() tea.Cmd {
	return m.stream.Next()
}

func (m *Model) next() tea.Cmd {
	if m.pending || m.done {
		return nil
	}
	m.pending = true
	return m.stream.Next()
}

// Update handles input events and stream messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
			if !m.paused {
				cmd := m.next()
				return m, cmd
			}
		case "tab", "right", "l":
			m.species = model.Species((int(m.species) + 1) % model.NumCytosolic)
		case "shift+tab", "left", "h":
			m.species = model.Species((int(m.species) + model.NumCytosolic - 1) % model.NumCytosolic)
		case "?":
			m.showHelp = !m.showHelp
		}
	case FrameMsg:
		m.pending = false
		m.frame = Frame(msg)
		m.frames++
		m.shp2 = append(m.shp2, msg.SHP2)
		m.phospho = append(m.phospho, msg.Phospho)
		if !m.paused {
			cmd := m.next()
			return m, cmd
		}
	case PhaseMsg:
		m.pending = false
		m.phase = sim.Phase(msg)
		if !m.paused {
			cmd := m.next()
			return m, cmd
		}
	case DoneMsg:
		m.pending = false
		m.done = true
		m.phase = sim.PhaseDone
		m.result = msg.Result
		m.err = msg.Err
	}
	return m, nil
}

// Frames reports how many samples the view has received.
func (m Model) Frames() int { return m.frames }

func (m Model) Done() bool { return m.done }

// Result returns the run result once the stream has finished.
func (m Model) Result() (*sim.Result, error) { return m.result, m.err }

// View renders the TUI interface.
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(GradientText(strings.ToUpper(m.title), "#00ffff", "#ff00ff"))
	s.WriteString("  " + Badge(m.phase, m.paused, m.err) + "\n")

	frac := 0.0
	if m.frame.FinalTime > 0 {
		frac = m.frame.Time / m.frame.FinalTime
	}
	s.WriteString(ProgressBar(frac, barWidth))
	s.WriteString(fmt.Sprintf(" t=%.4g/%.4g  step %d\n\n", m.frame.Time, m.frame.FinalTime, m.frame.Step))

	if len(m.shp2) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.shp2, m.phospho},
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Cyan),
			asciigraph.Caption("SHP2 fraction (green) / phosphorylated fraction (cyan)"))
		s.WriteString(Panel.Render(chart) + "\n")
	}

	if prof := m.frame.Profiles[m.species]; len(prof) > 1 {
		chart := asciigraph.Plot(prof,
			asciigraph.Height(chartHeight/2),
			asciigraph.Width(chartWidth),
			asciigraph.Caption("radial profile: "+m.species.String()+" (center to membrane)"))
		s.WriteString(Panel.Render(chart) + "\n")
	}

	s.WriteString(m.readouts())
	s.WriteString(Separator(barWidth) + "\n")
	s.WriteString(m.membrane())

	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}
	if m.done && m.result != nil {
		d := m.result.Diagnostics
		s.WriteString(fmt.Sprintf("\n%s %d steps, %d samples, mean iterations %.2f, non-converged %d\n",
			Subtle.Render("finished:"), m.result.Steps, m.result.Samples(), d.MeanIterations(), d.NonConvergedSteps))
	}

	if m.showHelp {
		s.WriteString("\n" + KeyHint.Render("space pause/resume  tab/→ next species  shift+tab/← previous  ? help  q quit") + "\n")
	} else {
		s.WriteString("\n" + KeyHint.Render("? help  q quit") + "\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}

func (m Model) readouts() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("profile species", Selected.Render(m.species.String()))
	row("SHP2 fraction", fmt.Sprintf("%.4f", m.frame.SHP2))
	row("phosphorylated fraction", fmt.Sprintf("%.4f", m.frame.Phospho))
	row("coupler iterations", fmt.Sprintf("%d (residual %.2e)", m.frame.Iterations, m.frame.Residual))
	row("history", Sparkline(m.shp2, 30))
	return s.String()
}

func (m Model) membrane() string {
	var s strings.Builder
	for _, sp := range model.AllMembrane() {
		s.WriteString(MetricLabel.Render(sp.String()) + MetricValue.Render(fmt.Sprintf("%.4f", m.frame.Membrane[sp])) + "\n")
	}
	return s.String()
}

// Run launches the simulation behind a live view and blocks until the user
// quits. Quitting cancels a run still in progress.
func Run(ctx context.Context, title string, simulator *sim.Simulator, in model.Initial, cfg sim.Config) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream := NewStream(ctx)
	stream.Launch(simulator, in, cfg)

	final, err := tea.NewProgram(NewModel(title, stream, cancel), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	res, runErr := final.(Model).Result()
	return res, runErr
}
