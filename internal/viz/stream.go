package viz

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

// Frame is a copy of one sample, safe to keep after the observer returns.
type Frame struct {
	Step      int
	Time      float64
	FinalTime float64
	SHP2      float64
	Phospho   float64
	Membrane  model.Membrane
	Profiles  [model.NumCytosolic][]float64
	// Iterations is the largest coupler iteration count since the last frame.
	Iterations int
	Residual   float64
}

type FrameMsg Frame

type PhaseMsg sim.Phase

// DoneMsg carries the final (possibly partial) result of the run.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Stream forwards simulator callbacks to a bubbletea program. Sends block
// until the program asks for the next message, so a paused view pauses the
// run as well.
type Stream struct {
	ctx        context.Context
	ch         chan tea.Msg
	phase      sim.Phase
	iterations int
	residual   float64
}

func NewStream(ctx context.Context) *Stream {
	return &Stream{ctx: ctx, ch: make(chan tea.Msg)}
}

func (s *Stream) send(msg tea.Msg) {
	select {
	case s.ch <- msg:
	case <-s.ctx.Done():
	}
}

func (s *Stream) OnSample(snap *sim.Snapshot) {
	f := Frame{
		Step:       snap.Step,
		Time:       snap.Time,
		FinalTime:  snap.FinalTime,
		SHP2:       snap.SHP2Fraction,
		Phospho:    snap.PhosphoFraction,
		Membrane:   snap.Membrane,
		Iterations: s.iterations,
		Residual:   s.residual,
	}
	for i, v := range snap.Cytosol {
		f.Profiles[i] = append([]float64(nil), v...)
	}
	s.iterations, s.residual = 0, 0
	s.send(FrameMsg(f))
}

// OnPhase forwards only the transitions that change what the view shows.
func (s *Stream) OnPhase(p sim.Phase) {
	if p == sim.PhaseSampling || p == s.phase {
		return
	}
	s.phase = p
	s.send(PhaseMsg(p))
}

func (s *Stream) OnCoupling(_ int, r sim.CouplingReport) {
	if r.Iterations > s.iterations {
		s.iterations = r.Iterations
	}
	if r.Residual > s.residual {
		s.residual = r.Residual
	}
}

// Launch attaches the stream to simulator and starts the run in the background.
func (s *Stream) Launch(simulator *sim.Simulator, in model.Initial, cfg sim.Config) {
	simulator.AddObserver(s)
	go func() {
		res, err := simulator.Run(s.ctx, in, cfg)
		s.send(DoneMsg{Result: res, Err: err})
	}()
}

// Next waits for the next message of the run.
func (s *Stream) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.ch:
			return msg
		case <-s.ctx.Done():
			return DoneMsg{Err: s.ctx.Err()}
		}
	}
}
