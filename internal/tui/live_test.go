package tui

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

func runWith(t *testing.T, r *LiveRenderer, samples int) {
	t.Helper()
	s := sim.New(model.DefaultParams())
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.AddObserver(r)
	cfg := sim.DefaultConfig()
	cfg.NumSamples = samples
	if _, err := s.Run(context.Background(), model.DefaultInitial(), cfg); err != nil {
		t.Fatal(err)
	}
}

func TestLiveRendererDrawsEverySample(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "baseline", model.SFK, 0).WithoutANSI()
	r.Start()
	runWith(t, r, 5)
	r.Stop()

	if r.Frames() != 5 {
		t.Errorf("frames = %d, want 5", r.Frames())
	}
	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Error("escape sequences written with ANSI disabled")
	}
	for _, want := range []string{"baseline", "sfk(r)", "shp2=", "#"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLiveRendererThrottles(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "baseline", model.SHP2, 1)
	r.lastFrame = time.Now()
	runWith(t, r, 10)

	// Only the final sample gets through within the first second.
	if r.Frames() != 1 {
		t.Errorf("frames = %d, want 1", r.Frames())
	}
	if len(r.shp2) != 10 {
		t.Errorf("history = %d samples, want 10", len(r.shp2))
	}
	if !strings.HasPrefix(buf.String(), clearScreen) {
		t.Error("frame should start by clearing the screen")
	}
}

func TestDrawProfile(t *testing.T) {
	r := NewLiveRenderer(io.Discard, "p", model.SFK, 0)
	r.clear()
	r.drawProfile([]float64{0, 1})

	if r.canvas[height-1][0] != '-' {
		t.Error("missing baseline")
	}
	if r.canvas[height-2][1] != ' ' {
		t.Error("zero value should draw no bar")
	}
	if r.canvas[1][1+(width-2)/2] != '#' || r.canvas[0][1+(width-2)/2] != ' ' {
		t.Error("maximum should fill the bar height and stop below the top row")
	}
}
