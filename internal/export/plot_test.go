package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
	"github.com/san-kum/egfrsim/internal/store"
)

func exportData(t *testing.T) *store.ExportData {
	t.Helper()
	s := sim.New(model.DefaultParams())
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := s.Run(context.Background(), model.DefaultInitial(),
		sim.Config{Radius: 1, Dr: 0.25, FinalTime: 0.5, NumSamples: 5})
	if err != nil {
		t.Fatal(err)
	}
	return store.NewExportData("test", res, true)
}

func TestSavePlots(t *testing.T) {
	data := exportData(t)
	dir := t.TempDir()

	readouts, err := Readouts(data)
	if err != nil {
		t.Fatal(err)
	}
	membrane, err := Membrane(data)
	if err != nil {
		t.Fatal(err)
	}
	profile, err := Profile(data, model.GRB2, 3)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		file string
		plot *plot.Plot
	}{
		{"readouts.png", readouts},
		{"membrane.svg", membrane},
		{"profile.png", profile},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.file)
		if err := Save(tt.plot, path); err != nil {
			t.Fatalf("%s: %v", tt.file, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", tt.file)
		}
	}
}

func TestProfileMissing(t *testing.T) {
	data := &store.ExportData{Name: "bare"}
	if _, err := Profile(data, model.GRB2, 3); err == nil {
		t.Error("expected error without profiles")
	}
}
