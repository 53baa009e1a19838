package store

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

func runResult(t *testing.T) *sim.Result {
	t.Helper()
	s := sim.New(model.DefaultParams())
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := s.Run(context.Background(), model.DefaultInitial(),
		sim.Config{Radius: 1, Dr: 0.25, FinalTime: 0.5, NumSamples: 4})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return res
}

func TestEncodeDecode(t *testing.T) {
	res := runResult(t)

	var buf bytes.Buffer
	if err := Encode(&buf, NewExportData("baseline", res, true)); err != nil {
		t.Fatal(err)
	}
	data, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if data.Name != "baseline" || data.Steps != res.Steps || len(data.Times) != 4 {
		t.Errorf("header = %s %d %d", data.Name, data.Steps, len(data.Times))
	}
	if len(data.Membrane) != model.NumMembrane || len(data.Membrane["dimer_p"]) != 4 {
		t.Errorf("membrane = %v", data.Membrane)
	}

	p := data.Profile(model.GRB2)
	if p == nil {
		t.Fatal("missing GRB2 profile")
	}
	r, c := p.Dims()
	wr, wc := res.Profiles[model.GRB2].Dims()
	if r != wr || c != wc {
		t.Fatalf("dims %dx%d, want %dx%d", r, c, wr, wc)
	}
	if p.At(r-1, c-1) != res.Profiles[model.GRB2].At(r-1, c-1) {
		t.Error("boundary value changed in transit")
	}
}

func TestExportWithoutProfiles(t *testing.T) {
	data := NewExportData("x", runResult(t), false)
	if data.Profiles != nil || data.Profile(model.GRB2) != nil {
		t.Error("profiles should be omitted")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(path, "baseline", runResult(t)); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty export")
	}
}
