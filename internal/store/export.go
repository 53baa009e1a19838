package store

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

// ExportData is the serialized form of a sim.Result. Profiles are keyed by
// species name and laid out [node][sample].
type ExportData struct {
	Name            string                 `json:"name"`
	Dt              float64                `json:"dt"`
	Steps           int                    `json:"steps"`
	Grid            []float64              `json:"grid"`
	Times           []float64              `json:"times"`
	SHP2Fraction    []float64              `json:"shp2_fraction"`
	PhosphoFraction []float64              `json:"phospho_fraction"`
	Membrane        map[string][]float64   `json:"membrane"`
	Profiles        map[string][][]float64 `json:"profiles,omitempty"`
	Metrics         map[string]float64     `json:"metrics"`
	Diagnostics     sim.Diagnostics        `json:"diagnostics"`
}

// NewExportData flattens result. Profiles are included only when withProfiles is set.
func NewExportData(name string, result *sim.Result, withProfiles bool) *ExportData {
	data := &ExportData{
		Name:            name,
		Dt:              result.Dt,
		Steps:           result.Steps,
		Grid:            result.Grid.Nodes,
		Times:           result.Times,
		SHP2Fraction:    result.SHP2Fraction,
		PhosphoFraction: result.PhosphoFraction,
		Membrane:        make(map[string][]float64, model.NumMembrane),
		Metrics:         result.Metrics,
		Diagnostics:     result.Diagnostics,
	}
	for _, m := range model.AllMembrane() {
		data.Membrane[m.String()] = result.Membrane[m]
	}
	if withProfiles {
		data.Profiles = make(map[string][][]float64, model.NumCytosolic)
		for _, s := range model.AllSpecies() {
			data.Profiles[s.String()] = rows(result.Profiles[s])
		}
	}
	return data
}

func rows(m *mat.Dense) [][]float64 {
	if m == nil {
		return [][]float64{}
	}
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// Profile rebuilds the nodes x samples matrix of one species, or nil.
func (d *ExportData) Profile(s model.Species) *mat.Dense {
	rs := d.Profiles[s.String()]
	if len(rs) == 0 || len(rs[0]) == 0 {
		return nil
	}
	m := mat.NewDense(len(rs), len(rs[0]), nil)
	for i, row := range rs {
		m.SetRow(i, row)
	}
	return m
}

func Encode(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func Decode(r io.Reader) (*ExportData, error) {
	var data ExportData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func ExportJSON(path, name string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Encode(file, NewExportData(name, result, true))
}

func ExportJSONStdout(name string, result *sim.Result) error {
	return Encode(os.Stdout, NewExportData(name, result, true))
}
