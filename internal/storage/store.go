package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/egfrsim/internal/config"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
	"github.com/san-kum/egfrsim/internal/store"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	readoutsFile = "readouts.csv"
	profilesFile = "profiles.json"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	FinalTime   float64            `json:"final_time"`
	Steps       int                `json:"steps"`
	Samples     int                `json:"samples"`
	Confined    bool               `json:"confined"`
	Metrics     map[string]float64 `json:"metrics"`
	Diagnostics sim.Diagnostics    `json:"diagnostics"`
	Errors      []string           `json:"errors,omitempty"`
}

// ReadoutRow is one line of readouts.csv: the two readouts and the membrane
// state at a sample.
type ReadoutRow struct {
	Time               float64 `csv:"time"`
	SHP2Fraction       float64 `csv:"shp2_fraction"`
	PhosphoFraction    float64 `csv:"phospho_fraction"`
	EGFR               float64 `csv:"egfr"`
	EGFRL              float64 `csv:"egfr_egf"`
	Dimer              float64 `csv:"dimer"`
	DimerP             float64 `csv:"dimer_p"`
	DimerGRB2          float64 `csv:"dimer_grb2"`
	DimerGRB2GAB1      float64 `csv:"dimer_grb2_gab1"`
	DimerGRB2PGAB1     float64 `csv:"dimer_grb2_pgab1"`
	DimerGRB2PGAB1SHP2 float64 `csv:"dimer_grb2_pgab1_shp2"`
}

// Membrane returns the membrane state held by the row.
func (r ReadoutRow) Membrane() model.Membrane {
	return model.Membrane{
		r.EGFR, r.EGFRL, r.Dimer, r.DimerP,
		r.DimerGRB2, r.DimerGRB2GAB1, r.DimerGRB2PGAB1, r.DimerGRB2PGAB1SHP2,
	}
}

func ReadoutRows(result *sim.Result) []*ReadoutRow {
	rows := make([]*ReadoutRow, result.Samples())
	for k := range rows {
		m := result.MembraneAt(k)
		rows[k] = &ReadoutRow{
			Time:               result.Times[k],
			SHP2Fraction:       result.SHP2Fraction[k],
			PhosphoFraction:    result.PhosphoFraction[k],
			EGFR:               m[model.EGFR],
			EGFRL:              m[model.EGFRL],
			Dimer:              m[model.Dimer],
			DimerP:             m[model.DimerP],
			DimerGRB2:          m[model.DimerGRB2],
			DimerGRB2GAB1:      m[model.DimerGRB2GAB1],
			DimerGRB2PGAB1:     m[model.DimerGRB2PGAB1],
			DimerGRB2PGAB1SHP2: m[model.DimerGRB2PGAB1SHP2],
		}
	}
	return rows
}

// Save writes metadata, the config snapshot, readouts and full profiles.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   now,
		Dt:          result.Dt,
		FinalTime:   cfg.Time.Final,
		Steps:       result.Steps,
		Samples:     result.Samples(),
		Confined:    cfg.Solver.ConfineActiveSFK,
		Metrics:     result.Metrics,
		Diagnostics: result.Diagnostics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, readoutsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := gocsv.MarshalFile(ReadoutRows(result), csvFile); err != nil {
		return "", fmt.Errorf("write readouts: %w", err)
	}

	profFile, err := os.Create(filepath.Join(runDir, profilesFile))
	if err != nil {
		return "", err
	}
	defer profFile.Close()
	if err := store.Encode(profFile, store.NewExportData(name, result, true)); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(s.path(runID, configFile))
}

func (s *Store) LoadReadouts(runID string) ([]*ReadoutRow, error) {
	file, err := os.Open(s.path(runID, readoutsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows := make([]*ReadoutRow, 0)
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("read readouts: %w", err)
	}
	return rows, nil
}

func (s *Store) LoadProfiles(runID string) (*store.ExportData, error) {
	file, err := os.Open(s.path(runID, profilesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return store.Decode(file)
}

// Resolve accepts a full run ID or a unique prefix.
func (s *Store) Resolve(prefix string) (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range runs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %q not found", prefix)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("run prefix %q is ambiguous (%d matches)", prefix, len(matches))
}

func (s *Store) path(runID, file string) string {
	return filepath.Join(s.baseDir, runID, file)
}
