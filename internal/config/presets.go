package config

import (
	"sort"

	"github.com/san-kum/egfrsim/internal/model"
)

var Presets = map[string]func() *Config{
	"baseline": DefaultConfig,
	"confined": func() *Config {
		c := DefaultConfig()
		c.Name = "confined"
		c.Solver.ConfineActiveSFK = true
		return c
	},
	"grb2_gab1": func() *Config {
		c := DefaultConfig()
		c.Name = "grb2_gab1"
		c.Kinetics = bindingOnly()
		return c
	},
	"grb2_gab1_plateau": func() *Config {
		c := DefaultConfig()
		c.Name = "grb2_gab1_plateau"
		c.Kinetics = bindingOnly()
		c.Initial.GRB2 = 10
		c.Initial.GAB1 = 5
		c.Time.Final = 10
		c.Time.Samples = 50
		return c
	},
	"high_egf": func() *Config {
		c := DefaultConfig()
		c.Name = "high_egf"
		c.Kinetics.EGF = 10
		c.Time.Final = 5
		c.Time.Samples = 50
		return c
	},
}

// bindingOnly keeps GRB2-GAB1 association as the only active reaction.
func bindingOnly() model.Kinetics {
	return model.Kinetics{KG1f: 1}
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
