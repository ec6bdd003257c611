package main

import (
	"fmt"
	"strings"

	"github.com/ChristopherRabotin/windtunnel"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// scenario is a vessel flying over a speed and altitude grid.
type scenario struct {
	body               *windtunnel.Body
	area, mass, thrust float64
	grid               windtunnel.AeroGrid
	speeds, altitudes  []float64
}

func (s scenario) String() string {
	return fmt.Sprintf("%s: S=%.1f m² m=%.0f kg T=%.0f N, %d speeds x %d altitudes", s.body.Name, s.area, s.mass, s.thrust, len(s.speeds), len(s.altitudes))
}

// readFloats reads a numeric TOML array, converting integers as needed.
func readFloats(v *viper.Viper, key string) ([]float64, error) {
	raw, err := cast.ToSliceE(v.Get(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: missing or empty", key)
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		if out[i], err = cast.ToFloat64E(r); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
	}
	return out, nil
}

func degrees(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = windtunnel.Deg2rad(v)
	}
	return out
}

// loadScenario reads the scenario TOML file. AoA knots are in degrees.
func loadScenario(path string) (scenario, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if !strings.HasSuffix(path, ".toml") {
		v.SetConfigFile(path + ".toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return scenario{}, err
	}
	var s scenario
	var err error
	if s.body, err = windtunnel.BodyFromString(v.GetString("vessel.body")); err != nil {
		return scenario{}, err
	}
	s.area = v.GetFloat64("vessel.area")
	s.mass = v.GetFloat64("vessel.mass")
	s.thrust = v.GetFloat64("vessel.thrust")
	aoa, err := readFloats(v, "grid.aoa")
	if err != nil {
		return scenario{}, err
	}
	s.grid.AoA = degrees(aoa)
	if s.grid.Mach, err = readFloats(v, "grid.mach"); err != nil {
		return scenario{}, err
	}
	if s.grid.Input, err = readFloats(v, "grid.input"); err != nil {
		return scenario{}, err
	}
	if s.speeds, err = readFloats(v, "envelope.speeds"); err != nil {
		return scenario{}, err
	}
	if s.altitudes, err = readFloats(v, "envelope.altitudes"); err != nil {
		return scenario{}, err
	}
	return s, nil
}
