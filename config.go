package windtunnel

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the numerical settings shared by the searches, the spline sampling and the
// envelope sweep.
type Config struct {
	AoATolerance   float64 // radians
	InputTolerance float64
	DeltaAoA       float64 // radians, finite difference step
	DeltaMach      float64
	DeltaInput     float64
	ZeroCrossDiff  bool
	Workers        int
}

// DefaultConfig returns the settings used when no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		AoATolerance:   Deg2rad(0.01),
		InputTolerance: 1e-4,
		DeltaAoA:       Deg2rad(0.05),
		DeltaMach:      1e-3,
		DeltaInput:     1e-3,
		Workers:        4,
	}
}

// AeroOptions returns the sampling options of the (AoA, Mach) surfaces. The moment surface
// uses DeltaInput on its y axis, see MomentOptions.
func (c Config) AeroOptions() NumericOptions {
	return NumericOptions{DeltaX: c.DeltaAoA, DeltaY: c.DeltaMach, ZeroCrossDiff: c.ZeroCrossDiff, Workers: c.Workers}
}

// MomentOptions returns the sampling options of the (AoA, input) surface.
func (c Config) MomentOptions() NumericOptions {
	return NumericOptions{DeltaX: c.DeltaAoA, DeltaY: c.DeltaInput, ZeroCrossDiff: c.ZeroCrossDiff, Workers: c.Workers}
}

func (c Config) validate() error {
	if !(c.AoATolerance > 0) || !(c.InputTolerance > 0) {
		return fmt.Errorf("%w: tolerances must be positive", ErrInvalidArgument)
	}
	if !(c.DeltaAoA > 0) || !(c.DeltaMach > 0) || !(c.DeltaInput > 0) {
		return fmt.Errorf("%w: finite difference steps must be positive", ErrInvalidArgument)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: at least one worker is required", ErrInvalidArgument)
	}
	return nil
}

// LoadConfig reads conf.toml from the provided directory. Absent keys keep their defaults.
// Angles are given in degrees in the file.
func LoadConfig(dir string) (Config, error) {
	def := DefaultConfig()
	v := viper.New()
	v.SetConfigName("conf")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.SetDefault("optimizer.aoa_tolerance", Rad2deg(def.AoATolerance))
	v.SetDefault("optimizer.input_tolerance", def.InputTolerance)
	v.SetDefault("spline.delta_aoa", Rad2deg(def.DeltaAoA))
	v.SetDefault("spline.delta_mach", def.DeltaMach)
	v.SetDefault("spline.delta_input", def.DeltaInput)
	v.SetDefault("spline.zero_cross_diff", def.ZeroCrossDiff)
	v.SetDefault("envelope.workers", def.Workers)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s/conf.toml: %w", dir, err)
	}
	c := Config{
		AoATolerance:   Deg2rad(v.GetFloat64("optimizer.aoa_tolerance")),
		InputTolerance: v.GetFloat64("optimizer.input_tolerance"),
		DeltaAoA:       Deg2rad(v.GetFloat64("spline.delta_aoa")),
		DeltaMach:      v.GetFloat64("spline.delta_mach"),
		DeltaInput:     v.GetFloat64("spline.delta_input"),
		ZeroCrossDiff:  v.GetBool("spline.zero_cross_diff"),
		Workers:        v.GetInt("envelope.workers"),
	}
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("%s/conf.toml: %w", dir, err)
	}
	return c, nil
}

// ConfigFromEnv loads the configuration from the directory in WINDTUNNEL_CONFIG, or
// returns the defaults when the variable is unset.
func ConfigFromEnv() (Config, error) {
	dir := os.Getenv("WINDTUNNEL_CONFIG")
	if dir == "" {
		return DefaultConfig(), nil
	}
	c, err := LoadConfig(dir)
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return Config{}, fmt.Errorf("environment variable `WINDTUNNEL_CONFIG` points to %s without conf.toml", dir)
	}
	return c, err
}
