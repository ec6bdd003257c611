package windtunnel

import (
	"fmt"
	"math"
)

// Conditions is a flight condition above a body.
type Conditions struct {
	Body     *Body
	Altitude float64 // m
	Speed    float64 // m/s
}

// Density returns the atmospheric density in kg/m³.
func (c Conditions) Density() float64 {
	return c.Body.Density(c.Altitude)
}

// Mach returns the Mach number.
func (c Conditions) Mach() float64 {
	return c.Speed / c.Body.SpeedOfSound(c.Altitude)
}

// DynamicPressure returns ½ρV² in Pa.
func (c Conditions) DynamicPressure() float64 {
	return 0.5 * c.Density() * c.Speed * c.Speed
}

// Gravity returns the local gravitational acceleration.
func (c Conditions) Gravity() float64 {
	return c.Body.Gravity(c.Altitude)
}

// EffectiveGravity returns the gravity felt in level flight, reduced by the centripetal
// acceleration of following the curvature of the body.
func (c Conditions) EffectiveGravity() float64 {
	return c.Gravity() - c.Speed*c.Speed/(c.Body.Radius+c.Altitude)
}

func (c Conditions) String() string {
	return fmt.Sprintf("%s h=%.0fm V=%.1fm/s", c.Body.Name, c.Altitude, c.Speed)
}

// AeroModel is an aerodynamic characterization of a vessel. Angles are in radians, forces in
// Newtons, the pitch input is normalized to [-1, 1]. Implementations must be safe for
// concurrent use.
type AeroModel interface {
	Lift(c Conditions, aoa, pitchInput float64) float64
	Drag(c Conditions, aoa, pitchInput float64) float64
	PitchMoment(c Conditions, aoa, pitchInput float64) float64
	Thrust(c Conditions) float64
	Mass() float64
}

// LevelFlightObjective returns the excess of lift and vertical thrust over the effective
// weight as a function of AoA. Level flight is a zero of this function.
func LevelFlightObjective(m AeroModel, c Conditions) func(aoa float64) float64 {
	thrust := m.Thrust(c)
	weight := m.Mass() * c.EffectiveGravity()
	return func(aoa float64) float64 {
		return m.Lift(c, aoa, 0) + thrust*math.Sin(aoa) - weight
	}
}

// SplineAeroModel is an AeroModel interpolating coefficient surfaces: lift and drag over
// (AoA, Mach), pitching moment over (AoA, pitch input).
type SplineAeroModel struct {
	Cl, Cd, Cm *FloatCurve2
	Area       float64 // reference area, m²
	MassKg     float64
	MaxThrust  float64 // N, independent of the conditions
}

// NewSplineAeroModel checks the surfaces and constants of a model.
func NewSplineAeroModel(cl, cd, cm *FloatCurve2, area, mass, thrust float64) (*SplineAeroModel, error) {
	if cl == nil || cd == nil || cm == nil {
		return nil, fmt.Errorf("%w: missing coefficient surface", ErrInvalidArgument)
	}
	if !(area > 0) || !(mass > 0) || !(thrust >= 0) {
		return nil, fmt.Errorf("%w: area and mass must be positive, thrust non-negative", ErrInvalidArgument)
	}
	return &SplineAeroModel{Cl: cl, Cd: cd, Cm: cm, Area: area, MassKg: mass, MaxThrust: thrust}, nil
}

// Lift implements the AeroModel interface.
func (m *SplineAeroModel) Lift(c Conditions, aoa, pitchInput float64) float64 {
	return c.DynamicPressure() * m.Area * m.Cl.Evaluate(aoa, c.Mach())
}

// Drag implements the AeroModel interface.
func (m *SplineAeroModel) Drag(c Conditions, aoa, pitchInput float64) float64 {
	return c.DynamicPressure() * m.Area * m.Cd.Evaluate(aoa, c.Mach())
}

// PitchMoment implements the AeroModel interface.
func (m *SplineAeroModel) PitchMoment(c Conditions, aoa, pitchInput float64) float64 {
	return c.DynamicPressure() * m.Area * m.Cm.Evaluate(aoa, pitchInput)
}

// Thrust implements the AeroModel interface.
func (m *SplineAeroModel) Thrust(c Conditions) float64 {
	return m.MaxThrust
}

// Mass implements the AeroModel interface.
func (m *SplineAeroModel) Mass() float64 {
	return m.MassKg
}

// Close closes the coefficient surfaces.
func (m *SplineAeroModel) Close() {
	m.Cl.Close()
	m.Cd.Close()
	m.Cm.Close()
}

// CoefficientFunctions are analytic aerodynamic coefficients, sampled into a SplineAeroModel.
type CoefficientFunctions struct {
	Cl, Cd func(aoa, mach float64) float64
	Cm     func(aoa, pitchInput float64) float64
}

// AeroGrid are the knots the coefficient surfaces are sampled on.
type AeroGrid struct {
	AoA, Mach, Input []float64
}

// SampleAeroModel samples the coefficient functions on the grid: Cl and Cd over (AoA, Mach)
// with opts, Cm over (AoA, input) with momentOpts.
func SampleAeroModel(fns CoefficientFunctions, grid AeroGrid, opts, momentOpts NumericOptions, area, mass, thrust float64) (*SplineAeroModel, error) {
	if fns.Cl == nil || fns.Cd == nil || fns.Cm == nil {
		return nil, fmt.Errorf("%w: missing coefficient function", ErrInvalidArgument)
	}
	cl, err := NewFloatCurve2FromFunction(fns.Cl, grid.AoA, grid.Mach, opts)
	if err != nil {
		return nil, fmt.Errorf("lift coefficient: %w", err)
	}
	cd, err := NewFloatCurve2FromFunction(fns.Cd, grid.AoA, grid.Mach, opts)
	if err != nil {
		cl.Close()
		return nil, fmt.Errorf("drag coefficient: %w", err)
	}
	cm, err := NewFloatCurve2FromFunction(fns.Cm, grid.AoA, grid.Input, momentOpts)
	if err != nil {
		cl.Close()
		cd.Close()
		return nil, fmt.Errorf("moment coefficient: %w", err)
	}
	m, err := NewSplineAeroModel(cl, cd, cm, area, mass, thrust)
	if err != nil {
		cl.Close()
		cd.Close()
		cm.Close()
		return nil, err
	}
	return m, nil
}

// ReferenceWing are the coefficients of a generic winged vessel: lift peaks at 45° and
// fades with Mach past the sound barrier, drag grows with AoA and in the transonic region,
// the pitching moment is statically stable and trimmed by the input.
var ReferenceWing = CoefficientFunctions{
	Cl: func(aoa, mach float64) float64 {
		return 1.2 * math.Sin(2*aoa) / (1 + 0.25*math.Max(mach-1, 0))
	},
	Cd: func(aoa, mach float64) float64 {
		transonic := 0.05 * math.Exp(-(mach-1)*(mach-1)/0.02)
		s := math.Sin(aoa)
		return 0.02 + transonic + 1.0*s*s
	},
	Cm: func(aoa, input float64) float64 {
		return -0.8*math.Sin(aoa) + 0.4*input
	},
}
