package windtunnel

import (
	"testing"

	"github.com/gonum/floats"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

// grid returns values[i][j] = f(xs[i], ys[j]).
func grid(f func(x, y float64) float64, xs, ys []float64) [][]float64 {
	values := make([][]float64, len(xs))
	for i, x := range xs {
		values[i] = make([]float64, len(ys))
		for j, y := range ys {
			values[i][j] = f(x, y)
		}
	}
	return values
}

// probes are points spread over the [0, 2]² domain used by most tests, knots included.
var probes = [][2]float64{
	{0, 0}, {0.3, 0.7}, {0.5, 1}, {1, 1}, {1.25, 0.1}, {1.9, 1.95}, {2, 2}, {0.01, 1.5}, {1.5, 0.5},
}

func assertSurface(t *testing.T, name string, c *FloatCurve2, f func(x, y float64) float64, tol float64) {
	t.Helper()
	for _, p := range probes {
		if got, exp := c.Evaluate(p[0], p[1]), f(p[0], p[1]); !floats.EqualWithinAbs(got, exp, tol) {
			t.Fatalf("[%s] (%g, %g): got %g expected %g", name, p[0], p[1], got, exp)
		}
	}
}

// analyticModel evaluates the coefficient functions directly.
type analyticModel struct {
	fns                CoefficientFunctions
	area, mass, thrust float64
}

func (m analyticModel) Lift(c Conditions, aoa, pitchInput float64) float64 {
	return c.DynamicPressure() * m.area * m.fns.Cl(aoa, c.Mach())
}

func (m analyticModel) Drag(c Conditions, aoa, pitchInput float64) float64 {
	return c.DynamicPressure() * m.area * m.fns.Cd(aoa, c.Mach())
}

func (m analyticModel) PitchMoment(c Conditions, aoa, pitchInput float64) float64 {
	return c.DynamicPressure() * m.area * m.fns.Cm(aoa, pitchInput)
}

func (m analyticModel) Thrust(c Conditions) float64 {
	return m.thrust
}

func (m analyticModel) Mass() float64 {
	return m.mass
}

var spaceplane = analyticModel{fns: ReferenceWing, area: 12, mass: 9000, thrust: 40000}

// testGrid are the knots the reference wing is sampled on.
var testGrid = AeroGrid{
	AoA:   degreesToRadians(-90, -60, -40, -25, -15, -10, -5, 0, 5, 10, 15, 25, 40, 60, 90),
	Mach:  []float64{0, 0.5, 0.8, 0.95, 1, 1.05, 1.2, 1.6, 2.5},
	Input: []float64{-1, -0.5, 0, 0.5, 1},
}

func degreesToRadians(degs ...float64) []float64 {
	out := make([]float64, len(degs))
	for i, d := range degs {
		out[i] = Deg2rad(d)
	}
	return out
}
