package windtunnel

import (
	"math"

	"github.com/gonum/floats"
)

const deg2rad = math.Pi / 180

// Deg2rad converts degrees to radians. Unlike heading conversions, negative angles are kept
// negative since angles of attack are signed.
func Deg2rad(a float64) float64 {
	return a * deg2rad
}

// Rad2deg converts radians to degrees, keeping the sign.
func Rad2deg(a float64) float64 {
	return a / deg2rad
}

// linspace returns n evenly spaced values from lo to hi included.
func linspace(lo, hi float64, n int) []float64 {
	s := make([]float64, n)
	floats.Span(s, lo, hi)
	return s
}
