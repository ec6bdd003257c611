package windtunnel

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestFindRoot(t *testing.T) {
	for _, tc := range []struct {
		name string
		f    func(float64) float64
		a, b float64
		exp  float64
	}{
		{"linear", func(x float64) float64 { return x - Deg2rad(5) }, Deg2rad(-10), Deg2rad(35), Deg2rad(5)},
		{"cubic", func(x float64) float64 { return x*x*x - 2*x - 5 }, 2, 3, 2.0945514815423265},
		{"cosine", math.Cos, 0, 3, math.Pi / 2},
		{"reversed", func(x float64) float64 { return 1 - x }, 3, -2, 1},
		{"on the end", func(x float64) float64 { return x }, 0, 1, 0},
	} {
		x, err := FindRoot(tc.f, tc.a, tc.b, 1e-10)
		if err != nil {
			t.Fatalf("[%s] err %s", tc.name, err)
		}
		if !floats.EqualWithinAbs(x, tc.exp, 1e-9) {
			t.Fatalf("[%s] root %.12f instead of %.12f", tc.name, x, tc.exp)
		}
	}
}

func TestFindRootErrors(t *testing.T) {
	if _, err := FindRoot(func(x float64) float64 { return 1 }, -1, 1, 1e-6); !errors.Is(err, ErrNotBracketed) {
		t.Fatalf("expected ErrNotBracketed, got %v", err)
	}
	if _, err := FindRoot(func(x float64) float64 { return math.NaN() }, -1, 1, 1e-6); !errors.Is(err, ErrNotBracketed) {
		t.Fatalf("expected ErrNotBracketed, got %v", err)
	}
}

func TestMinimize(t *testing.T) {
	x, fx, err := Minimize(func(x float64) float64 { return (x - 1.3) * (x - 1.3) }, -4, 4, 1e-8)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !floats.EqualWithinAbs(x, 1.3, 1e-6) || !floats.EqualWithinAbs(fx, 0, 1e-10) {
		t.Fatalf("minimum at %f (%f)", x, fx)
	}
	// Monotonic: the minimum sits on the bracket end.
	x, _, err = Minimize(func(x float64) float64 { return x }, 2, 5, 1e-8)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !floats.EqualWithinAbs(x, 2, 1e-6) {
		t.Fatalf("minimum of a monotonic function at %f", x)
	}
	x, fx, err = Maximize(math.Sin, 0, 3, 1e-8)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if !floats.EqualWithinAbs(x, math.Pi/2, 1e-6) || !floats.EqualWithinAbs(fx, 1, 1e-10) {
		t.Fatalf("maximum at %f (%f)", x, fx)
	}
}
