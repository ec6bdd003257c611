package windtunnel

import (
	"testing"

	"github.com/gonum/floats"
)

func TestAngles(t *testing.T) {
	for _, deg := range []float64{-90, -45, -10, 0, 5, 35, 90, 270} {
		if got := Rad2deg(Deg2rad(deg)); !floats.EqualWithinAbs(got, deg, 1e-12) {
			t.Fatalf("%f° converted back to %f°", deg, got)
		}
	}
	if Deg2rad(-30) >= 0 {
		t.Fatal("negative angles must stay negative")
	}
}

func TestLinspace(t *testing.T) {
	if s := linspace(0, 1, 5); !floats.Equal(s, []float64{0, 0.25, 0.5, 0.75, 1}) {
		t.Fatalf("linspace %v", s)
	}
}
