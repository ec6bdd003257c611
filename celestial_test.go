package windtunnel

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestBodyFromString(t *testing.T) {
	for _, body := range []*Body{Kerbin, Eve, Duna, Laythe} {
		got, err := BodyFromString(body.Name)
		if err != nil {
			t.Fatalf("err %s", err)
		}
		if got != body {
			t.Fatalf("%s != %s", got, body)
		}
	}
	if b, err := BodyFromString("KERBIN"); err != nil || b != Kerbin {
		t.Fatal("body names should be case insensitive")
	}
	if _, err := BodyFromString("Jool"); err == nil {
		t.Fatal("Jool has no atmosphere model")
	}
}

func TestAtmosphere(t *testing.T) {
	if g := Kerbin.Gravity(0); !floats.EqualWithinRel(g, 9.81, 1e-3) {
		t.Fatalf("Kerbin surface gravity %f", g)
	}
	// One scale height.
	if ρ := Kerbin.Density(5600); !floats.EqualWithinRel(ρ, 1.225/math.E, 1e-4) {
		t.Fatalf("density at 5600 m: %f", ρ)
	}
	prev := math.Inf(1)
	for h := 0.0; h < Kerbin.AtmosphereDepth; h += 2500 {
		ρ := Kerbin.Density(h)
		if ρ >= prev || ρ <= 0 {
			t.Fatalf("density should decrease with altitude: %f at %f m", ρ, h)
		}
		prev = ρ
	}
	if Kerbin.Density(Kerbin.AtmosphereDepth) != 0 || Kerbin.Density(1e6) != 0 {
		t.Fatal("no density above the atmosphere")
	}
	if a := Kerbin.SpeedOfSound(1e6); a != 280 {
		t.Fatalf("speed of sound should be clamped above the atmosphere, got %f", a)
	}
	if _, err := NewBody("flat", 0, 1, 1, 1, 1, kerbolSound, kerbolSound); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewBody("mismatch", 1, 1, 1, 1, 1, kerbolSound, []float64{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
