package windtunnel

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/gonum/floats"
)

func TestComputeEnvelope(t *testing.T) {
	m := sampledSpaceplane(t)
	defer m.Close()
	opt := testOptimizer()
	speeds, altitudes := []float64{100, 200}, []float64{0, 5000}
	env, err := ComputeEnvelope(context.Background(), opt, m, Kerbin, speeds, altitudes, EnvelopeOptions{Workers: 2, Logger: NewLogger(os.Stdout)})
	if err != nil {
		t.Fatalf("err %s", err)
	}
	feasible := [][]bool{{true, false}, {true, true}}
	for i := range speeds {
		for j := range altitudes {
			p := env.Point(i, j)
			if p.Feasible() != feasible[i][j] {
				t.Fatalf("%s: expected feasible=%t", p, feasible[i][j])
			}
			if !p.Feasible() {
				if p.Residual >= 0 {
					t.Fatalf("%s: lacking lift should leave a negative residual", p)
				}
				continue
			}
			c := Conditions{Body: Kerbin, Altitude: p.Altitude, Speed: p.Speed}
			if r := LevelFlightObjective(m, c)(p.AoA); math.Abs(r) > 1e3 {
				t.Fatalf("%s: objective is %f N", p, r)
			}
			if p.LiftDrag <= 0 || p.ExcessThrust >= m.MaxThrust {
				t.Fatalf("%s: inconsistent lift and drag", p)
			}
		}
	}
	if env.Point(1, 0).AoA >= env.Point(0, 0).AoA {
		t.Fatalf("faster flight should need less AoA: %s vs %s", env.Point(1, 0), env.Point(0, 0))
	}
	surface, err := env.AoASurface()
	if err != nil {
		t.Fatalf("err %s", err)
	}
	defer surface.Close()
	if got := surface.Evaluate(200, 5000); !floats.EqualWithinAbs(got, env.Point(1, 1).AoA, 1e-12) {
		t.Fatalf("AoA surface at a knot %f", got)
	}
	excess, err := env.ExcessThrustSurface()
	if err != nil {
		t.Fatalf("err %s", err)
	}
	if got := excess.Evaluate(100, 0); !floats.EqualWithinAbs(got, env.Point(0, 0).ExcessThrust, 1e-9) {
		t.Fatalf("excess thrust surface at a knot %f", got)
	}
}

func TestComputeEnvelopeErrors(t *testing.T) {
	opt := testOptimizer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ComputeEnvelope(ctx, opt, spaceplane, Kerbin, []float64{100, 200}, []float64{0, 1000}, EnvelopeOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := ComputeEnvelope(context.Background(), opt, spaceplane, Kerbin, []float64{100}, []float64{0, 1000}, EnvelopeOptions{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ComputeEnvelope(context.Background(), opt, nil, Kerbin, []float64{100, 200}, []float64{0, 1000}, EnvelopeOptions{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
