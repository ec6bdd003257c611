package windtunnel

import (
	"math"
	"os"
	"testing"

	"github.com/gonum/floats"
)

func testOptimizer() *Optimizer {
	return NewOptimizer(DefaultConfig(), NewLogger(os.Stdout))
}

func TestLevelRootStages(t *testing.T) {
	opt := testOptimizer()
	tol := opt.AoATolerance
	five := func(α float64) float64 { return α - Deg2rad(5) }
	for _, guess := range []float64{math.NaN(), Deg2rad(4), Deg2rad(80), Deg2rad(-89)} {
		res := opt.FindLevelRoot(five, guess, math.NaN(), 0, 0)
		if !res.Feasible() || !floats.EqualWithinAbs(res.X, Deg2rad(5), 2*tol) {
			t.Fatalf("guess %f: %+v", Rad2deg(guess), res)
		}
	}
	// Stage 3: the root is below the wide bracket.
	res := opt.FindLevelRoot(func(α float64) float64 { return α + Deg2rad(30) }, math.NaN(), math.NaN(), 0, 0)
	if !res.Feasible() || !floats.EqualWithinAbs(res.X, Deg2rad(-30), 2*tol) {
		t.Fatalf("stage 3 root: %+v", res)
	}
	// Stage 3 exhausted.
	res = opt.FindLevelRoot(func(α float64) float64 { return 1 }, math.NaN(), math.NaN(), 0, 0)
	if res.Feasible() || res.Residual != 1 || res.X != Deg2rad(-90) {
		t.Fatalf("constant objective should be infeasible at -90°: %+v", res)
	}
}

func TestLevelRootStage4(t *testing.T) {
	opt := testOptimizer()
	tol := opt.AoATolerance
	// Lift-like objective whose root is past the wide bracket but before the maximum.
	lift := func(α float64) float64 { return math.Sin(2*α) - 0.99 }
	exp := math.Asin(0.99) / 2
	for _, maxLift := range []float64{math.NaN(), Deg2rad(45)} {
		res := opt.FindLevelRoot(lift, math.NaN(), maxLift, 0, 1)
		if !res.Feasible() || !floats.EqualWithinAbs(res.X, exp, 2*tol) {
			t.Fatalf("maxLift=%f: %+v, expected %f°", maxLift, res, Rad2deg(exp))
		}
	}
	// Not enough lift anywhere.
	res := opt.FindLevelRoot(func(α float64) float64 { return -1 - α*α }, math.NaN(), math.NaN(), 0, 1)
	if res.Feasible() || res.Residual >= -1 || !floats.EqualWithinAbs(res.X, Deg2rad(35), 1e-3) {
		t.Fatalf("expected infeasible closest approach at 35°: %+v", res)
	}
	// Stall below the upper bound of the wide bracket: the lift peaks at 20° and only
	// exceeds the weight between 10° and 30°.
	peak := func(α float64) float64 {
		r := (α - Deg2rad(20)) / Deg2rad(10)
		return 1 - r*r
	}
	maxLift, _ := opt.FindMaximum(peak, math.NaN(), MaxLiftBracket)
	for _, ml := range []float64{maxLift, Deg2rad(20)} {
		res = opt.FindLevelRoot(peak, math.NaN(), ml, 0, 1)
		if !res.Feasible() || !floats.EqualWithinAbs(res.X, Deg2rad(10), 2*tol) {
			t.Fatalf("maxLift=%f°: %+v, expected 10°", Rad2deg(ml), res)
		}
	}
	// Thrust exceeding the weight: the vessel hangs on its engine.
	thrust, weight := 2.0, 1.5
	res = opt.FindLevelRoot(func(α float64) float64 { return thrust*math.Sin(α) - weight }, math.NaN(), math.NaN(), thrust, weight)
	if !res.Feasible() || !floats.EqualWithinAbs(res.X, math.Asin(weight/thrust), 2*tol) {
		t.Fatalf("thrust limited root: %+v", res)
	}
}

func TestLevelRootNotConverged(t *testing.T) {
	// A negative tolerance never converges, so the search ends on its iteration limit.
	opt := &Optimizer{AoATolerance: -1, InputTolerance: -1, logger: NewLogger(os.Stdout)}
	step := func(α float64) float64 {
		if α < Deg2rad(12) {
			return -1
		}
		return 1
	}
	res := opt.FindLevelRoot(step, math.NaN(), math.NaN(), 0, 1)
	if res.Feasible() || math.Abs(res.Residual) != 1 || !floats.EqualWithinAbs(res.X, Deg2rad(12), 1e-9) {
		t.Fatalf("expected the last estimate near 12°: %+v", res)
	}
}

func TestFindExtrema(t *testing.T) {
	opt := testOptimizer()
	bowl := func(α float64) float64 { return (α - Deg2rad(20)) * (α - Deg2rad(20)) }
	for _, guess := range []float64{math.NaN(), Deg2rad(18), Deg2rad(-60)} {
		x, fx := opt.FindMinimum(bowl, guess, LevelFlightBracket)
		if !floats.EqualWithinAbs(x, Deg2rad(20), opt.AoATolerance) || fx > 1e-6 {
			t.Fatalf("guess %f: minimum at %f° (%g)", Rad2deg(guess), Rad2deg(x), fx)
		}
	}
	x, fx := opt.FindMaximum(func(α float64) float64 { return -bowl(α) }, Deg2rad(30), LevelFlightBracket)
	if !floats.EqualWithinAbs(x, Deg2rad(20), opt.AoATolerance) || fx < -1e-6 {
		t.Fatalf("maximum at %f° (%g)", Rad2deg(x), fx)
	}
}

func TestLiftExtrema(t *testing.T) {
	opt := testOptimizer()
	c := Conditions{Body: Kerbin, Altitude: 1000, Speed: 150}
	for _, guess := range []float64{math.NaN(), Deg2rad(40)} {
		aoa, lift := opt.MaxLiftAoA(spaceplane, c, guess)
		if !floats.EqualWithinAbs(aoa, Deg2rad(45), opt.AoATolerance) {
			t.Fatalf("max lift at %f°", Rad2deg(aoa))
		}
		if exp := c.DynamicPressure() * spaceplane.area * 1.2; !floats.EqualWithinRel(lift, exp, 1e-6) {
			t.Fatalf("max lift %f instead of %f", lift, exp)
		}
	}
	aoa, lift := opt.MinLiftAoA(spaceplane, c, math.NaN())
	if !floats.EqualWithinAbs(aoa, Deg2rad(-45), opt.AoATolerance) || lift >= 0 {
		t.Fatalf("min lift %f at %f°", lift, Rad2deg(aoa))
	}
}

func TestLevelFlightAoA(t *testing.T) {
	opt := testOptimizer()
	c := Conditions{Body: Kerbin, Altitude: 1000, Speed: 150}
	f := LevelFlightObjective(spaceplane, c)
	exp, err := FindRoot(f, 0, Deg2rad(35), 1e-12)
	if err != nil {
		t.Fatalf("err %s", err)
	}
	for _, guess := range []float64{math.NaN(), exp + Deg2rad(1)} {
		res := opt.LevelFlightAoA(spaceplane, c, math.NaN(), guess)
		if !res.Feasible() || !floats.EqualWithinAbs(res.X, exp, 2*opt.AoATolerance) {
			t.Fatalf("level flight %+v, expected %f°", res, Rad2deg(exp))
		}
	}
	// Too slow and too high for this wing.
	c = Conditions{Body: Kerbin, Altitude: 5000, Speed: 100}
	if res := opt.LevelFlightAoA(spaceplane, c, math.NaN(), math.NaN()); res.Feasible() || res.Residual >= 0 {
		t.Fatalf("level flight should be infeasible: %+v", res)
	}
}

func TestInputRoot(t *testing.T) {
	opt := testOptimizer()
	trim := func(u float64) float64 { return 0.4*u - 0.1 }
	for _, guess := range []float64{math.NaN(), 0.2, -0.9} {
		res := opt.FindInputRoot(trim, guess)
		if !res.Feasible() || !floats.EqualWithinAbs(res.X, 0.25, opt.InputTolerance) {
			t.Fatalf("guess %f: %+v", guess, res)
		}
	}
	res := opt.FindInputRoot(func(u float64) float64 { return 0.4*u + 1 }, math.NaN())
	if res.Feasible() || res.X != -1 || !floats.EqualWithinAbs(res.Residual, 0.6, 1e-12) {
		t.Fatalf("expected closest approach at -1: %+v", res)
	}
}

func TestPitchInputEquilibrium(t *testing.T) {
	opt := testOptimizer()
	c := Conditions{Body: Kerbin, Altitude: 1000, Speed: 150}
	res := opt.PitchInputEquilibrium(spaceplane, c, Deg2rad(10), math.NaN())
	if exp := 2 * math.Sin(Deg2rad(10)); !res.Feasible() || !floats.EqualWithinAbs(res.X, exp, opt.InputTolerance) {
		t.Fatalf("trim input %+v, expected %f", res, exp)
	}
	// The input cannot hold 45°.
	res = opt.PitchInputEquilibrium(spaceplane, c, Deg2rad(45), 0.9)
	if res.Feasible() || res.X != 1 || res.Residual >= 0 {
		t.Fatalf("expected saturated input: %+v", res)
	}
}
