package windtunnel

import (
	"errors"
	"math"

	kitlog "github.com/go-kit/kit/log"
)

// Bracket is a closed search interval.
type Bracket struct {
	Lo, Hi float64
}

// clampTo returns the bracket intersected with limits.
func (b Bracket) clampTo(limits Bracket) Bracket {
	return Bracket{math.Max(b.Lo, limits.Lo), math.Min(b.Hi, limits.Hi)}
}

// interior returns whether x lies in the bracket and farther than tol from its ends.
func (b Bracket) interior(x, tol float64) bool {
	return x-b.Lo > tol && b.Hi-x > tol
}

var (
	// LevelFlightBracket is the wide AoA bracket of the level flight search.
	LevelFlightBracket = Bracket{Deg2rad(-10), Deg2rad(35)}
	// MinLiftBracket is the wide AoA bracket of the minimum lift search.
	MinLiftBracket = Bracket{Deg2rad(-80), Deg2rad(-10)}
	// MaxLiftBracket is the wide AoA bracket of the maximum lift search.
	MaxLiftBracket = Bracket{Deg2rad(10), Deg2rad(80)}
	// InputBracket is the range of the normalized control input.
	InputBracket = Bracket{-1, 1}

	aoaLimits          = Bracket{Deg2rad(-90), Deg2rad(90)}
	aoaGuessWidths     = []float64{Deg2rad(5), Deg2rad(10), Deg2rad(20)}
	inputGuessWidths   = []float64{0.3}
	levelFlightStepsDn = []float64{Deg2rad(-5), Deg2rad(-10), Deg2rad(-20), Deg2rad(-40), Deg2rad(-90)}
)

// Result is the outcome of a root search. Residual is zero when X is a root; otherwise X is
// the closest approach found and Residual the objective there.
type Result struct {
	X        float64
	Residual float64
}

// Feasible returns whether a root was found.
func (r Result) Feasible() bool {
	return r.Residual == 0
}

// Optimizer runs the staged searches. It holds no state between calls and is safe for
// concurrent use. A guess of NaN means no guess.
type Optimizer struct {
	AoATolerance   float64 // radians
	InputTolerance float64
	logger         kitlog.Logger
}

// NewOptimizer returns an Optimizer with the tolerances of the configuration.
func NewOptimizer(cfg Config, logger kitlog.Logger) *Optimizer {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Optimizer{AoATolerance: cfg.AoATolerance, InputTolerance: cfg.InputTolerance, logger: logger}
}

// staged tries the guess brackets (widths around guess, clamped to limits) and then the
// wide bracket, stopping at the first bracket that try accepts.
func (o *Optimizer) staged(search string, guess float64, widths []float64, limits, wide Bracket, try func(Bracket) bool) bool {
	if !math.IsNaN(guess) {
		for _, w := range widths {
			br := Bracket{guess - w, guess + w}.clampTo(limits)
			if br.Hi <= br.Lo {
				continue
			}
			if try(br) {
				return true
			}
		}
		o.logger.Log("level", "debug", "subsys", "optimizer", "search", search, "guess", guess, "status", "guess brackets failed")
	}
	return try(wide)
}

// FindMinimum minimizes f, first around the guess, then over the wide AoA bracket.
// A guess bracket is only accepted when its minimum is not on one of its ends.
func (o *Optimizer) FindMinimum(f func(float64) float64, guess float64, wide Bracket) (x, fx float64) {
	o.staged("minimum", guess, aoaGuessWidths, aoaLimits, wide, func(br Bracket) bool {
		var err error
		x, fx, err = Minimize(f, br.Lo, br.Hi, o.AoATolerance)
		if br == wide {
			if err != nil {
				o.logger.Log("level", "warning", "subsys", "optimizer", "search", "minimum", "err", err, "x", x)
			}
			return true
		}
		return err == nil && br.interior(x, o.AoATolerance)
	})
	return
}

// FindMaximum maximizes f like FindMinimum.
func (o *Optimizer) FindMaximum(f func(float64) float64, guess float64, wide Bracket) (x, fx float64) {
	x, fx = o.FindMinimum(func(t float64) float64 { return -f(t) }, guess, wide)
	return x, -fx
}

// MaxLiftAoA returns the AoA of maximum lift and the lift there.
func (o *Optimizer) MaxLiftAoA(m AeroModel, c Conditions, guess float64) (aoa, lift float64) {
	return o.FindMaximum(func(α float64) float64 { return m.Lift(c, α, 0) }, guess, MaxLiftBracket)
}

// MinLiftAoA returns the AoA of minimum (most negative) lift and the lift there.
func (o *Optimizer) MinLiftAoA(m AeroModel, c Conditions, guess float64) (aoa, lift float64) {
	return o.FindMinimum(func(α float64) float64 { return m.Lift(c, α, 0) }, guess, MinLiftBracket)
}

// FindLevelRoot finds a zero of the level flight objective f:
//  1. symmetric brackets around the guess;
//  2. LevelFlightBracket;
//  3. if f is positive over it, the lower bound steps down to -90°;
//  4. if f is negative over it, the thrust limited sub-bracket when thrust exceeds weight,
//     then the maximum of f past maxLiftAoA decides whether a root exists at all; when it
//     does, the root is searched between either bound of the wide bracket and the maximum.
//
// thrust and weight are only used by stage 4.
func (o *Optimizer) FindLevelRoot(f func(float64) float64, guess, maxLiftAoA, thrust, weight float64) Result {
	tol := o.AoATolerance
	var root float64
	// closest is the best estimate of the searches that ran out of iterations.
	closest := Result{X: math.NaN(), Residual: math.Inf(1)}
	tryRoot := func(br Bracket) bool {
		x, err := FindRoot(f, br.Lo, br.Hi, tol)
		switch {
		case err == nil:
			root = x
			return true
		case errors.Is(err, ErrNotConverged):
			if fx := f(x); math.Abs(fx) < math.Abs(closest.Residual) {
				closest = Result{X: x, Residual: fx}
			}
		}
		return false
	}
	orClosest := func(r Result) Result {
		if math.Abs(closest.Residual) <= math.Abs(r.Residual) {
			return closest
		}
		return r
	}
	if o.staged("level flight", guess, aoaGuessWidths, aoaLimits, LevelFlightBracket, tryRoot) {
		return Result{X: root}
	}
	wide := LevelFlightBracket
	fLo, fHi := f(wide.Lo), f(wide.Hi)
	switch {
	case fLo > 0 && fHi > 0:
		hi := wide.Lo
		for _, lo := range levelFlightStepsDn {
			if lo >= hi {
				continue
			}
			if tryRoot(Bracket{lo, hi}) {
				return Result{X: root}
			}
			hi = lo
		}
		o.logger.Log("level", "debug", "subsys", "optimizer", "search", "level flight", "status", "positive down to lower limit", "residual", f(hi))
		return orClosest(Result{X: hi, Residual: f(hi)})
	case fLo < 0 && fHi < 0:
		if thrust > weight && weight > 0 {
			if ub := math.Asin(weight / thrust); ub > wide.Hi && f(ub) >= 0 && tryRoot(Bracket{wide.Hi, ub}) {
				return Result{X: root}
			}
		}
		lo := maxLiftAoA
		if math.IsNaN(lo) || lo >= aoaLimits.Hi {
			lo = wide.Hi
		}
		xMax, fMax := o.maximizeOnce(f, Bracket{lo, aoaLimits.Hi})
		if fMax < 0 {
			o.logger.Log("level", "debug", "subsys", "optimizer", "search", "level flight", "status", "infeasible", "closest", xMax, "residual", fMax)
			return Result{X: xMax, Residual: fMax}
		}
		if fMax == 0 {
			return Result{X: xMax}
		}
		// Both ends of the wide bracket are negative, so each of these brackets changes sign.
		var brackets []Bracket
		if xMax > wide.Hi {
			brackets = append(brackets, Bracket{wide.Hi, xMax})
		}
		if xMax > wide.Lo {
			brackets = append(brackets, Bracket{wide.Lo, xMax})
		} else {
			brackets = append(brackets, Bracket{xMax, wide.Lo})
		}
		for _, br := range brackets {
			if tryRoot(br) {
				return Result{X: root}
			}
		}
		o.logger.Log("level", "warning", "subsys", "optimizer", "search", "level flight", "status", "root not converged", "closest", closest.X)
		return orClosest(Result{X: xMax, Residual: fMax})
	default:
		// Sign change in the wide bracket without convergence, or NaN objective.
		x := wide.Lo
		if math.Abs(fHi) < math.Abs(fLo) {
			x = wide.Hi
		}
		return orClosest(Result{X: x, Residual: f(x)})
	}
}

func (o *Optimizer) maximizeOnce(f func(float64) float64, br Bracket) (x, fx float64) {
	x, fx, err := Maximize(f, br.Lo, br.Hi, o.AoATolerance)
	if err != nil {
		o.logger.Log("level", "warning", "subsys", "optimizer", "search", "maximum", "err", err, "x", x)
	}
	return x, fx
}

// LevelFlightAoA returns the AoA of level flight in the conditions. A NaN maxLiftAoA is
// computed with MaxLiftAoA.
func (o *Optimizer) LevelFlightAoA(m AeroModel, c Conditions, maxLiftAoA, guess float64) Result {
	if math.IsNaN(maxLiftAoA) {
		maxLiftAoA, _ = o.MaxLiftAoA(m, c, math.NaN())
	}
	return o.FindLevelRoot(LevelFlightObjective(m, c), guess, maxLiftAoA, m.Thrust(c), m.Mass()*c.EffectiveGravity())
}

// FindInputRoot finds a zero of f over the control input range, first within ±0.3 of the
// guess. Without a sign change over the whole range, the end with the smallest magnitude
// is returned as the closest approach.
func (o *Optimizer) FindInputRoot(f func(float64) float64, guess float64) Result {
	var root float64
	ok := o.staged("input", guess, inputGuessWidths, InputBracket, InputBracket, func(br Bracket) bool {
		x, err := FindRoot(f, br.Lo, br.Hi, o.InputTolerance)
		if err != nil {
			return false
		}
		root = x
		return true
	})
	if ok {
		return Result{X: root}
	}
	fLo, fHi := f(InputBracket.Lo), f(InputBracket.Hi)
	if math.Abs(fLo) <= math.Abs(fHi) {
		return Result{X: InputBracket.Lo, Residual: fLo}
	}
	return Result{X: InputBracket.Hi, Residual: fHi}
}

// PitchInputEquilibrium returns the pitch input trimming the vessel at the given AoA.
func (o *Optimizer) PitchInputEquilibrium(m AeroModel, c Conditions, aoa, guess float64) Result {
	return o.FindInputRoot(func(u float64) float64 { return m.PitchMoment(c, aoa, u) }, guess)
}
