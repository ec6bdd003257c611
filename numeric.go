package windtunnel

import (
	"fmt"
	"math"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"
	"golang.org/x/sync/errgroup"
)

// NumericOptions configures NewFloatCurve2FromFunction.
type NumericOptions struct {
	DeltaX, DeltaY float64 // finite difference steps, must be positive
	// ContinuousX[i] forces matching in and out x derivatives at xKeys[i]; nil means no
	// knot is forced. ContinuousY likewise.
	ContinuousX, ContinuousY []bool
	ZeroCrossDiff            bool // all mixed partials are zero and no diagonal sample is taken
	Workers                  int  // knots sampled in parallel when > 1; fn must then be safe for concurrent use
	Logger                   kitlog.Logger
}

func (o NumericOptions) validate(nx, ny int) error {
	if !(o.DeltaX > 0) || !(o.DeltaY > 0) || math.IsInf(o.DeltaX, 0) || math.IsInf(o.DeltaY, 0) {
		return fmt.Errorf("%w: finite difference steps must be positive (got %g, %g)", ErrInvalidArgument, o.DeltaX, o.DeltaY)
	}
	if o.ContinuousX != nil && len(o.ContinuousX) != nx {
		return fmt.Errorf("%w: %d x continuity flags for %d x keys", ErrInvalidArgument, len(o.ContinuousX), nx)
	}
	if o.ContinuousY != nil && len(o.ContinuousY) != ny {
		return fmt.Errorf("%w: %d y continuity flags for %d y keys", ErrInvalidArgument, len(o.ContinuousY), ny)
	}
	return nil
}

// stencil holds the samples around one knot, indexed [dx+1][dy+1] for offsets in {-1, 0, 1}.
type stencil struct {
	f   [3][3]float64
	set [3][3]bool
}

func (s *stencil) at(dx, dy int) float64 {
	return s.f[dx+1][dy+1]
}

func (s *stencil) put(dx, dy int, v float64) {
	s.f[dx+1][dy+1] = v
	s.set[dx+1][dy+1] = true
}

func (s *stencil) has(dx, dy int) bool {
	return s.set[dx+1][dy+1]
}

// NewFloatCurve2FromFunction samples fn around every knot to build the values, one-sided
// derivatives and mixed partials of each node by finite differences. Knots on the domain
// boundary are only sampled inwards and copy the inward derivative to the outward side.
// A NaN sample fails with ErrInvalidArgument.
func NewFloatCurve2FromFunction(fn func(x, y float64) float64, xKeys, yKeys []float64, opts NumericOptions) (*FloatCurve2, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil sampling function", ErrInvalidArgument)
	}
	if err := validateGrid(xKeys, yKeys); err != nil {
		return nil, err
	}
	if err := opts.validate(len(xKeys), len(yKeys)); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	c := allocFloatCurve2(xKeys, yKeys)
	var calls atomic.Int64
	counted := func(x, y float64) float64 {
		calls.Add(1)
		return fn(x, y)
	}
	var g errgroup.Group
	if opts.Workers > 1 {
		g.SetLimit(opts.Workers)
	} else {
		g.SetLimit(1)
	}
	for i := range xKeys {
		for j := range yKeys {
			g.Go(func() error {
				k := sampleKnot(counted, c.xKeys, c.yKeys, i, j, opts)
				if k.hasNaN() {
					return fmt.Errorf("%w: NaN sampled around (%g, %g)", ErrInvalidArgument, k.X, k.Y)
				}
				c.nodes[i][j] = k
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Log("level", "debug", "subsys", "spline", "grid", fmt.Sprintf("%dx%d", len(xKeys), len(yKeys)), "evaluations", calls.Load())
	return c, nil
}

// sampleKnot builds the node at (xKeys[i], yKeys[j]).
func sampleKnot(fn func(x, y float64) float64, xKeys, yKeys []float64, i, j int, opts NumericOptions) Keyframe2 {
	x, y := xKeys[i], yKeys[j]
	hX, hY := opts.DeltaX, opts.DeltaY
	// Available sides, indexed by offset+1.
	sideX := [3]bool{i > 0, true, i < len(xKeys)-1}
	sideY := [3]bool{j > 0, true, j < len(yKeys)-1}
	contX := opts.ContinuousX != nil && opts.ContinuousX[i] && sideX[0] && sideX[2]
	contY := opts.ContinuousY != nil && opts.ContinuousY[j] && sideY[0] && sideY[2]

	var s stencil
	s.put(0, 0, fn(x, y))
	if sideX[2] {
		s.put(1, 0, fn(x+hX, y))
	}
	if sideX[0] {
		if contX {
			s.put(-1, 0, 2*s.at(0, 0)-s.at(1, 0))
		} else {
			s.put(-1, 0, fn(x-hX, y))
		}
	}
	if sideY[2] {
		s.put(0, 1, fn(x, y+hY))
	}
	if sideY[0] {
		if contY {
			s.put(0, -1, 2*s.at(0, 0)-s.at(0, 1))
		} else {
			s.put(0, -1, fn(x, y-hY))
		}
	}
	if !opts.ZeroCrossDiff {
		// Positive x offsets first so that continuous knots can mirror them.
		for _, dx := range []int{1, -1} {
			for _, dy := range []int{1, -1} {
				if !sideX[dx+1] || !sideY[dy+1] {
					continue
				}
				switch {
				case contX && dx < 0:
					s.put(dx, dy, 2*s.at(0, dy)-s.at(1, dy))
				case contY && dy < 0 && s.has(dx, 1):
					s.put(dx, dy, 2*s.at(dx, 0)-s.at(dx, 1))
				default:
					s.put(dx, dy, fn(x+float64(dx)*hX, y+float64(dy)*hY))
				}
			}
		}
	}

	// inward returns the offset to use for the requested side, falling back to the
	// opposite side on the domain boundary.
	inward := func(sides [3]bool, d int) int {
		if sides[d+1] {
			return d
		}
		return -d
	}
	f0 := s.at(0, 0)
	dxOf := func(d int) float64 {
		d = inward(sideX, d)
		return float64(d) * (s.at(d, 0) - f0) / hX
	}
	dyOf := func(d int) float64 {
		d = inward(sideY, d)
		return float64(d) * (s.at(0, d) - f0) / hY
	}
	dxyOf := func(dx, dy int) float64 {
		if opts.ZeroCrossDiff {
			return 0
		}
		dx, dy = inward(sideX, dx), inward(sideY, dy)
		return (s.at(dx, dy) - s.at(dx, 0) - s.at(0, dy) + f0) / (float64(dx*dy) * hX * hY)
	}
	return Keyframe2{
		X: x, Y: y, Value: f0,
		DxIn: dxOf(-1), DxOut: dxOf(1),
		DyIn: dyOf(-1), DyOut: dyOf(1),
		DxyInIn: dxyOf(-1, -1), DxyInOut: dxyOf(-1, 1), DxyOutIn: dxyOf(1, -1), DxyOutOut: dxyOf(1, 1),
	}
}
