package windtunnel

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"
	"golang.org/x/sync/errgroup"
)

// EnvelopePoint is the level flight solution at one speed and altitude.
type EnvelopePoint struct {
	Speed, Altitude float64
	AoA             float64 // radians; the closest approach when Residual is not zero
	Residual        float64 // N
	LiftDrag        float64 // zero without drag
	ExcessThrust    float64 // N, thrust minus drag at AoA
}

// Feasible returns whether level flight is possible at this point.
func (p EnvelopePoint) Feasible() bool {
	return p.Residual == 0
}

func (p EnvelopePoint) String() string {
	if !p.Feasible() {
		return fmt.Sprintf("V=%.1f h=%.0f infeasible (closest %.2f°, residual %.1f N)", p.Speed, p.Altitude, Rad2deg(p.AoA), p.Residual)
	}
	return fmt.Sprintf("V=%.1f h=%.0f AoA=%.2f° L/D=%.2f excess=%.1f N", p.Speed, p.Altitude, Rad2deg(p.AoA), p.LiftDrag, p.ExcessThrust)
}

// Envelope is a table of level flight solutions, indexed [speed][altitude].
type Envelope struct {
	Speeds, Altitudes []float64
	Points            [][]EnvelopePoint
}

// EnvelopeOptions configures ComputeEnvelope.
type EnvelopeOptions struct {
	Workers int // speed rows solved in parallel
	Logger  kitlog.Logger
}

// ComputeEnvelope solves level flight at every speed and altitude. The rows of each speed
// are solved in parallel and share the model; within a row, the previous feasible AoA seeds
// the next search. Cancelling ctx stops the rows not yet started.
func ComputeEnvelope(ctx context.Context, opt *Optimizer, model AeroModel, body *Body, speeds, altitudes []float64, eo EnvelopeOptions) (*Envelope, error) {
	if opt == nil || model == nil || body == nil {
		return nil, fmt.Errorf("%w: optimizer, model and body are required", ErrInvalidArgument)
	}
	if err := validateGrid(speeds, altitudes); err != nil {
		return nil, err
	}
	logger := eo.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	env := &Envelope{
		Speeds:    append([]float64(nil), speeds...),
		Altitudes: append([]float64(nil), altitudes...),
		Points:    make([][]EnvelopePoint, len(speeds)),
	}
	var infeasible atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(eo.Workers, 1))
	for i := range speeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]EnvelopePoint, len(altitudes))
			guess, maxLiftGuess := math.NaN(), math.NaN()
			for j, alt := range altitudes {
				c := Conditions{Body: body, Altitude: alt, Speed: speeds[i]}
				maxLift, _ := opt.MaxLiftAoA(model, c, maxLiftGuess)
				maxLiftGuess = maxLift
				res := opt.LevelFlightAoA(model, c, maxLift, guess)
				row[j] = envelopePoint(model, c, res)
				if res.Feasible() {
					guess = res.X
				} else {
					infeasible.Add(1)
				}
			}
			env.Points[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Log("level", "info", "subsys", "envelope", "body", body.Name, "points", len(speeds)*len(altitudes), "infeasible", infeasible.Load())
	return env, nil
}

func envelopePoint(m AeroModel, c Conditions, res Result) EnvelopePoint {
	p := EnvelopePoint{Speed: c.Speed, Altitude: c.Altitude, AoA: res.X, Residual: res.Residual}
	drag := m.Drag(c, res.X, 0)
	if drag > 0 {
		p.LiftDrag = m.Lift(c, res.X, 0) / drag
	}
	p.ExcessThrust = m.Thrust(c) - drag
	return p
}

// Point returns the solution at the i-th speed and j-th altitude.
func (e *Envelope) Point(i, j int) EnvelopePoint {
	return e.Points[i][j]
}

func (e *Envelope) surface(value func(EnvelopePoint) float64) (*FloatCurve2, error) {
	values := make([][]float64, len(e.Speeds))
	for i, row := range e.Points {
		values[i] = make([]float64, len(row))
		for j, p := range row {
			values[i][j] = value(p)
		}
	}
	return NewFloatCurve2(e.Speeds, e.Altitudes, values)
}

// AoASurface interpolates the level flight AoA over (speed, altitude). Infeasible points
// contribute their closest approach.
func (e *Envelope) AoASurface() (*FloatCurve2, error) {
	return e.surface(func(p EnvelopePoint) float64 { return p.AoA })
}

// ExcessThrustSurface interpolates the excess thrust over (speed, altitude).
func (e *Envelope) ExcessThrustSurface() (*FloatCurve2, error) {
	return e.surface(func(p EnvelopePoint) float64 { return p.ExcessThrust })
}
