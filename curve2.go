package windtunnel

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gonum/floats"
)

// Derivative selects the partial derivative returned by EvaluateDerivative.
type Derivative uint8

const (
	// DerivX is ∂f/∂x.
	DerivX Derivative = iota + 1
	// DerivY is ∂f/∂y.
	DerivY
	// DerivXY is ∂²f/∂x∂y.
	DerivXY
)

func (d Derivative) String() string {
	switch d {
	case DerivX:
		return "d/dx"
	case DerivY:
		return "d/dy"
	case DerivXY:
		return "d2/dxdy"
	default:
		panic(fmt.Errorf("unknown derivative %d", d))
	}
}

// FloatCurve2 is a piecewise bicubic Hermite surface over a rectangular, non-uniform grid.
// It is safe for concurrent evaluation. Cell coefficients are computed lazily and cached
// along with a hash of the sixteen knowns they derive from, so a rewritten node simply
// fails the hash check of its cells on the next evaluation.
type FloatCurve2 struct {
	xKeys, yKeys []float64
	nodes        [][]Keyframe2 // [len(xKeys)][len(yKeys)]
	cells        []atomic.Pointer[cachedCell]
	lock         sync.RWMutex
	closed       bool
}

// NewFloatCurve2 returns a surface through the provided values, indexed as values[i][j] for
// (xKeys[i], yKeys[j]). Tangents are centered differences of the neighboring samples and the
// end knots use the natural spline end condition. Mixed partials are centered mixed
// differences, one-sided on the edges.
func NewFloatCurve2(xKeys, yKeys []float64, values [][]float64) (*FloatCurve2, error) {
	if err := validateGrid(xKeys, yKeys); err != nil {
		return nil, err
	}
	if err := validateSamples("values", values, len(xKeys), len(yKeys)); err != nil {
		return nil, err
	}
	nx, ny := len(xKeys), len(yKeys)
	dx := make([][]float64, nx)
	for i := range dx {
		dx[i] = make([]float64, ny)
	}
	column := make([]float64, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			column[i] = values[i][j]
		}
		for i, d := range hermiteTangents(xKeys, column) {
			dx[i][j] = d
		}
	}
	dy := make([][]float64, nx)
	dxy := make([][]float64, nx)
	for i := 0; i < nx; i++ {
		dy[i] = hermiteTangents(yKeys, values[i])
		dxy[i] = make([]float64, ny)
		i0, i1 := max(i-1, 0), min(i+1, nx-1)
		for j := 0; j < ny; j++ {
			j0, j1 := max(j-1, 0), min(j+1, ny-1)
			dxy[i][j] = (values[i1][j1] - values[i1][j0] - values[i0][j1] + values[i0][j0]) /
				((xKeys[i1] - xKeys[i0]) * (yKeys[j1] - yKeys[j0]))
		}
	}
	return newFloatCurve2(xKeys, yKeys, values, dx, dy, dxy), nil
}

// NewFloatCurve2WithTangents returns a surface with continuous, caller provided tangents and
// mixed partials. All arrays are indexed like the values of NewFloatCurve2.
func NewFloatCurve2WithTangents(xKeys, yKeys []float64, values, dx, dy, dxy [][]float64) (*FloatCurve2, error) {
	if err := validateGrid(xKeys, yKeys); err != nil {
		return nil, err
	}
	for name, grid := range map[string][][]float64{"values": values, "dx": dx, "dy": dy, "dxy": dxy} {
		if err := validateSamples(name, grid, len(xKeys), len(yKeys)); err != nil {
			return nil, err
		}
	}
	return newFloatCurve2(xKeys, yKeys, values, dx, dy, dxy), nil
}

// NewFloatCurve2FromKeyframes returns a surface from fully specified nodes, including
// one-sided derivatives. The node coordinates are overwritten by the keys.
func NewFloatCurve2FromKeyframes(xKeys, yKeys []float64, keys [][]Keyframe2) (*FloatCurve2, error) {
	if err := validateGrid(xKeys, yKeys); err != nil {
		return nil, err
	}
	if len(keys) != len(xKeys) {
		return nil, fmt.Errorf("%w: keyframes have %d rows for %d x keys", ErrInvalidArgument, len(keys), len(xKeys))
	}
	c := allocFloatCurve2(xKeys, yKeys)
	for i, row := range keys {
		if len(row) != len(yKeys) {
			return nil, fmt.Errorf("%w: keyframes row %d has %d entries for %d y keys", ErrInvalidArgument, i, len(row), len(yKeys))
		}
		for j, k := range row {
			k.X, k.Y = c.xKeys[i], c.yKeys[j]
			c.nodes[i][j] = k
		}
	}
	return c, nil
}

// NewFloatCurve2FromCells returns a surface from per cell coefficients, indexed as
// cells[i][j] for the cell spanning [xKeys[i], xKeys[i+1]] × [yKeys[j], yKeys[j+1]].
// Node values and out-sides are read from the cell above and to the right of each node,
// in-sides from the cells below or to the left. The provided coefficients seed the cache.
func NewFloatCurve2FromCells(xKeys, yKeys []float64, cells [][]Coefficients) (*FloatCurve2, error) {
	if err := validateGrid(xKeys, yKeys); err != nil {
		return nil, err
	}
	nx, ny := len(xKeys), len(yKeys)
	if len(cells) != nx-1 {
		return nil, fmt.Errorf("%w: %d cell rows for %d x keys", ErrInvalidArgument, len(cells), nx)
	}
	for i, row := range cells {
		if len(row) != ny-1 {
			return nil, fmt.Errorf("%w: cell row %d has %d entries for %d y keys", ErrInvalidArgument, i, len(row), ny)
		}
	}
	c := allocFloatCurve2(xKeys, yKeys)
	// side returns the cell index adjoining knot k on the requested side and the
	// normalized coordinate of the knot in that cell.
	side := func(k, n int, in bool) (int, float64) {
		if (in && k > 0) || k == n-1 {
			return k - 1, 1
		}
		return k, 0
	}
	for i := 0; i < nx; i++ {
		xo, uo := side(i, nx, false)
		xi, ui := side(i, nx, true)
		for j := 0; j < ny; j++ {
			yo, vo := side(j, ny, false)
			yi, vi := side(j, ny, true)
			hxo, hxi := xKeys[xo+1]-xKeys[xo], xKeys[xi+1]-xKeys[xi]
			hyo, hyi := yKeys[yo+1]-yKeys[yo], yKeys[yi+1]-yKeys[yi]
			oo, io, oi, ii := &cells[xo][yo], &cells[xi][yo], &cells[xo][yi], &cells[xi][yi]
			c.nodes[i][j] = Keyframe2{
				X: xKeys[i], Y: yKeys[j],
				Value:     oo.eval(uo, vo, false, false),
				DxOut:     oo.eval(uo, vo, true, false) / hxo,
				DxIn:      io.eval(ui, vo, true, false) / hxi,
				DyOut:     oo.eval(uo, vo, false, true) / hyo,
				DyIn:      oi.eval(uo, vi, false, true) / hyi,
				DxyOutOut: oo.eval(uo, vo, true, true) / (hxo * hyo),
				DxyInOut:  io.eval(ui, vo, true, true) / (hxi * hyo),
				DxyOutIn:  oi.eval(uo, vi, true, true) / (hxo * hyi),
				DxyInIn:   ii.eval(ui, vi, true, true) / (hxi * hyi),
			}
		}
	}
	for i := 0; i < nx-1; i++ {
		for j := 0; j < ny-1; j++ {
			k := c.knowns(i, j)
			c.cells[i*(ny-1)+j].Store(&cachedCell{hash: k.hash(), coeffs: cells[i][j]})
		}
	}
	return c, nil
}

func allocFloatCurve2(xKeys, yKeys []float64) *FloatCurve2 {
	c := &FloatCurve2{
		xKeys: append([]float64(nil), xKeys...),
		yKeys: append([]float64(nil), yKeys...),
		nodes: make([][]Keyframe2, len(xKeys)),
		cells: make([]atomic.Pointer[cachedCell], (len(xKeys)-1)*(len(yKeys)-1)),
	}
	for i := range c.nodes {
		c.nodes[i] = make([]Keyframe2, len(yKeys))
	}
	return c
}

// newFloatCurve2 builds continuous nodes from validated arrays.
func newFloatCurve2(xKeys, yKeys []float64, values, dx, dy, dxy [][]float64) *FloatCurve2 {
	c := allocFloatCurve2(xKeys, yKeys)
	for i := range c.nodes {
		for j := range c.nodes[i] {
			c.nodes[i][j] = Keyframe2{
				X: xKeys[i], Y: yKeys[j], Value: values[i][j],
				DxIn: dx[i][j], DxOut: dx[i][j],
				DyIn: dy[i][j], DyOut: dy[i][j],
				DxyInIn: dxy[i][j], DxyInOut: dxy[i][j], DxyOutIn: dxy[i][j], DxyOutOut: dxy[i][j],
			}
		}
	}
	return c
}

// hermiteTangents returns the knot derivatives of the Hermite spline through (xs, ys):
// centered differences inside, natural end conditions on both ends, and the secant when
// only two knots exist.
func hermiteTangents(xs, ys []float64) []float64 {
	n := len(xs)
	d := make([]float64, n)
	if n == 2 {
		s := (ys[1] - ys[0]) / (xs[1] - xs[0])
		d[0], d[1] = s, s
		return d
	}
	for i := 1; i < n-1; i++ {
		d[i] = (ys[i+1] - ys[i-1]) / (xs[i+1] - xs[i-1])
	}
	d[0] = (3*(ys[1]-ys[0])/(xs[1]-xs[0]) - d[1]) / 2
	d[n-1] = (3*(ys[n-1]-ys[n-2])/(xs[n-1]-xs[n-2]) - d[n-2]) / 2
	return d
}

func validateKeys(axis string, keys []float64) error {
	if len(keys) < 2 {
		return fmt.Errorf("%w: %s needs at least 2 keys, got %d", ErrInvalidArgument, axis, len(keys))
	}
	if floats.HasNaN(keys) {
		return fmt.Errorf("%w: %s keys contain NaN", ErrInvalidArgument, axis)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] || math.IsInf(keys[i], 0) || math.IsInf(keys[i-1], 0) {
			return fmt.Errorf("%w: %s keys must be finite and strictly increasing (index %d)", ErrInvalidArgument, axis, i)
		}
	}
	return nil
}

func validateGrid(xKeys, yKeys []float64) error {
	if err := validateKeys("x", xKeys); err != nil {
		return err
	}
	return validateKeys("y", yKeys)
}

func validateSamples(name string, grid [][]float64, nx, ny int) error {
	if len(grid) != nx {
		return fmt.Errorf("%w: %s has %d rows for %d x keys", ErrInvalidArgument, name, len(grid), nx)
	}
	for i, row := range grid {
		if len(row) != ny {
			return fmt.Errorf("%w: %s row %d has %d entries for %d y keys", ErrInvalidArgument, name, i, len(row), ny)
		}
	}
	return nil
}

// rlock takes the read lock and panics if the curve was closed.
func (c *FloatCurve2) rlock() {
	c.lock.RLock()
	if c.closed {
		c.lock.RUnlock()
		panic(ErrClosed)
	}
}

// Close releases the nodes and the cache. Closing twice is a no-op; any other use of a
// closed curve panics with ErrClosed.
func (c *FloatCurve2) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.nodes = nil
	c.cells = nil
}

// XKeys returns a copy of the x knots.
func (c *FloatCurve2) XKeys() []float64 {
	c.rlock()
	defer c.lock.RUnlock()
	return append([]float64(nil), c.xKeys...)
}

// YKeys returns a copy of the y knots.
func (c *FloatCurve2) YKeys() []float64 {
	c.rlock()
	defer c.lock.RUnlock()
	return append([]float64(nil), c.yKeys...)
}

// Bounds returns the domain of the surface.
func (c *FloatCurve2) Bounds() (xMin, xMax, yMin, yMax float64) {
	c.rlock()
	defer c.lock.RUnlock()
	return c.xKeys[0], c.xKeys[len(c.xKeys)-1], c.yKeys[0], c.yKeys[len(c.yKeys)-1]
}

// Keyframe returns the node at (xKeys[i], yKeys[j]).
func (c *FloatCurve2) Keyframe(i, j int) Keyframe2 {
	c.rlock()
	defer c.lock.RUnlock()
	return c.nodes[i][j]
}

// SetKeyframe rewrites the node at (xKeys[i], yKeys[j]). The coordinates of k are ignored.
// The cells around the node recompute their coefficients on their next evaluation.
func (c *FloatCurve2) SetKeyframe(i, j int, k Keyframe2) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		panic(ErrClosed)
	}
	if i < 0 || i >= len(c.xKeys) || j < 0 || j >= len(c.yKeys) {
		return fmt.Errorf("%w: node (%d, %d) outside of %dx%d grid", ErrInvalidArgument, i, j, len(c.xKeys), len(c.yKeys))
	}
	k.X, k.Y = c.xKeys[i], c.yKeys[j]
	c.nodes[i][j] = k
	return nil
}

// knowns gathers the knowns of cell (i, j). Must be called with the lock held.
func (c *FloatCurve2) knowns(i, j int) cellKnowns {
	return knownsFromNodes(c.nodes[i][j], c.nodes[i+1][j], c.nodes[i][j+1], c.nodes[i+1][j+1],
		c.xKeys[i+1]-c.xKeys[i], c.yKeys[j+1]-c.yKeys[j])
}

// cell returns the coefficients of cell (i, j), recomputing them when the cached hash no
// longer matches the nodes. Must be called with (at least) the read lock held: concurrent
// fills store identical values computed from the same nodes.
func (c *FloatCurve2) cell(i, j int) *Coefficients {
	k := c.knowns(i, j)
	h := k.hash()
	slot := &c.cells[i*(len(c.yKeys)-1)+j]
	if cached := slot.Load(); cached != nil && cached.hash == h {
		return &cached.coeffs
	}
	fresh := &cachedCell{hash: h, coeffs: k.coefficients()}
	slot.Store(fresh)
	return &fresh.coeffs
}

// locate returns the cell containing v (already clamped into keys) and the normalized
// offset of v in that cell. On an interior knot, in selects the cell below the knot.
func locate(keys []float64, v float64, in bool) (int, float64) {
	n := len(keys)
	i := sort.SearchFloat64s(keys, v)
	if i < n && keys[i] == v {
		if in && i > 0 {
			i--
		}
		if i > n-2 {
			i = n - 2
		}
	} else {
		i--
	}
	return i, (v - keys[i]) / (keys[i+1] - keys[i])
}

// knotIndex returns the index of v in keys if v is exactly a knot.
func knotIndex(keys []float64, v float64) (int, bool) {
	i := sort.SearchFloat64s(keys, v)
	return i, i < len(keys) && keys[i] == v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Evaluate returns the surface at (x, y). Points outside of the domain are clamped to it.
func (c *FloatCurve2) Evaluate(x, y float64) float64 {
	c.rlock()
	defer c.lock.RUnlock()
	return c.evaluate(x, y)
}

func (c *FloatCurve2) evaluate(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	x = clamp(x, c.xKeys[0], c.xKeys[len(c.xKeys)-1])
	y = clamp(y, c.yKeys[0], c.yKeys[len(c.yKeys)-1])
	i, u := locate(c.xKeys, x, false)
	j, v := locate(c.yKeys, y, false)
	return c.cell(i, j).eval(u, v, false, false)
}

// EvaluateDerivative returns the requested partial derivative at (x, y), taken from the
// cell above the point on each axis where it sits exactly on a knot.
// DerivX is zero whenever x is outside of the domain, DerivY whenever y is, and DerivXY
// only when both are; otherwise the point is clamped.
func (c *FloatCurve2) EvaluateDerivative(x, y float64, d Derivative) float64 {
	return c.EvaluateDerivativeSide(x, y, d, false, false)
}

// EvaluateDerivativeSide is EvaluateDerivative where xIn (resp. yIn) selects the cell below
// an interior x (resp. y) knot, which differs from the cell above at a kink.
func (c *FloatCurve2) EvaluateDerivativeSide(x, y float64, d Derivative, xIn, yIn bool) float64 {
	c.rlock()
	defer c.lock.RUnlock()
	return c.derivative(x, y, d, xIn, yIn)
}

func (c *FloatCurve2) derivative(x, y float64, d Derivative, xIn, yIn bool) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	xLo, xHi := c.xKeys[0], c.xKeys[len(c.xKeys)-1]
	yLo, yHi := c.yKeys[0], c.yKeys[len(c.yKeys)-1]
	xOut := x < xLo || x > xHi
	yOut := y < yLo || y > yHi
	var du, dv bool
	switch d {
	case DerivX:
		if xOut {
			return 0
		}
		du = true
	case DerivY:
		if yOut {
			return 0
		}
		dv = true
	case DerivXY:
		if xOut && yOut {
			return 0
		}
		du, dv = true, true
	default:
		panic(fmt.Errorf("unknown derivative %d", d))
	}
	i, u := locate(c.xKeys, clamp(x, xLo, xHi), xIn)
	j, v := locate(c.yKeys, clamp(y, yLo, yHi), yIn)
	val := c.cell(i, j).eval(u, v, du, dv)
	if du {
		val /= c.xKeys[i+1] - c.xKeys[i]
	}
	if dv {
		val /= c.yKeys[j+1] - c.yKeys[j]
	}
	return val
}

// sample returns the node a non-knot point would have, reading each one-sided quantity
// from the cells on that side. Must be called with the read lock held.
func (c *FloatCurve2) sample(x, y float64) Keyframe2 {
	return Keyframe2{
		X: x, Y: y,
		Value:     c.evaluate(x, y),
		DxIn:      c.derivative(x, y, DerivX, true, false),
		DxOut:     c.derivative(x, y, DerivX, false, false),
		DyIn:      c.derivative(x, y, DerivY, false, true),
		DyOut:     c.derivative(x, y, DerivY, false, false),
		DxyInIn:   c.derivative(x, y, DerivXY, true, true),
		DxyInOut:  c.derivative(x, y, DerivXY, true, false),
		DxyOutIn:  c.derivative(x, y, DerivXY, false, true),
		DxyOutOut: c.derivative(x, y, DerivXY, false, false),
	}
}

func (c *FloatCurve2) String() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.closed {
		return "FloatCurve2[closed]"
	}
	return fmt.Sprintf("FloatCurve2[%dx%d over [%g, %g]x[%g, %g]]", len(c.xKeys), len(c.yKeys),
		c.xKeys[0], c.xKeys[len(c.xKeys)-1], c.yKeys[0], c.yKeys[len(c.yKeys)-1])
}
