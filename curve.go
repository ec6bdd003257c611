package windtunnel

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Keyframe is one knot of a FloatCurve.
type Keyframe struct {
	Time, Value           float64
	InTangent, OutTangent float64
}

// FloatCurve is a one dimensional cubic Hermite curve, clamped outside of its keys.
// Evaluate does not lock; use EvaluateThreadSafe when the keys may be rewritten concurrently.
type FloatCurve struct {
	keys []Keyframe
	mu   sync.Mutex
}

// NewFloatCurve returns a curve through the provided keys, which are sorted by time.
func NewFloatCurve(keys ...Keyframe) (*FloatCurve, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: curve without keys", ErrInvalidArgument)
	}
	sorted := append([]Keyframe(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time == sorted[i-1].Time {
			return nil, fmt.Errorf("%w: duplicate key at t=%g", ErrInvalidArgument, sorted[i].Time)
		}
	}
	return &FloatCurve{keys: sorted}, nil
}

// NewSmoothFloatCurve returns a curve through the (times, values) pairs with tangents
// computed as in NewFloatCurve2.
func NewSmoothFloatCurve(times, values []float64) (*FloatCurve, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times for %d values", ErrInvalidArgument, len(times), len(values))
	}
	keys := make([]Keyframe, len(times))
	for i := range times {
		keys[i] = Keyframe{Time: times[i], Value: values[i]}
	}
	c, err := NewFloatCurve(keys...)
	if err != nil {
		return nil, err
	}
	c.SmoothTangents()
	return c, nil
}

// SmoothTangents rewrites all tangents with centered differences and natural ends.
func (c *FloatCurve) SmoothTangents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.keys) < 2 {
		c.keys[0].InTangent, c.keys[0].OutTangent = 0, 0
		return
	}
	ts := make([]float64, len(c.keys))
	vs := make([]float64, len(c.keys))
	for i, k := range c.keys {
		ts[i], vs[i] = k.Time, k.Value
	}
	for i, d := range hermiteTangents(ts, vs) {
		c.keys[i].InTangent, c.keys[i].OutTangent = d, d
	}
}

// MinTime returns the time of the first key.
func (c *FloatCurve) MinTime() float64 {
	return c.keys[0].Time
}

// MaxTime returns the time of the last key.
func (c *FloatCurve) MaxTime() float64 {
	return c.keys[len(c.keys)-1].Time
}

// segment returns the index of the key starting the segment containing t (clamped).
func (c *FloatCurve) segment(t float64) int {
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time > t }) - 1
	if i < 0 {
		return 0
	}
	if i > len(c.keys)-2 {
		return len(c.keys) - 2
	}
	return i
}

// Evaluate returns the value of the curve at t.
func (c *FloatCurve) Evaluate(t float64) float64 {
	if math.IsNaN(t) {
		return math.NaN()
	}
	if len(c.keys) == 1 {
		return c.keys[0].Value
	}
	t = clamp(t, c.MinTime(), c.MaxTime())
	i := c.segment(t)
	k0, k1 := c.keys[i], c.keys[i+1]
	h := k1.Time - k0.Time
	s := (t - k0.Time) / h
	s2, s3 := s*s, s*s*s
	return (2*s3-3*s2+1)*k0.Value + (s3-2*s2+s)*h*k0.OutTangent +
		(-2*s3+3*s2)*k1.Value + (s3-s2)*h*k1.InTangent
}

// EvaluateThreadSafe is Evaluate under the curve's mutex.
func (c *FloatCurve) EvaluateThreadSafe(t float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Evaluate(t)
}

// Derivative returns dValue/dTime at t, zero outside of the keys.
func (c *FloatCurve) Derivative(t float64) float64 {
	if len(c.keys) == 1 || t < c.MinTime() || t > c.MaxTime() {
		return 0
	}
	i := c.segment(t)
	k0, k1 := c.keys[i], c.keys[i+1]
	h := k1.Time - k0.Time
	s := (t - k0.Time) / h
	s2 := s * s
	return ((6*s2-6*s)*k0.Value+(6*s-6*s2)*k1.Value)/h +
		(3*s2-4*s+1)*k0.OutTangent + (3*s2-2*s)*k1.InTangent
}
