package windtunnel

import (
	"fmt"
	"sort"
)

// Superposition returns the pointwise sum of the provided surfaces over the union of their
// knots. Nodes that exist in a source keep their one-sided derivatives; elsewhere the source
// is evaluated on both sides of the point.
func Superposition(fields ...*FloatCurve2) (*FloatCurve2, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: superposition of no surface", ErrInvalidArgument)
	}
	signs := make([]float64, len(fields))
	for i := range signs {
		signs[i] = 1
	}
	return combine(fields, signs)
}

// Subtract returns minuend minus every subtrahend, built like Superposition.
func Subtract(minuend *FloatCurve2, subtrahends ...*FloatCurve2) (*FloatCurve2, error) {
	terms := append([]*FloatCurve2{minuend}, subtrahends...)
	signs := make([]float64, len(terms))
	signs[0] = 1
	for i := 1; i < len(signs); i++ {
		signs[i] = -1
	}
	return combine(terms, signs)
}

func combine(terms []*FloatCurve2, signs []float64) (*FloatCurve2, error) {
	for i, t := range terms {
		if t == nil {
			return nil, fmt.Errorf("%w: nil surface at position %d", ErrInvalidArgument, i)
		}
	}
	var xs, ys []float64
	for _, t := range terms {
		xs = append(xs, t.XKeys()...)
		ys = append(ys, t.YKeys()...)
	}
	xKeys, yKeys := mergeKeys(xs), mergeKeys(ys)
	nodes := make([][]Keyframe2, len(xKeys))
	for i := range nodes {
		nodes[i] = make([]Keyframe2, len(yKeys))
	}
	for n, t := range terms {
		t.accumulate(nodes, xKeys, yKeys, signs[n])
	}
	return NewFloatCurve2FromKeyframes(xKeys, yKeys, nodes)
}

// mergeKeys returns the sorted unique values of keys. keys is sorted in place.
func mergeKeys(keys []float64) []float64 {
	sort.Float64s(keys)
	merged := keys[:0]
	for i, k := range keys {
		if i == 0 || k != merged[len(merged)-1] {
			merged = append(merged, k)
		}
	}
	return merged
}

// accumulate adds s times this surface to every node of the (xKeys, yKeys) lattice.
func (c *FloatCurve2) accumulate(dst [][]Keyframe2, xKeys, yKeys []float64, s float64) {
	c.rlock()
	defer c.lock.RUnlock()
	for i, x := range xKeys {
		ki, onX := knotIndex(c.xKeys, x)
		for j, y := range yKeys {
			kj, onY := knotIndex(c.yKeys, y)
			if onX && onY {
				dst[i][j].add(c.nodes[ki][kj], s)
			} else {
				dst[i][j].add(c.sample(x, y), s)
			}
		}
	}
}
