package windtunnel

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Keyframe2 is one node of a FloatCurve2 lattice. The derivatives are split in one-sided
// pairs so that a node may carry a kink along either axis. The mixed partials are named
// by their x side first, then their y side: DxyInOut is the mixed partial of the quadrant
// below the node in x and above it in y.
type Keyframe2 struct {
	X, Y                                   float64
	Value                                  float64
	DxIn, DxOut                            float64
	DyIn, DyOut                            float64
	DxyInIn, DxyInOut, DxyOutIn, DxyOutOut float64
}

// add accumulates s*o into k. The coordinates of k are left untouched.
func (k *Keyframe2) add(o Keyframe2, s float64) {
	k.Value += s * o.Value
	k.DxIn += s * o.DxIn
	k.DxOut += s * o.DxOut
	k.DyIn += s * o.DyIn
	k.DyOut += s * o.DyOut
	k.DxyInIn += s * o.DxyInIn
	k.DxyInOut += s * o.DxyInOut
	k.DxyOutIn += s * o.DxyOutIn
	k.DxyOutOut += s * o.DxyOutOut
}

func (k Keyframe2) hasNaN() bool {
	return floats.HasNaN([]float64{k.Value, k.DxIn, k.DxOut, k.DyIn, k.DyOut, k.DxyInIn, k.DxyInOut, k.DxyOutIn, k.DxyOutOut})
}

// IsContinuous returns whether the node has matching in and out derivatives on both axes.
func (k Keyframe2) IsContinuous() bool {
	return k.DxIn == k.DxOut && k.DyIn == k.DyOut &&
		k.DxyInIn == k.DxyInOut && k.DxyInIn == k.DxyOutIn && k.DxyInIn == k.DxyOutOut
}

// Coefficients of the bicubic polynomial of one cell: c[i][j] multiplies u^i v^j where
// u and v are the offsets in the cell normalized to [0, 1].
type Coefficients [4][4]float64

// hermiteBasis maps [p(0) p(1) p'(0) p'(1)] to the monomial coefficients of a cubic.
var hermiteBasis = mat64.NewDense(4, 4, []float64{
	1, 0, 0, 0,
	0, 0, 1, 0,
	-3, 3, -2, -1,
	2, -2, 1, 1,
})

// monomials returns [1 t t² t³] or its derivative.
func monomials(t float64, deriv bool) [4]float64 {
	if deriv {
		return [4]float64{0, 1, 2 * t, 3 * t * t}
	}
	return [4]float64{1, t, t * t, t * t * t}
}

// eval returns the value (or the partial in u and/or v) of the polynomial at (u, v).
// Derivatives are with respect to the normalized coordinates.
func (c *Coefficients) eval(u, v float64, du, dv bool) float64 {
	bu := monomials(u, du)
	bv := monomials(v, dv)
	var s float64
	for i := 0; i < 4; i++ {
		if bu[i] == 0 {
			continue
		}
		s += bu[i] * (c[i][0]*bv[0] + c[i][1]*bv[1] + c[i][2]*bv[2] + c[i][3]*bv[3])
	}
	return s
}

// cellKnowns are the sixteen Hermite knowns of a cell scaled to the unit square, laid
// out row major as F in A = M F Mᵀ:
//
//	f00  f01  fv00  fv01
//	f10  f11  fv10  fv11
//	fu00 fu01 fuv00 fuv01
//	fu10 fu11 fuv10 fuv11
type cellKnowns [16]float64

// knownsFromNodes gathers the knowns of the cell spanned by the four corner nodes, each
// corner contributing the one-sided derivatives facing into the cell.
func knownsFromNodes(n00, n10, n01, n11 Keyframe2, hx, hy float64) (k cellKnowns) {
	hxy := hx * hy
	k = cellKnowns{
		n00.Value, n01.Value, n00.DyOut * hy, n01.DyIn * hy,
		n10.Value, n11.Value, n10.DyOut * hy, n11.DyIn * hy,
		n00.DxOut * hx, n01.DxOut * hx, n00.DxyOutOut * hxy, n01.DxyOutIn * hxy,
		n10.DxIn * hx, n11.DxIn * hx, n10.DxyInOut * hxy, n11.DxyInIn * hxy,
	}
	return
}

// hash returns the content hash used to validate cached coefficients.
func (k *cellKnowns) hash() uint64 {
	var buf [16 * 8]byte
	for i, v := range k {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return xxhash.Sum64(buf[:])
}

// coefficients performs the bicubic Hermite basis change.
func (k *cellKnowns) coefficients() (c Coefficients) {
	F := mat64.NewDense(4, 4, k[:])
	var MF, A mat64.Dense
	MF.Mul(hermiteBasis, F)
	A.Mul(&MF, hermiteBasis.T())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			c[i][j] = A.At(i, j)
		}
	}
	return
}

// cachedCell is an immutable pair of coefficients and the hash of the knowns they
// were computed from.
type cachedCell struct {
	hash   uint64
	coeffs Coefficients
}
