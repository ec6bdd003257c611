package windtunnel

import (
	"math"
)

const (
	brentMaxIterations = 100
	machε              = 2.220446049250313e-16
	sqrtMachε          = 1.4901161193847656e-08
	goldenSection      = 0.3819660112501051 // (3 - √5) / 2
)

// FindRoot returns a zero of f in [a, b] within tol using Brent's method.
// f(a) and f(b) must have opposite signs (or either be zero), otherwise ErrNotBracketed is
// returned. After brentMaxIterations the current best estimate is returned with ErrNotConverged.
func FindRoot(f func(float64) float64, a, b, tol float64) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.IsNaN(fa) || math.IsNaN(fb) || (fa > 0) == (fb > 0) {
		return math.NaN(), ErrNotBracketed
	}
	c, fc := b, fb
	var d, e float64
	for iter := 0; iter < brentMaxIterations; iter++ {
		if (fb > 0) == (fc > 0) {
			// Rename so that the root lies between b and c.
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*machε*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, or secant when only two points are distinct.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
	}
	return b, ErrNotConverged
}

// Minimize returns the minimizer of f on [a, b] and the value there, using Brent's
// combination of golden section search and parabolic interpolation. tol is absolute.
func Minimize(f func(float64) float64, a, b, tol float64) (x, fx float64, err error) {
	if a > b {
		a, b = b, a
	}
	x = a + goldenSection*(b-a)
	w, v := x, x
	fx = f(x)
	fw, fv := fx, fx
	var d, e float64
	for iter := 0; iter < brentMaxIterations; iter++ {
		xm := 0.5 * (a + b)
		tol1 := sqrtMachε*math.Abs(x) + tol/3
		tol2 := 2 * tol1
		if math.Abs(x-xm) <= tol2-0.5*(b-a) {
			return x, fx, nil
		}
		golden := true
		if math.Abs(e) > tol1 {
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			} else {
				q = -q
			}
			etemp := e
			e = d
			if math.Abs(p) < math.Abs(0.5*q*etemp) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				if u := x + d; u-a < tol2 || b-u < tol2 {
					d = math.Copysign(tol1, xm-x)
				}
				golden = false
			}
		}
		if golden {
			if x >= xm {
				e = a - x
			} else {
				e = b - x
			}
			d = goldenSection * e
		}
		var u float64
		if math.Abs(d) >= tol1 {
			u = x + d
		} else {
			u = x + math.Copysign(tol1, d)
		}
		fu := f(u)
		if fu <= fx {
			if u >= x {
				a = x
			} else {
				b = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return x, fx, ErrNotConverged
}

// Maximize returns the maximizer of f on [a, b] and the value there.
func Maximize(f func(float64) float64, a, b, tol float64) (x, fx float64, err error) {
	x, fx, err = Minimize(func(t float64) float64 { return -f(t) }, a, b, tol)
	return x, -fx, err
}
