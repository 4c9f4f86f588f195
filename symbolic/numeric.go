package symbolic

import (
	"math"
	"math/big"
)

var oneThird = big.NewRat(1, 3)

// EvalFloat evaluates e in float64 arithmetic with varName bound to x.
// Any other free symbol, or a value outside the real domain, yields NaN.
func EvalFloat(e Expr, varName string, x float64) float64 {
	switch v := e.(type) {
	case *Num:
		return v.Float64()
	case *Sym:
		if v.name == varName {
			return x
		}
		return math.NaN()
	case *Const:
		return v.val
	case *Infinity:
		if v.neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			acc += EvalFloat(t, varName, x)
		}
		return acc
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			acc *= EvalFloat(f, varName, x)
		}
		return acc
	case *Pow:
		b := EvalFloat(v.base, varName, x)
		if en, ok := v.exp.(*Num); ok && en.val.Cmp(oneThird) == 0 {
			return math.Cbrt(b)
		}
		return math.Pow(b, EvalFloat(v.exp, varName, x))
	case *Func:
		return evalFunc(v.name, EvalFloat(v.arg, varName, x))
	}
	return math.NaN()
}

// Sample evaluates e at n evenly spaced points over [from, to]. Points where
// e has no finite real value are reported as NaN.
func Sample(e Expr, varName string, from, to float64, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := 0; i < n; i++ {
		x := from + float64(i)*step
		xs[i] = x
		y := EvalFloat(e, varName, x)
		if math.IsInf(y, 0) {
			y = math.NaN()
		}
		ys[i] = y
	}
	return xs, ys
}

// ============================================================
// Numeric limit estimation
// ============================================================

const (
	// divergeFloor is the magnitude above which growing samples count as infinite.
	divergeFloor = 1e6
	snapTol      = 1e-9
	maxSnapDen   = 1000
	// maxSampleErr caps how far sampling error may widen the integer snap.
	maxSampleErr = 1e-6
)

// numericLimit estimates lim g(h) as h → 0⁺ from samples at h = 10^-k, first ≤ k ≤ last.
func numericLimit(g func(h float64) float64, first, last int) (Expr, error) {
	vals := make([]float64, 0, last-first+1)
	for k := first; k <= last; k++ {
		vals = append(vals, g(math.Pow(10, -float64(k))))
	}
	return classifySamples(vals)
}

func classifySamples(vals []float64) (Expr, error) {
	n := len(vals)
	v0, v1, v2 := vals[n-3], vals[n-2], vals[n-1]
	if math.IsNaN(v0) || math.IsNaN(v1) || math.IsNaN(v2) {
		return nil, ErrLimitDoesNotExist
	}
	if math.IsInf(v2, 0) {
		if sameSign(v1, v2) && (math.IsInf(v1, 0) || math.Abs(v1) > divergeFloor) {
			return signedInf(sign(v2)), nil
		}
		return nil, ErrLimitDoesNotExist
	}
	if math.IsInf(v0, 0) || math.IsInf(v1, 0) {
		return nil, ErrLimitDoesNotExist
	}
	// Polynomial-rate growth: each sample a clear multiple of the last.
	if math.Abs(v2) > divergeFloor && sameSign(v0, v1) && sameSign(v1, v2) &&
		math.Abs(v2) > 2*math.Abs(v1) && math.Abs(v1) > 2*math.Abs(v0) {
		return signedInf(sign(v2)), nil
	}
	d1, d2 := v1-v0, v2-v1
	// Logarithmic growth: steady steps away from zero that do not shrink.
	if d1 != 0 && sameSign(d1, d2) && sameSign(d2, v2) &&
		math.Abs(d2) >= 0.9*math.Abs(d1) && math.Abs(v2) > 10 {
		return signedInf(sign(v2)), nil
	}
	scale := math.Max(1, math.Abs(v2))
	if math.Abs(d2) > 1e-3*scale || math.Abs(d2) > 0.5*math.Abs(d1)+1e-12*scale {
		return nil, ErrLimitDoesNotExist
	}
	return snapFloat(aitken(v0, v1, v2), math.Abs(d2)), nil
}

// aitken accelerates a geometrically converging sequence.
func aitken(v0, v1, v2 float64) float64 {
	d1, d2 := v1-v0, v2-v1
	den := d2 - d1
	if den == 0 || math.Abs(d2) < 1e-15*math.Max(1, math.Abs(v2)) {
		return v2
	}
	l := v2 - d2*d2/den
	if math.IsNaN(l) || math.Abs(l-v2) > 10*math.Abs(d2) {
		return v2
	}
	return l
}

// snapFloat recovers a small rational p/q (q ≤ 1000) when v is within tolerance
// of one. An integer also absorbs up to 10× the last sample step sampleErr, so
// x·sin(1/x) at 0 lands on 0 rather than 1.2e-8.
func snapFloat(v, sampleErr float64) Expr {
	tol := snapTol * math.Max(1, math.Abs(v))
	intTol := math.Max(tol, math.Min(10*sampleErr, maxSampleErr))
	if r := math.Round(v); math.Abs(v-r) <= intTol && math.Abs(r) < 1e15 {
		return N(int64(r))
	}
	for q := int64(2); q <= maxSnapDen; q++ {
		p := math.Round(v * float64(q))
		if math.Abs(v-p/float64(q)) <= tol && math.Abs(p) < 1e15 {
			return F(int64(p), q)
		}
	}
	return NFloat(v)
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

func sameSign(a, b float64) bool { return (a < 0) == (b < 0) }
