package symbolic

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// ============================================================
// Limits
// ============================================================

// Direction selects which side a limit approaches from.
type Direction int

const (
	TwoSided Direction = iota
	FromLeft
	FromRight
)

func (d Direction) String() string {
	switch d {
	case FromLeft:
		return "-"
	case FromRight:
		return "+"
	}
	return "+-"
}

var (
	// ErrLimitDoesNotExist means the limit provably fails to exist: the one-sided
	// limits disagree, the function oscillates, or it leaves the real domain.
	ErrLimitDoesNotExist = errors.New("symbolic: limit does not exist")
	// ErrUndetermined means no method could settle the limit.
	ErrUndetermined = errors.New("symbolic: limit could not be determined")
)

const (
	maxLhopital = 5
	// poleCeiling treats huge substitution results (tan at pi/2 in float) as poles.
	poleCeiling = 1e12
)

// Limit computes lim_{varName → point} expr from the given direction.
// point may be any closed real expression, oo or -oo. A two-sided limit whose
// sides diverge to opposite infinities is zoo.
func Limit(expr Expr, varName string, point Expr, dir Direction) (Expr, error) {
	expr = expr.Simplify()
	point = point.Simplify()
	for name := range FreeSymbols(expr) {
		if name != varName {
			return nil, fmt.Errorf("%w: free symbol %s", ErrUndetermined, name)
		}
	}
	if len(FreeSymbols(point)) > 0 {
		return nil, fmt.Errorf("%w: point %s is not constant", ErrUndetermined, point)
	}
	if _, ok := point.(*Infinity); ok {
		return limitRecursive(expr, varName, point, 0, maxLhopital)
	}
	if isSpecial(point) {
		return nil, fmt.Errorf("%w: point %s", ErrUndetermined, point)
	}
	switch dir {
	case FromLeft:
		return limitRecursive(expr, varName, point, -1, maxLhopital)
	case FromRight:
		return limitRecursive(expr, varName, point, 1, maxLhopital)
	}
	left, lerr := limitRecursive(expr, varName, point, -1, maxLhopital)
	right, rerr := limitRecursive(expr, varName, point, 1, maxLhopital)
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	if SameValue(left, right) {
		return right, nil
	}
	if isInfinite(left) && isInfinite(right) {
		return Zoo, nil
	}
	return nil, fmt.Errorf("%w: left %s, right %s", ErrLimitDoesNotExist, left, right)
}

// SameValue reports whether a and b denote the same extended real, comparing
// finite values with a relative tolerance of 1e-9.
func SameValue(a, b Expr) bool {
	if a.Equal(b) {
		return true
	}
	af, aerr := ToFloat(a)
	bf, berr := ToFloat(b)
	if aerr != nil || berr != nil {
		return false
	}
	return math.Abs(af-bf) <= 1e-9*math.Max(1, math.Max(math.Abs(af), math.Abs(bf)))
}

func limitRecursive(expr Expr, varName string, point Expr, side int, depth int) (Expr, error) {
	expr = expr.Simplify()
	if !dependsOn(expr, varName) {
		return expr, nil
	}
	if inf, ok := point.(*Infinity); ok {
		return limitAtInfinity(expr, varName, inf.neg)
	}
	a, err := ToFloat(point)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndetermined, err)
	}

	if v, ok := continuousValue(expr, varName, point, a); ok {
		return v, nil
	}
	if pn, ok := point.(*Num); ok {
		if num, den, ok2 := toRational(expr, varName); ok2 && !den.isZero() {
			return rationalLimitAt(num, den, pn, side), nil
		}
	}
	if depth > 0 {
		if num, den, ok := extractQuotient(expr); ok {
			nv := EvalFloat(num, varName, a)
			dv := EvalFloat(den, varName, a)
			if nearZero(nv) && nearZero(dv) {
				dNum := Diff(num, varName)
				dDen := Diff(den, varName)
				if r, err := limitRecursive(MulOf(dNum, PowOf(dDen, N(-1))), varName, point, side, depth-1); err == nil {
					return r, nil
				}
			}
		}
	}
	s := float64(side)
	return numericLimit(func(h float64) float64 {
		return EvalFloat(expr, varName, a+s*h)
	}, 3, 8)
}

func limitAtInfinity(expr Expr, varName string, neg bool) (Expr, error) {
	side := 1
	if neg {
		side = -1
	}
	if num, den, ok := toRational(expr, varName); ok && !den.isZero() {
		return rationalLimitAtInfinity(num, den, side), nil
	}
	s := float64(side)
	return numericLimit(func(h float64) float64 {
		return EvalFloat(expr, varName, s/h)
	}, 2, 7)
}

// continuousValue returns expr at the point when expr is provably continuous there.
func continuousValue(expr Expr, varName string, point Expr, a float64) (Expr, bool) {
	if !continuousAt(expr, varName, a) {
		return nil, false
	}
	sub := expr.Sub(varName, point).Simplify()
	v, err := ToFloat(sub)
	if err != nil || math.Abs(v) > poleCeiling {
		return nil, false
	}
	return sub, true
}

// continuousAt walks expr looking for pieces that jump, end their domain, or
// blow up at x = a.
func continuousAt(e Expr, varName string, a float64) bool {
	if !dependsOn(e, varName) {
		return true
	}
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			if !continuousAt(t, varName, a) {
				return false
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if !continuousAt(f, varName, a) {
				return false
			}
		}
	case *Pow:
		if !continuousAt(v.base, varName, a) || !continuousAt(v.exp, varName, a) {
			return false
		}
		b := EvalFloat(v.base, varName, a)
		if en, ok := v.exp.(*Num); ok && en.IsNegative() && b == 0 {
			return false
		}
		if dependsOn(v.exp, varName) {
			return b > 0
		}
		if en, ok := v.exp.(*Num); ok && !en.IsInteger() {
			if en.val.Cmp(oneThird) == 0 {
				return true
			}
			return b > 0
		}
	case *Func:
		if !continuousAt(v.arg, varName, a) {
			return false
		}
		u := EvalFloat(v.arg, varName, a)
		switch v.name {
		case "floor", "ceil":
			return math.Abs(u-math.Round(u)) > 1e-12
		case "sign":
			return math.Abs(u) > 1e-12
		case "log":
			return u > 0
		case "asin", "acos":
			return math.Abs(u) < 1
		case "tan", "sec":
			return math.Abs(math.Cos(u)) > 1e-12
		case "cot", "csc":
			return math.Abs(math.Sin(u)) > 1e-12
		}
	}
	return true
}

func rationalLimitAt(num, den poly, point *Num, side int) Expr {
	if num.isZero() {
		return N(0)
	}
	a := point.val
	for num.eval(a).Sign() == 0 && den.eval(a).Sign() == 0 {
		num, den = num.divRoot(a), den.divRoot(a)
	}
	nv, dv := num.eval(a), den.eval(a)
	if dv.Sign() != 0 {
		return &Num{val: nv.Quo(nv, dv)}
	}
	mult := 0
	for den.eval(a).Sign() == 0 {
		den = den.divRoot(a)
		mult++
	}
	s := nv.Sign() * den.eval(a).Sign()
	if mult%2 == 1 {
		s *= side
	}
	return signedInf(s)
}

func rationalLimitAtInfinity(num, den poly, side int) Expr {
	if num.isZero() {
		return N(0)
	}
	dn, dd := num.degree(), den.degree()
	switch {
	case dn < dd:
		return N(0)
	case dn == dd:
		return &Num{val: new(big.Rat).Quo(num.lead(), den.lead())}
	}
	s := num.lead().Sign() * den.lead().Sign()
	if (dn-dd)%2 == 1 {
		s *= side
	}
	return signedInf(s)
}

func nearZero(v float64) bool { return !math.IsNaN(v) && math.Abs(v) < 1e-12 }

// extractQuotient splits a product into numerator and denominator, moving every
// factor with a negative numeric exponent below the line.
func extractQuotient(e Expr) (num, denom Expr, ok bool) {
	var factors []Expr
	switch v := e.(type) {
	case *Mul:
		factors = v.factors
	case *Pow:
		factors = []Expr{v}
	default:
		return nil, nil, false
	}
	var numFactors, denomFactors []Expr
	for _, f := range factors {
		if p, isPow := f.(*Pow); isPow {
			if en, isNum := p.exp.(*Num); isNum && en.IsNegative() {
				denomFactors = append(denomFactors, PowOf(p.base, numNeg(en)))
				continue
			}
		}
		numFactors = append(numFactors, f)
	}
	if len(denomFactors) == 0 {
		return nil, nil, false
	}
	var n, d Expr
	switch len(numFactors) {
	case 0:
		n = N(1)
	case 1:
		n = numFactors[0]
	default:
		n = &Mul{factors: numFactors}
	}
	if len(denomFactors) == 1 {
		d = denomFactors[0]
	} else {
		d = &Mul{factors: denomFactors}
	}
	return n, d, true
}
