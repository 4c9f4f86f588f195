package symbolic

import "math/big"

// ============================================================
// Polynomial utilities
// ============================================================

// poly holds exact coefficients, lowest degree first, with no trailing zeros.
type poly []*big.Rat

func constPoly(c *big.Rat) poly { return poly{new(big.Rat).Set(c)}.trim() }

func (p poly) trim() poly {
	n := len(p)
	for n > 0 && p[n-1].Sign() == 0 {
		n--
	}
	return p[:n]
}

func (p poly) isZero() bool { return len(p) == 0 }

// degree is -1 for the zero polynomial.
func (p poly) degree() int { return len(p) - 1 }

func (p poly) lead() *big.Rat { return p[len(p)-1] }

func (p poly) eval(a *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, a)
		acc.Add(acc, p[i])
	}
	return acc
}

func (p poly) equal(q poly) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i].Cmp(q[i]) != 0 {
			return false
		}
	}
	return true
}

func polyAdd(p, q poly) poly {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make(poly, n)
	for i := range out {
		out[i] = new(big.Rat)
		if i < len(p) {
			out[i].Add(out[i], p[i])
		}
		if i < len(q) {
			out[i].Add(out[i], q[i])
		}
	}
	return out.trim()
}

func polyMul(p, q poly) poly {
	if p.isZero() || q.isZero() {
		return nil
	}
	out := make(poly, len(p)+len(q)-1)
	for i := range out {
		out[i] = new(big.Rat)
	}
	tmp := new(big.Rat)
	for i, a := range p {
		for j, b := range q {
			out[i+j].Add(out[i+j], tmp.Mul(a, b))
		}
	}
	return out.trim()
}

func polyPow(p poly, n int64) poly {
	out := poly{big.NewRat(1, 1)}
	for i := int64(0); i < n; i++ {
		out = polyMul(out, p)
	}
	return out
}

// divRoot divides p by (x - a) with synthetic division. p(a) must be zero.
func (p poly) divRoot(a *big.Rat) poly {
	if len(p) <= 1 {
		return p
	}
	out := make(poly, len(p)-1)
	carry := new(big.Rat)
	for i := len(p) - 1; i >= 1; i-- {
		carry = new(big.Rat).Add(p[i], new(big.Rat).Mul(carry, a))
		out[i-1] = carry
	}
	return out.trim()
}

// toRational rewrites e as num/den with polynomial num and den in varName.
// It fails on anything that is not a rational function with exact coefficients.
func toRational(e Expr, varName string) (num, den poly, ok bool) {
	one := poly{big.NewRat(1, 1)}
	switch v := e.(type) {
	case *Num:
		return constPoly(v.val), one, true
	case *Sym:
		if v.name != varName {
			return nil, nil, false
		}
		return poly{new(big.Rat), big.NewRat(1, 1)}, one, true
	case *Add:
		num, den = nil, one
		for _, t := range v.terms {
			tn, td, ok := toRational(t, varName)
			if !ok {
				return nil, nil, false
			}
			if den.equal(td) {
				num = polyAdd(num, tn)
				continue
			}
			num = polyAdd(polyMul(num, td), polyMul(tn, den))
			den = polyMul(den, td)
		}
		return num, den, true
	case *Mul:
		num, den = one, one
		for _, f := range v.factors {
			fn, fd, ok := toRational(f, varName)
			if !ok {
				return nil, nil, false
			}
			num = polyMul(num, fn)
			den = polyMul(den, fd)
		}
		return num, den, true
	case *Pow:
		en, isNum := v.exp.(*Num)
		if !isNum || !en.IsInteger() {
			return nil, nil, false
		}
		k := en.val.Num().Int64()
		if k > 20 || k < -20 {
			return nil, nil, false
		}
		bn, bd, ok := toRational(v.base, varName)
		if !ok {
			return nil, nil, false
		}
		if k < 0 {
			if bn.isZero() {
				return nil, nil, false
			}
			bn, bd, k = bd, bn, -k
		}
		return polyPow(bn, k), polyPow(bd, k), true
	}
	return nil, nil, false
}

// Degree returns the polynomial degree of expr in varName, or -1 when expr is
// not a polynomial.
func Degree(expr Expr, varName string) int {
	num, den, ok := toRational(expr.Simplify(), varName)
	if !ok || den.degree() != 0 {
		return -1
	}
	return num.degree()
}
