package symbolic

import "math"

// ============================================================
// Const: named transcendental constants (pi, E)
// ============================================================

type Const struct {
	name  string
	latex string
	val   float64
}

var (
	Pi = &Const{name: "pi", latex: "\\pi", val: math.Pi}
	E  = &Const{name: "E", latex: "e", val: math.E}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) LaTeX() string         { return c.latex }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Eval() (*Num, bool)    { return NFloat(c.val), true }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) Float64() float64      { return c.val }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}

// ============================================================
// Infinity: signed real infinity (oo, -oo)
// ============================================================

type Infinity struct{ neg bool }

var (
	Inf    = &Infinity{}
	NegInf = &Infinity{neg: true}
)

func (i *Infinity) Simplify() Expr        { return i }
func (i *Infinity) Sub(string, Expr) Expr { return i }
func (i *Infinity) Diff(string) Expr      { return N(0) }
func (i *Infinity) Eval() (*Num, bool)    { return nil, false }
func (i *Infinity) Equal(other Expr) bool { o, ok := other.(*Infinity); return ok && i.neg == o.neg }
func (i *Infinity) exprType() string      { return "inf" }
func (i *Infinity) Negative() bool        { return i.neg }
func (i *Infinity) String() string {
	if i.neg {
		return "-oo"
	}
	return "oo"
}
func (i *Infinity) LaTeX() string {
	if i.neg {
		return "-\\infty"
	}
	return "\\infty"
}
func (i *Infinity) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "inf", "negative": i.neg}
}

// ============================================================
// ComplexInfinity: unsigned infinity (zoo), e.g. 1/0
// ============================================================

type ComplexInfinity struct{}

var Zoo = &ComplexInfinity{}

func (z *ComplexInfinity) Simplify() Expr        { return z }
func (z *ComplexInfinity) String() string        { return "zoo" }
func (z *ComplexInfinity) LaTeX() string         { return "\\tilde{\\infty}" }
func (z *ComplexInfinity) Sub(string, Expr) Expr { return z }
func (z *ComplexInfinity) Diff(string) Expr      { return N(0) }
func (z *ComplexInfinity) Eval() (*Num, bool)    { return nil, false }
func (z *ComplexInfinity) Equal(other Expr) bool { _, ok := other.(*ComplexInfinity); return ok }
func (z *ComplexInfinity) exprType() string      { return "zoo" }
func (z *ComplexInfinity) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "zoo"}
}

// ============================================================
// NaN: indeterminate value (0/0, oo - oo, 0*oo)
// ============================================================

type NaN struct{}

var Nan = &NaN{}

func (n *NaN) Simplify() Expr        { return n }
func (n *NaN) String() string        { return "nan" }
func (n *NaN) LaTeX() string         { return "\\mathrm{NaN}" }
func (n *NaN) Sub(string, Expr) Expr { return n }
func (n *NaN) Diff(string) Expr      { return n }
func (n *NaN) Eval() (*Num, bool)    { return nil, false }
func (n *NaN) Equal(other Expr) bool { _, ok := other.(*NaN); return ok }
func (n *NaN) exprType() string      { return "nan" }
func (n *NaN) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "nan"}
}

// ============================================================
// Arithmetic on sentinels
// ============================================================

func isSpecial(e Expr) bool {
	switch e.(type) {
	case *Infinity, *ComplexInfinity, *NaN:
		return true
	}
	return false
}

func isInfinite(e Expr) bool {
	switch e.(type) {
	case *Infinity, *ComplexInfinity:
		return true
	}
	return false
}

func signedInf(sign int) Expr {
	if sign < 0 {
		return NegInf
	}
	return Inf
}

// floatExpr maps a float result back into the expression domain.
func floatExpr(v float64) Expr {
	switch {
	case math.IsNaN(v):
		return Nan
	case math.IsInf(v, 1):
		return Inf
	case math.IsInf(v, -1):
		return NegInf
	}
	return NFloat(v)
}

func addSpecials(terms []Expr) (Expr, bool) {
	var pos, neg, zoo bool
	for _, t := range terms {
		switch v := t.(type) {
		case *NaN:
			return Nan, true
		case *ComplexInfinity:
			if zoo {
				return Nan, true
			}
			zoo = true
		case *Infinity:
			if v.neg {
				neg = true
			} else {
				pos = true
			}
		}
	}
	switch {
	case zoo && (pos || neg):
		return Nan, true
	case zoo:
		return Zoo, true
	case pos && neg:
		return Nan, true
	case pos:
		return Inf, true
	case neg:
		return NegInf, true
	}
	return nil, false
}

// mulSpecials folds a product that contains at least one infinity.
func mulSpecials(coeff *Num, others []Expr, infSign int, hasZoo bool) Expr {
	if coeff.IsZero() {
		return Nan
	}
	if coeff.IsNegative() {
		infSign = -infSign
	}
	symbolic := []Expr{}
	for _, o := range others {
		v, ok := o.Eval()
		if !ok {
			symbolic = append(symbolic, o)
			continue
		}
		switch v.val.Sign() {
		case 0:
			return Nan
		case -1:
			infSign = -infSign
		}
	}
	var head Expr = signedInf(infSign)
	if hasZoo {
		head = Zoo
	}
	if len(symbolic) == 0 {
		return head
	}
	return &Mul{factors: append([]Expr{head}, symbolic...)}
}

func powSpecials(base, exp Expr) (Expr, bool) {
	if _, ok := base.(*NaN); ok {
		return Nan, true
	}
	if _, ok := exp.(*NaN); ok {
		return Nan, true
	}
	en, expIsNum := exp.(*Num)
	switch b := base.(type) {
	case *Infinity:
		if !expIsNum {
			return nil, false
		}
		if en.IsNegative() {
			return N(0), true
		}
		if !b.neg {
			return Inf, true
		}
		if !en.IsInteger() {
			return Nan, true
		}
		if en.val.Num().Bit(0) == 0 {
			return Inf, true
		}
		return NegInf, true
	case *ComplexInfinity:
		if !expIsNum {
			return nil, false
		}
		if en.IsNegative() {
			return N(0), true
		}
		return Zoo, true
	}
	if _, ok := exp.(*ComplexInfinity); ok {
		return Nan, true
	}
	ei, ok := exp.(*Infinity)
	if !ok {
		return nil, false
	}
	bv, ok := base.Eval()
	if !ok {
		return nil, false
	}
	bf := bv.Float64()
	switch {
	case bf == 1 || bf <= 0:
		if bf == 0 && !ei.neg {
			return N(0), true
		}
		if bf == 0 {
			return Zoo, true
		}
		return Nan, true
	case bf > 1:
		if ei.neg {
			return N(0), true
		}
		return Inf, true
	default:
		if ei.neg {
			return Inf, true
		}
		return N(0), true
	}
}
