package symbolic

import (
	"math"
	"math/big"
)

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr   { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr   { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr   { return funcOf("tan", arg).Simplify() }
func CotOf(arg Expr) Expr   { return funcOf("cot", arg).Simplify() }
func SecOf(arg Expr) Expr   { return funcOf("sec", arg).Simplify() }
func CscOf(arg Expr) Expr   { return funcOf("csc", arg).Simplify() }
func ExpOf(arg Expr) Expr   { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr    { return funcOf("log", arg).Simplify() }
func SqrtOf(arg Expr) Expr  { return PowOf(arg, F(1, 2)) }
func CbrtOf(arg Expr) Expr  { return funcOf("cbrt", arg).Simplify() }
func AbsOf(arg Expr) Expr   { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr  { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr  { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr  { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr  { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr  { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr  { return funcOf("tanh", arg).Simplify() }
func FloorOf(arg Expr) Expr { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr  { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr  { return funcOf("sign", arg).Simplify() }

// funcTable holds the float implementation of every known function name.
var funcTable = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"cot":  func(v float64) float64 { return reciprocal(math.Tan(v)) },
	"sec":  func(v float64) float64 { return reciprocal(math.Cos(v)) },
	"csc":  func(v float64) float64 { return reciprocal(math.Sin(v)) },
	"asin": math.Asin,
	"acos": math.Acos,
	"atan": math.Atan,
	"sinh": math.Sinh,
	"cosh": math.Cosh,
	"tanh": math.Tanh,
	"exp":  math.Exp,
	"log": func(v float64) float64 {
		if v < 0 {
			return math.NaN()
		}
		return math.Log(v)
	},
	"cbrt":  math.Cbrt,
	"abs":   math.Abs,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"sign": func(v float64) float64 {
		switch {
		case math.IsNaN(v):
			return v
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	},
}

// reciprocal returns NaN at a pole so the caller sees an unsigned infinity as undefined.
func reciprocal(v float64) float64 {
	if v == 0 {
		return math.NaN()
	}
	return 1 / v
}

// IsKnownFunc reports whether name is a function the kernel can evaluate.
func IsKnownFunc(name string) bool {
	_, ok := funcTable[name]
	return ok
}

func evalFunc(name string, v float64) float64 {
	fn, ok := funcTable[name]
	if !ok {
		return math.NaN()
	}
	return fn(v)
}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	switch a := arg.(type) {
	case *NaN, *ComplexInfinity:
		return Nan
	case *Num:
		if exact, ok := f.foldExact(a); ok {
			return exact
		}
	case *Infinity:
		// sin, cos and the other periodic functions have no value at ±∞.
		if v, ok := f.atInfinity(a); ok {
			return v
		}
		return Nan
	}
	switch f.name {
	case "log":
		if c, ok := arg.(*Const); ok && c == E {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "log" {
			return inner.arg
		}
	case "abs":
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 1 {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegOne() {
				inner := m.factors[1:]
				if len(inner) == 1 {
					return AbsOf(inner[0])
				}
				return AbsOf(MulOf(inner...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

// foldExact evaluates f at a rational argument only when the result is exact.
// Transcendental values such as sin(1) stay symbolic; Eval produces their floats.
func (f *Func) foldExact(n *Num) (Expr, bool) {
	switch f.name {
	case "abs":
		return numAbs(n), true
	case "sign":
		return N(int64(n.val.Sign())), true
	case "floor", "ceil":
		q, m := new(big.Int).DivMod(n.val.Num(), n.val.Denom(), new(big.Int))
		if f.name == "ceil" && m.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
		return &Num{val: new(big.Rat).SetInt(q)}, true
	case "cbrt":
		if n.IsNegative() {
			if r, ok := exactRoot(numNeg(n).val, 3); ok {
				return numNeg(r), true
			}
			return nil, false
		}
		if r, ok := exactRoot(n.val, 3); ok {
			return r, true
		}
		return nil, false
	}
	v := evalFunc(f.name, n.Float64())
	switch {
	case math.IsNaN(v):
		if f.isPoleAt(n.Float64()) {
			return Zoo, true
		}
		return Nan, true
	case math.IsInf(v, 0):
		return floatExpr(v), true
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return N(int64(v)), true
	}
	return nil, false
}

func (f *Func) isPoleAt(v float64) bool {
	switch f.name {
	case "cot", "csc":
		return math.Sin(v) == 0
	case "sec":
		return math.Cos(v) == 0
	}
	return false
}

func (f *Func) atInfinity(inf *Infinity) (Expr, bool) {
	switch f.name {
	case "exp":
		if inf.neg {
			return N(0), true
		}
		return Inf, true
	case "log", "abs":
		if f.name == "log" && inf.neg {
			return Nan, true
		}
		return Inf, true
	case "sign", "tanh":
		if inf.neg {
			return N(-1), true
		}
		return N(1), true
	case "sinh", "cbrt", "floor", "ceil":
		return inf, true
	case "cosh":
		return Inf, true
	case "atan":
		if inf.neg {
			return MulOf(F(-1, 2), Pi), true
		}
		return MulOf(F(1, 2), Pi), true
	}
	return nil, false
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "cot", "sec", "csc", "exp", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "log":
		return "\\ln\\left(" + f.arg.LaTeX() + "\\right)"
	case "cbrt":
		return "\\sqrt[3]{" + f.arg.LaTeX() + "}"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case "floor":
		return "\\lfloor " + f.arg.LaTeX() + " \\rfloor"
	case "ceil":
		return "\\lceil " + f.arg.LaTeX() + " \\rceil"
	case "sign":
		return "\\operatorname{sign}\\left(" + f.arg.LaTeX() + "\\right)"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "cot":
		outer = MulOf(N(-1), PowOf(SinOf(f.arg), N(-2)))
	case "sec":
		outer = MulOf(SecOf(f.arg), TanOf(f.arg))
	case "csc":
		outer = MulOf(N(-1), CscOf(f.arg), CotOf(f.arg))
	case "exp":
		outer = ExpOf(f.arg)
	case "log":
		outer = PowOf(f.arg, N(-1))
	case "cbrt":
		outer = MulOf(F(1, 3), PowOf(CbrtOf(f.arg), N(-2)))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	case "abs":
		outer = SignOf(f.arg)
	case "floor", "ceil", "sign":
		// Piecewise constant: zero wherever the derivative exists.
		return N(0)
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du).Simplify()
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	v := evalFunc(f.name, n.Float64())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return NFloat(v), true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}
