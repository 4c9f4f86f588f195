package symbolic_test

import (
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/golimits/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := symbolic.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_Diff_IsZero(t *testing.T) {
	result := symbolic.N(5).Diff("x")
	if symbolic.String(result) != "0" {
		t.Errorf("d/dx(5) should be 0, got %s", symbolic.String(result))
	}
}

func TestNFloat_NonFiniteIsZero(t *testing.T) {
	if got := symbolic.NFloat(math.Inf(1)).String(); got != "0" {
		t.Errorf("NFloat(+Inf) should not panic and yield 0, got %s", got)
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_Sub_Match(t *testing.T) {
	result := symbolic.S("x").Sub("x", symbolic.N(3))
	if symbolic.String(result) != "3" {
		t.Errorf("want 3, got %s", symbolic.String(result))
	}
}

func TestSym_Sub_NoMatch(t *testing.T) {
	result := symbolic.S("x").Sub("y", symbolic.N(3))
	if symbolic.String(result) != "x" {
		t.Errorf("want x, got %s", symbolic.String(result))
	}
}

// ============================================================
// Add / Mul / Pow tests
// ============================================================

func TestAdd_LikeTerms(t *testing.T) {
	x := symbolic.S("x")
	result := symbolic.AddOf(x, x)
	if result.String() != "2*x" {
		t.Errorf("x + x: want 2*x, got %s", result.String())
	}
}

func TestAdd_LikeTermsWithCoefficients(t *testing.T) {
	x := symbolic.S("x")
	result := symbolic.AddOf(symbolic.MulOf(symbolic.N(2), x), symbolic.MulOf(symbolic.N(3), x))
	if result.String() != "5*x" {
		t.Errorf("2x + 3x: want 5*x, got %s", result.String())
	}
}

func TestAdd_CollapseToZero(t *testing.T) {
	x := symbolic.S("x")
	result := symbolic.AddOf(x, symbolic.MulOf(symbolic.N(-1), x))
	if result.String() != "0" {
		t.Errorf("x - x: want 0, got %s", result.String())
	}
}

func TestAdd_NegativeTermPrintsMinus(t *testing.T) {
	x := symbolic.S("x")
	result := symbolic.AddOf(x, symbolic.N(-1))
	if result.String() != "x - 1" {
		t.Errorf("want x - 1, got %s", result.String())
	}
}

func TestMul_ZeroCollapse(t *testing.T) {
	result := symbolic.MulOf(symbolic.N(0), symbolic.S("x"))
	if result.String() != "0" {
		t.Errorf("0*x: want 0, got %s", result.String())
	}
}

func TestMul_QuotientString(t *testing.T) {
	x := symbolic.S("x")
	result := symbolic.MulOf(symbolic.SinOf(x), symbolic.PowOf(x, symbolic.N(-1)))
	if result.String() != "sin(x)/x" {
		t.Errorf("want sin(x)/x, got %s", result.String())
	}
}

func TestMul_ProductRule(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.MulOf(x, symbolic.SinOf(x))
	got := symbolic.Diff(expr, "x")
	v := symbolic.EvalFloat(got, "x", 1)
	want := math.Sin(1) + math.Cos(1)
	if math.Abs(v-want) > 1e-12 {
		t.Errorf("d/dx x*sin(x) at 1: want %v, got %v (%s)", want, v, got)
	}
}

func TestPow_ZeroExp(t *testing.T) {
	result := symbolic.PowOf(symbolic.S("x"), symbolic.N(0))
	if result.String() != "1" {
		t.Errorf("x^0: want 1, got %s", result.String())
	}
}

func TestPow_NumericEval(t *testing.T) {
	result := symbolic.PowOf(symbolic.N(2), symbolic.N(10))
	if result.String() != "1024" {
		t.Errorf("2^10: want 1024, got %s", result.String())
	}
}

func TestPow_ExactRoot(t *testing.T) {
	result := symbolic.SqrtOf(symbolic.F(9, 4))
	if result.String() != "3/2" {
		t.Errorf("sqrt(9/4): want 3/2, got %s", result.String())
	}
	if got := symbolic.SqrtOf(symbolic.N(2)).String(); got != "sqrt(2)" {
		t.Errorf("sqrt(2) should stay symbolic, got %s", got)
	}
}

func TestPow_ZeroBaseNegativeExpIsZoo(t *testing.T) {
	result := symbolic.PowOf(symbolic.N(0), symbolic.N(-1))
	if result.String() != "zoo" {
		t.Errorf("0^-1: want zoo, got %s", result.String())
	}
}

func TestPow_Diff_PowerRule(t *testing.T) {
	x := symbolic.S("x")
	result := symbolic.Diff(symbolic.PowOf(x, symbolic.N(3)), "x")
	if result.String() != "3*x^2" {
		t.Errorf("d/dx x^3: want 3*x^2, got %s", result.String())
	}
}

func TestPow_LaTeX(t *testing.T) {
	result := symbolic.PowOf(symbolic.S("x"), symbolic.N(2))
	if result.LaTeX() != "x^{2}" {
		t.Errorf("want x^{2}, got %s", result.LaTeX())
	}
}

// ============================================================
// Sentinel arithmetic
// ============================================================

func TestSpecials_Propagation(t *testing.T) {
	tests := []struct {
		name string
		expr symbolic.Expr
		want string
	}{
		{"oo plus finite", symbolic.AddOf(symbolic.Inf, symbolic.N(3)), "oo"},
		{"oo minus oo", symbolic.AddOf(symbolic.Inf, symbolic.NegInf), "nan"},
		{"zero times oo", symbolic.MulOf(symbolic.N(0), symbolic.Inf), "nan"},
		{"negative times oo", symbolic.MulOf(symbolic.N(-2), symbolic.Inf), "-oo"},
		{"zero times zoo", symbolic.MulOf(symbolic.N(0), symbolic.Zoo), "nan"},
		{"oo squared", symbolic.PowOf(symbolic.NegInf, symbolic.N(2)), "oo"},
		{"one over oo", symbolic.PowOf(symbolic.Inf, symbolic.N(-1)), "0"},
		{"nan absorbs", symbolic.AddOf(symbolic.Nan, symbolic.N(1)), "nan"},
		{"log of zero", symbolic.LnOf(symbolic.N(0)), "-oo"},
		{"cot pole", symbolic.CotOf(symbolic.N(0)), "zoo"},
		{"sin of zoo", symbolic.SinOf(symbolic.Zoo), "nan"},
		{"cos of oo", symbolic.CosOf(symbolic.Inf), "nan"},
		{"asin of oo", symbolic.AsinOf(symbolic.Inf), "nan"},
		{"acos of zoo", symbolic.AcosOf(symbolic.Zoo), "nan"},
		{"zero times sin of zoo", symbolic.MulOf(symbolic.N(0), symbolic.SinOf(symbolic.Zoo)), "nan"},
		{"exp of -oo", symbolic.ExpOf(symbolic.NegInf), "0"},
		{"tanh of -oo", symbolic.TanhOf(symbolic.NegInf), "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("want %s, got %s", tt.want, got)
			}
		})
	}
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_AtanAtInfinity(t *testing.T) {
	v, err := symbolic.ToFloat(symbolic.AtanOf(symbolic.Inf))
	if err != nil {
		t.Fatalf("ToFloat: %v", err)
	}
	if math.Abs(v-math.Pi/2) > 1e-12 {
		t.Errorf("want pi/2, got %v", v)
	}
	v, err = symbolic.ToFloat(symbolic.AtanOf(symbolic.NegInf))
	if err != nil {
		t.Fatalf("ToFloat: %v", err)
	}
	if math.Abs(v+math.Pi/2) > 1e-12 {
		t.Errorf("want -pi/2, got %v", v)
	}
}

func TestFunc_InverseTrigLaTeX(t *testing.T) {
	x := symbolic.S("x")
	tests := []struct {
		expr symbolic.Expr
		want string
	}{
		{symbolic.AsinOf(x), "\\arcsin"},
		{symbolic.AcosOf(x), "\\arccos"},
		{symbolic.AtanOf(x), "\\arctan"},
	}
	for _, tt := range tests {
		if got := tt.expr.LaTeX(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("want prefix %s, got %s", tt.want, got)
		}
	}
}

func TestFunc_ExactFolding(t *testing.T) {
	tests := []struct {
		expr symbolic.Expr
		want string
	}{
		{symbolic.SinOf(symbolic.N(0)), "0"},
		{symbolic.CosOf(symbolic.N(0)), "1"},
		{symbolic.ExpOf(symbolic.N(0)), "1"},
		{symbolic.LnOf(symbolic.N(1)), "0"},
		{symbolic.FloorOf(symbolic.F(-3, 2)), "-2"},
		{symbolic.CeilOf(symbolic.F(-3, 2)), "-1"},
		{symbolic.AbsOf(symbolic.F(-3, 2)), "3/2"},
		{symbolic.SignOf(symbolic.N(-7)), "-1"},
		{symbolic.CbrtOf(symbolic.N(-8)), "-2"},
		{symbolic.SinOf(symbolic.N(1)), "sin(1)"},
	}
	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("want %s, got %s", tt.want, got)
		}
	}
}

func TestFunc_Sin_Diff(t *testing.T) {
	result := symbolic.Diff(symbolic.SinOf(symbolic.S("x")), "x")
	if result.String() != "cos(x)" {
		t.Errorf("d/dx sin(x): want cos(x), got %s", result.String())
	}
}

func TestFunc_Log_Diff(t *testing.T) {
	result := symbolic.Diff(symbolic.LnOf(symbolic.S("x")), "x")
	if result.String() != "1/x" {
		t.Errorf("d/dx log(x): want 1/x, got %s", result.String())
	}
}

func TestFunc_LaTeX(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.SinOf(x).LaTeX(); got != `\sin\left(x\right)` {
		t.Errorf("unexpected LaTeX %s", got)
	}
	if got := symbolic.LnOf(x).LaTeX(); got != `\ln\left(x\right)` {
		t.Errorf("unexpected LaTeX %s", got)
	}
}

// ============================================================
// Simplification
// ============================================================

func TestDeepSimplify_Pythagorean(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.AddOf(
		symbolic.PowOf(symbolic.SinOf(x), symbolic.N(2)),
		symbolic.PowOf(symbolic.CosOf(x), symbolic.N(2)),
	)
	if got := symbolic.DeepSimplify(expr).String(); got != "1" {
		t.Errorf("sin²+cos²: want 1, got %s", got)
	}
}

func TestDeepSimplify_KeepsRemovableSingularity(t *testing.T) {
	expr := symbolic.MustParse("(x**2 - 1)/(x - 1)")
	got := symbolic.DeepSimplify(expr)
	if got.String() != "(x^2 - 1)/(x - 1)" {
		t.Errorf("common factor must not be cancelled, got %s", got)
	}
}

func TestFreeSymbols(t *testing.T) {
	expr := symbolic.MustParse("x*y + sin(z) + pi")
	syms := symbolic.FreeSymbols(expr)
	for _, name := range []string{"x", "y", "z"} {
		if _, ok := syms[name]; !ok {
			t.Errorf("expected %s in free symbols", name)
		}
	}
	if len(syms) != 3 {
		t.Errorf("want 3 free symbols, got %d", len(syms))
	}
}

func TestDegree(t *testing.T) {
	if d := symbolic.Degree(symbolic.MustParse("3*x**2 + x"), "x"); d != 2 {
		t.Errorf("want degree 2, got %d", d)
	}
	if d := symbolic.Degree(symbolic.MustParse("sin(x)"), "x"); d != -1 {
		t.Errorf("sin(x) is not a polynomial, got degree %d", d)
	}
}

// ============================================================
// Numeric evaluation
// ============================================================

func TestToFloat(t *testing.T) {
	v, err := symbolic.ToFloat(symbolic.MustParse("pi/2"))
	if err != nil || math.Abs(v-math.Pi/2) > 1e-15 {
		t.Errorf("pi/2: got %v, %v", v, err)
	}
	if _, err := symbolic.ToFloat(symbolic.S("x")); err == nil {
		t.Error("free symbol should not convert to float")
	}
	if _, err := symbolic.ToFloat(symbolic.Inf); err == nil {
		t.Error("oo should not convert to float")
	}
}

func TestEvalFloat_CubeRootOfNegative(t *testing.T) {
	v := symbolic.EvalFloat(symbolic.MustParse("x**(1/3)"), "x", -8)
	if math.Abs(v+2) > 1e-12 {
		t.Errorf("want -2, got %v", v)
	}
}

func TestSample_MarksUndefinedPoints(t *testing.T) {
	xs, ys := symbolic.Sample(symbolic.MustParse("1/x"), "x", -1, 1, 3)
	if len(xs) != 3 || xs[1] != 0 {
		t.Fatalf("unexpected abscissae %v", xs)
	}
	if !math.IsNaN(ys[1]) {
		t.Errorf("1/x at 0 should be NaN, got %v", ys[1])
	}
	if ys[0] != -1 || ys[2] != 1 {
		t.Errorf("unexpected ordinates %v", ys)
	}
}

// ============================================================
// JSON
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	for _, src := range []string{"sin(x)/x", "(x**2 - 1)/(x - 1)", "exp(-x) + pi", "oo", "-oo"} {
		expr := symbolic.MustParse(src)
		s, err := symbolic.ToJSON(expr)
		if err != nil {
			t.Fatalf("%s: ToJSON: %v", src, err)
		}
		back, err := symbolic.FromJSONString(s)
		if err != nil {
			t.Fatalf("%s: FromJSON: %v", src, err)
		}
		if !back.Equal(expr) {
			t.Errorf("%s: round trip changed expression to %s", src, back)
		}
	}
}

func TestFromJSON_RejectsUnknownFunction(t *testing.T) {
	_, err := symbolic.FromJSONString(`{"type":"func","name":"gamma","arg":{"type":"sym","name":"x"}}`)
	if err == nil {
		t.Error("expected error for unknown function")
	}
}
