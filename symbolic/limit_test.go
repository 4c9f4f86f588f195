package symbolic_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/golimits/symbolic"
)

func TestLimit_Exact(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		point symbolic.Expr
		dir   symbolic.Direction
		want  string
	}{
		{"continuous polynomial", "x**2 + 1", symbolic.N(2), symbolic.TwoSided, "5"},
		{"sinc", "sin(x)/x", symbolic.N(0), symbolic.TwoSided, "1"},
		{"removable rational", "(x**2-1)/(x-1)", symbolic.N(1), symbolic.TwoSided, "2"},
		{"double l'hopital", "(1-cos(x))/x**2", symbolic.N(0), symbolic.TwoSided, "1/2"},
		{"reciprocal from right", "1/x", symbolic.N(0), symbolic.FromRight, "oo"},
		{"reciprocal from left", "1/x", symbolic.N(0), symbolic.FromLeft, "-oo"},
		{"reciprocal two-sided", "1/x", symbolic.N(0), symbolic.TwoSided, "zoo"},
		{"even pole", "1/x**2", symbolic.N(0), symbolic.TwoSided, "oo"},
		{"rational at infinity", "(3*x**2+1)/(x**2-4)", symbolic.Inf, symbolic.TwoSided, "3"},
		{"reciprocal at infinity", "1/x", symbolic.Inf, symbolic.TwoSided, "0"},
		{"odd degree at -oo", "x**3 - x", symbolic.NegInf, symbolic.TwoSided, "-oo"},
		{"decaying exponential", "exp(-x)", symbolic.Inf, symbolic.TwoSided, "0"},
		{"floor from left", "floor(x)", symbolic.N(1), symbolic.FromLeft, "0"},
		{"floor from right", "floor(x)", symbolic.N(1), symbolic.FromRight, "1"},
		{"sign from left", "abs(x)/x", symbolic.N(0), symbolic.FromLeft, "-1"},
		{"sign from right", "abs(x)/x", symbolic.N(0), symbolic.FromRight, "1"},
		{"sqrt at domain edge", "sqrt(x)", symbolic.N(0), symbolic.FromRight, "0"},
		{"log at zero", "log(x)", symbolic.N(0), symbolic.FromRight, "-oo"},
		{"constant", "7", symbolic.N(3), symbolic.TwoSided, "7"},
		{"transcendental point", "sin(x)", symbolic.Pi, symbolic.TwoSided, "sin(pi)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := symbolic.Limit(symbolic.MustParse(tt.expr), "x", tt.point, tt.dir)
			if err != nil {
				t.Fatalf("Limit(%s): %v", tt.expr, err)
			}
			if got.String() != tt.want {
				t.Errorf("Limit(%s, x→%s%s) = %s, want %s", tt.expr, tt.point, tt.dir, got, tt.want)
			}
		})
	}
}

func TestLimit_DoesNotExist(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		point symbolic.Expr
		dir   symbolic.Direction
	}{
		{"jump", "floor(x)", symbolic.N(1), symbolic.TwoSided},
		{"sign jump", "abs(x)/x", symbolic.N(0), symbolic.TwoSided},
		{"oscillation", "sin(1/x)", symbolic.N(0), symbolic.FromRight},
		{"outside domain", "sqrt(x)", symbolic.N(0), symbolic.FromLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := symbolic.Limit(symbolic.MustParse(tt.expr), "x", tt.point, tt.dir)
			if !errors.Is(err, symbolic.ErrLimitDoesNotExist) {
				t.Errorf("want ErrLimitDoesNotExist, got %v", err)
			}
		})
	}
}

func TestLimit_Numeric(t *testing.T) {
	got, err := symbolic.Limit(symbolic.MustParse("(1+1/x)**x"), "x", symbolic.Inf, symbolic.TwoSided)
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	v, err := symbolic.ToFloat(got)
	if err != nil {
		t.Fatalf("ToFloat(%s): %v", got, err)
	}
	if math.Abs(v-math.E) > 1e-6 {
		t.Errorf("want e, got %v", v)
	}
}

func TestLimit_MatchesNumericSampling(t *testing.T) {
	for _, src := range []string{"sin(x)/x", "(x**2-1)/(x-1)", "(1-cos(x))/x**2", "x*sin(1/x)"} {
		expr := symbolic.MustParse(src)
		a := 0.0
		if src == "(x**2-1)/(x-1)" {
			a = 1
		}
		got, err := symbolic.Limit(expr, "x", symbolic.NFloat(a), symbolic.FromRight)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		v, err := symbolic.ToFloat(got)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		sampled := symbolic.EvalFloat(expr, "x", a+1e-4)
		if math.Abs(v-sampled) > 1e-3 {
			t.Errorf("%s: limit %v disagrees with sample %v", src, v, sampled)
		}
	}
}

func TestLimit_RejectsOtherSymbols(t *testing.T) {
	_, err := symbolic.Limit(symbolic.MustParse("x*y"), "x", symbolic.N(0), symbolic.TwoSided)
	if !errors.Is(err, symbolic.ErrUndetermined) {
		t.Errorf("want ErrUndetermined, got %v", err)
	}
}

func TestSameValue(t *testing.T) {
	if !symbolic.SameValue(symbolic.F(1, 2), symbolic.NFloat(0.5)) {
		t.Error("1/2 and 0.5 should be the same value")
	}
	if symbolic.SameValue(symbolic.Inf, symbolic.NegInf) {
		t.Error("oo and -oo differ")
	}
	if !symbolic.SameValue(symbolic.Zoo, symbolic.Zoo) {
		t.Error("zoo equals itself")
	}
}
