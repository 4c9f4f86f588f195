package limits

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/njchilds90/golimits/symbolic"
)

// Tag classifies a Value.
type Tag int

const (
	TagInteger Tag = iota
	TagRational
	TagDecimal
	TagPosInfinity
	TagNegInfinity
	TagComplexInfinity
	TagUndefined
	TagNaN
	TagFailed
)

var tagNames = [...]string{
	TagInteger:         "integer",
	TagRational:        "rational",
	TagDecimal:         "decimal",
	TagPosInfinity:     "+infinity",
	TagNegInfinity:     "-infinity",
	TagComplexInfinity: "complex-infinity",
	TagUndefined:       "undefined",
	TagNaN:             "nan",
	TagFailed:          "failed",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Display strings for the non-numeric tags.
const (
	DisplayPosInfinity     = "∞"
	DisplayNegInfinity     = "-∞"
	DisplayComplexInfinity = "∞̃"
	DisplayUndefined       = "undefined"
	DisplayNaN             = "NaN"
	DisplayFailed          = "cannot compute"
)

const (
	// snapTolerance decides whether a float is shown as an integer or fraction.
	snapTolerance = 1e-10
	maxDisplayDen = 1000
	// equalTolerance is the relative tolerance of Value.Equal.
	equalTolerance = 1e-9
)

// Outcome is the three-way verdict a Value carries about existence.
type Outcome int

const (
	Defined Outcome = iota
	ProvablyUndefined
	Indeterminate
)

func (o Outcome) String() string {
	switch o {
	case ProvablyUndefined:
		return "undefined"
	case Indeterminate:
		return "indeterminate"
	}
	return "defined"
}

// Value is a formatted limit or function value.
type Value struct {
	Tag     Tag     `json:"tag"`
	Display string  `json:"display"`
	Float   float64 `json:"float,omitempty"`
	Num     int64   `json:"num,omitempty"`
	Den     int64   `json:"den,omitempty"`
	// Reason explains Undefined and Failed values. It is logged, never shown.
	Reason string `json:"-"`
}

func (v Value) String() string { return v.Display }

// IsNumeric reports whether v is an integer, rational or decimal.
func (v Value) IsNumeric() bool {
	return v.Tag == TagInteger || v.Tag == TagRational || v.Tag == TagDecimal
}

// Outcome maps v to Defined, ProvablyUndefined or Indeterminate. Signed
// infinities are defined in the extended reals.
func (v Value) Outcome() Outcome {
	switch v.Tag {
	case TagFailed:
		return Indeterminate
	case TagComplexInfinity, TagUndefined, TagNaN:
		return ProvablyUndefined
	}
	return Defined
}

// Equal compares numeric values with a relative tolerance and everything else
// by tag. Numeric values that display the same are always equal.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.Display == o.Display {
			return true
		}
		scale := math.Max(1, math.Max(math.Abs(v.Float), math.Abs(o.Float)))
		return math.Abs(v.Float-o.Float) <= equalTolerance*scale
	}
	if v.IsNumeric() || o.IsNumeric() {
		return false
	}
	return v.Tag == o.Tag
}

// Failed is the value of a computation that produced no answer.
func Failed(reason string) Value {
	return Value{Tag: TagFailed, Display: DisplayFailed, Reason: reason}
}

// Undefined is the value of a limit that provably does not exist.
func Undefined(reason string) Value {
	return Value{Tag: TagUndefined, Display: DisplayUndefined, Reason: reason}
}

var (
	posInfinityValue     = Value{Tag: TagPosInfinity, Display: DisplayPosInfinity}
	negInfinityValue     = Value{Tag: TagNegInfinity, Display: DisplayNegInfinity}
	complexInfinityValue = Value{Tag: TagComplexInfinity, Display: DisplayComplexInfinity}
	nanValue             = Value{Tag: TagNaN, Display: DisplayNaN}
)

// FormatNumber renders a finite float: an integer if within 1e-10 of one, then
// a fraction p/q with q ≤ 1000, otherwise six decimals with trailing zeros
// removed. Non-finite input maps to the matching sentinel.
func FormatNumber(f float64) Value {
	switch {
	case math.IsNaN(f):
		return nanValue
	case math.IsInf(f, 1):
		return posInfinityValue
	case math.IsInf(f, -1):
		return negInfinityValue
	}
	if r := math.Round(f); math.Abs(f-r) <= snapTolerance {
		return integerValue(r)
	}
	for q := int64(2); q <= maxDisplayDen; q++ {
		p := math.Round(f * float64(q))
		if math.Abs(f-p/float64(q)) <= snapTolerance {
			return rationalValue(int64(p), q)
		}
	}
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		s = "0"
	}
	return Value{Tag: TagDecimal, Display: s, Float: f}
}

func integerValue(r float64) Value {
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return Value{Tag: TagInteger, Display: strconv.FormatFloat(r, 'f', -1, 64), Float: r, Num: int64(r), Den: 1}
}

func rationalValue(p, q int64) Value {
	r := big.NewRat(p, q)
	num, den := r.Num().Int64(), r.Denom().Int64()
	if den == 1 {
		return integerValue(float64(num))
	}
	return Value{
		Tag:     TagRational,
		Display: strconv.FormatInt(num, 10) + "/" + strconv.FormatInt(den, 10),
		Float:   float64(num) / float64(den),
		Num:     num,
		Den:     den,
	}
}

// FormatExpr converts an engine result into a Value. Exact rationals with a
// small denominator keep their exact form.
func FormatExpr(e symbolic.Expr) Value {
	if v, ok := exactValue(e); ok {
		return v
	}
	f, err := symbolic.ToFloat(e)
	if err != nil {
		return Failed(err.Error())
	}
	return FormatNumber(f)
}

// exactValue handles sentinels and exact rationals without going through float.
func exactValue(e symbolic.Expr) (Value, bool) {
	switch v := e.(type) {
	case *symbolic.Infinity:
		if v.Negative() {
			return negInfinityValue, true
		}
		return posInfinityValue, true
	case *symbolic.ComplexInfinity:
		return complexInfinityValue, true
	case *symbolic.NaN:
		return nanValue, true
	case *symbolic.Num:
		r := v.Rat()
		if r.Num().IsInt64() && r.Denom().IsInt64() {
			if r.IsInt() {
				return integerValue(float64(r.Num().Int64())), true
			}
			if r.Denom().Int64() <= maxDisplayDen {
				return rationalValue(r.Num().Int64(), r.Denom().Int64()), true
			}
		}
	}
	return Value{}, false
}
