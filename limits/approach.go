package limits

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/golimits/symbolic"
)

// PointKind distinguishes finite approach points from the two infinities.
type PointKind int

const (
	Finite PointKind = iota
	PosInfinity
	NegInfinity
)

func (k PointKind) String() string {
	switch k {
	case PosInfinity:
		return "+infinity"
	case NegInfinity:
		return "-infinity"
	}
	return "finite"
}

func (k PointKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Point is where x approaches. Label keeps the exact source of a finite value
// ("1/3", "0.1", "pi") so the engine can work with it exactly.
type Point struct {
	Kind  PointKind `json:"kind"`
	Value float64   `json:"value"`
	Label string    `json:"label,omitempty"`
}

var (
	PosInf = Point{Kind: PosInfinity}
	NegInf = Point{Kind: NegInfinity}
)

// FinitePoint returns the finite point v.
func FinitePoint(v float64) Point {
	return Point{Kind: Finite, Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)}
}

func (p Point) IsInfinite() bool { return p.Kind != Finite }

// String renders the point for display: π for pi, ∞ for infinity.
func (p Point) String() string {
	switch p.Kind {
	case PosInfinity:
		return "∞"
	case NegInfinity:
		return "-∞"
	}
	return strings.NewReplacer("pi", "π", "E", "e").Replace(p.Label)
}

// Expr returns the point as an engine expression.
func (p Point) Expr() symbolic.Expr {
	switch p.Kind {
	case PosInfinity:
		return symbolic.Inf
	case NegInfinity:
		return symbolic.NegInf
	}
	if e, err := symbolic.Parse(p.Label); err == nil {
		return e
	}
	return symbolic.NFloat(p.Value)
}

// Direction is the side from which x approaches a finite point.
type Direction int

const (
	Both Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "both"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Superscript is the marker appended to a point in display text.
func (d Direction) Superscript() string {
	switch d {
	case Left:
		return "⁻"
	case Right:
		return "⁺"
	}
	return ""
}

func (d Direction) symbolic() symbolic.Direction {
	switch d {
	case Left:
		return symbolic.FromLeft
	case Right:
		return symbolic.FromRight
	}
	return symbolic.TwoSided
}

// ParseDirection accepts both, left, right and their sign shorthands. The empty
// string means both.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "two-sided", "+-", "±":
		return Both, nil
	case "left", "-", "minus":
		return Left, nil
	case "right", "+", "plus":
		return Right, nil
	}
	return Both, fmt.Errorf("%w: %q", ErrDirection, s)
}

// ResolveDirection returns the direction a suffix encoded in the point text
// implies when there is one, and requested otherwise.
func ResolveDirection(requested, inferred Direction, hasInferred bool) Direction {
	if hasInferred {
		return inferred
	}
	return requested
}

var (
	posInfWords = map[string]bool{"inf": true, "infinity": true, "∞": true, "oo": true}
)

// ParseApproach reads an approach point. A trailing + or - on a finite point
// selects a side and is reported as the inferred direction.
func ParseApproach(text string) (Point, Direction, bool, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Point{}, Both, false, ErrEmptyInput
	}
	lower := strings.ToLower(s)
	switch {
	case posInfWords[strings.TrimPrefix(lower, "+")]:
		return PosInf, Both, false, nil
	case strings.HasPrefix(lower, "-") && posInfWords[lower[1:]]:
		return NegInf, Both, false, nil
	}

	if len(s) > 1 && (strings.HasSuffix(s, "+") || strings.HasSuffix(s, "-")) {
		dir := Right
		if strings.HasSuffix(s, "-") {
			dir = Left
		}
		p, err := parseFinite(strings.TrimSpace(s[:len(s)-1]))
		if err != nil {
			return Point{}, Both, false, err
		}
		return p, dir, true, nil
	}
	p, err := parseFinite(s)
	if err != nil {
		return Point{}, Both, false, err
	}
	return p, Both, false, nil
}

func parseFinite(s string) (Point, error) {
	if s == "" {
		return Point{}, fmt.Errorf("%w: missing value", ErrInvalidNumber)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Point{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
		}
		return FinitePoint(v), nil
	}

	sign, body := "", s
	if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
		if body[0] == '-' {
			sign = "-"
		}
		body = body[1:]
	}
	neg := sign == "-"
	if v, label, ok := constant(body); ok {
		if neg {
			v = -v
		}
		return Point{Kind: Finite, Value: v, Label: sign + label}, nil
	}

	// A fraction's numerator may be a named constant, as in pi/2.
	if num, den, ok := strings.Cut(body, "/"); ok {
		p, plabel, pok := constant(strings.TrimSpace(num))
		if !pok {
			var perr error
			p, perr = strconv.ParseFloat(strings.TrimSpace(num), 64)
			pok = perr == nil && !math.IsInf(p, 0) && !math.IsNaN(p)
			plabel = strconv.FormatFloat(p, 'g', -1, 64)
		}
		q, qerr := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if pok && qerr == nil && q != 0 && !math.IsInf(q, 0) && !math.IsNaN(q) {
			v := p / q
			if neg {
				v = -v
			}
			label := sign + plabel + "/" + strconv.FormatFloat(q, 'g', -1, 64)
			return Point{Kind: Finite, Value: v, Label: label}, nil
		}
	}
	return Point{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
}

// constant recognizes pi and e and returns the value with its engine label.
func constant(s string) (float64, string, bool) {
	switch strings.ToLower(s) {
	case "pi", "π":
		return math.Pi, "pi", true
	case "e":
		return math.E, "E", true
	}
	return 0, "", false
}
