package limits

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/njchilds90/golimits/symbolic"
)

// Canonical is an expression string the symbolic engine has accepted.
type Canonical string

func (c Canonical) String() string { return string(c) }

// Normalizer turns sanitized informal math into Canonical text.
type Normalizer struct {
	engine Engine
}

// NewNormalizer returns a Normalizer that validates through engine.
func NewNormalizer(engine Engine) *Normalizer {
	return &Normalizer{engine: engine}
}

// Normalize rewrites clean and validates the result by parsing it.
func (n *Normalizer) Normalize(ctx context.Context, clean string) (Canonical, error) {
	c := Canonical(Rewrite(clean))
	if _, err := n.engine.Parse(ctx, c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return c, nil
}

// Rewrite applies the rewriting passes in order without validating:
//
//  1. function names lowercased, arcsin/arccos/arctan shortened
//  2. ^, ² and ³ become **
//  3. bare calls like "sin x" get parentheses, then implicit multiplication
//     is made explicit
//  4. ln, pi, π, infinity, ∞ and e^ rewritten to engine names
//  5. √, ∛ and root() become sqrt() and cbrt()
//  6. whitespace removed
func Rewrite(s string) string {
	s = canonicalFuncs(s)
	s = expandPowers(s)
	s = bareCalls(s)
	s = insertMultiplication(s)
	s = substituteNames(s)
	s = normalizeRoots(s)
	return stripSpace(s)
}

var funcNames = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan",
	"cot": "cot", "sec": "sec", "csc": "csc",
	"asin": "asin", "acos": "acos", "atan": "atan",
	"arcsin": "asin", "arccos": "acos", "arctan": "atan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"ln": "ln", "log": "log", "exp": "exp",
	"sqrt": "sqrt", "cbrt": "cbrt", "root": "root",
	"abs": "abs", "floor": "floor", "ceil": "ceil", "sign": "sign",
}

func isWord(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r))
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// isFuncName reports whether name may directly precede an argument list.
func isFuncName(name string) bool {
	switch name {
	case "sqrt", "ln", "root", "Abs":
		return true
	}
	return symbolic.IsKnownFunc(name)
}

// mapWords rewrites each maximal ASCII word in s through fn.
func mapWords(s string, fn func(word string) string) string {
	rs := []rune(s)
	var b strings.Builder
	for i := 0; i < len(rs); {
		if !isWord(rs[i]) {
			b.WriteRune(rs[i])
			i++
			continue
		}
		j := i
		for j < len(rs) && isWord(rs[j]) {
			j++
		}
		b.WriteString(fn(string(rs[i:j])))
		i = j
	}
	return b.String()
}

func canonicalFuncs(s string) string {
	return mapWords(s, func(w string) string {
		if name, ok := funcNames[strings.ToLower(w)]; ok {
			return name
		}
		return w
	})
}

func expandPowers(s string) string {
	return strings.NewReplacer("^", "**", "²", "**2", "³", "**3").Replace(s)
}

// boundaryPass copies rs, inserting '*' after rs[i] whenever insert reports a
// multiplication boundary between rs[i] and the next non-space rune rs[j].
func boundaryPass(rs []rune, insert func(rs []rune, i, j int) bool) []rune {
	out := make([]rune, 0, len(rs)+8)
	for i := 0; i < len(rs); i++ {
		out = append(out, rs[i])
		if unicode.IsSpace(rs[i]) {
			continue
		}
		j := i + 1
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			j++
		}
		if j < len(rs) && insert(rs, i, j) {
			out = append(out, '*')
		}
	}
	return out
}

// exponentMarker reports whether rs[k] is the e of a number like 1e5 or 2e-3.
func exponentMarker(rs []rune, k int) bool {
	if k <= 0 || k >= len(rs) || (rs[k] != 'e' && rs[k] != 'E') || !isDigit(rs[k-1]) {
		return false
	}
	n := k + 1
	if n < len(rs) && (rs[n] == '+' || rs[n] == '-') {
		n++
	}
	return n < len(rs) && isDigit(rs[n])
}

// wordEndingAt returns the ASCII word whose last rune is rs[i].
func wordEndingAt(rs []rune, i int) string {
	start := i
	for start > 0 && isWord(rs[start-1]) {
		start--
	}
	return string(rs[start : i+1])
}

func insertMultiplication(s string) string {
	rs := []rune(s)
	// digit, then letter or (
	rs = boundaryPass(rs, func(rs []rune, i, j int) bool {
		return isDigit(rs[i]) && (unicode.IsLetter(rs[j]) || rs[j] == '(') && !(j == i+1 && exponentMarker(rs, j))
	})
	// letter or ), then digit
	rs = boundaryPass(rs, func(rs []rune, i, j int) bool {
		return (unicode.IsLetter(rs[i]) || rs[i] == ')') && isDigit(rs[j]) && !(j == i+1 && exponentMarker(rs, i))
	})
	// letter or ), then ( unless the letters name a function
	rs = boundaryPass(rs, func(rs []rune, i, j int) bool {
		if rs[j] != '(' {
			return false
		}
		if rs[i] == ')' {
			return true
		}
		if !unicode.IsLetter(rs[i]) {
			return false
		}
		return !isWord(rs[i]) || !isFuncName(wordEndingAt(rs, i))
	})
	// ), then letter or digit
	rs = boundaryPass(rs, func(rs []rune, i, j int) bool {
		return rs[i] == ')' && (unicode.IsLetter(rs[j]) || isDigit(rs[j]))
	})
	// operand, whitespace, then a word: "x sin(x)"
	rs = boundaryPass(rs, func(rs []rune, i, j int) bool {
		return j > i+1 && (isWord(rs[i]) || isDigit(rs[i]) || rs[i] == ')') && isWord(rs[j])
	})
	return string(rs)
}

// bareCalls wraps the operand of a function name followed by whitespace, so
// "sin x" becomes "sin(x)". Only the first atom is taken: "sin x**2" is
// sin(x)**2.
func bareCalls(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs)+8)
	for i := 0; i < len(rs); {
		if !isWord(rs[i]) {
			out = append(out, rs[i])
			i++
			continue
		}
		j := i
		for j < len(rs) && isWord(rs[j]) {
			j++
		}
		word := string(rs[i:j])
		out = append(out, rs[i:j]...)
		i = j
		if !isFuncName(word) || j >= len(rs) || !unicode.IsSpace(rs[j]) {
			continue
		}
		k := skipSpace(rs, j)
		if k >= len(rs) || rs[k] == '(' {
			continue
		}
		if end := operandEnd(rs, k); end > k {
			out = append(out, '(')
			out = append(out, rs[k:end]...)
			out = append(out, ')')
			i = end
		}
	}
	return string(out)
}

// operandEnd returns the end of the operand starting at rs[k]: a parenthesised
// group, or an optional sign followed by a number or a word with an optional
// call. It returns k when there is no operand.
func operandEnd(rs []rune, k int) int {
	if k < len(rs) && rs[k] == '(' {
		return groupEnd(rs, k)
	}
	i := k
	if i < len(rs) && (rs[i] == '+' || rs[i] == '-') {
		i++
	}
	start := i
	switch {
	case i < len(rs) && (isDigit(rs[i]) || rs[i] == '.'):
		for i < len(rs) && (isDigit(rs[i]) || rs[i] == '.') {
			i++
		}
	case i < len(rs) && isWord(rs[i]):
		for i < len(rs) && isWord(rs[i]) {
			i++
		}
		if i < len(rs) && rs[i] == '(' {
			if end := groupEnd(rs, i); end > i {
				i = end
			}
		}
	}
	if i == start {
		return k
	}
	return i
}

// groupEnd returns the index just past the ) matching rs[open], or open when
// the group is unbalanced.
func groupEnd(rs []rune, open int) int {
	depth := 0
	for i := open; i < len(rs); i++ {
		switch rs[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return open
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

// lastNonSpace returns the last non-space rune written to b, or 0.
func lastNonSpace(b []rune) rune {
	for i := len(b) - 1; i >= 0; i-- {
		if !unicode.IsSpace(b[i]) {
			return b[i]
		}
	}
	return 0
}

// endsValue reports whether r closes an operand, so a following value needs '*'.
func endsValue(r rune) bool {
	return isDigit(r) || unicode.IsLetter(r) || r == ')' || r == '.'
}

// glyph writes name in place of a constant glyph, adding '*' on sides that touch
// another operand.
func glyph(out []rune, rs []rune, i int, name string) []rune {
	if endsValue(lastNonSpace(out)) {
		out = append(out, '*')
	}
	out = append(out, []rune(name)...)
	if j := skipSpace(rs, i+1); j < len(rs) && (unicode.IsLetter(rs[j]) || isDigit(rs[j]) || rs[j] == '(') {
		out = append(out, '*')
	}
	return out
}

func substituteNames(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs)+8)
	for i := 0; i < len(rs); {
		switch r := rs[i]; {
		case r == 'π':
			out = glyph(out, rs, i, "pi")
			i++
		case r == '∞':
			out = glyph(out, rs, i, "oo")
			i++
		case isWord(r):
			j := i
			for j < len(rs) && isWord(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			switch lower := strings.ToLower(word); {
			case word == "ln":
				out = append(out, []rune("log")...)
			case lower == "pi":
				out = append(out, []rune("pi")...)
			case lower == "infinity":
				out = append(out, []rune("oo")...)
			case word == "e" || word == "E":
				if k, ok := expOperand(rs, j); ok {
					k0 := skipSpace(rs, skipSpace(rs, j)+2)
					operand := rs[k0:k]
					if operand[0] == '(' && groupEnd(operand, 0) == len(operand) {
						operand = operand[1 : len(operand)-1]
					}
					out = append(out, []rune("exp(")...)
					out = append(out, operand...)
					out = append(out, ')')
					j = k
					break
				}
				out = append(out, rs[i:j]...)
			default:
				out = append(out, rs[i:j]...)
			}
			i = j
		default:
			out = append(out, r)
			i++
		}
	}
	return string(out)
}

// expOperand checks for "** operand" starting at rs[j] and returns the end of
// the operand.
func expOperand(rs []rune, j int) (int, bool) {
	j = skipSpace(rs, j)
	if j+1 >= len(rs) || rs[j] != '*' || rs[j+1] != '*' {
		return 0, false
	}
	k := skipSpace(rs, j+2)
	end := operandEnd(rs, k)
	if end == k {
		return 0, false
	}
	// a**b**c is a**(b**c): the exponent runs through the whole chain.
	for {
		n := skipSpace(rs, end)
		if n+1 >= len(rs) || rs[n] != '*' || rs[n+1] != '*' {
			break
		}
		m := skipSpace(rs, n+2)
		next := operandEnd(rs, m)
		if next == m {
			break
		}
		end = next
	}
	return end, true
}

func normalizeRoots(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs)+8)
	for i := 0; i < len(rs); {
		r := rs[i]
		if r == '√' || r == '∛' {
			name := "sqrt"
			if r == '∛' {
				name = "cbrt"
			}
			if endsValue(lastNonSpace(out)) {
				out = append(out, '*')
			}
			out = append(out, []rune(name)...)
			k := skipSpace(rs, i+1)
			if k < len(rs) && rs[k] == '(' {
				i = k
				continue
			}
			end := operandEnd(rs, k)
			out = append(out, '(')
			out = append(out, rs[k:end]...)
			out = append(out, ')')
			i = end
			continue
		}
		if isWord(r) {
			j := i
			for j < len(rs) && isWord(rs[j]) {
				j++
			}
			if string(rs[i:j]) == "root" && j < len(rs) && rs[j] == '(' {
				out = append(out, []rune("sqrt")...)
			} else {
				out = append(out, rs[i:j]...)
			}
			i = j
			continue
		}
		out = append(out, r)
		i++
	}
	return string(out)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
