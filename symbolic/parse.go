package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Parser
// ============================================================
//
// Grammar (canonical ASCII form):
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | power
//	power   := primary (('**' | '^') unary)?
//	primary := number | name | name '(' expr (',' expr)* ')' | '(' expr ')'
//
// Exponentiation is right-associative and binds tighter than unary minus,
// so -x**2 parses as -(x**2).

// ParseError describes why src could not be parsed and where.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("symbolic: parse error at position %d: %s", e.Pos, e.Msg)
}

const maxParseDepth = 200

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	toks  []token
	i     int
	depth int
}

// Parse reads an expression in canonical form and returns its simplified tree.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			// Scientific notation only when digits follow, so 2e stays 2 and e.
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNum, text: string(rs[start:i]), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "**", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(rs)})
	return toks, nil
}

func (p *parser) peek() token { return p.toks[p.i] }
func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxParseDepth {
		return &ParseError{Pos: p.peek().pos, Msg: "expression nested too deeply"}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseExpr() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "/" {
			right = PowOf(right, N(-1))
		}
		left = MulOf(left, right)
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return MulOf(N(-1), operand), nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp && (t.text == "**" || t.text == "^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("malformed number %q", t.text)}
		}
		return &Num{val: r}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		return nameExpr(t.text), nil
	case tokLParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, &ParseError{Pos: c.pos, Msg: "expected )"}
		}
		return e, nil
	case tokEOF:
		return nil, &ParseError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}

func (p *parser) parseCall(name token) (Expr, error) {
	p.next() // (
	var args []Expr
	if p.peek().kind != tokRParen {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if c := p.next(); c.kind != tokRParen {
		return nil, &ParseError{Pos: c.pos, Msg: "expected ) after arguments to " + name.text}
	}
	return applyFunc(name, args)
}

func nameExpr(name string) Expr {
	switch name {
	case "pi":
		return Pi
	case "E", "e":
		return E
	case "oo":
		return Inf
	case "zoo":
		return Zoo
	case "nan":
		return Nan
	}
	return S(name)
}

func applyFunc(name token, args []Expr) (Expr, error) {
	arity := func(n int) error {
		if len(args) != n {
			return &ParseError{Pos: name.pos, Msg: fmt.Sprintf("%s expects %d argument(s), got %d", name.text, n, len(args))}
		}
		return nil
	}
	switch name.text {
	case "sqrt":
		if err := arity(1); err != nil {
			return nil, err
		}
		return SqrtOf(args[0]), nil
	case "ln":
		if err := arity(1); err != nil {
			return nil, err
		}
		return LnOf(args[0]), nil
	case "log":
		if len(args) == 2 {
			return MulOf(LnOf(args[0]), PowOf(LnOf(args[1]), N(-1))), nil
		}
		if err := arity(1); err != nil {
			return nil, err
		}
		return LnOf(args[0]), nil
	case "Abs":
		if err := arity(1); err != nil {
			return nil, err
		}
		return AbsOf(args[0]), nil
	}
	if !IsKnownFunc(name.text) {
		return nil, &ParseError{Pos: name.pos, Msg: "unknown function " + name.text}
	}
	if err := arity(1); err != nil {
		return nil, err
	}
	return funcOf(name.text, args[0]).Simplify(), nil
}
