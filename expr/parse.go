// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/pkg/errors"
)

// Parse reads a boolean expression over the variables in vars. The syntax is
// the one of String: a reference to the next value of x is written x'; the
// operators are, by increasing precedence, <=>, =>, ||, &&, !, comparisons
// (== or =, !=, <, <=, >, >=), + and -, then *, / and %, and unary minus.
// Conditionals are written "if c then a else b". Errors wrap ErrParse or
// ErrType.
func Parse(src string, vars []Var) (*Expr, error) {
	p := &parser{scope: make(map[string]Var, len(vars))}
	for _, v := range vars {
		p.scope[v.Name] = v
	}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail("%s", msg)
	}
	p.next()
	e := p.iff()
	if p.err == nil && p.tok != scanner.EOF {
		p.fail("unexpected %q", p.text)
	}
	if p.err != nil {
		return nil, p.err
	}
	if !e.IsBool() {
		return nil, errors.Wrapf(ErrType, "expression %s is not boolean", e)
	}
	if err := TypeCheck(e); err != nil {
		return nil, err
	}
	return e, nil
}

// MustParse is like Parse but panics on errors. It is meant for tests and
// package-level declarations.
func MustParse(src string, vars ...Var) *Expr {
	e, err := Parse(src, vars)
	if err != nil {
		panic(err)
	}
	return e
}

// tokOp is the token of an operator made of two or three characters.
const tokOp rune = -100

type parser struct {
	s     scanner.Scanner
	scope map[string]Var
	tok   rune
	text  string
	pos   scanner.Position
	err   error
}

func (p *parser) fail(format string, a ...interface{}) {
	if p.err == nil {
		p.err = errors.Wrapf(ErrParse, "%s: "+format, append([]interface{}{p.pos}, a...)...)
	}
}

func (p *parser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
	p.pos = p.s.Position
	switch p.tok {
	case '&', '|', '=', '<', '>', '!':
		two := p.text + string(p.s.Peek())
		switch two {
		case "&&", "||", "==", "=>", "<=", "!=", ">=":
			p.s.Next()
			p.tok, p.text = tokOp, two
			if two == "<=" && p.s.Peek() == '>' {
				p.s.Next()
				p.text = "<=>"
			}
		}
	}
}

// is reports whether the current token is the operator or keyword op.
func (p *parser) is(op string) bool {
	switch p.tok {
	case tokOp, scanner.Ident:
		return p.text == op
	case scanner.EOF, scanner.Int:
		return false
	}
	return string(p.tok) == op
}

func (p *parser) expect(op string) {
	if !p.is(op) {
		p.fail("expected %q, found %q", op, p.text)
		return
	}
	p.next()
}

func (p *parser) iff() *Expr {
	e := p.imply()
	for p.err == nil && p.is("<=>") {
		p.next()
		e = Iff(e, p.imply())
	}
	return e
}

func (p *parser) imply() *Expr {
	e := p.or()
	if p.err == nil && p.is("=>") {
		p.next()
		return Imply(e, p.imply())
	}
	return e
}

func (p *parser) or() *Expr {
	args := []*Expr{p.and()}
	for p.err == nil && p.is("||") {
		p.next()
		args = append(args, p.and())
	}
	return Or(args...)
}

func (p *parser) and() *Expr {
	args := []*Expr{p.not()}
	for p.err == nil && p.is("&&") {
		p.next()
		args = append(args, p.not())
	}
	return And(args...)
}

func (p *parser) not() *Expr {
	if p.is("!") {
		p.next()
		return Not(p.not())
	}
	return p.comparison()
}

var comparisons = map[string]func(a, b *Expr) *Expr{
	"==": Eq, "=": Eq, "!=": Neq, "<": Lt, "<=": Le, ">": Gt, ">=": Ge,
}

func (p *parser) comparison() *Expr {
	e := p.sum()
	if p.err != nil {
		return e
	}
	for op, f := range comparisons {
		if p.is(op) {
			p.next()
			return f(e, p.sum())
		}
	}
	return e
}

func (p *parser) sum() *Expr {
	e := p.product()
	for p.err == nil && (p.is("+") || p.is("-")) {
		minus := p.is("-")
		p.next()
		if minus {
			e = Sub(e, p.product())
			continue
		}
		e = Add(e, p.product())
	}
	return e
}

func (p *parser) product() *Expr {
	e := p.unary()
	for p.err == nil && (p.is("*") || p.is("/") || p.is("%")) {
		op := p.text
		p.next()
		switch op {
		case "*":
			e = Mul(e, p.unary())
		case "/":
			e = Div(e, p.unary())
		default:
			e = Mod(e, p.unary())
		}
	}
	return e
}

func (p *parser) unary() *Expr {
	if p.is("-") {
		p.next()
		return Neg(p.unary())
	}
	if p.is("!") {
		p.next()
		return Not(p.unary())
	}
	return p.primary()
}

func (p *parser) primary() *Expr {
	if p.err != nil {
		return falseExpr
	}
	switch {
	case p.tok == scanner.Int:
		v, err := strconv.ParseInt(p.text, 10, 64)
		if err != nil {
			p.fail("bad integer %q", p.text)
			return falseExpr
		}
		p.next()
		return IntConst(v)
	case p.is("true"), p.is("false"):
		e := BoolConst(p.text == "true")
		p.next()
		return e
	case p.is("if"):
		p.next()
		c := p.iff()
		p.expect("then")
		a := p.iff()
		p.expect("else")
		b := p.iff()
		if p.err == nil && a.kind != b.kind {
			p.err = errors.Wrapf(ErrType, "branches %s and %s have different sorts", a, b)
		}
		return Ite(c, a, b)
	case p.tok == scanner.Ident:
		v, ok := p.scope[p.text]
		if !ok {
			if p.err == nil {
				p.err = errors.Wrapf(ErrType, "%s: unknown variable %q", p.pos, p.text)
			}
			return falseExpr
		}
		p.next()
		if p.is("'") {
			p.next()
			return Next(v)
		}
		return Cur(v)
	case p.is("("):
		p.next()
		e := p.iff()
		p.expect(")")
		return e
	}
	if p.tok == scanner.EOF {
		p.fail("unexpected end of expression")
	} else {
		p.fail("unexpected %q", p.text)
	}
	return falseExpr
}
