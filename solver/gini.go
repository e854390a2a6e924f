// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package solver

import (
	"github.com/dalzilio/mdd/expr"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// giniSolver translates expressions into an and-inverter circuit, whose
// clauses are added incrementally to a gini solver. Integer variables are
// vectors of circuit inputs constrained to their domain.
//
// A scope is an activation literal: constraints added in the scope are
// clauses guarded by this literal, that is assumed during checks. Popping a
// scope retires its literal with a permanent unit clause.
type giniSolver struct {
	g       *gini.Gini
	c       *logic.C
	mark    []int8
	ints    map[expr.Decl]bitvec
	bools   map[expr.Decl]z.Lit
	divs    map[string][2]bitvec // quotient and remainder of each division
	acts    []z.Lit
	used    []bool // whether a clause depends on the activation literal
	sat     bool
	configs configs
}

// NewGini returns a new session backed by the gini SAT solver.
func NewGini(options ...func(*configs)) Solver {
	s := &giniSolver{
		g:     gini.New(),
		c:     logic.NewC(),
		ints:  make(map[expr.Decl]bitvec),
		bools: make(map[expr.Decl]z.Lit),
		divs:  make(map[string][2]bitvec),
	}
	for _, f := range options {
		f(&s.configs)
	}
	return s
}

func (s *giniSolver) Push() {
	s.sat = false
	s.acts = append(s.acts, s.c.Lit())
	s.used = append(s.used, false)
}

func (s *giniSolver) Pop() error {
	if len(s.acts) == 0 {
		return ErrScope
	}
	s.sat = false
	k := len(s.acts) - 1
	if s.used[k] {
		s.g.Add(s.acts[k].Not())
		s.g.Add(0)
	}
	s.acts, s.used = s.acts[:k], s.used[:k]
	return nil
}

func (s *giniSolver) Depth() int {
	return len(s.acts)
}

func (s *giniSolver) Add(e *expr.Expr) error {
	s.sat = false
	if !e.IsBool() {
		return errors.Wrapf(ErrUnsupported, "%s is not a boolean expression", e)
	}
	m, err := s.lit(e)
	if err != nil {
		return errors.Wrapf(err, "adding %s", e)
	}
	if len(s.acts) == 0 {
		s.assert(m)
		return nil
	}
	k := len(s.acts) - 1
	s.mark, _ = s.c.CnfSince(s.g, s.mark, m)
	s.g.Add(s.acts[k].Not())
	s.g.Add(m)
	s.g.Add(0)
	s.used[k] = true
	return nil
}

// assert adds m as a permanent constraint.
func (s *giniSolver) assert(m z.Lit) {
	s.mark, _ = s.c.CnfSince(s.g, s.mark, m)
	s.g.Add(m)
	s.g.Add(0)
}

func (s *giniSolver) Check() (Status, error) {
	s.sat = false
	// the constant literals must be known to the solver
	s.mark, _ = s.c.CnfSince(s.g, s.mark, s.c.T)
	for k, m := range s.acts {
		if s.used[k] {
			s.g.Assume(m)
		}
	}
	var res int
	if s.configs.timeout > 0 {
		res = s.g.GoSolve().Try(s.configs.timeout)
	} else {
		res = s.g.Solve()
	}
	switch res {
	case 1:
		s.sat = true
		return Sat, nil
	case -1:
		return Unsat, nil
	}
	return Unknown, errors.Wrapf(ErrUnknown, "no answer after %s", s.configs.timeout)
}

func (s *giniSolver) Model() (expr.Valuation, error) {
	if !s.sat {
		return nil, ErrNoModel
	}
	res := make(expr.Valuation, len(s.ints)+len(s.bools))
	for d, m := range s.bools {
		res[d] = 0
		if s.value(m) {
			res[d] = 1
		}
	}
	for d, v := range s.ints {
		var x int64
		for k, m := range v {
			if !s.value(m) {
				continue
			}
			if k == len(v)-1 {
				x -= 1 << uint(k)
				continue
			}
			x |= 1 << uint(k)
		}
		res[d] = x
	}
	return res, nil
}

// value returns the value of m in the last model. Inputs that never occurred
// in a clause are unconstrained and read as false.
func (s *giniSolver) value(m z.Lit) bool {
	if m.Var() > s.g.MaxVar() {
		return false
	}
	return s.g.Value(m)
}

// ************************************************************

// variable returns the bit vector of an integer variable instance, creating
// it with its domain constraint on first use.
func (s *giniSolver) variable(d expr.Decl) bitvec {
	if v, ok := s.ints[d]; ok {
		return v
	}
	lo, hi := d.Var.Type.Bounds()
	v := make(bitvec, max(width(lo), width(hi)))
	for k := range v {
		v[k] = s.c.Lit()
	}
	s.ints[d] = v
	s.assert(s.c.And(le(s.c, constvec(s.c, lo), v), le(s.c, v, constvec(s.c, hi))))
	return v
}

func (s *giniSolver) boolean(d expr.Decl) z.Lit {
	if m, ok := s.bools[d]; ok {
		return m
	}
	m := s.c.Lit()
	s.bools[d] = m
	return m
}

// lit returns the circuit literal of a boolean expression.
func (s *giniSolver) lit(e *expr.Expr) (z.Lit, error) {
	if !e.IsBool() {
		return z.LitNull, errors.Wrapf(ErrUnsupported, "%s is not boolean", e)
	}
	c := s.c
	switch e.Op() {
	case expr.OpConst:
		if e.Value() != 0 {
			return c.T, nil
		}
		return c.F, nil
	case expr.OpRef:
		return s.boolean(e.Decl()), nil
	case expr.OpEq, expr.OpNeq, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		return s.compare(e)
	}
	args := make([]z.Lit, len(e.Args()))
	for k, a := range e.Args() {
		m, err := s.lit(a)
		if err != nil {
			return z.LitNull, err
		}
		args[k] = m
	}
	switch e.Op() {
	case expr.OpNot:
		return args[0].Not(), nil
	case expr.OpAnd:
		return c.Ands(args...), nil
	case expr.OpOr:
		return c.Ors(args...), nil
	case expr.OpImply:
		return c.Implies(args[0], args[1]), nil
	case expr.OpIff:
		return c.Xor(args[0], args[1]).Not(), nil
	case expr.OpIte:
		return c.Choice(args[0], args[1], args[2]), nil
	}
	return z.LitNull, errors.Wrapf(ErrUnsupported, "operator %s in %s", e.Op(), e)
}

func (s *giniSolver) compare(e *expr.Expr) (z.Lit, error) {
	c := s.c
	a, b := e.Args()[0], e.Args()[1]
	if a.IsBool() {
		x, err := s.lit(a)
		if err != nil {
			return z.LitNull, err
		}
		y, err := s.lit(b)
		if err != nil {
			return z.LitNull, err
		}
		switch e.Op() {
		case expr.OpEq:
			return c.Xor(x, y).Not(), nil
		case expr.OpNeq:
			return c.Xor(x, y), nil
		}
		return z.LitNull, errors.Wrapf(ErrUnsupported, "ordering on booleans in %s", e)
	}
	x, err := s.vec(a)
	if err != nil {
		return z.LitNull, err
	}
	y, err := s.vec(b)
	if err != nil {
		return z.LitNull, err
	}
	switch e.Op() {
	case expr.OpEq:
		return eq(c, x, y), nil
	case expr.OpNeq:
		return eq(c, x, y).Not(), nil
	case expr.OpLt:
		return lt(c, x, y), nil
	case expr.OpLe:
		return le(c, x, y), nil
	case expr.OpGt:
		return lt(c, y, x), nil
	}
	return le(c, y, x), nil
}

// vec returns the bit vector of an integer expression.
func (s *giniSolver) vec(e *expr.Expr) (bitvec, error) {
	if e.IsBool() {
		return nil, errors.Wrapf(ErrUnsupported, "%s is not an integer", e)
	}
	c := s.c
	switch e.Op() {
	case expr.OpConst:
		return constvec(c, e.Value()), nil
	case expr.OpRef:
		return s.variable(e.Decl()), nil
	case expr.OpIte:
		cond, err := s.lit(e.Args()[0])
		if err != nil {
			return nil, err
		}
		a, err := s.vec(e.Args()[1])
		if err != nil {
			return nil, err
		}
		b, err := s.vec(e.Args()[2])
		if err != nil {
			return nil, err
		}
		return ite(c, cond, a, b), nil
	}
	args := make([]bitvec, len(e.Args()))
	for k, a := range e.Args() {
		v, err := s.vec(a)
		if err != nil {
			return nil, err
		}
		args[k] = v
	}
	switch e.Op() {
	case expr.OpAdd:
		res := args[0]
		for _, v := range args[1:] {
			res = add(c, res, v)
		}
		return res, nil
	case expr.OpSub:
		return sub(c, args[0], args[1]), nil
	case expr.OpNeg:
		return neg(c, args[0]), nil
	case expr.OpMul:
		return mul(c, args[0], args[1]), nil
	case expr.OpDiv, expr.OpMod:
		qr := s.division(e.String(), args[0], args[1])
		if e.Op() == expr.OpDiv {
			return qr[0], nil
		}
		return qr[1], nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "operator %s in %s", e.Op(), e)
}

// division returns fresh vectors q and r with the permanent constraint
// b != 0 => (a == b*q + r && 0 <= r < |b|), that defines the Euclidean
// division. Divisions by zero are left unconstrained.
func (s *giniSolver) division(key string, a, b bitvec) [2]bitvec {
	if qr, ok := s.divs[key]; ok {
		return qr
	}
	c := s.c
	q := make(bitvec, len(a)+1)
	for k := range q {
		q[k] = c.Lit()
	}
	r := make(bitvec, len(b)+1)
	for k := range r {
		r[k] = c.Lit()
	}
	zero := constvec(c, 0)
	def := c.Ands(
		eq(c, a, add(c, mul(c, b, q), r)),
		le(c, zero, r),
		lt(c, r, abs(c, b)),
	)
	s.assert(c.Implies(eq(c, b, zero).Not(), def))
	s.divs[key] = [2]bitvec{q, r}
	return s.divs[key]
}
