// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrParse is returned when the text of an expression is malformed.
	ErrParse = errors.New("syntax error")

	// ErrType is returned when an expression is not well sorted, or refers to
	// an unknown variable.
	ErrType = errors.New("type error")
)

// Eval returns the value of e under valuation v; booleans are 0 or 1. It
// fails if a variable instance of e has no value or on a division by zero.
func Eval(e *Expr, v Valuation) (int64, error) {
	switch e.op {
	case OpConst:
		return e.val, nil
	case OpRef:
		x, ok := v[e.decl]
		if !ok {
			return 0, errors.Errorf("no value for %s", e.decl)
		}
		return x, nil
	case OpAnd, OpOr:
		// short-circuit, left to right
		for _, a := range e.args {
			x, err := Eval(a, v)
			if err != nil {
				return 0, err
			}
			if (x != 0) == (e.op == OpOr) {
				return x, nil
			}
		}
		if e.op == OpAnd {
			return 1, nil
		}
		return 0, nil
	case OpAdd:
		var sum int64
		for _, a := range e.args {
			x, err := Eval(a, v)
			if err != nil {
				return 0, err
			}
			sum += x
		}
		return sum, nil
	case OpIte:
		c, err := Eval(e.args[0], v)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return Eval(e.args[1], v)
		}
		return Eval(e.args[2], v)
	}
	xs := make([]int64, len(e.args))
	for k, a := range e.args {
		x, err := Eval(a, v)
		if err != nil {
			return 0, err
		}
		xs[k] = x
	}
	return apply(e.op, xs)
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// apply computes the value of a unary or binary operator on constants.
func apply(op Op, xs []int64) (int64, error) {
	switch op {
	case OpNot:
		return 1 - b2i(xs[0] != 0), nil
	case OpNeg:
		return -xs[0], nil
	}
	a, b := xs[0], xs[1]
	switch op {
	case OpImply:
		return b2i(a == 0 || b != 0), nil
	case OpIff:
		return b2i((a != 0) == (b != 0)), nil
	case OpEq:
		return b2i(a == b), nil
	case OpNeq:
		return b2i(a != b), nil
	case OpLt:
		return b2i(a < b), nil
	case OpLe:
		return b2i(a <= b), nil
	case OpGt:
		return b2i(a > b), nil
	case OpGe:
		return b2i(a >= b), nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv, OpMod:
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		q, r := EuclidDiv(a, b)
		if op == OpDiv {
			return q, nil
		}
		return r, nil
	}
	return 0, errors.Errorf("cannot evaluate operator %s", op)
}

// EuclidDiv returns the Euclidean quotient and remainder of a by b, with
// 0 <= r < |b|.
func EuclidDiv(a, b int64) (int64, int64) {
	q, r := a/b, a%b
	if r < 0 {
		if b > 0 {
			q--
			r += b
		} else {
			q++
			r -= b
		}
	}
	return q, r
}

// Holds evaluates a boolean expression.
func Holds(e *Expr, v Valuation) (bool, error) {
	x, err := Eval(e, v)
	return x != 0, err
}

// ************************************************************

// Decls returns the variable instances occurring in e, sorted by name and
// index.
func Decls(e *Expr) []Decl {
	seen := make(map[Decl]struct{})
	var walk func(*Expr)
	walk = func(e *Expr) {
		if e.op == OpRef {
			seen[e.decl] = struct{}{}
			return
		}
		for _, a := range e.args {
			walk(a)
		}
	}
	walk(e)
	res := make([]Decl, 0, len(seen))
	for d := range seen {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return less(res[i], res[j]) })
	return res
}

// Vars returns the variables occurring in e, current or next, sorted by name.
func Vars(e *Expr) []Var {
	var res []Var
	for _, d := range Decls(e) {
		if len(res) > 0 && res[len(res)-1] == d.Var {
			continue
		}
		res = append(res, d.Var)
	}
	return res
}

// Substitute replaces the references to the instances in sub by their
// associated expression. The result is not simplified.
func Substitute(e *Expr, sub map[Decl]*Expr) *Expr {
	if e.op == OpRef {
		if r, ok := sub[e.decl]; ok {
			return r
		}
		return e
	}
	if len(e.args) == 0 {
		return e
	}
	changed := false
	args := make([]*Expr, len(e.args))
	for k, a := range e.args {
		args[k] = Substitute(a, sub)
		changed = changed || args[k] != a
	}
	if !changed {
		return e
	}
	return &Expr{op: e.op, kind: e.kind, val: e.val, decl: e.decl, args: args}
}

// Assign replaces the instances of v by their value and simplifies the
// result.
func Assign(e *Expr, v Valuation) *Expr {
	sub := make(map[Decl]*Expr, len(v))
	for d, x := range v {
		if d.Var.Type.IsBool() {
			sub[d] = BoolConst(x != 0)
			continue
		}
		sub[d] = IntConst(x)
	}
	return Simplify(Substitute(e, sub))
}

// Conjuncts returns the operands of the top-level conjunctions of e.
func Conjuncts(e *Expr) []*Expr {
	return split(e, OpAnd)
}

// Disjuncts returns the operands of the top-level disjunctions of e.
func Disjuncts(e *Expr) []*Expr {
	return split(e, OpOr)
}

func split(e *Expr, op Op) []*Expr {
	if e.op != op {
		return []*Expr{e}
	}
	var res []*Expr
	for _, a := range e.args {
		res = append(res, split(a, op)...)
	}
	return res
}

// ************************************************************

// TypeCheck verifies that e is well sorted: logical operators take boolean
// operands, arithmetic ones integer operands, and both sides of an equality
// have the same sort.
func TypeCheck(e *Expr) error {
	for _, a := range e.args {
		if err := TypeCheck(a); err != nil {
			return err
		}
	}
	want := func(k Kind, args ...*Expr) error {
		for _, a := range args {
			if a.kind != k {
				return errors.Wrapf(ErrType, "operand %s of %s should be %s", a, e.op, k)
			}
		}
		return nil
	}
	switch e.op {
	case OpNot, OpAnd, OpOr, OpImply, OpIff:
		return want(KindBool, e.args...)
	case OpLt, OpLe, OpGt, OpGe, OpAdd, OpSub, OpNeg, OpMul, OpDiv, OpMod:
		return want(KindInt, e.args...)
	case OpEq, OpNeq:
		return want(e.args[0].kind, e.args[1])
	case OpIte:
		if err := want(KindBool, e.args[0]); err != nil {
			return err
		}
		return want(e.args[1].kind, e.args[2])
	}
	return nil
}
