// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

// Simplify returns an expression equivalent to e after constant folding,
// flattening of nested conjunctions, disjunctions and sums, and removal of
// neutral and absorbing elements. Divisions by zero are left unchanged.
func Simplify(e *Expr) *Expr {
	if len(e.args) == 0 {
		return e
	}
	args := make([]*Expr, len(e.args))
	allconst := true
	for k, a := range e.args {
		args[k] = Simplify(a)
		allconst = allconst && args[k].op == OpConst
	}
	switch e.op {
	case OpAnd, OpOr:
		return simplifyJunction(e.op, args)
	case OpAdd:
		return simplifySum(args)
	case OpIte:
		if args[0].op == OpConst {
			if args[0].val != 0 {
				return args[1]
			}
			return args[2]
		}
		if args[1].String() == args[2].String() {
			return args[1]
		}
		return Ite(args[0], args[1], args[2])
	}
	if allconst {
		if x, err := apply(e.op, constvals(args)); err == nil {
			if e.kind == KindBool {
				return BoolConst(x != 0)
			}
			return IntConst(x)
		}
	}
	a := args[0]
	switch e.op {
	case OpNot:
		if a.op == OpNot {
			return a.args[0]
		}
		return Not(a)
	case OpNeg:
		if a.op == OpNeg {
			return a.args[0]
		}
		return Neg(a)
	}
	b := args[1]
	switch e.op {
	case OpImply:
		switch {
		case a.IsTrue():
			return b
		case a.IsFalse(), b.IsTrue():
			return trueExpr
		case b.IsFalse():
			return Simplify(Not(a))
		}
	case OpIff:
		switch {
		case a.IsTrue():
			return b
		case b.IsTrue():
			return a
		case a.IsFalse():
			return Simplify(Not(b))
		case b.IsFalse():
			return Simplify(Not(a))
		}
	case OpEq, OpLe, OpGe:
		if a.String() == b.String() {
			return trueExpr
		}
	case OpNeq, OpLt, OpGt:
		if a.String() == b.String() {
			return falseExpr
		}
	case OpSub:
		if b.op == OpConst && b.val == 0 {
			return a
		}
	case OpMul:
		switch {
		case isint(a, 0) || isint(b, 0):
			return IntConst(0)
		case isint(a, 1):
			return b
		case isint(b, 1):
			return a
		}
	case OpDiv:
		if isint(b, 1) {
			return a
		}
	case OpMod:
		if isint(b, 1) || isint(b, -1) {
			return IntConst(0)
		}
	}
	return mk(e.op, e.kind, args...)
}

func isint(e *Expr, v int64) bool {
	return e.op == OpConst && e.kind == KindInt && e.val == v
}

func constvals(args []*Expr) []int64 {
	res := make([]int64, len(args))
	for k, a := range args {
		res[k] = a.val
	}
	return res
}

// simplifyJunction flattens a conjunction (or disjunction) of simplified
// operands, removes duplicates and neutral elements, and stops on an
// absorbing element.
func simplifyJunction(op Op, args []*Expr) *Expr {
	absorbing := op == OpOr
	var res []*Expr
	seen := make(map[string]struct{})
	for _, a := range split(mk(op, KindBool, args...), op) {
		if a.op == OpConst {
			if (a.val != 0) == absorbing {
				return BoolConst(absorbing)
			}
			continue
		}
		s := a.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		res = append(res, a)
	}
	if op == OpAnd {
		return And(res...)
	}
	return Or(res...)
}

func simplifySum(args []*Expr) *Expr {
	var res []*Expr
	var c int64
	for _, a := range split(mk(OpAdd, KindInt, args...), OpAdd) {
		if a.op == OpConst {
			c += a.val
			continue
		}
		res = append(res, a)
	}
	if c != 0 || len(res) == 0 {
		res = append(res, IntConst(c))
	}
	return Add(res...)
}
