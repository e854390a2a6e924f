// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

import (
	"strconv"
	"strings"
)

// Op is the operator at the root of an expression.
type Op int

const (
	OpConst Op = iota
	OpRef
	OpNot
	OpAnd
	OpOr
	OpImply
	OpIff
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpNeg
	OpMul
	OpDiv
	OpMod
	OpIte
)

var opnames = [...]string{
	OpConst: "const",
	OpRef:   "ref",
	OpNot:   "!",
	OpAnd:   "&&",
	OpOr:    "||",
	OpImply: "=>",
	OpIff:   "<=>",
	OpEq:    "==",
	OpNeq:   "!=",
	OpLt:    "<",
	OpLe:    "<=",
	OpGt:    ">",
	OpGe:    ">=",
	OpAdd:   "+",
	OpSub:   "-",
	OpNeg:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
	OpIte:   "if",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opnames) {
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
	return opnames[op]
}

// Expr is an immutable expression over the current and next instances of
// state variables. Boolean subexpressions evaluate to 0 or 1.
type Expr struct {
	op   Op
	kind Kind
	val  int64
	decl Decl
	args []*Expr
}

// Op returns the operator at the root of e.
func (e *Expr) Op() Op { return e.op }

// Kind returns the sort of e.
func (e *Expr) Kind() Kind { return e.kind }

// IsBool reports whether e is a boolean expression.
func (e *Expr) IsBool() bool { return e.kind == KindBool }

// Value returns the value of a constant; booleans are 0 or 1.
func (e *Expr) Value() int64 { return e.val }

// Decl returns the variable instance of a reference.
func (e *Expr) Decl() Decl { return e.decl }

// Args returns the operands of e.
func (e *Expr) Args() []*Expr { return e.args }

// IsConst reports whether e is a constant.
func (e *Expr) IsConst() bool { return e.op == OpConst }

// IsTrue reports whether e is the constant true.
func (e *Expr) IsTrue() bool { return e.op == OpConst && e.kind == KindBool && e.val == 1 }

// IsFalse reports whether e is the constant false.
func (e *Expr) IsFalse() bool { return e.op == OpConst && e.kind == KindBool && e.val == 0 }

var (
	trueExpr  = &Expr{op: OpConst, kind: KindBool, val: 1}
	falseExpr = &Expr{op: OpConst, kind: KindBool, val: 0}
)

// True returns the boolean constant true.
func True() *Expr { return trueExpr }

// False returns the boolean constant false.
func False() *Expr { return falseExpr }

// BoolConst returns the boolean constant b.
func BoolConst(b bool) *Expr {
	if b {
		return trueExpr
	}
	return falseExpr
}

// IntConst returns the integer constant v.
func IntConst(v int64) *Expr {
	return &Expr{op: OpConst, kind: KindInt, val: v}
}

// Ref returns a reference to the variable instance d.
func Ref(d Decl) *Expr {
	return &Expr{op: OpRef, kind: d.Var.Type.Kind(), decl: d}
}

// Cur returns a reference to the current value of v.
func Cur(v Var) *Expr { return Ref(CurDecl(v)) }

// Next returns a reference to the next value of v.
func Next(v Var) *Expr { return Ref(NextDecl(v)) }

func mk(op Op, kind Kind, args ...*Expr) *Expr {
	return &Expr{op: op, kind: kind, args: args}
}

func Not(a *Expr) *Expr { return mk(OpNot, KindBool, a) }

// And returns the conjunction of its operands; the conjunction of zero
// operands is true.
func And(args ...*Expr) *Expr {
	switch len(args) {
	case 0:
		return trueExpr
	case 1:
		return args[0]
	}
	return mk(OpAnd, KindBool, args...)
}

// Or returns the disjunction of its operands; the disjunction of zero
// operands is false.
func Or(args ...*Expr) *Expr {
	switch len(args) {
	case 0:
		return falseExpr
	case 1:
		return args[0]
	}
	return mk(OpOr, KindBool, args...)
}

func Imply(a, b *Expr) *Expr { return mk(OpImply, KindBool, a, b) }
func Iff(a, b *Expr) *Expr   { return mk(OpIff, KindBool, a, b) }
func Eq(a, b *Expr) *Expr    { return mk(OpEq, KindBool, a, b) }
func Neq(a, b *Expr) *Expr   { return mk(OpNeq, KindBool, a, b) }
func Lt(a, b *Expr) *Expr    { return mk(OpLt, KindBool, a, b) }
func Le(a, b *Expr) *Expr    { return mk(OpLe, KindBool, a, b) }
func Gt(a, b *Expr) *Expr    { return mk(OpGt, KindBool, a, b) }
func Ge(a, b *Expr) *Expr    { return mk(OpGe, KindBool, a, b) }

// Add returns the sum of its operands; the empty sum is 0.
func Add(args ...*Expr) *Expr {
	switch len(args) {
	case 0:
		return IntConst(0)
	case 1:
		return args[0]
	}
	return mk(OpAdd, KindInt, args...)
}

func Sub(a, b *Expr) *Expr { return mk(OpSub, KindInt, a, b) }
func Neg(a *Expr) *Expr    { return mk(OpNeg, KindInt, a) }
func Mul(a, b *Expr) *Expr { return mk(OpMul, KindInt, a, b) }

// Div is the Euclidean quotient of a by b.
func Div(a, b *Expr) *Expr { return mk(OpDiv, KindInt, a, b) }

// Mod is the Euclidean remainder of a by b, always non-negative.
func Mod(a, b *Expr) *Expr { return mk(OpMod, KindInt, a, b) }

// Ite returns "if c then a else b"; its sort is the sort of a.
func Ite(c, a, b *Expr) *Expr { return mk(OpIte, a.kind, c, a, b) }

// String returns a canonical textual form of e, that can be read back with
// Parse. Two expressions with the same string are structurally equal.
func (e *Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expr) write(sb *strings.Builder) {
	switch e.op {
	case OpConst:
		if e.kind == KindBool {
			if e.val != 0 {
				sb.WriteString("true")
			} else {
				sb.WriteString("false")
			}
			return
		}
		sb.WriteString(strconv.FormatInt(e.val, 10))
	case OpRef:
		sb.WriteString(e.decl.String())
	case OpNot, OpNeg:
		sb.WriteString(e.op.String())
		if e.args[0].op == OpConst && e.args[0].val < 0 {
			// avoid "--3", that would read as a single token in some syntaxes
			sb.WriteString("(")
			e.args[0].write(sb)
			sb.WriteString(")")
			return
		}
		e.args[0].write(sb)
	case OpIte:
		sb.WriteString("(if ")
		e.args[0].write(sb)
		sb.WriteString(" then ")
		e.args[1].write(sb)
		sb.WriteString(" else ")
		e.args[2].write(sb)
		sb.WriteString(")")
	default:
		sb.WriteString("(")
		for k, a := range e.args {
			if k > 0 {
				sb.WriteString(" ")
				sb.WriteString(e.op.String())
				sb.WriteString(" ")
			}
			a.write(sb)
		}
		sb.WriteString(")")
	}
}
