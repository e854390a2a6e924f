// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

import (
	"fmt"
	"math"
)

// Kind is the sort of an expression: boolean or integer.
type Kind int

const (
	KindBool Kind = iota
	KindInt
)

func (k Kind) String() string {
	if k == KindBool {
		return "bool"
	}
	return "int"
}

// Type is the type of a variable: booleans, or integers in a closed interval.
// Booleans take the values 0 (false) and 1 (true).
type Type struct {
	kind   Kind
	lo, hi int64
}

// Bool returns the boolean type.
func Bool() Type {
	return Type{kind: KindBool, lo: 0, hi: 1}
}

// Int returns the type of integers in the interval [lo, hi]. The bounds are
// swapped if lo > hi.
func Int(lo, hi int64) Type {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Type{kind: KindInt, lo: lo, hi: hi}
}

// Kind returns the sort of the values of t.
func (t Type) Kind() Kind { return t.kind }

// IsBool reports whether t is the boolean type.
func (t Type) IsBool() bool { return t.kind == KindBool }

// Bounds returns the smallest and largest values of t.
func (t Type) Bounds() (int64, int64) { return t.lo, t.hi }

// Contains reports whether v is a value of t.
func (t Type) Contains(v int64) bool { return t.lo <= v && v <= t.hi }

// DomainSize returns the number of values of t, or 0 when it does not fit
// in an int32.
func (t Type) DomainSize() int {
	d := uint64(t.hi - t.lo)
	if t.hi-t.lo < 0 || d >= math.MaxInt32 {
		return 0
	}
	return int(d) + 1
}

// Values returns the values of t in increasing order. It returns nil for
// domains that are too large to be enumerated (see DomainSize).
func (t Type) Values() []int64 {
	n := t.DomainSize()
	if n == 0 {
		return nil
	}
	res := make([]int64, n)
	for k := range res {
		res[k] = t.lo + int64(k)
	}
	return res
}

func (t Type) String() string {
	if t.kind == KindBool {
		return "bool"
	}
	return fmt.Sprintf("int[%d..%d]", t.lo, t.hi)
}

// Var is a state variable of a transition system.
type Var struct {
	Name string
	Type Type
}

func (v Var) String() string {
	return v.Name
}

// Decl is an instance of a variable in a transition relation: Index 0 is the
// value in the current state and Index 1 the value in the next state. Decls
// are comparable and are used as variable identities in orderings.
type Decl struct {
	Var   Var
	Index int
}

// CurDecl returns the current-state instance of v.
func CurDecl(v Var) Decl { return Decl{Var: v} }

// NextDecl returns the next-state instance of v.
func NextDecl(v Var) Decl { return Decl{Var: v, Index: 1} }

// IsNext reports whether d is a next-state instance.
func (d Decl) IsNext() bool { return d.Index > 0 }

func (d Decl) String() string {
	if d.Index > 0 {
		return d.Var.Name + "'"
	}
	return d.Var.Name
}

// less orders declarations by name then by index.
func less(a, b Decl) bool {
	if a.Var.Name != b.Var.Name {
		return a.Var.Name < b.Var.Name
	}
	return a.Index < b.Index
}
