// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// Valuation assigns values to variable instances. Booleans are 0 or 1.
type Valuation map[Decl]int64

// Get returns the value of d, if any.
func (v Valuation) Get(d Decl) (int64, bool) {
	x, ok := v[d]
	return x, ok
}

// Decls returns the instances with a value, sorted by name and index.
func (v Valuation) Decls() []Decl {
	keys := maps.Keys(v)
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

// Project returns the values of the instances with the given index, as
// current-state instances.
func (v Valuation) Project(index int) Valuation {
	res := make(Valuation)
	for d, x := range v {
		if d.Index == index {
			res[CurDecl(d.Var)] = x
		}
	}
	return res
}

// Clone returns a copy of v.
func (v Valuation) Clone() Valuation {
	return maps.Clone(v)
}

// String prints the valuation as a list of assignments, sorted by name.
func (v Valuation) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for k, d := range v.Decls() {
		if k > 0 {
			sb.WriteString(", ")
		}
		x := v[d]
		if d.Var.Type.IsBool() {
			fmt.Fprintf(&sb, "%s=%t", d, x != 0)
			continue
		}
		fmt.Fprintf(&sb, "%s=%d", d, x)
	}
	sb.WriteString("}")
	return sb.String()
}
