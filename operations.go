// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"math/big"

	"golang.org/x/exp/slices"
)

func sortedges(edges []edge) {
	slices.SortFunc(edges, func(a, b edge) bool { return a.value < b.value })
}

// Apply performs the basic set operations with two operands. Left and right
// are the operand and op is the requested operation and must be one of the
// following:
//
//	Identifier       Description
//
//	OPunion          set union
//	OPintersection   set intersection
//	OPdiff           set difference (left minus right)
//
// Both operands must be rooted at the same level, or be terminals.
func (t *Table) Apply(left Node, right Node, op Operator) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(left) != nil {
		return t.seterror("wrong left operand in call to Apply %s", op)
	}
	if t.checkptr(right) != nil {
		return t.seterror("wrong right operand in call to Apply %s", op)
	}
	t.maybegc()
	res := t.apply(*left, *right, op)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

func (t *Table) apply(left, right int, op Operator) int {
	switch op {
	case OPunion:
		return t.union(left, right)
	case OPintersection:
		return t.intersect(left, right)
	case OPdiff:
		return t.diff(left, right)
	}
	t.seterror("unauthorized operation (%s) in apply", op)
	return 0
}

// Union returns the union of the sets denoted by a and b.
func (t *Table) Union(a, b Node) Node {
	return t.Apply(a, b, OPunion)
}

// Intersect returns the intersection of the sets denoted by a and b.
func (t *Table) Intersect(a, b Node) Node {
	return t.Apply(a, b, OPintersection)
}

// Diff returns the elements of a that are not in b.
func (t *Table) Diff(a, b Node) Node {
	return t.Apply(a, b, OPdiff)
}

func (t *Table) mismatch(left, right int, op Operator) int {
	t.seterror("operands of %s are not rooted at the same level (%d[%d], %d[%d])",
		op, left, t.nodes[left].level, right, t.nodes[right].level)
	return 0
}

func (t *Table) union(a, b int) int {
	switch {
	case a == b || b == 0:
		return a
	case a == 0:
		return b
	case a == 1 || b == 1:
		return t.mismatch(a, b, OPunion)
	}
	if a > b {
		a, b = b, a
	}
	if res := t.matchapply(a, b, OPunion); res >= 0 {
		return res
	}
	if t.nodes[a].level != t.nodes[b].level {
		return t.mismatch(a, b, OPunion)
	}
	level := t.nodes[a].level
	ea, eb := t.nodes[a].edges, t.nodes[b].edges
	buf := make([]edge, 0, len(ea)+len(eb))
	i, j := 0, 0
	for i < len(ea) || j < len(eb) {
		switch {
		case j == len(eb) || (i < len(ea) && ea[i].value < eb[j].value):
			buf = append(buf, ea[i])
			i++
		case i == len(ea) || eb[j].value < ea[i].value:
			buf = append(buf, eb[j])
			j++
		default:
			buf = append(buf, edge{value: ea[i].value, child: t.union(ea[i].child, eb[j].child)})
			i++
			j++
		}
	}
	return t.setapply(a, b, OPunion, t.makenode(level, buf))
}

func (t *Table) intersect(a, b int) int {
	switch {
	case a == b:
		return a
	case a == 0 || b == 0:
		return 0
	case a == 1 || b == 1:
		return t.mismatch(a, b, OPintersection)
	}
	if a > b {
		a, b = b, a
	}
	if res := t.matchapply(a, b, OPintersection); res >= 0 {
		return res
	}
	if t.nodes[a].level != t.nodes[b].level {
		return t.mismatch(a, b, OPintersection)
	}
	level := t.nodes[a].level
	ea, eb := t.nodes[a].edges, t.nodes[b].edges
	buf := make([]edge, 0, len(ea))
	i, j := 0, 0
	for i < len(ea) && j < len(eb) {
		switch {
		case ea[i].value < eb[j].value:
			i++
		case eb[j].value < ea[i].value:
			j++
		default:
			buf = append(buf, edge{value: ea[i].value, child: t.intersect(ea[i].child, eb[j].child)})
			i++
			j++
		}
	}
	return t.setapply(a, b, OPintersection, t.makenode(level, buf))
}

func (t *Table) diff(a, b int) int {
	switch {
	case a == b || a == 0:
		return 0
	case b == 0:
		return a
	case a == 1 || b == 1:
		return t.mismatch(a, b, OPdiff)
	}
	if res := t.matchapply(a, b, OPdiff); res >= 0 {
		return res
	}
	if t.nodes[a].level != t.nodes[b].level {
		return t.mismatch(a, b, OPdiff)
	}
	level := t.nodes[a].level
	ea := t.nodes[a].edges
	buf := make([]edge, 0, len(ea))
	for _, e := range ea {
		if c := t.child(b, e.value); c != 0 {
			buf = append(buf, edge{value: e.value, child: t.diff(e.child, c)})
			continue
		}
		buf = append(buf, e)
	}
	return t.setapply(a, b, OPdiff, t.makenode(level, buf))
}

// ************************************************************

// Count returns the number of paths from n to the accepting terminal, that is
// the number of elements in the set denoted by n.
func (t *Table) Count(n Node) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(n) != nil {
		return big.NewInt(0)
	}
	return t.count(*n, make(map[int]*big.Int))
}

func (t *Table) count(n int, memo map[int]*big.Int) *big.Int {
	if n < 2 {
		return big.NewInt(int64(n))
	}
	if res, ok := memo[n]; ok {
		return res
	}
	res := big.NewInt(0)
	for _, e := range t.nodes[n].edges {
		res.Add(res, t.count(e.child, memo))
	}
	memo[n] = res
	return res
}

// Size returns the number of distinct non-terminal nodes reachable from n.
func (t *Table) Size(n Node) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(n) != nil {
		return 0
	}
	seen := make(map[int]struct{})
	var visit func(int)
	visit = func(k int) {
		if k < 2 {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		for _, e := range t.nodes[k].edges {
			visit(e.child)
		}
	}
	visit(*n)
	return len(seen)
}

// depth returns the number of levels between n and the terminals.
func (t *Table) depth(n int) int {
	d := 0
	for n > 1 {
		n = t.nodes[n].edges[0].child
		d++
	}
	return d
}

// Allsat iterates through all the elements of the set denoted by n and calls
// function f on each of them. The slice passed to f gives the value of each
// level, starting from the level of n, and is reused between calls. We stop
// the computation as soon as f returns an error, that is then returned by
// Allsat.
func (t *Table) Allsat(n Node, f func([]int64) error) error {
	t.mu.Lock()
	if t.checkptr(n) != nil {
		t.mu.Unlock()
		return t.error
	}
	// We copy the sub-diagram of n first, so that f can call the table.
	root := *n
	edges := make(map[int][]edge)
	var collect func(k int)
	collect = func(k int) {
		if k < 2 {
			return
		}
		if _, ok := edges[k]; ok {
			return
		}
		edges[k] = t.nodes[k].edges
		for _, e := range t.nodes[k].edges {
			collect(e.child)
		}
	}
	collect(root)
	values := make([]int64, t.depth(root))
	t.mu.Unlock()

	var walk func(k, i int) error
	walk = func(k, i int) error {
		switch k {
		case 0:
			return nil
		case 1:
			return f(values)
		}
		for _, e := range edges[k] {
			values[i] = e.value
			if err := walk(e.child, i+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, 0)
}

// Pick returns one element of the set denoted by n, the one with the smallest
// value at every level, or nil if the set is empty.
func (t *Table) Pick(n Node) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(n) != nil || *n == 0 {
		return nil
	}
	return t.pick(*n)
}

func (t *Table) pick(n int) []int64 {
	res := []int64{}
	for n > 1 {
		e := t.nodes[n].edges[0]
		res = append(res, e.value)
		n = e.child
	}
	return res
}

// Singleton returns the set containing only the valuation values, starting at
// level 0.
func (t *Table) Singleton(values []int64) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybegc()
	res := t.singleton(values)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

func (t *Table) singleton(values []int64) int {
	res := 1
	for k := len(values) - 1; k >= 0; k-- {
		res = t.makenode(int32(k), []edge{{value: values[k], child: res}})
	}
	return res
}
