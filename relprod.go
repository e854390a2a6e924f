// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Relations are diagrams over an interleaved order, where the state variable
// of level k is represented by the relation levels 2k (current value) and
// 2k+1 (next value).

// Relprod returns the image of the set of states s by relation r: the states
// y such that (x, y) is in r for some x in s. The root of r must be at twice
// the level of the root of s.
func (t *Table) Relprod(s, r Node) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(s) != nil {
		return t.seterror("wrong states in call to Relprod")
	}
	if t.checkptr(r) != nil {
		return t.seterror("wrong relation in call to Relprod")
	}
	t.maybegc()
	res := t.relprod(*s, *r)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

func (t *Table) relprod(s, r int) int {
	if s == 0 || r == 0 {
		return 0
	}
	if t.isidentity(r) {
		return s
	}
	if s == 1 || r == 1 {
		if s == r {
			return 1
		}
		t.seterror("states (%d) and relation (%d) do not have the same depth", s, r)
		return 0
	}
	if res := t.matchimage(s, r); res >= 0 {
		return res
	}
	acc := make(map[int64]int)
	for _, e := range t.nodes[s].edges {
		rc := t.child(r, e.value)
		if rc == 0 {
			continue
		}
		for _, f := range t.nodes[rc].edges {
			c := t.relprod(e.child, f.child)
			if c == 0 {
				continue
			}
			acc[f.value] = t.union(acc[f.value], c)
		}
	}
	return t.setimage(s, r, t.makenode(t.nodes[s].level, sortedacc(acc)))
}

// sortedacc returns the edges of an accumulator map, sorted by value.
func sortedacc(acc map[int64]int) []edge {
	keys := maps.Keys(acc)
	slices.Sort(keys)
	res := make([]edge, len(keys))
	for k, v := range keys {
		res[k] = edge{value: v, child: acc[v]}
	}
	return res
}

// ************************************************************

// isidentity returns true if r is known to be the identity relation over the
// whole domain of each of its levels.
func (t *Table) isidentity(r int) bool {
	_, ok := t.identities[r]
	return ok
}

// identitystep checks that r, a relation node at an even level, relates each
// value only to itself and that all the pairs (v, v) share the same child, that
// is returned. It returns -1 otherwise.
func (t *Table) identitystep(r int) int {
	if r < 2 {
		return -1
	}
	res := -1
	for _, e := range t.nodes[r].edges {
		inner := t.nodes[e.child].edges
		if len(inner) != 1 || inner[0].value != e.value {
			return -1
		}
		if res >= 0 && inner[0].child != res {
			return -1
		}
		res = inner[0].child
	}
	return res
}

// markidentity records that every node reached from r is the identity, after
// checking it structurally.
func (t *Table) markidentity(r int) bool {
	if r == 1 || t.isidentity(r) {
		return true
	}
	c := t.identitystep(r)
	if c < 0 || !t.markidentity(c) {
		return false
	}
	t.identities[r] = struct{}{}
	return true
}

// ************************************************************

// Swap returns the converse of relation r, obtained by exchanging the current
// and next levels of every variable.
func (t *Table) Swap(r Node) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(r) != nil {
		return t.seterror("wrong operand in call to Swap")
	}
	t.maybegc()
	res := t.swap(*r)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

func (t *Table) swap(r int) int {
	if r < 2 || t.isidentity(r) {
		return r
	}
	if res := t.matchswap(r); res >= 0 {
		return res
	}
	level := t.nodes[r].level
	if level%2 != 0 {
		t.seterror("swap on relation rooted at an odd level (%d)", level)
		return 0
	}
	// for each pair (v, w) we store the edge v -> swap(child) under w
	inner := make(map[int64][]edge)
	for _, e := range t.nodes[r].edges {
		for _, f := range t.nodes[e.child].edges {
			inner[f.value] = append(inner[f.value], edge{value: e.value, child: t.swap(f.child)})
		}
	}
	keys := maps.Keys(inner)
	slices.Sort(keys)
	buf := make([]edge, len(keys))
	for k, w := range keys {
		buf[k] = edge{value: w, child: t.makenode(level+1, inner[w])}
	}
	return t.setswap(r, t.makenode(level, buf))
}
