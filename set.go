// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

// UnionAll returns the union of a sequence of nodes. The union of an empty
// sequence is the empty set.
func (t *Table) UnionAll(n ...Node) Node {
	if len(n) == 1 {
		return n[0]
	}
	if len(n) == 0 {
		return mddzero
	}
	return t.Apply(n[0], t.UnionAll(n[1:]...), OPunion)
}

// IntersectAll returns the intersection of a non-empty sequence of nodes.
func (t *Table) IntersectAll(n ...Node) Node {
	if len(n) == 0 {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.seterror("empty sequence in call to IntersectAll")
	}
	if len(n) == 1 {
		return n[0]
	}
	return t.Apply(n[0], t.IntersectAll(n[1:]...), OPintersection)
}

// Contains returns true if the valuation values, starting at level 0, belongs
// to the set denoted by n.
func (t *Table) Contains(n Node, values []int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(n) != nil {
		return false
	}
	k := *n
	for _, v := range values {
		if k < 2 {
			return false
		}
		k = t.child(k, v)
	}
	return k == 1
}
