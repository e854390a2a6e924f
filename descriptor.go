// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"math/big"

	"github.com/pkg/errors"
)

// Descriptor is a symbolic next-state relation, that maps a set of states to
// the set of its successors. The set of variants is closed: *Leaf, *Union,
// *OnTheFly and *Reversed.
type Descriptor interface {
	descriptor()
}

// Leaf is a next-state relation given by a diagram over the interleaved
// transition order. Top and bottom are the first and last state levels on
// which the relation is not the identity.
type Leaf struct {
	rel    Node // the relation, rooted at level 0
	sub    Node // the relation below top, rooted at level 2*top
	top    int
	bottom int
}

// Union is the union of several relations, in registration order.
type Union struct {
	members []Descriptor
}

// Pruning selects how an on-the-fly descriptor uses its target.
type Pruning int

const (
	// PruneTarget stops the exploration at target states: their successors are
	// never computed.
	PruneTarget Pruning = iota
	// RestrictTo only keeps the successors that are in the target.
	RestrictTo
)

// OnTheFly is a relation whose successors are pruned against a target set
// during the exploration.
type OnTheFly struct {
	base   Descriptor
	target Node
	mode   Pruning
}

// Reversed is the converse of a materialized relation, restricted to a state
// space. It is used for backward searches.
type Reversed struct {
	rel   *Explicit
	space Node
}

// Explicit is a relation extracted from a leaf descriptor and stored in both
// directions.
type Explicit struct {
	forward  Node
	backward Node
	size     *big.Int
}

func (*Leaf) descriptor()     {}
func (*Union) descriptor()    {}
func (*OnTheFly) descriptor() {}
func (*Reversed) descriptor() {}

// Top returns the first state level modified by the relation.
func (l *Leaf) Top() int { return l.top }

// Bottom returns the last state level modified by the relation.
func (l *Leaf) Bottom() int { return l.bottom }

// Relation returns the diagram of the relation.
func (l *Leaf) Relation() Node { return l.rel }

// Members returns the descriptors of the union.
func (u *Union) Members() []Descriptor { return append([]Descriptor(nil), u.members...) }

// Size returns the number of pairs in the relation.
func (x *Explicit) Size() *big.Int { return new(big.Int).Set(x.size) }

// Forward returns the diagram of the relation.
func (x *Explicit) Forward() Node { return x.forward }

// Backward returns the diagram of the converse relation.
func (x *Explicit) Backward() Node { return x.backward }

// NewLeaf returns a descriptor for relation rel, whose state levels outside
// [top, bottom] are unchanged. Levels above top must be structurally the
// identity, otherwise we return ErrNotLocal. Levels below bottom are assumed to
// be the identity over the whole domain of their variables and are skipped
// during image computations; this holds when bottom is computed from the
// variables the relation reads or writes.
func (t *Table) NewLeaf(rel Node, top, bottom int) (*Leaf, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(rel) != nil {
		return nil, errors.Wrap(t.error, "new leaf")
	}
	if top < 0 || bottom < top {
		return nil, errors.Errorf("bad locality [%d, %d]", top, bottom)
	}
	r := *rel
	if r > 1 && t.nodes[r].level != 0 {
		return nil, errors.Errorf("relation rooted at level %d instead of 0", t.nodes[r].level)
	}
	sub := r
	for k := 0; k < top && sub > 1; k++ {
		sub = t.identitystep(sub)
		if sub < 0 {
			return nil, errors.Wrapf(ErrNotLocal, "level %d above top %d", k, top)
		}
	}
	// we mark the identity nodes found below bottom.
	frontier := map[int]struct{}{sub: {}}
	for k := top; k <= bottom && len(frontier) > 0; k++ {
		next := make(map[int]struct{})
		for n := range frontier {
			if n < 2 {
				continue
			}
			for _, e := range t.nodes[n].edges {
				for _, f := range t.nodes[e.child].edges {
					next[f.child] = struct{}{}
				}
			}
		}
		frontier = next
	}
	for n := range frontier {
		t.markidentity(n)
	}
	return &Leaf{rel: t.retnode(r), sub: t.retnode(sub), top: top, bottom: bottom}, nil
}

// NewUnion returns the union of the given descriptors.
func NewUnion(members ...Descriptor) *Union {
	return &Union{members: append([]Descriptor(nil), members...)}
}

// NewOnTheFly returns a descriptor pruning the successors of base against
// target, following mode.
func NewOnTheFly(base Descriptor, target Node, mode Pruning) *OnTheFly {
	return &OnTheFly{base: base, target: target, mode: mode}
}

// NewReversed returns the converse of rel restricted to the states in space.
func NewReversed(space Node, rel *Explicit) *Reversed {
	return &Reversed{rel: rel, space: space}
}

// Extract materializes the relation of a leaf in both directions.
func (t *Table) Extract(l *Leaf) *Explicit {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maybegc()
	back := t.swap(*l.rel)
	return &Explicit{
		forward:  l.rel,
		backward: t.retnode(back),
		size:     t.count(*l.rel, make(map[int]*big.Int)),
	}
}

// ************************************************************

// Image returns the successors of the states in s by descriptor d.
func (t *Table) Image(d Descriptor, s Node) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(s) != nil {
		return t.seterror("wrong operand in call to Image")
	}
	t.maybegc()
	res := t.image(d, *s)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

func (t *Table) image(d Descriptor, s int) int {
	switch d := d.(type) {
	case *Leaf:
		return t.relprod(s, *d.rel)
	case *Union:
		res := 0
		for _, m := range d.members {
			res = t.union(res, t.image(m, s))
		}
		return res
	case *OnTheFly:
		if d.mode == RestrictTo {
			return t.intersect(t.image(d.base, s), *d.target)
		}
		return t.image(d.base, t.diff(s, *d.target))
	case *Reversed:
		return t.intersect(t.relprod(s, *d.rel.backward), *d.space)
	}
	t.seterror("unknown descriptor %T", d)
	return 0
}

// PostImage returns the successors of s by the forward direction of d. For a
// reversed descriptor, this is the image by the original relation.
func (t *Table) PostImage(d Descriptor, s Node) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(s) != nil {
		return t.seterror("wrong operand in call to PostImage")
	}
	t.maybegc()
	res := t.post(d, *s)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

func (t *Table) post(d Descriptor, s int) int {
	switch d := d.(type) {
	case *Reversed:
		return t.relprod(s, *d.rel.forward)
	case *Union:
		res := 0
		for _, m := range d.members {
			res = t.union(res, t.post(m, s))
		}
		return res
	case *OnTheFly:
		return t.post(d.base, s)
	}
	return t.image(d, s)
}

// flatten decomposes d into a list of events, in registration order, and the
// set of states that must not be expanded (0 if none).
func (t *Table) flatten(d Descriptor) ([]*Leaf, int, error) {
	switch d := d.(type) {
	case *Leaf:
		return []*Leaf{d}, 0, nil
	case *Union:
		// every member must be pruned against the same target
		var res []*Leaf
		target := 0
		for k, m := range d.members {
			leaves, tg, err := t.flatten(m)
			if err != nil {
				return nil, 0, err
			}
			if k > 0 && tg != target {
				return nil, 0, errors.Wrap(ErrUnsupported, "union of descriptors with different pruning")
			}
			target = tg
			res = append(res, leaves...)
		}
		return res, target, nil
	case *OnTheFly:
		if d.mode != PruneTarget {
			return nil, 0, errors.Wrap(ErrUnsupported, "on-the-fly restriction")
		}
		leaves, tg, err := t.flatten(d.base)
		if err != nil {
			return nil, 0, err
		}
		if tg != 0 {
			tg = t.union(tg, *d.target)
		} else {
			tg = *d.target
		}
		return leaves, tg, nil
	case *Reversed:
		return nil, 0, errors.Wrap(ErrUnsupported, "reversed relation")
	}
	return nil, 0, errors.Errorf("unknown descriptor %T", d)
}
