// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// satProvider computes the reachable states by saturation: nodes are saturated
// bottom-up, and a node at level k is saturated when its children are
// saturated and it is a fixed point of every event whose top level is k.
//
// States in the target of an on-the-fly descriptor are never expanded. The
// target is followed down the recursion together with the states, so that we
// always know which part of the target is below the current node.
type satProvider struct {
	t           *Table
	order       *Order
	generalized bool
	events      [][]*Leaf      // events, by top level, in firing order; GSAT sorts them by decreasing bottom level, ties in registration order
	satmemo     map[[2]int]int // (states, target) -> saturated states
	firememo    map[[4]int]int // (states, source target, result target, relation) -> saturated image
	stats       ProviderStats
}

func (p *satProvider) Stats() ProviderStats {
	return p.stats
}

func (p *satProvider) Compute(initial Node, d Descriptor) (Node, error) {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(initial) != nil {
		return nil, errors.Wrap(t.error, "saturation")
	}
	t.maybegc()
	leaves, target, err := t.flatten(d)
	if err != nil {
		return nil, err
	}
	p.stats = ProviderStats{}
	p.satmemo = make(map[[2]int]int)
	p.firememo = make(map[[4]int]int)
	p.events = make([][]*Leaf, p.order.Len())
	for _, l := range leaves {
		if *l.sub == 0 || l.top >= len(p.events) {
			continue
		}
		p.events[l.top] = append(p.events[l.top], l)
	}
	if p.generalized {
		for _, evs := range p.events {
			slices.SortStableFunc(evs, func(a, b *Leaf) bool { return a.bottom > b.bottom })
		}
	}
	res := p.saturate(*initial, target)
	p.stats.CacheSize = len(p.satmemo) + len(p.firememo)
	p.satmemo = nil
	p.firememo = nil
	if t.error != nil {
		return nil, errors.Wrap(t.error, "saturation")
	}
	return t.retnode(res), nil
}

// constraint returns the part of target f below value v.
func (p *satProvider) constraint(f int, v int64) int {
	if f < 2 {
		return f
	}
	return p.t.child(f, v)
}

func (p *satProvider) saturate(s, f int) int {
	if s < 2 {
		return s
	}
	key := [2]int{s, f}
	p.stats.Queries++
	if res, ok := p.satmemo[key]; ok {
		p.stats.Hits++
		return res
	}
	t := p.t
	level := t.nodes[s].level
	edges := t.nodes[s].edges
	buf := make([]edge, len(edges))
	for k, e := range edges {
		buf[k] = edge{value: e.value, child: p.saturate(e.child, p.constraint(f, e.value))}
	}
	res := p.fire(t.makenode(level, buf), f, int(level))
	p.satmemo[key] = res
	p.satmemo[[2]int{res, f}] = res
	return res
}

// fire applies the events of level k on s until reaching a fixed point.
func (p *satProvider) fire(s, f, k int) int {
	t := p.t
	evs := p.events[k]
	if len(evs) == 0 {
		return s
	}
	p.stats.Iterations++
	if !p.generalized {
		for {
			acc := s
			for _, e := range evs {
				acc = t.union(acc, p.step(s, f, *e.sub))
			}
			if acc == s || t.error != nil {
				return acc
			}
			s = acc
		}
	}
	for i := 0; i < len(evs) && t.error == nil; {
		next := t.union(s, p.step(s, f, *evs[i].sub))
		if next != s {
			// restart from the deepest event
			s = next
			i = 0
			continue
		}
		i++
	}
	return s
}

// step returns the image of s outside target f by the relation r of an event
// whose top level is the level of s. Children of the result are saturated but
// not the result itself, that is handled by the firing loop.
func (p *satProvider) step(s, f, r int) int {
	t := p.t
	if s < 2 || r == 0 {
		return 0
	}
	p.stats.Firings++
	if t.isidentity(r) {
		return t.diff(s, f)
	}
	return t.makenode(t.nodes[s].level, sortedacc(p.product(s, f, f, r)))
}

// relprod returns the saturated image of the states of s outside target fs by
// relation r, where ft is the target below the image.
func (p *satProvider) relprod(s, fs, ft, r int) int {
	t := p.t
	if s == 0 || r == 0 {
		return 0
	}
	if s == 1 {
		if fs == 1 {
			return 0
		}
		return 1
	}
	if t.isidentity(r) {
		return p.saturate(t.diff(s, fs), ft)
	}
	key := [4]int{s, fs, ft, r}
	p.stats.Queries++
	if res, ok := p.firememo[key]; ok {
		p.stats.Hits++
		return res
	}
	res := p.saturate(t.makenode(t.nodes[s].level, sortedacc(p.product(s, fs, ft, r))), ft)
	p.firememo[key] = res
	return res
}

// product accumulates, for each next value, the saturated images of the
// children of s.
func (p *satProvider) product(s, fs, ft, r int) map[int64]int {
	t := p.t
	acc := make(map[int64]int)
	for _, e := range t.nodes[s].edges {
		rc := t.child(r, e.value)
		if rc == 0 {
			continue
		}
		fsv := p.constraint(fs, e.value)
		for _, g := range t.nodes[rc].edges {
			c := p.relprod(e.child, fsv, p.constraint(ft, g.value), g.child)
			if c != 0 {
				acc[g.value] = t.union(acc[g.value], c)
			}
		}
	}
	return acc
}
