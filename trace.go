// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import "github.com/pkg/errors"

// TraceProvider builds a path of states from an initial state to a violating
// state, using the converse of the next-state relation.
type TraceProvider struct {
	t     *Table
	order *Order
}

// NewTraceProvider returns a trace provider for states over the given order.
func NewTraceProvider(t *Table, order *Order) *TraceProvider {
	return &TraceProvider{t: t, order: order}
}

// Compute returns a sequence of singleton sets s0, ..., sn such that s0 is
// included in initial, sn in violating, and each s(i+1) is a successor of s(i)
// by the forward direction of reversed. The sequence has a single element if
// a violating state is initial. Descriptor reversed is usually a union of
// *Reversed restricted to the reachable states. We return ErrTraceNotFound if
// the backward search cannot reach an initial state.
func (p *TraceProvider) Compute(violating Node, reversed Descriptor, initial Node) ([]Node, error) {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(violating) != nil || t.checkptr(initial) != nil {
		return nil, errors.Wrap(t.error, "trace")
	}
	if *violating == 0 {
		return nil, errors.Wrap(ErrTraceNotFound, "no violating state")
	}
	t.maybegc()
	target := t.singleton(t.pick(*violating))
	if w := t.intersect(target, *initial); w != 0 {
		return []Node{t.retnode(w)}, nil
	}
	// backward layers: layers[i] are the new states at distance i from target
	layers := []int{target}
	visited := target
	for {
		pre := t.diff(t.image(reversed, layers[len(layers)-1]), visited)
		if t.error != nil {
			return nil, errors.Wrap(t.error, "trace")
		}
		if pre == 0 {
			return nil, errors.Wrapf(ErrTraceNotFound, "after %d backward steps", len(layers))
		}
		if w := t.intersect(pre, *initial); w != 0 {
			layers = append(layers, w)
			break
		}
		visited = t.union(visited, pre)
		layers = append(layers, pre)
	}
	// we walk forward from an initial state, always picking a successor in the
	// next layer.
	cur := t.singleton(t.pick(layers[len(layers)-1]))
	path := []int{cur}
	for i := len(layers) - 2; i >= 0; i-- {
		next := t.intersect(t.post(reversed, cur), layers[i])
		if next == 0 {
			return nil, errors.Wrapf(ErrTraceNotFound, "no successor at step %d", len(path))
		}
		cur = t.singleton(t.pick(next))
		path = append(path, cur)
	}
	if t.error != nil {
		return nil, errors.Wrap(t.error, "trace")
	}
	res := make([]Node, len(path))
	for k, n := range path {
		res[k] = t.retnode(n)
	}
	return res, nil
}
