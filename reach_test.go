// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identity returns the identity relation on state levels [k, n) where every
// variable has domain [0, dom).
func identity(t *Table, k, n int, dom int64) Node {
	res := t.True()
	for l := n - 1; l >= k; l-- {
		edges := make([]Edge, dom)
		for v := int64(0); v < dom; v++ {
			edges[v] = Edge{Value: v, Child: t.MakeNode(2*l+1, []Edge{{Value: v, Child: res}})}
		}
		res = t.MakeNode(2*l, edges)
	}
	return res
}

// trie returns the set of vectors vecs, rooted at the given level, with leaf
// below the last value of each vector.
func trie(t *Table, level int, vecs [][]int64, leaf Node) Node {
	if len(vecs) == 0 {
		return t.False()
	}
	if len(vecs[0]) == 0 {
		return leaf
	}
	groups := make(map[int64][][]int64)
	var keys []int64
	for _, v := range vecs {
		if _, ok := groups[v[0]]; !ok {
			keys = append(keys, v[0])
		}
		groups[v[0]] = append(groups[v[0]], v[1:])
	}
	edges := make([]Edge, len(keys))
	for k, v := range keys {
		edges[k] = Edge{Value: v, Child: trie(t, level+1, groups[v], leaf)}
	}
	return t.MakeNode(level, edges)
}

// relation returns the diagram relating every valuation of the state levels
// [top, bottom] to the valuations given by succ, with all other levels
// unchanged. There are n state variables, all with domain [0, dom).
func relation(t *Table, n int, dom int64, top, bottom int, succ func([]int64) [][]int64) Node {
	width := bottom - top + 1
	var pairs [][]int64
	cur := make([]int64, width)
	var enum func(i int)
	enum = func(i int) {
		if i == width {
			for _, next := range succ(cur) {
				p := make([]int64, 0, 2*width)
				for k := range cur {
					p = append(p, cur[k], next[k])
				}
				pairs = append(pairs, p)
			}
			return
		}
		for v := int64(0); v < dom; v++ {
			cur[i] = v
			enum(i + 1)
		}
	}
	enum(0)
	res := trie(t, 2*top, pairs, identity(t, bottom+1, n, dom))
	for l := top - 1; l >= 0; l-- {
		edges := make([]Edge, dom)
		for v := int64(0); v < dom; v++ {
			edges[v] = Edge{Value: v, Child: t.MakeNode(2*l+1, []Edge{{Value: v, Child: res}})}
		}
		res = t.MakeNode(2*l, edges)
	}
	return res
}

func leaf(tb testing.TB, t *Table, n int, dom int64, top, bottom int, succ func([]int64) [][]int64) *Leaf {
	l, err := t.NewLeaf(relation(t, n, dom, top, bottom, succ), top, bottom)
	require.NoError(tb, err)
	return l
}

// counter increments a variable while it stays below max.
func counter(max int64) func([]int64) [][]int64 {
	return func(v []int64) [][]int64 {
		if v[0]+1 < max {
			return [][]int64{{v[0] + 1}}
		}
		return nil
	}
}

func makeorder(tb testing.TB, n int, dom int) *Order {
	order := NewOrder()
	for k := n - 1; k >= 0; k-- {
		require.NoError(tb, order.CreateOnTop(fmt.Sprintf("x%d", k), dom))
	}
	return order
}

var strategies = []Strategy{BFS, SAT, GSAT}

func TestLattice(t *testing.T) {
	table, _ := New(Nodesize(1000), Cachesize(500))
	n, dom := 3, int64(4)
	order := makeorder(t, n, int(dom))
	var events []Descriptor
	for k := 0; k < n; k++ {
		events = append(events, leaf(t, table, n, dom, k, k, counter(dom)))
	}
	d := NewUnion(events...)
	initial := table.Singleton([]int64{0, 0, 0})
	var results []Node
	for _, s := range strategies {
		p, err := NewProvider(table, order, s)
		require.NoError(t, err)
		reach, err := p.Compute(initial, d)
		require.NoError(t, err, s.String())
		assert.Equal(t, "64", table.Count(reach).String(), s.String())
		assert.Greater(t, p.Stats().Iterations, 0, s.String())
		results = append(results, reach)
	}
	assert.True(t, table.Equal(results[0], results[1]))
	assert.True(t, table.Equal(results[0], results[2]))
	assert.True(t, table.Equal(results[0], cube(table, n, dom)))
}

func TestOnTheFly(t *testing.T) {
	table, _ := New()
	order := makeorder(t, 1, 8)
	inc := leaf(t, table, 1, 8, 0, 0, counter(8))
	initial := table.Singleton([]int64{0})
	target := table.UnionAll(table.Singleton([]int64{3}), table.Singleton([]int64{6}))

	for _, s := range strategies {
		p, _ := NewProvider(table, order, s)
		reach, err := p.Compute(initial, NewOnTheFly(inc, target, PruneTarget))
		require.NoError(t, err)
		assert.Equal(t, "4", table.Count(reach).String(), s.String())
		assert.True(t, table.Contains(reach, []int64{3}))
		assert.False(t, table.Contains(reach, []int64{4}))
	}

	// restricting successors is only available with BFS
	lower := table.UnionAll(table.Singleton([]int64{1}), table.Singleton([]int64{2}))
	p, _ := NewProvider(table, order, BFS)
	reach, err := p.Compute(initial, NewOnTheFly(inc, lower, RestrictTo))
	require.NoError(t, err)
	assert.Equal(t, "3", table.Count(reach).String())
	p, _ = NewProvider(table, order, SAT)
	_, err = p.Compute(initial, NewOnTheFly(inc, lower, RestrictTo))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestUnionLaws(t *testing.T) {
	table, _ := New()
	n, dom := 2, int64(3)
	a := leaf(t, table, n, dom, 0, 0, counter(dom))
	b := leaf(t, table, n, dom, 1, 1, counter(dom))
	c := leaf(t, table, n, dom, 0, 1, func(v []int64) [][]int64 { return [][]int64{{v[1], v[0]}} })
	s := table.UnionAll(table.Singleton([]int64{0, 1}), table.Singleton([]int64{2, 0}))
	ab := table.Image(NewUnion(a, b), s)
	assert.True(t, table.Equal(ab, table.Image(NewUnion(b, a), s)))
	assert.True(t, table.Equal(ab, table.Union(table.Image(a, s), table.Image(b, s))))
	assert.True(t, table.Equal(
		table.Image(NewUnion(NewUnion(a, b), c), s),
		table.Image(NewUnion(a, NewUnion(b, c)), s)))
	assert.True(t, table.Contains(table.Image(c, s), []int64{1, 0}))
	assert.False(t, table.Errored(), table.Error())
}

func TestUnionPruning(t *testing.T) {
	table, _ := New()
	order := makeorder(t, 1, 4)
	inc := leaf(t, table, 1, 4, 0, 0, counter(4))
	one := table.Singleton([]int64{1})
	two := table.Singleton([]int64{2})
	p, _ := NewProvider(table, order, GSAT)
	_, err := p.Compute(one, NewUnion(NewOnTheFly(inc, one, PruneTarget), NewOnTheFly(inc, two, PruneTarget)))
	assert.ErrorIs(t, err, ErrUnsupported)
	reach, err := p.Compute(table.Singleton([]int64{0}), NewUnion(NewOnTheFly(inc, two, PruneTarget), NewOnTheFly(inc, two, PruneTarget)))
	require.NoError(t, err)
	assert.Equal(t, "3", table.Count(reach).String())
}

func TestNotLocal(t *testing.T) {
	table, _ := New()
	rel := relation(table, 2, 2, 0, 1, func(v []int64) [][]int64 { return [][]int64{{1 - v[0], v[1]}} })
	_, err := table.NewLeaf(rel, 1, 1)
	assert.ErrorIs(t, err, ErrNotLocal)
	l, err := table.NewLeaf(rel, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Top())
	assert.Equal(t, 1, l.Bottom())
}

func TestSwap(t *testing.T) {
	table, _ := New()
	n, dom := 2, int64(3)
	l := leaf(t, table, n, dom, 0, 1, func(v []int64) [][]int64 {
		return [][]int64{{(v[0] + 1) % dom, v[1]}, {v[0], (v[1] + 2) % dom}}
	})
	back := table.Swap(l.Relation())
	assert.True(t, table.Equal(l.Relation(), table.Swap(back)))
	s := table.Singleton([]int64{1, 1})
	post := table.Relprod(s, l.Relation())
	assert.Equal(t, "2", table.Count(post).String())
	assert.True(t, table.Contains(table.Relprod(post, back), []int64{1, 1}))
	x := table.Extract(l)
	assert.Equal(t, "18", x.Size().String())
	assert.True(t, table.Equal(x.Backward(), back))
}

func TestTrace(t *testing.T) {
	table, _ := New()
	order := makeorder(t, 2, 4)
	a := leaf(t, table, 2, 4, 0, 0, counter(4))
	b := leaf(t, table, 2, 4, 1, 1, counter(4))
	initial := table.Singleton([]int64{0, 0})
	p, _ := NewProvider(table, order, GSAT)
	reach, err := p.Compute(initial, NewUnion(a, b))
	require.NoError(t, err)
	reversed := NewUnion(NewReversed(reach, table.Extract(a)), NewReversed(reach, table.Extract(b)))

	tp := NewTraceProvider(table, order)
	bad := table.Singleton([]int64{2, 3})
	trace, err := tp.Compute(bad, reversed, initial)
	require.NoError(t, err)
	require.Len(t, trace, 6)
	assert.True(t, table.Equal(trace[0], initial))
	assert.True(t, table.Equal(trace[5], bad))
	for k := 1; k < len(trace); k++ {
		assert.Equal(t, "1", table.Count(trace[k]).String())
		succ := table.Image(NewUnion(a, b), trace[k-1])
		assert.True(t, table.Equal(table.Intersect(succ, trace[k]), trace[k]), "step %d", k)
	}

	// an initial violating state gives a single step
	trace, err = tp.Compute(initial, reversed, initial)
	require.NoError(t, err)
	assert.Len(t, trace, 1)

	// a state that is not reachable backward
	_, err = tp.Compute(bad, NewReversed(reach, table.Extract(a)), initial)
	assert.ErrorIs(t, err, ErrTraceNotFound)
}

func TestStrategy(t *testing.T) {
	for _, s := range strategies {
		p, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, p)
	}
	s, err := ParseStrategy("gsat")
	require.NoError(t, err)
	assert.Equal(t, GSAT, s)
	_, err = ParseStrategy("dfs")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	_, err = NewProvider(nil, nil, Strategy(7))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
	assert.Equal(t, GSAT, DefaultStrategy)
}

func TestOrder(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.CreateOnTop("y", 2))
	require.NoError(t, order.CreateOnTop("x", 0))
	assert.Error(t, order.CreateOnTop("y", 3))
	assert.Error(t, order.CreateOnTop("z", -1))
	assert.Equal(t, 2, order.Len())
	k, ok := order.Position("y")
	assert.True(t, ok)
	assert.Equal(t, 1, k)
	assert.Equal(t, "x", order.At(0).ID)
	assert.Equal(t, "[0:x, 1:y(2)]", order.String())
}

func TestGeneralizedOrder(t *testing.T) {
	n, dom := 2, int64(2)
	order := makeorder(t, n, int(dom))
	// shallow sets the first variable, deep sets the second one while the
	// first is still 0, and late only rewrites a state that is already there
	events := func(table *Table) (*Leaf, *Leaf, *Leaf) {
		shallow := leaf(t, table, n, dom, 0, 0, counter(dom))
		deep := leaf(t, table, n, dom, 0, 1, func(v []int64) [][]int64 {
			if v[0] == 0 && v[1] == 0 {
				return [][]int64{{0, 1}}
			}
			return nil
		})
		late := leaf(t, table, n, dom, 0, 1, func(v []int64) [][]int64 {
			if v[0] == 1 && v[1] == 1 {
				return [][]int64{{1, 0}}
			}
			return nil
		})
		return shallow, deep, late
	}

	tests := []struct {
		strategy Strategy
		order    func(s, d, l *Leaf) []*Leaf
		firings  int
	}{
		{SAT, func(s, d, l *Leaf) []*Leaf { return []*Leaf{s, d, l} }, 6},
		{GSAT, func(s, d, l *Leaf) []*Leaf { return []*Leaf{d, l, s} }, 5},
	}
	for _, tt := range tests {
		// events at the same level, deepest first and in registration order
		// on ties for GSAT
		table, _ := New()
		shallow, deep, late := events(table)
		p, err := NewProvider(table, order, tt.strategy)
		require.NoError(t, err)
		_, err = p.Compute(table.Singleton([]int64{0, 0}), NewUnion(shallow, deep, late))
		require.NoError(t, err)
		assert.Equal(t, tt.order(shallow, deep, late), p.(*satProvider).events[0], tt.strategy.String())

		// GSAT fires deep before shallow and needs one firing less
		table, _ = New()
		shallow, deep, _ = events(table)
		p, err = NewProvider(table, order, tt.strategy)
		require.NoError(t, err)
		reach, err := p.Compute(table.Singleton([]int64{0, 0}), NewUnion(shallow, deep))
		require.NoError(t, err)
		assert.Equal(t, "4", table.Count(reach).String(), tt.strategy.String())
		assert.Equal(t, tt.firings, p.Stats().Firings, tt.strategy.String())
		assert.Equal(t, 1, p.Stats().Iterations, tt.strategy.String())
	}
}

func TestReproducibleStats(t *testing.T) {
	n, dom := 3, int64(4)
	order := makeorder(t, n, int(dom))
	for _, s := range strategies {
		var stats []ProviderStats
		for run := 0; run < 2; run++ {
			table, _ := New(Nodesize(1000), Cachesize(500))
			var events []Descriptor
			for k := 0; k < n; k++ {
				events = append(events, leaf(t, table, n, dom, k, k, counter(dom)))
			}
			p, err := NewProvider(table, order, s)
			require.NoError(t, err)
			_, err = p.Compute(table.Singleton([]int64{0, 0, 0}), NewUnion(events...))
			require.NoError(t, err)
			stats = append(stats, p.Stats())
		}
		assert.Equal(t, stats[0], stats[1], s.String())
	}
}
