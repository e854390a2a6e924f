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

// milner returns the events of Milner's cyclers: cycler i has three boolean
// variables c, t and h at levels 3i, 3i+1 and 3i+2.
func milner(tb testing.TB, table *Table, size int) []Descriptor {
	n := 3 * size
	var events []Descriptor
	for i := 0; i < size; i++ {
		// c_i & !t_i -> c_i := 0, t_i := 1, h_i := 1
		events = append(events, leaf(tb, table, n, 2, 3*i, 3*i+2, func(v []int64) [][]int64 {
			if v[0] == 1 && v[1] == 0 {
				return [][]int64{{0, 1, 1}}
			}
			return nil
		}))
		// t_i -> t_i := 0
		events = append(events, leaf(tb, table, n, 2, 3*i+1, 3*i+1, func(v []int64) [][]int64 {
			if v[0] == 1 {
				return [][]int64{{0}}
			}
			return nil
		}))
		// h_i -> h_i := 0, c_(i+1) := 1
		if i < size-1 {
			events = append(events, leaf(tb, table, n, 2, 3*i+2, 3*i+3, func(v []int64) [][]int64 {
				if v[0] == 1 {
					return [][]int64{{0, 1}}
				}
				return nil
			}))
			continue
		}
		events = append(events, leaf(tb, table, n, 2, 0, n-1, func(v []int64) [][]int64 {
			if v[n-1] == 1 {
				next := append([]int64(nil), v...)
				next[0] = 1
				next[n-1] = 0
				return [][]int64{next}
			}
			return nil
		}))
	}
	return events
}

func TestMilner(t *testing.T) {
	for _, size := range []int{2, 3, 4} {
		table, _ := New(Nodesize(5000), Cachesize(1000))
		order := makeorder(t, 3*size, 2)
		d := NewUnion(milner(t, table, size)...)
		init := make([]int64, 3*size)
		init[0] = 1
		initial := table.Singleton(init)
		// each cycler has 2^(size+1) states with a token on it
		expected := fmt.Sprintf("%d", size*(1<<(size+1)))
		var first Node
		for _, s := range strategies {
			p, _ := NewProvider(table, order, s)
			reach, err := p.Compute(initial, d)
			require.NoError(t, err)
			assert.Equal(t, expected, table.Count(reach).String(), "size %d, %s", size, s)
			if first == nil {
				first = reach
				continue
			}
			assert.True(t, table.Equal(first, reach), "size %d, %s", size, s)
		}
	}
}

func BenchmarkMilnerBFS(b *testing.B) {
	benchmarkMilner(b, BFS, 5)
}

func BenchmarkMilnerGSAT(b *testing.B) {
	benchmarkMilner(b, GSAT, 5)
}

func benchmarkMilner(b *testing.B, s Strategy, size int) {
	for i := 0; i < b.N; i++ {
		table, _ := New(Nodesize(10000), Cachesize(2500), Cacheratio(25))
		order := makeorder(b, 3*size, 2)
		d := NewUnion(milner(b, table, size)...)
		init := make([]int64, 3*size)
		init[0] = 1
		p, _ := NewProvider(table, order, s)
		if _, err := p.Compute(table.Singleton(init), d); err != nil {
			b.Fatal(err)
		}
	}
}
