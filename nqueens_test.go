// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// pattern returns the set of vectors of length n, with values in [0, dom),
// that agree with fixed.
func pattern(t *Table, n int, dom int64, fixed map[int]int64) Node {
	res := t.True()
	for l := n - 1; l >= 0; l-- {
		if v, ok := fixed[l]; ok {
			res = t.MakeNode(l, []Edge{{Value: v, Child: res}})
			continue
		}
		edges := make([]Edge, dom)
		for v := int64(0); v < dom; v++ {
			edges[v] = Edge{Value: v, Child: res}
		}
		res = t.MakeNode(l, edges)
	}
	return res
}

// nqueens computes the number of solutions of the N-Queen chess problem. We
// use one variable per row, whose value is the column of the queen in this
// row, and remove from the set of all placements the ones where two queens
// share a column or a diagonal.
func nqueens(N int) string {
	table, _ := New(Nodesize(N*N*256), Cachesize(N*N*64), Cacheratio(30))
	dom := int64(N)
	queen := cube(table, N, dom)
	for i := 0; i < N; i++ {
		for k := i + 1; k < N; k++ {
			d := int64(k - i)
			for a := int64(0); a < dom; a++ {
				for _, b := range []int64{a, a - d, a + d} {
					if b < 0 || b >= dom {
						continue
					}
					queen = table.Diff(queen, pattern(table, N, dom, map[int]int64{i: a, k: b}))
				}
			}
		}
	}
	return table.Count(queen).String()
}

func TestNQueens(t *testing.T) {
	var nqueensTests = []struct {
		N        int
		expected string
	}{
		{4, "2"},
		{6, "4"},
		{8, "92"},
	}
	for _, tt := range nqueensTests {
		assert.Equal(t, tt.expected, nqueens(tt.N), "NQueens(%d)", tt.N)
	}
}

func BenchmarkNQueens(b *testing.B) {
	for n := 0; n < b.N; n++ {
		nqueens(9)
	}
}
