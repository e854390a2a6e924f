// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package solver

import (
	"sync"
	"testing"

	"github.com/dalzilio/mdd/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	x = expr.Var{Name: "x", Type: expr.Int(0, 7)}
	y = expr.Var{Name: "y", Type: expr.Int(-4, 4)}
	b = expr.Var{Name: "b", Type: expr.Bool()}
)

func check(t *testing.T, s Solver) Status {
	st, err := s.Check()
	require.NoError(t, err)
	return st
}

func TestWidth(t *testing.T) {
	tests := []struct {
		v int64
		w int
	}{
		{0, 1}, {-1, 1}, {1, 2}, {-2, 2}, {3, 3}, {-4, 3}, {4, 4}, {-9, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.w, width(tt.v), "width(%d)", tt.v)
	}
}

func TestModel(t *testing.T) {
	s := NewGini()
	require.NoError(t, s.Add(expr.MustParse("x + y == 5 && y < -1 && b", x, y, b)))
	assert.Equal(t, Sat, check(t, s))
	m, err := s.Model()
	require.NoError(t, err)
	// the domain of x forces x = 7 and y = -2
	assert.Equal(t, int64(7), m[expr.CurDecl(x)])
	assert.Equal(t, int64(-2), m[expr.CurDecl(y)])
	assert.Equal(t, int64(1), m[expr.CurDecl(b)])
}

func TestDomains(t *testing.T) {
	s := NewGini()
	require.NoError(t, s.Add(expr.MustParse("x > 7 || y < -4", x, y)))
	assert.Equal(t, Unsat, check(t, s))
	_, err := s.Model()
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestScopes(t *testing.T) {
	s := NewGini()
	require.NoError(t, s.Add(expr.MustParse("x >= 2", x)))
	s.Push()
	require.NoError(t, s.Add(expr.MustParse("x < 2", x)))
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, Unsat, check(t, s))
	require.NoError(t, s.Pop())
	assert.Equal(t, Sat, check(t, s))
	s.Push()
	s.Push()
	require.NoError(t, s.Add(expr.MustParse("x == 5", x)))
	assert.Equal(t, Sat, check(t, s))
	m, _ := s.Model()
	assert.Equal(t, int64(5), m[expr.CurDecl(x)])
	require.NoError(t, s.Pop())
	require.NoError(t, s.Add(expr.MustParse("x == 3", x)))
	assert.Equal(t, Sat, check(t, s))
	require.NoError(t, s.Pop())
	assert.ErrorIs(t, s.Pop(), ErrScope)
	require.NoError(t, s.Add(expr.MustParse("x == 4", x)))
	assert.Equal(t, Sat, check(t, s))
}

func TestArithmetic(t *testing.T) {
	tests := []string{
		"x * y == -12 && x == 4",
		"x % 3 == 2 && x / 3 == 1 && x == 5",
		"y % 3 == 2 && y / 3 == -1 && y == -1",
		"-y == 4 && y - x == -11",
		"(if b then x else y) == -3 && !b",
		"b <=> x > 3",
		"y / 0 == 1 || x == 0",
	}
	for _, src := range tests {
		s := NewGini()
		e := expr.MustParse(src, x, y, b)
		require.NoError(t, s.Add(e))
		require.Equal(t, Sat, check(t, s), src)
		m, err := s.Model()
		require.NoError(t, err)
		for _, v := range []expr.Var{x, y, b} {
			if _, ok := m[expr.CurDecl(v)]; !ok {
				m[expr.CurDecl(v)] = 0
			}
		}
		if src == "y / 0 == 1 || x == 0" {
			continue
		}
		ok, err := expr.Holds(e, m)
		require.NoError(t, err)
		assert.True(t, ok, "%s with %s", src, m)
	}
}

func TestEnumeration(t *testing.T) {
	// blocking each model enumerates the solutions of x % 3 == 1
	s := NewGini()
	require.NoError(t, s.Add(expr.MustParse("x % 3 == 1", x)))
	var found []int64
	for check(t, s) == Sat {
		m, _ := s.Model()
		v := m[expr.CurDecl(x)]
		found = append(found, v)
		require.NoError(t, s.Add(expr.Neq(expr.Cur(x), expr.IntConst(v))))
	}
	assert.ElementsMatch(t, []int64{1, 4, 7}, found)
}

func TestPool(t *testing.T) {
	pool := NewGiniPool(Timeout(0))
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(v int64) {
			defer wg.Done()
			s := pool.Get()
			defer pool.Put(s)
			s.Push()
			if err := s.Add(expr.Eq(expr.Cur(x), expr.IntConst(v))); err != nil {
				t.Error(err)
				return
			}
			if st, err := s.Check(); err != nil || st != Sat {
				t.Errorf("x == %d should be satisfiable", v)
			}
		}(int64(i))
	}
	wg.Wait()
	assert.LessOrEqual(t, pool.Created(), 4)
	s := pool.Get()
	assert.Equal(t, 0, s.Depth())
}

func TestUnsupported(t *testing.T) {
	s := NewGini()
	assert.ErrorIs(t, s.Add(expr.Add(expr.Cur(x), expr.IntConst(1))), ErrUnsupported)
	assert.ErrorIs(t, s.Add(expr.Lt(expr.Cur(b), expr.True())), ErrUnsupported)
}
