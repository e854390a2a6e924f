// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package compile

import (
	"testing"

	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/expr"
	"github.com/dalzilio/mdd/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	x = expr.Var{Name: "x", Type: expr.Int(0, 3)}
	y = expr.Var{Name: "y", Type: expr.Int(0, 3)}
	b = expr.Var{Name: "b", Type: expr.Bool()}
)

func ordering(tb testing.TB, c *Compiler, decls ...expr.Decl) *mdd.Order {
	o := mdd.NewOrder()
	for k := len(decls) - 1; k >= 0; k-- {
		require.NoError(tb, o.CreateOnTop(decls[k], c.Domain(decls[k].Var.Type)))
	}
	return o
}

func setup(tb testing.TB, options ...func(*configs)) (*Compiler, *mdd.Table) {
	t, err := mdd.New(mdd.Nodesize(1000))
	require.NoError(tb, err)
	return New(solver.NewGiniPool(), options...), t
}

func compile(tb testing.TB, c *Compiler, t *mdd.Table, o *mdd.Order, src string) mdd.Node {
	n, err := c.Compile(expr.MustParse(src, x, y, b), t, o)
	require.NoError(tb, err, src)
	return n
}

func TestCount(t *testing.T) {
	c, table := setup(t)
	o := ordering(t, c, expr.CurDecl(b), expr.CurDecl(x), expr.CurDecl(y))
	tests := []struct {
		src   string
		count int64
	}{
		{"x + y == 3", 8},
		{"b && x + y == 3", 4},
		{"b || x == 1", 20},
		{"x < y", 12},
		{"x * y == 2 && !b", 2},
		{"true", 32},
		{"false", 0},
		{"x > 3", 0},
	}
	for _, tt := range tests {
		n := compile(t, c, table, o, tt.src)
		assert.Equal(t, tt.count, table.Count(n).Int64(), tt.src)
	}
}

func TestCanonical(t *testing.T) {
	c, table := setup(t)
	o := ordering(t, c, expr.CurDecl(x), expr.CurDecl(y))
	tests := [][]string{
		{"x < y", "!(x >= y)", "y > x", "x + 1 <= y"},
		{"x == 0 || x == 1", "x <= 1", "x / 2 == 0"},
		{"x + y == 3", "y == 3 - x", "x == 3 - y && true"},
		{"x == x", "y >= 0", "true"},
	}
	for _, group := range tests {
		first := compile(t, c, table, o, group[0])
		for _, src := range group[1:] {
			n := compile(t, c, table, o, src)
			assert.True(t, table.Equal(first, n), "%s and %s", group[0], src)
		}
	}
}

func TestSymbolic(t *testing.T) {
	// the same table is used with explicit and symbolic domains
	explicit, table := setup(t)
	symbolic := New(solver.NewGiniPool(), DomainThreshold(0))
	assert.Equal(t, 4, explicit.Domain(x.Type))
	assert.Equal(t, 0, symbolic.Domain(x.Type))
	oe := ordering(t, explicit, expr.CurDecl(x), expr.CurDecl(y), expr.CurDecl(b))
	os := ordering(t, symbolic, expr.CurDecl(x), expr.CurDecl(y), expr.CurDecl(b))
	for _, src := range []string{"x + y == 3", "x % 2 == 1 || b", "x != y && y != 2"} {
		ne := compile(t, explicit, table, oe, src)
		ns := compile(t, symbolic, table, os, src)
		assert.True(t, table.Equal(ne, ns), src)
	}
}

func TestProjection(t *testing.T) {
	c, table := setup(t)
	o := ordering(t, c, expr.CurDecl(x))
	n := compile(t, c, table, o, "x == y + 1")
	assert.Equal(t, int64(3), table.Count(n).Int64())
	assert.False(t, table.Contains(n, []int64{0}))
	n = compile(t, c, table, o, "x == 2 && y * y == 2")
	assert.True(t, table.IsEmpty(n))
}

func TestMemo(t *testing.T) {
	c, table := setup(t)
	o := ordering(t, c, expr.CurDecl(x), expr.CurDecl(y))
	first := compile(t, c, table, o, "x + y <= 4")
	hits, checks := c.Hits(), c.Checks()
	second := compile(t, c, table, o, "x + y <= 4")
	assert.True(t, table.Equal(first, second))
	assert.Equal(t, hits+1, c.Hits())
	assert.Equal(t, checks, c.Checks())
	assert.GreaterOrEqual(t, c.Queries(), c.Hits())
	c.Reset()
	compile(t, c, table, o, "x + y <= 4")
	assert.Greater(t, c.Checks(), checks)
}

func TestRelation(t *testing.T) {
	c, table := setup(t)
	o := ordering(t, c, expr.CurDecl(x), expr.NextDecl(x))
	states := ordering(t, c, expr.CurDecl(x))
	r := compile(t, c, table, o, "x' == (x + 1) % 4")
	assert.Equal(t, int64(4), table.Count(r).Int64())
	img := table.Relprod(compile(t, c, table, states, "x == 3"), r)
	assert.True(t, table.Equal(img, compile(t, c, table, states, "x == 0")))
	back := table.Relprod(compile(t, c, table, states, "x == 3"), table.Swap(r))
	assert.True(t, table.Equal(back, compile(t, c, table, states, "x == 2")))
}

func TestParallel(t *testing.T) {
	c, table := setup(t)
	o := ordering(t, c, expr.CurDecl(x), expr.CurDecl(y), expr.CurDecl(b))
	srcs := []string{"x + y == 3", "x < y || b", "x * 2 == y", "b => x == y", "x % 3 == y % 2"}
	nodes := make([]mdd.Node, len(srcs))
	var g errgroup.Group
	for k, src := range srcs {
		k, src := k, src
		g.Go(func() error {
			n, err := c.Compile(expr.MustParse(src, x, y, b), table, o)
			nodes[k] = n
			return err
		})
	}
	require.NoError(t, g.Wait())
	for k, src := range srcs {
		assert.True(t, table.Equal(nodes[k], compile(t, c, table, o, src)), src)
	}
}

func TestCompileErrors(t *testing.T) {
	c, table := setup(t)
	o := mdd.NewOrder()
	require.NoError(t, o.CreateOnTop("x", 4))
	_, err := c.Compile(expr.MustParse("x == 1", x), table, o)
	assert.Error(t, err)
	o = ordering(t, c, expr.CurDecl(x))
	_, err = c.Compile(expr.Add(expr.Cur(x), expr.IntConst(1)), table, o)
	assert.ErrorIs(t, err, expr.ErrType)
	huge := expr.Var{Name: "h", Type: expr.Int(0, 1<<40)}
	o = ordering(t, c, expr.CurDecl(huge))
	_, err = c.Compile(expr.True(), table, o)
	assert.Error(t, err)
}
