// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	vars := []Var{x, y, b}
	tests := []struct {
		src      string
		expected string
	}{
		{"x' = x + 1", "(x' == (x + 1))"},
		{"b && !b' || x < 2", "((b && !b') || (x < 2))"},
		{"b => b' => x >= 1", "(b => (b' => (x >= 1)))"},
		{"b <=> x != 0", "(b <=> (x != 0))"},
		{"x * 2 - y / 3 % 2 <= -1", "(((x * 2) - ((y / 3) % 2)) <= -1)"},
		{"if b then x' == 0 else x' == x", "(if b then (x' == 0) else (x' == x))"},
		{"(true)", "true"},
		{"!(x > 1 && y > 1)", "!((x > 1) && (y > 1))"},
	}
	for _, tt := range tests {
		e, err := Parse(tt.src, vars)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.expected, e.String(), tt.src)
		// the canonical form reads back as the same expression
		f, err := Parse(e.String(), vars)
		require.NoError(t, err, e.String())
		assert.Equal(t, e.String(), f.String())
	}
}

func TestParseErrors(t *testing.T) {
	vars := []Var{x, b}
	tests := []struct {
		src string
		err error
	}{
		{"x +", ErrParse},
		{"x == (1", ErrParse},
		{"x & b", ErrParse},
		{"b b", ErrParse},
		{"z == 1", ErrType},
		{"x + 1", ErrType},
		{"b + 1 == 2", ErrType},
		{"x == b", ErrType},
		{"if b then x else b", ErrType},
	}
	for _, tt := range tests {
		_, err := Parse(tt.src, vars)
		assert.ErrorIs(t, err, tt.err, tt.src)
	}
}
