// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package model

import (
	"strings"
	"testing"

	"github.com/dalzilio/mdd/checker"
	"github.com/dalzilio/mdd/expr"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, m *Model) *checker.Result[expr.Valuation, checker.Step] {
	logger, _ := test.NewNullLogger()
	c, err := checker.NewDefault(m.System(), append(m.Options(), checker.WithLogger(logger))...)
	require.NoError(t, err)
	res, err := c.Check()
	require.NoError(t, err)
	return res
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		file      string
		disjuncts int
		safe      bool
		states    int64
		trace     int
	}{
		{"counter.yaml", 2, true, 5, 0},
		{"mutex.yaml", 6, false, 0, 4},
		{"ring.yaml", 2, true, 64, 0},
	}
	for _, tt := range tests {
		m, err := LoadFile("testdata/" + tt.file)
		require.NoError(t, err, tt.file)
		assert.Len(t, m.System().Relation(), tt.disjuncts, tt.file)
		res := run(t, m)
		assert.Equal(t, tt.safe, res.IsSafe(), tt.file)
		if tt.safe {
			assert.Equal(t, tt.states, res.Stats().StateSpaceSize, tt.file)
			continue
		}
		assert.Equal(t, tt.trace, res.Trace().Len(), tt.file)
	}
}

func TestOrdering(t *testing.T) {
	m, err := LoadFile("testdata/counter.yaml")
	require.NoError(t, err)
	assert.Equal(t, "counter", m.Name)
	require.Len(t, m.Ordering(), 2)
	assert.Equal(t, "done", m.Ordering()[0].Name)
	assert.True(t, m.Ordering()[0].Type.IsBool())
	lo, hi := m.Ordering()[1].Type.Bounds()
	assert.Equal(t, [2]int64{0, 3}, [2]int64{lo, hi})

	m, err = LoadFile("testdata/ring.yaml")
	require.NoError(t, err)
	assert.Nil(t, m.Ordering())
	assert.Nil(t, m.Options())
}

func TestLoadErrors(t *testing.T) {
	header := "variables: [{name: x, type: int, min: 0, max: 3}]\n"
	tests := []struct {
		src string
		err error
	}{
		{"variables: []\ninit: true\ntrans: true\n", ErrModel},
		{"variables: [{name: x, type: real}]\ninit: true\ntrans: true\n", ErrModel},
		{"variables: [{name: x, type: int, min: 3, max: 0}]\ninit: true\ntrans: true\n", ErrModel},
		{"variables: [{name: x, type: bool}, {name: x, type: bool}]\ninit: true\ntrans: true\n", ErrModel},
		{header + "trans: x' == x\n", ErrModel},
		{header + "init: x == 0\n", ErrModel},
		{header + "init: x == 0\ntrans: x' == x\ntransitions: [x' == x]\n", ErrModel},
		{header + "init: x == \ntrans: x' == x\n", expr.ErrParse},
		{header + "init: y == 0\ntrans: x' == x\n", expr.ErrType},
		{header + "init: x == 0\ntransitions: [x' == x, x + 1]\n", expr.ErrType},
		{header + "init: x == 0\ntrans: x' == x\nordering: [y]\n", checker.ErrInvalidOrdering},
		{header + "init: x == 0\ntrans: x' == x\nordering: [x, x]\n", checker.ErrInvalidOrdering},
		{header + "init: x' == 0\ntrans: x' == x\n", checker.ErrInvalidSystem},
	}
	for _, tt := range tests {
		_, err := Load(strings.NewReader(tt.src))
		assert.ErrorIs(t, err, tt.err, tt.src)
	}
	_, err := Load(strings.NewReader(header + "init: x == 0\ntrans: x' == x\nunknown: 1\n"))
	assert.Error(t, err)
	_, err = LoadFile("testdata/missing.yaml")
	assert.Error(t, err)
}
