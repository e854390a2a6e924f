// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package solver defines the satisfiability oracle used to compile expressions
into decision diagrams, and an implementation based on the gini SAT solver
that bit-blasts bounded integer expressions.

A Solver is a session with a stack of scopes. Constraints added in a scope
are discarded when the scope is popped; constraints added outside any scope
are permanent. Sessions are not safe for concurrent use, but a Pool can hand
out distinct sessions to different goroutines.
*/
package solver

import (
	"time"

	"github.com/dalzilio/mdd/expr"
	"github.com/pkg/errors"
)

// Status is the outcome of a satisfiability check.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

var statusnames = [3]string{
	Unknown: "unknown",
	Sat:     "sat",
	Unsat:   "unsat",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusnames) {
		return "unknown"
	}
	return statusnames[s]
}

var (
	// ErrUnknown is returned when the oracle cannot decide a query, for
	// instance after a timeout.
	ErrUnknown = errors.New("oracle returned unknown")

	// ErrUnsupported is returned for expressions outside the theory of the
	// oracle.
	ErrUnsupported = errors.New("expression not supported by the oracle")

	// ErrNoModel is returned when asking for a model after a check that was
	// not satisfiable.
	ErrNoModel = errors.New("no model available")

	// ErrScope is returned when popping a scope that was never pushed.
	ErrScope = errors.New("no scope to pop")
)

// Solver is an incremental satisfiability session over boolean and bounded
// integer expressions.
type Solver interface {
	// Push opens a new scope.
	Push()
	// Pop discards the constraints of the innermost scope.
	Pop() error
	// Depth returns the number of open scopes.
	Depth() int
	// Add asserts a boolean expression in the innermost scope.
	Add(e *expr.Expr) error
	// Check decides the satisfiability of the constraints of all the open
	// scopes together with the permanent ones.
	Check() (Status, error)
	// Model returns the values of all the variable instances known to the
	// session, after a satisfiable check.
	Model() (expr.Valuation, error)
}

type configs struct {
	timeout time.Duration
}

// Timeout is a configuration option (function). Used as a parameter in
// NewGini it bounds the duration of each call to Check, after which the
// result is ErrUnknown. The default (0) means no limit.
func Timeout(d time.Duration) func(*configs) {
	return func(c *configs) {
		if d > 0 {
			c.timeout = d
		}
	}
}
