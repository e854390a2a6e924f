// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package checker

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/expr"
)

// Status is the verdict of a check.
type Status int

const (
	Safe Status = iota
	Unsafe
)

func (s Status) String() string {
	if s == Unsafe {
		return "unsafe"
	}
	return "safe"
}

// Statistics reports the sizes and the cache activity of a check. The state
// space is the set of states explored, which excludes the successors of
// violating states unless the full state space was requested.
type Statistics struct {
	ViolatingSize  int64 // Number of reachable states violating the property
	StateSpaceSize int64 // Number of states explored
	CacheHits      int64 // Lookups answered by the cache of the provider
	CacheQueries   int64 // Lookups in the cache of the provider
	CacheSize      int   // Entries left in the cache of the provider
	Iterations     int   // Image or saturation steps
	CompileQueries int64 // Lookups in the memo table of the compiler
	CompileHits    int64 // Lookups answered by the memo table of the compiler
	OracleChecks   int64 // Satisfiability checks sent to the oracle
	Duration       time.Duration
}

func (s Statistics) String() string {
	return fmt.Sprintf("violating=%d states=%d hits=%d queries=%d cache=%d iterations=%d duration=%s",
		s.ViolatingSize, s.StateSpaceSize, s.CacheHits, s.CacheQueries, s.CacheSize, s.Iterations, s.Duration)
}

// count64 converts a cardinality, saturating at math.MaxInt64.
func count64(n *big.Int) int64 {
	if !n.IsInt64() {
		return math.MaxInt64
	}
	return n.Int64()
}

// Trace is a counterexample: Actions[i] leads from States[i] to States[i+1].
type Trace[S, A any] struct {
	States  []S
	Actions []A
}

// Len returns the number of actions in the trace.
func (tr *Trace[S, A]) Len() int {
	return len(tr.Actions)
}

// Proof is the set of states explored by a check, stored as a diagram.
type Proof struct {
	table *mdd.Table
	order *mdd.Order
	node  mdd.Node
}

// Node returns the root of the diagram.
func (p *Proof) Node() mdd.Node { return p.node }

// Table returns the node table holding the diagram.
func (p *Proof) Table() *mdd.Table { return p.table }

// Order returns the variable ordering of the diagram.
func (p *Proof) Order() *mdd.Order { return p.order }

// Count returns the number of states in the proof.
func (p *Proof) Count() *big.Int {
	return p.table.Count(p.node)
}

// Contains returns true if the state given by valuation v is in the proof.
func (p *Proof) Contains(v expr.Valuation) bool {
	values := make([]int64, p.order.Len())
	for k := range values {
		x, ok := v.Get(p.order.At(k).ID.(expr.Decl))
		if !ok {
			return false
		}
		values[k] = x
	}
	return p.table.Contains(p.node, values)
}

// Valuations calls f on each state of the proof, in lexicographic order, and
// stops at the first error returned by f.
func (p *Proof) Valuations(f func(expr.Valuation) error) error {
	return p.table.Allsat(p.node, func(values []int64) error {
		return f(valuation(p.order, values))
	})
}

// WriteDot writes the diagram of the proof in Graphviz format.
func (p *Proof) WriteDot(w io.Writer) error {
	return p.table.WriteDot(w, p.node, p.order)
}

// valuation maps the values of the levels of a state diagram to the
// declarations of the ordering.
func valuation(order *mdd.Order, values []int64) expr.Valuation {
	res := make(expr.Valuation, len(values))
	for k, x := range values {
		res[order.At(k).ID.(expr.Decl)] = x
	}
	return res
}

// Result is the outcome of a check. An unsafe result carries a counterexample.
type Result[S, A any] struct {
	status Status
	trace  *Trace[S, A]
	proof  *Proof
	stats  Statistics
}

// Status returns the verdict.
func (r *Result[S, A]) Status() Status { return r.status }

// IsSafe returns true if no reachable state violates the property.
func (r *Result[S, A]) IsSafe() bool { return r.status == Safe }

// IsUnsafe returns true if a reachable state violates the property.
func (r *Result[S, A]) IsUnsafe() bool { return r.status == Unsafe }

// Trace returns the counterexample of an unsafe result, or nil.
func (r *Result[S, A]) Trace() *Trace[S, A] { return r.trace }

// Proof returns the set of explored states.
func (r *Result[S, A]) Proof() *Proof { return r.proof }

// Stats returns the statistics of the check.
func (r *Result[S, A]) Stats() Statistics { return r.stats }

// Observer is notified of the outcome of each check, for instance to export
// metrics.
type Observer interface {
	ObserveCheck(strategy mdd.Strategy, status Status, stats Statistics)
}
