// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package compile translates boolean expressions into decision diagrams.

The diagram of an expression is built one level at a time, from the root of
the variable ordering to the bottom. At each level we ask a satisfiability
oracle which values of the variable are compatible with the residual
expression, then recurse on the expression where the variable is replaced by
its value. Results are memoized on the level and the text of the (simplified)
residual expression, so that identical sub-problems are compiled once.

The identities of the variables in the ordering must be values of type
expr.Decl. Variables of the expression that are not in the ordering are
projected out.
*/
package compile

import (
	"sync"
	"sync/atomic"

	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/expr"
	"github.com/dalzilio/mdd/solver"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// DefaultThreshold is the largest domain that is enumerated explicitly when
// no other threshold is given.
const DefaultThreshold = 1 << 8

type configs struct {
	threshold int
}

// DomainThreshold is a configuration option (function). Used as a parameter
// in New it sets the largest domain size for which candidate values are
// checked one by one. Larger domains are symbolic: their feasible values are
// enumerated from the models of the oracle.
func DomainThreshold(n int) func(*configs) {
	return func(c *configs) {
		if n >= 0 {
			c.threshold = n
		}
	}
}

type key struct {
	t     *mdd.Table
	order *mdd.Order
	level int
	text  string
}

// Compiler compiles expressions using sessions taken from a solver pool. It is
// safe for concurrent use; concurrent compilations share the memo table.
type Compiler struct {
	pool    *solver.Pool
	mu      sync.Mutex
	memo    map[key]mdd.Node
	queries int64
	hits    int64
	checks  int64
	configs
}

// New returns a compiler using the sessions of pool.
func New(pool *solver.Pool, options ...func(*configs)) *Compiler {
	c := &Compiler{
		pool:    pool,
		memo:    make(map[key]mdd.Node),
		configs: configs{threshold: DefaultThreshold},
	}
	for _, f := range options {
		f(&c.configs)
	}
	return c
}

// Domain returns the domain size to use in an ordering for a variable of type
// typ: its number of values when it is below the threshold, and 0 (symbolic)
// otherwise.
func (c *Compiler) Domain(typ expr.Type) int {
	n := typ.DomainSize()
	if n == 0 || n > c.threshold {
		return 0
	}
	return n
}

// Queries returns the number of lookups in the memo table.
func (c *Compiler) Queries() int64 { return atomic.LoadInt64(&c.queries) }

// Hits returns the number of lookups answered by the memo table.
func (c *Compiler) Hits() int64 { return atomic.LoadInt64(&c.hits) }

// Checks returns the number of satisfiability checks sent to the oracle.
func (c *Compiler) Checks() int64 { return atomic.LoadInt64(&c.checks) }

// Reset empties the memo table, releasing the nodes it holds.
func (c *Compiler) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo = make(map[key]mdd.Node)
}

// Compile returns the node, in table t, of the set of valuations of the
// variables in order that satisfy e. The root of the result is at level 0.
// Errors of the oracle and of the table are returned wrapped with the
// expression that was compiled.
func (c *Compiler) Compile(e *expr.Expr, t *mdd.Table, order *mdd.Order) (mdd.Node, error) {
	if !e.IsBool() {
		return nil, errors.Wrapf(expr.ErrType, "compiling %s: not a boolean expression", e)
	}
	for k := 0; k < order.Len(); k++ {
		if _, ok := order.At(k).ID.(expr.Decl); !ok {
			return nil, errors.Errorf("compiling %s: variable %v at level %d is not a declaration", e, order.At(k).ID, k)
		}
	}
	s := c.pool.Get()
	defer c.pool.Put(s)
	r := &run{Compiler: c, s: s, t: t, order: order}
	res, err := r.compile(expr.Simplify(e), 0)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", e)
	}
	return res, nil
}

// run holds the state of a single compilation.
type run struct {
	*Compiler
	s     solver.Solver
	t     *mdd.Table
	order *mdd.Order
}

func (r *run) lookup(k key) (mdd.Node, bool) {
	atomic.AddInt64(&r.queries, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.memo[k]
	if ok {
		atomic.AddInt64(&r.hits, 1)
	}
	return n, ok
}

func (r *run) store(k key, n mdd.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo[k] = n
}

func (r *run) compile(e *expr.Expr, level int) (mdd.Node, error) {
	if e.IsFalse() {
		return r.t.False(), nil
	}
	if level == r.order.Len() {
		return r.leaf(e)
	}
	k := key{t: r.t, order: r.order, level: level, text: e.String()}
	if n, ok := r.lookup(k); ok {
		return n, nil
	}
	v := r.order.At(level)
	d := v.ID.(expr.Decl)
	values, err := r.feasible(e, d, v.Domain)
	if err != nil {
		return nil, errors.Wrapf(err, "level %d (%s)", level, d)
	}
	edges := make([]mdd.Edge, 0, len(values))
	for _, x := range values {
		child, err := r.compile(expr.Assign(e, expr.Valuation{d: x}), level+1)
		if err != nil {
			return nil, err
		}
		edges = append(edges, mdd.Edge{Value: x, Child: child})
	}
	n := r.t.MakeNode(level, edges)
	if n == nil {
		return nil, errors.Wrapf(r.t.Err(), "building node at level %d", level)
	}
	r.store(k, n)
	return n, nil
}

// leaf is called when all the variables of the ordering have a value. The
// residual expression may still refer to variables outside the ordering.
func (r *run) leaf(e *expr.Expr) (mdd.Node, error) {
	if e.IsTrue() {
		return r.t.True(), nil
	}
	if e.IsConst() {
		return r.t.False(), nil
	}
	ok, err := r.sat(e)
	if err != nil || !ok {
		return r.t.False(), err
	}
	return r.t.True(), nil
}

// feasible returns the values of d, sorted in increasing order, that are
// compatible with e.
func (r *run) feasible(e *expr.Expr, d expr.Decl, domain int) ([]int64, error) {
	typ := d.Var.Type
	if !mentions(e, d) {
		// every value is compatible if e is satisfiable, which the recursion
		// decides
		if typ.DomainSize() == 0 {
			return nil, errors.Errorf("domain %s is too large to be enumerated", typ)
		}
		return typ.Values(), nil
	}
	if err := r.push(e); err != nil {
		return nil, err
	}
	defer r.s.Pop()
	if domain > 0 && domain <= r.threshold {
		var res []int64
		for _, x := range typ.Values() {
			ok, err := r.sat(expr.Eq(expr.Ref(d), constant(d, x)))
			if err != nil {
				return nil, err
			}
			if ok {
				res = append(res, x)
			}
		}
		return res, nil
	}
	return r.enumerate(d)
}

// enumerate returns the values of d in the models of the current scope, by
// blocking each value found until the scope becomes unsatisfiable. Models
// always give a value to d since the scope mentions it.
func (r *run) enumerate(d expr.Decl) ([]int64, error) {
	var res []int64
	for {
		st, err := r.check()
		if err != nil {
			return nil, err
		}
		if st != solver.Sat {
			break
		}
		m, err := r.s.Model()
		if err != nil {
			return nil, err
		}
		x, ok := m.Get(d)
		if !ok {
			return nil, errors.Errorf("no value for %s in model", d)
		}
		res = append(res, x)
		if err := r.s.Add(expr.Neq(expr.Ref(d), constant(d, x))); err != nil {
			return nil, err
		}
	}
	sortValues(res)
	return res, nil
}

// push opens a scope containing e.
func (r *run) push(e *expr.Expr) error {
	r.s.Push()
	if err := r.s.Add(e); err != nil {
		r.s.Pop()
		return err
	}
	return nil
}

// sat checks the satisfiability of e in a new scope.
func (r *run) sat(e *expr.Expr) (bool, error) {
	if err := r.push(e); err != nil {
		return false, err
	}
	defer r.s.Pop()
	st, err := r.check()
	return st == solver.Sat, err
}

func (r *run) check() (solver.Status, error) {
	atomic.AddInt64(&r.checks, 1)
	return r.s.Check()
}

func mentions(e *expr.Expr, d expr.Decl) bool {
	if e.Op() == expr.OpRef {
		return e.Decl() == d
	}
	for _, a := range e.Args() {
		if mentions(a, d) {
			return true
		}
	}
	return false
}

// constant returns the literal for value x of d.
func constant(d expr.Decl, x int64) *expr.Expr {
	if d.Var.Type.IsBool() {
		return expr.BoolConst(x != 0)
	}
	return expr.IntConst(x)
}

func sortValues(xs []int64) {
	slices.Sort(xs)
}
