// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package checker decides safety properties of finite-domain transition systems
using decision diagrams.

A check compiles the initial predicate, each disjunct of the transition
relation and the negation of the property into diagrams, then computes the
set of reachable states with one of the enumeration strategies of package
mdd. When a reachable state violates the property, the checker extracts a
counterexample by a backward search from a violating state.

By default the exploration stops at violating states: their successors are
never computed. This is enough to decide the property, and the set of
explored states returned as proof is then an under-approximation of the
reachable states. Use WithFullStateSpace to obtain the full state space.
*/
package checker

import (
	"fmt"
	"time"

	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/compile"
	"github.com/dalzilio/mdd/expr"
	"github.com/dalzilio/mdd/solver"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// Checker checks a system. States and actions of counterexamples are built
// from valuations with two conversion functions.
type Checker[S, A any] struct {
	sys           System
	valToState    func(expr.Valuation) S
	biValToAction func(from, to expr.Valuation) A
	configs
}

// New returns a checker for system sys. Configuration errors, such as an
// invalid ordering or an unknown strategy, are reported here, before any
// query to the oracle.
func New[S, A any](sys System, valToState func(expr.Valuation) S, biValToAction func(from, to expr.Valuation) A, options ...Option) (*Checker[S, A], error) {
	config := makeconfigs()
	for _, f := range options {
		f(config)
	}
	if config.strategy < mdd.BFS || config.strategy > mdd.GSAT {
		return nil, errors.Wrapf(mdd.ErrUnknownStrategy, "%s", config.strategy)
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	if config.ordering == nil {
		config.ordering = append([]expr.Var(nil), sys.Vars...)
	}
	if err := ValidateOrdering(sys.Vars, config.ordering); err != nil {
		return nil, err
	}
	if config.pool == nil {
		config.pool = solver.NewGiniPool()
	}
	return &Checker[S, A]{
		sys:           sys,
		valToState:    valToState,
		biValToAction: biValToAction,
		configs:       *config,
	}, nil
}

// Step is the action of the default checker: the index of the first disjunct
// relating two states (-1 if none), and the new values of the variables that
// change.
type Step struct {
	Disjunct int
	Changes  expr.Valuation
}

func (s Step) String() string {
	return fmt.Sprintf("#%d %s", s.Disjunct, s.Changes)
}

// NewDefault returns a checker whose states are valuations and whose actions
// are of type Step.
func NewDefault(sys System, options ...Option) (*Checker[expr.Valuation, Step], error) {
	toState := func(v expr.Valuation) expr.Valuation { return v }
	toAction := func(from, to expr.Valuation) Step {
		k, err := sys.Enabled(from, to)
		if err != nil {
			k = -1
		}
		changes := make(expr.Valuation)
		for d, x := range to {
			if from[d] != x {
				changes[d] = x
			}
		}
		return Step{Disjunct: k, Changes: changes}
	}
	return New(sys, toState, toAction, options...)
}

// Check decides whether a state violating the property is reachable from an
// initial state.
func (c *Checker[S, A]) Check() (*Result[S, A], error) {
	start := time.Now()
	log := c.log.WithField("strategy", c.strategy)
	t, err := mdd.New(append([]mdd.Option{mdd.Logger(c.log)}, c.tableOptions...)...)
	if err != nil {
		return nil, errors.Wrap(err, "creating node table")
	}
	comp := compile.New(c.pool, compile.DomainThreshold(c.threshold))
	states, trans, err := c.orders(comp)
	if err != nil {
		return nil, err
	}
	log.WithField("order", states).Debug("built variable orderings")

	init, err := comp.Compile(c.sys.Init, t, states)
	if err != nil {
		return nil, errors.Wrap(err, "initial predicate")
	}
	log.Info("created initial node")

	leaves, err := c.leaves(t, comp, states, trans)
	if err != nil {
		return nil, err
	}
	members := make([]mdd.Descriptor, len(leaves))
	for k, l := range leaves {
		members[k] = l
	}
	var next mdd.Descriptor = mdd.NewUnion(members...)
	bad, err := comp.Compile(expr.Not(c.sys.Prop), t, states)
	if err != nil {
		return nil, errors.Wrap(err, "negated property")
	}
	if !c.full {
		next = mdd.NewOnTheFly(next, bad, mdd.PruneTarget)
	}
	log.WithField("disjuncts", len(leaves)).Info("created next-state node, starting fixed point calculation")

	provider, err := mdd.NewProvider(t, states, c.strategy)
	if err != nil {
		return nil, err
	}
	space, err := provider.Compute(init, next)
	if err != nil {
		return nil, errors.Wrap(err, "enumerating state space")
	}
	log.Info("enumerated state space")

	violating := t.Intersect(space, bad)
	if violating == nil {
		return nil, errors.Wrap(t.Err(), "violating states")
	}
	ps := provider.Stats()
	stats := Statistics{
		ViolatingSize:  count64(t.Count(violating)),
		StateSpaceSize: count64(t.Count(space)),
		CacheHits:      ps.Hits,
		CacheQueries:   ps.Queries,
		CacheSize:      ps.CacheSize,
		Iterations:     ps.Iterations,
	}
	log.WithField("count", stats.ViolatingSize).Info("states violating the property")
	log.WithField("count", stats.StateSpaceSize).Debug("state space size")
	t.GC()

	res := &Result[S, A]{
		status: Safe,
		proof:  &Proof{table: t, order: states, node: space},
	}
	if !t.IsEmpty(violating) {
		res.status = Unsafe
		res.trace, err = c.counterexample(t, states, leaves, space, violating, init)
		if err != nil {
			return nil, err
		}
		log.WithField("length", res.trace.Len()).Info("built counterexample")
	}
	stats.CompileQueries = comp.Queries()
	stats.CompileHits = comp.Hits()
	stats.OracleChecks = comp.Checks()
	stats.Duration = time.Since(start)
	res.stats = stats
	log.WithFields(logrus.Fields{
		"status":     res.status,
		"statistics": stats,
	}).Info("check completed")
	if c.observer != nil {
		c.observer.ObserveCheck(c.strategy, res.status, stats)
	}
	return res, nil
}

// orders returns the state and transition orderings. They are built from the
// last variable to the first; in the transition ordering the next instance of
// a variable is just below its current instance.
func (c *Checker[S, A]) orders(comp *compile.Compiler) (*mdd.Order, *mdd.Order, error) {
	states, trans := mdd.NewOrder(), mdd.NewOrder()
	for k := len(c.ordering) - 1; k >= 0; k-- {
		v := c.ordering[k]
		n := comp.Domain(v.Type)
		if err := states.CreateOnTop(expr.CurDecl(v), n); err != nil {
			return nil, nil, errors.Wrap(ErrInvalidOrdering, err.Error())
		}
		if err := trans.CreateOnTop(expr.NextDecl(v), n); err != nil {
			return nil, nil, errors.Wrap(ErrInvalidOrdering, err.Error())
		}
		if err := trans.CreateOnTop(expr.CurDecl(v), n); err != nil {
			return nil, nil, errors.Wrap(ErrInvalidOrdering, err.Error())
		}
	}
	return states, trans, nil
}

// leaves compiles the disjuncts of the relation, possibly in parallel, and
// returns their descriptors in registration order. Variables that no
// disjunct writes are framed in every disjunct.
func (c *Checker[S, A]) leaves(t *mdd.Table, comp *compile.Compiler, states, trans *mdd.Order) ([]*mdd.Leaf, error) {
	rel := c.sys.Relation()
	w := written(rel)
	var frames []*expr.Expr
	for _, v := range c.ordering {
		if !w[v] {
			frames = append(frames, frame(v))
		}
	}
	res := make([]*mdd.Leaf, len(rel))
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for k, d := range rel {
		k, d := k, d
		g.Go(func() error {
			top, bottom := locality(states, support(d, w))
			n, err := comp.Compile(expr.And(append([]*expr.Expr{d}, frames...)...), t, trans)
			if err != nil {
				return errors.Wrapf(err, "disjunct %d", k)
			}
			l, err := t.NewLeaf(n, top, bottom)
			if err != nil {
				return errors.Wrapf(err, "disjunct %d (%s)", k, d)
			}
			res[k] = l
			c.log.WithFields(logrus.Fields{"disjunct": k, "top": top, "bottom": bottom}).Debug("compiled disjunct")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// locality returns the first and last levels of the variables in vars.
func locality(order *mdd.Order, vars map[expr.Var]bool) (int, int) {
	var levels []int
	for v := range vars {
		if k, ok := order.Position(expr.CurDecl(v)); ok {
			levels = append(levels, k)
		}
	}
	if len(levels) == 0 {
		return 0, 0
	}
	slices.Sort(levels)
	return levels[0], levels[len(levels)-1]
}

// counterexample builds a trace from an initial state to a violating state
// using the converse of each disjunct, restricted to the explored states.
func (c *Checker[S, A]) counterexample(t *mdd.Table, states *mdd.Order, leaves []*mdd.Leaf, space, violating, init mdd.Node) (*Trace[S, A], error) {
	reversed := make([]mdd.Descriptor, len(leaves))
	for k, l := range leaves {
		reversed[k] = mdd.NewReversed(space, t.Extract(l))
	}
	nodes, err := mdd.NewTraceProvider(t, states).Compute(violating, mdd.NewUnion(reversed...), init)
	if err != nil {
		return nil, errors.Wrap(err, "building counterexample")
	}
	vals := make([]expr.Valuation, len(nodes))
	for k, n := range nodes {
		vals[k] = valuation(states, t.Pick(n))
	}
	if !c.forward {
		for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
			vals[i], vals[j] = vals[j], vals[i]
		}
	}
	tr := &Trace[S, A]{}
	for k, v := range vals {
		tr.States = append(tr.States, c.valToState(v))
		if k > 0 {
			if c.forward {
				tr.Actions = append(tr.Actions, c.biValToAction(vals[k-1], v))
			} else {
				tr.Actions = append(tr.Actions, c.biValToAction(v, vals[k-1]))
			}
		}
	}
	return tr, nil
}
