// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package checker

import (
	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/compile"
	"github.com/dalzilio/mdd/expr"
	"github.com/dalzilio/mdd/solver"
	"github.com/sirupsen/logrus"
)

// configs stores the parameters of a checker.
type configs struct {
	strategy     mdd.Strategy
	ordering     []expr.Var
	pool         *solver.Pool
	log          logrus.FieldLogger
	forward      bool
	full         bool
	threshold    int
	parallelism  int
	tableOptions []mdd.Option
	observer     Observer
}

// Option is a configuration option of New.
type Option func(*configs)

func makeconfigs() *configs {
	return &configs{
		strategy:    mdd.DefaultStrategy,
		log:         logrus.StandardLogger(),
		forward:     true,
		threshold:   compile.DefaultThreshold,
		parallelism: 1,
	}
}

// WithStrategy sets the algorithm used to enumerate the state space. The
// default is mdd.GSAT.
func WithStrategy(s mdd.Strategy) Option {
	return func(c *configs) {
		c.strategy = s
	}
}

// WithOrdering sets the order of the variables in the diagrams, from the root
// to the bottom. It must be a permutation of the variables of the system. The
// default is the order of the declarations.
func WithOrdering(vars []expr.Var) Option {
	return func(c *configs) {
		c.ordering = append([]expr.Var(nil), vars...)
	}
}

// WithSolverPool sets the pool of oracle sessions used to compile
// expressions. The default is a fresh pool of gini sessions.
func WithSolverPool(p *solver.Pool) Option {
	return func(c *configs) {
		if p != nil {
			c.pool = p
		}
	}
}

// WithLogger sets the logger used to report the progress of a check. The
// default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *configs) {
		if log != nil {
			c.log = log
		}
	}
}

// WithForwardTrace selects the orientation of counterexamples: from an
// initial state to a violating state (the default), or the reverse.
func WithForwardTrace(forward bool) Option {
	return func(c *configs) {
		c.forward = forward
	}
}

// WithFullStateSpace disables the pruning of the exploration at violating
// states, so that the proof is the full set of reachable states.
func WithFullStateSpace() Option {
	return func(c *configs) {
		c.full = true
	}
}

// WithDomainThreshold sets the largest domain that is enumerated explicitly
// during compilation. Larger domains are symbolic.
func WithDomainThreshold(n int) Option {
	return func(c *configs) {
		if n >= 0 {
			c.threshold = n
		}
	}
}

// WithParallelism sets the number of transition disjuncts compiled
// concurrently. The default is 1.
func WithParallelism(n int) Option {
	return func(c *configs) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithTableOptions sets the options of the node table.
func WithTableOptions(options ...mdd.Option) Option {
	return func(c *configs) {
		c.tableOptions = append(c.tableOptions, options...)
	}
}

// WithMetrics registers an observer notified at the end of each check.
func WithMetrics(o Observer) Option {
	return func(c *configs) {
		c.observer = o
	}
}
