// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package checker

import (
	"github.com/dalzilio/mdd/expr"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidOrdering is returned when a variable ordering is not a
	// permutation of the variables of the system.
	ErrInvalidOrdering = errors.New("invalid variable ordering")

	// ErrInvalidSystem is returned when the expressions of a system refer to
	// unknown variables, or when the initial and safety predicates refer to
	// next-state instances.
	ErrInvalidSystem = errors.New("invalid transition system")
)

// System is a finite-domain transition system. Init and Prop are predicates
// over the current instances of Vars. The transition relation is the
// disjunction of Disjuncts, or Trans when there are none; it relates current
// and next instances. A variable whose next instance never occurs in the
// relation keeps its value.
type System struct {
	Vars      []expr.Var
	Init      *expr.Expr
	Trans     *expr.Expr
	Disjuncts []*expr.Expr
	Prop      *expr.Expr
}

// Relation returns the disjuncts of the transition relation, in registration
// order. A monolithic relation is split on its top-level disjunctions.
func (sys System) Relation() []*expr.Expr {
	if len(sys.Disjuncts) > 0 {
		return sys.Disjuncts
	}
	if sys.Trans == nil {
		return nil
	}
	return expr.Disjuncts(expr.Simplify(sys.Trans))
}

// Validate checks that the system is well formed.
func (sys System) Validate() error {
	if len(sys.Vars) == 0 {
		return errors.Wrap(ErrInvalidSystem, "no variables")
	}
	known := make(map[expr.Var]bool, len(sys.Vars))
	for _, v := range sys.Vars {
		if known[v] {
			return errors.Wrapf(ErrInvalidSystem, "duplicate variable %s", v)
		}
		known[v] = true
	}
	check := func(what string, e *expr.Expr, next bool) error {
		if e == nil {
			return errors.Wrapf(ErrInvalidSystem, "missing %s", what)
		}
		if !e.IsBool() {
			return errors.Wrapf(ErrInvalidSystem, "%s %s is not a predicate", what, e)
		}
		if err := expr.TypeCheck(e); err != nil {
			return errors.Wrapf(err, "%s", what)
		}
		for _, d := range expr.Decls(e) {
			if !known[d.Var] {
				return errors.Wrapf(ErrInvalidSystem, "unknown variable %s in %s", d.Var, what)
			}
			if d.IsNext() && !next {
				return errors.Wrapf(ErrInvalidSystem, "next-state instance %s in %s", d, what)
			}
		}
		return nil
	}
	if err := check("initial predicate", sys.Init, false); err != nil {
		return err
	}
	if err := check("property", sys.Prop, false); err != nil {
		return err
	}
	rel := sys.Relation()
	if len(rel) == 0 {
		return errors.Wrap(ErrInvalidSystem, "missing transition relation")
	}
	for k, d := range rel {
		if err := check("transition", d, true); err != nil {
			return errors.Wrapf(err, "disjunct %d", k)
		}
	}
	return nil
}

// ValidateOrdering checks that ordering is a permutation of vars: no missing
// variable, no foreign variable and no duplicate.
func ValidateOrdering(vars, ordering []expr.Var) error {
	known := make(map[expr.Var]bool, len(vars))
	for _, v := range vars {
		known[v] = true
	}
	seen := make(map[expr.Var]bool, len(ordering))
	for _, v := range ordering {
		if !known[v] {
			return errors.Wrapf(ErrInvalidOrdering, "variable %s is not in the system", v)
		}
		if seen[v] {
			return errors.Wrapf(ErrInvalidOrdering, "duplicate variable %s", v)
		}
		seen[v] = true
	}
	for _, v := range vars {
		if !seen[v] {
			return errors.Wrapf(ErrInvalidOrdering, "missing variable %s", v)
		}
	}
	return nil
}

// ************************************************************

// frame returns the conjunct x' == x for a variable x.
func frame(v expr.Var) *expr.Expr {
	return expr.Eq(expr.Next(v), expr.Cur(v))
}

// framed returns the variable v if e is a conjunct x' == x (in any order).
func framed(e *expr.Expr) (expr.Var, bool) {
	if e.Op() != expr.OpEq {
		return expr.Var{}, false
	}
	a, b := e.Args()[0], e.Args()[1]
	if a.Op() != expr.OpRef || b.Op() != expr.OpRef || a.Decl().Var != b.Decl().Var {
		return expr.Var{}, false
	}
	if a.Decl().IsNext() == b.Decl().IsNext() {
		return expr.Var{}, false
	}
	return a.Decl().Var, true
}

// written returns the set of variables whose next instance occurs in one of
// the disjuncts.
func written(rel []*expr.Expr) map[expr.Var]bool {
	res := make(map[expr.Var]bool)
	for _, d := range rel {
		for _, decl := range expr.Decls(d) {
			if decl.IsNext() {
				res[decl.Var] = true
			}
		}
	}
	return res
}

// support returns the variables on which disjunct d is not the identity: the
// variables it reads or writes outside of frame conjuncts, and the variables
// written elsewhere that d leaves unconstrained.
func support(d *expr.Expr, written map[expr.Var]bool) map[expr.Var]bool {
	res := make(map[expr.Var]bool)
	kept := make(map[expr.Var]bool)
	for _, c := range expr.Conjuncts(d) {
		if v, ok := framed(c); ok {
			kept[v] = true
			continue
		}
		for _, decl := range expr.Decls(c) {
			res[decl.Var] = true
		}
	}
	for v := range written {
		if !kept[v] {
			res[v] = true
		}
	}
	return res
}

// Enabled returns the index of the first disjunct relating valuation from to
// valuation to, both over current instances, or -1 if there is none.
func (sys System) Enabled(from, to expr.Valuation) (int, error) {
	pair := make(expr.Valuation, len(from)+len(to))
	for d, x := range from {
		pair[d] = x
	}
	for d, x := range to {
		pair[expr.NextDecl(d.Var)] = x
	}
	rel := sys.Relation()
	w := written(rel)
	var frames []*expr.Expr
	for _, v := range sys.Vars {
		if !w[v] {
			frames = append(frames, frame(v))
		}
	}
	for k, d := range rel {
		ok, err := expr.Holds(expr.And(append([]*expr.Expr{d}, frames...)...), pair)
		if err != nil {
			return -1, errors.Wrapf(err, "disjunct %d", k)
		}
		if ok {
			return k, nil
		}
	}
	return -1, nil
}
