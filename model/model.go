// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package model reads transition systems written in YAML.

A model declares its variables, an initial predicate, a transition relation
given either as a single predicate (trans) or as a list of disjuncts
(transitions), a safety property and, optionally, a variable ordering.
Predicates use the syntax of package expr, with a quote for the next-state
instance of a variable.

	name: counter
	variables:
	  - {name: x, type: int, min: 0, max: 3}
	  - {name: done, type: bool}
	init: x == 0 && !done
	transitions:
	  - x < 3 && x' == x + 1 && done' == done
	  - x == 3 && done' && x' == x
	property: "!done || x == 3"
	ordering: [done, x]
*/
package model

import (
	"io"
	"os"

	"github.com/dalzilio/mdd/checker"
	"github.com/dalzilio/mdd/expr"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrModel is returned for models that are syntactically valid YAML but
// describe an invalid system.
var ErrModel = errors.New("invalid model")

type variable struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Min  int64  `yaml:"min"`
	Max  int64  `yaml:"max"`
}

type document struct {
	Name        string     `yaml:"name"`
	Variables   []variable `yaml:"variables"`
	Init        string     `yaml:"init"`
	Trans       string     `yaml:"trans"`
	Transitions []string   `yaml:"transitions"`
	Property    string     `yaml:"property"`
	Ordering    []string   `yaml:"ordering"`
}

// Model is a transition system read from a file.
type Model struct {
	Name     string
	system   checker.System
	ordering []expr.Var
}

// System returns the transition system of the model.
func (m *Model) System() checker.System {
	return m.system
}

// Ordering returns the variable ordering of the model, or nil if the model
// does not give one.
func (m *Model) Ordering() []expr.Var {
	return m.ordering
}

// Options returns the checker options stated in the model.
func (m *Model) Options() []checker.Option {
	if m.ordering == nil {
		return nil
	}
	return []checker.Option{checker.WithOrdering(m.ordering)}
}

// LoadFile reads a model from a file.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return m, nil
}

// Load reads a model from r. Unknown fields are rejected.
func Load(r io.Reader) (*Model, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.UnmarshalStrict(buf, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding model")
	}
	vars, err := declare(doc.Variables)
	if err != nil {
		return nil, err
	}
	m := &Model{Name: doc.Name}
	m.system.Vars = vars
	if doc.Init == "" {
		return nil, errors.Wrap(ErrModel, "missing initial predicate")
	}
	if m.system.Init, err = expr.Parse(doc.Init, vars); err != nil {
		return nil, errors.Wrap(err, "initial predicate")
	}
	switch {
	case doc.Trans != "" && len(doc.Transitions) > 0:
		return nil, errors.Wrap(ErrModel, "both trans and transitions are given")
	case doc.Trans != "":
		if m.system.Trans, err = expr.Parse(doc.Trans, vars); err != nil {
			return nil, errors.Wrap(err, "transition relation")
		}
	case len(doc.Transitions) > 0:
		for k, src := range doc.Transitions {
			d, err := expr.Parse(src, vars)
			if err != nil {
				return nil, errors.Wrapf(err, "transition %d", k)
			}
			m.system.Disjuncts = append(m.system.Disjuncts, d)
		}
	default:
		return nil, errors.Wrap(ErrModel, "missing transition relation")
	}
	m.system.Prop = expr.True()
	if doc.Property != "" {
		if m.system.Prop, err = expr.Parse(doc.Property, vars); err != nil {
			return nil, errors.Wrap(err, "property")
		}
	}
	if doc.Ordering != nil {
		byname := make(map[string]expr.Var, len(vars))
		for _, v := range vars {
			byname[v.Name] = v
		}
		for _, name := range doc.Ordering {
			v, ok := byname[name]
			if !ok {
				return nil, errors.Wrapf(checker.ErrInvalidOrdering, "unknown variable %q", name)
			}
			m.ordering = append(m.ordering, v)
		}
		if err := checker.ValidateOrdering(vars, m.ordering); err != nil {
			return nil, err
		}
	}
	if err := m.system.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func declare(decls []variable) ([]expr.Var, error) {
	if len(decls) == 0 {
		return nil, errors.Wrap(ErrModel, "no variables")
	}
	seen := make(map[string]bool, len(decls))
	res := make([]expr.Var, 0, len(decls))
	for _, d := range decls {
		if d.Name == "" {
			return nil, errors.Wrap(ErrModel, "variable without a name")
		}
		if seen[d.Name] {
			return nil, errors.Wrapf(ErrModel, "duplicate variable %q", d.Name)
		}
		seen[d.Name] = true
		switch d.Type {
		case "bool":
			res = append(res, expr.Var{Name: d.Name, Type: expr.Bool()})
		case "int":
			if d.Min > d.Max {
				return nil, errors.Wrapf(ErrModel, "empty domain [%d, %d] for %q", d.Min, d.Max, d.Name)
			}
			res = append(res, expr.Var{Name: d.Name, Type: expr.Int(d.Min, d.Max)})
		default:
			return nil, errors.Wrapf(ErrModel, "unknown type %q for %q", d.Type, d.Name)
		}
	}
	return res, nil
}
