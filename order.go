// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"fmt"
	"strings"
)

// Variable is an entry of a variable ordering. ID is the identity of the
// underlying variable and must be comparable. Domain is the number of values
// the variable can take, with 0 meaning that the domain is symbolic: values
// are discovered on demand instead of being enumerated upfront.
type Variable struct {
	ID     any
	Domain int
}

// Order is a total order over variables. Position 0 is the level of the root
// of every diagram built on the order, and position Len()-1 is the level just
// above the terminals.
type Order struct {
	vars  []Variable
	index map[any]int
}

// NewOrder returns an empty variable ordering.
func NewOrder() *Order {
	return &Order{index: make(map[any]int)}
}

// CreateOnTop adds a new variable above all the existing ones; it becomes the
// variable of level 0. We return an error if the identity is already used in
// the ordering or if the domain size is negative.
func (o *Order) CreateOnTop(id any, domain int) error {
	if domain < 0 {
		return fmt.Errorf("negative domain size (%d) for variable %v", domain, id)
	}
	if _, ok := o.index[id]; ok {
		return fmt.Errorf("duplicate variable %v in ordering", id)
	}
	o.vars = append([]Variable{{ID: id, Domain: domain}}, o.vars...)
	for k := range o.index {
		o.index[k]++
	}
	o.index[id] = 0
	return nil
}

// Len returns the number of variables in the ordering.
func (o *Order) Len() int {
	return len(o.vars)
}

// At returns the variable at position i.
func (o *Order) At(i int) Variable {
	return o.vars[i]
}

// Position returns the level of variable id, if it belongs to the ordering.
func (o *Order) Position(id any) (int, bool) {
	k, ok := o.index[id]
	return k, ok
}

// Variables returns the entries of the ordering, from the root to the bottom.
func (o *Order) Variables() []Variable {
	return append([]Variable(nil), o.vars...)
}

func (o *Order) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for k, v := range o.vars {
		if k > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d:%v", k, v.ID)
		if v.Domain > 0 {
			fmt.Fprintf(&sb, "(%d)", v.Domain)
		}
	}
	sb.WriteString("]")
	return sb.String()
}
