// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

/*
Package mdd defines a concrete type for quasi-reduced Multi-valued Decision
Diagrams (MDD), a data structure used to represent sets of integer vectors with
a fixed size, and relations between such vectors, together with the algorithms
needed to explore the state space of a transition system symbolically.

Basics

Diagrams are stored in a Table. Each node of a diagram has a level and a list
of edges, each labelled with a distinct integer value. Every path from a root
at level 0 visits all the levels of the ordering before reaching a terminal,
hence a diagram over an Order with n variables denotes a set of vectors of
length n. Nodes are hash-consed, which means that two Nodes are equal (see
method Equal) if and only if they denote the same set.

Relations between states are diagrams over an interleaved order, where the
state variable of level k is represented by the current value at level 2k and
the next value at level 2k+1.

Next-state descriptors

A transition relation is given by a Descriptor: a Leaf wraps the diagram of
one transition, with its locality (the range of levels it reads or writes); a
Union combines several descriptors; an OnTheFly descriptor prunes the
exploration against a target set; and a Reversed descriptor gives the
predecessors of a set of states in a known state space.

Reachability

A Provider computes the set of reachable states, using breadth-first search
(BFS), saturation (SAT) or generalized saturation (GSAT). A TraceProvider
builds a path from an initial state to a target state.

Automatic memory management

The library is written in pure Go. We take care of table resizing and memory
management directly in the library, but "external" references to nodes made by
user code are automatically managed by the Go runtime. Unused nodes are
collected at the start of a public operation, when the table is short of free
slots, or on demand with method GC.
*/
package mdd
