// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

// Node is a reference to an element of a diagram. It represents the set (or
// relation) whose paths go from the node to the accepting terminal. A nil Node
// is the result of an operation that failed.
type Node *int

// Edge is an outgoing edge of a node: the variable at the level of the node
// takes the given value and the remaining levels are described by Child.
type Edge struct {
	Value int64
	Child Node
}

// inode returns a Node for known nodes, such as terminals, that do not need to
// increase their reference count.
func inode(n int) Node {
	x := n
	return &x
}

var mddone Node = inode(1)

var mddzero Node = inode(0)
