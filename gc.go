// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import "fmt"

// gcstat stores status information about garbage collections. We use a stack
// (slice) of objects to record the sequence of GC during a computation.
type gcstat struct {
	setfinalizers    uint64    // Total number of external references to nodes
	calledfinalizers uint64    // Number of external references that were freed
	history          []gcpoint // Snaphot of GC stats at each occurrence
}

type gcpoint struct {
	nodes            int // Total number of allocated nodes in the nodetable
	freenodes        int // Number of free nodes in the nodetable
	setfinalizers    int // Total number of external references to nodes
	calledfinalizers int // Number of external references that were freed
}

func (g *gcstat) String() string {
	allocated := int(g.setfinalizers)
	reclaimed := int(g.calledfinalizers)
	for _, p := range g.history {
		allocated += p.setfinalizers
		reclaimed += p.calledfinalizers
	}
	res := fmt.Sprintf("# of GC:    %d\n", len(g.history))
	res += fmt.Sprintf("Ext. refs:  %d\n", allocated)
	res += fmt.Sprintf("Reclaimed:  %d\n", reclaimed)
	return res
}

// GCCount returns the number of garbage collections since the creation of the
// table.
func (t *Table) GCCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.gcstat.history)
}

// *************************************************************************

// AddRef increases the reference count on node n and returns n so that calls
// can be easily chained together. A call to AddRef can never raise an error,
// even if we access an unused node or a value outside the range of the table.
//
// Handles returned by the table are already counted; AddRef is only needed to
// pin a node that must survive the loss of all its handles.
func (t *Table) AddRef(n Node) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n == nil || *n < 2 || *n >= len(t.nodes) || t.isfree(*n) {
		return n
	}
	if t.nodes[*n].refcou < _MAXREFCOUNT {
		t.nodes[*n].refcou++
	}
	return n
}

// DelRef decreases the reference count on a node and returns n so that calls
// can be easily chained together. A call to DelRef can never raise an error,
// even if we access an unused node or a value outside the range of the table.
func (t *Table) DelRef(n Node) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n == nil || *n < 2 || *n >= len(t.nodes) || t.isfree(*n) {
		return n
	}
	if t.nodes[*n].refcou <= 0 {
		return n
	}
	if t.nodes[*n].refcou < _MAXREFCOUNT {
		t.nodes[*n].refcou--
	}
	return n
}
