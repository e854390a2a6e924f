// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Table is a store of quasi-reduced Multi-valued Decision Diagrams. Nodes are
// kept in a list and a unique table, using the runtime hashmap, associates the
// byte encoding of (level, edges) with a single index in the list. Hence two
// handles denote the same set if and only if they point to the same index.
//
// All the exported methods of Table can be called from different goroutines;
// they are serialized on an internal lock.
type Table struct {
	mu            sync.Mutex
	nodes         []mddnode        // List of all the nodes. Terminals are always kept at index 0 and 1
	unique        map[string]int   // Unicity table, used to associate each node to a single index
	freenum       int              // Number of free nodes
	freepos       int              // First free node
	produced      int              // Total number of new nodes ever produced
	gcproduced    int              // Value of produced at the last garbage collection
	hbuff         []byte           // Used to compute the key of nodes
	nodefinalizer func(*int)       // Finalizer used to decrement the ref count of external references
	identities    map[int]struct{} // Relation nodes known to be the identity on all their levels
	uniqueAccess  int              // accesses to the unique node table
	uniqueHit     int              // entries actually found in the the unique node table
	uniqueMiss    int              // entries not found in the the unique node table
	error         error
	log           logrus.FieldLogger
	gcstat        // Information about garbage collections
	caches        // Operation caches
	configs       // Configurable parameters
}

// New returns a new, empty, node table. Options can be used to set the initial
// size of the table and of the operation caches, as well as the logger.
//
//	t, _ := mdd.New(mdd.Nodesize(10000), mdd.Cachesize(3000))
func New(options ...func(*configs)) (*Table, error) {
	config := makeconfigs()
	for _, f := range options {
		f(config)
	}
	t := &Table{configs: *config}
	t.log = config.log
	nodesize := config.nodesize
	t.nodes = make([]mddnode, nodesize)
	for k := range t.nodes {
		t.nodes[k] = mddnode{level: _FREELEVEL, next: k + 1}
	}
	t.nodes[nodesize-1].next = 0
	t.unique = make(map[string]int, nodesize)
	t.identities = make(map[int]struct{})
	// the two terminals are never added to the unique table.
	t.nodes[0] = mddnode{level: _MAXLEVEL, refcou: _MAXREFCOUNT}
	t.nodes[1] = mddnode{level: _MAXLEVEL, refcou: _MAXREFCOUNT}
	t.freepos = 2
	t.freenum = nodesize - 2
	t.gcstat.history = []gcpoint{}
	t.nodefinalizer = func(n *int) {
		t.mu.Lock()
		t.gcstat.calledfinalizers++
		if *n < len(t.nodes) && t.nodes[*n].refcou > 0 {
			t.nodes[*n].refcou--
		}
		t.mu.Unlock()
	}
	t.cacheinit(config.cachesize)
	if config.maxnodesize > 0 && config.maxnodesize < nodesize {
		return nil, fmt.Errorf("maximal size (%d) smaller than initial size (%d)", config.maxnodesize, nodesize)
	}
	return t, nil
}

// True returns the accepting terminal: the set containing only the empty
// valuation.
func (t *Table) True() Node {
	return mddone
}

// False returns the empty terminal, that denotes the empty set at every level.
func (t *Table) False() Node {
	return mddzero
}

// checkptr performs a sanity check prior to accessing a node and return
// eventual error code.
func (t *Table) checkptr(n Node) error {
	switch {
	case n == nil:
		t.seterror("illegal acces to node (nil value)")
		return t.error
	case (*n < 0) || (*n >= len(t.nodes)):
		t.seterror("illegal acces to node %d", *n)
		return t.error
	case *n >= 2 && t.isfree(*n):
		t.seterror("illegal acces to node %d", *n)
		return t.error
	}
	return nil
}

// MakeNode returns the node at the given level with the given edges. Edges do
// not need to be sorted, but values must be distinct. Each child must be a
// terminal or a node of the next level. Edges pointing to the empty terminal
// are dropped.
func (t *Table) MakeNode(level int, edges []Edge) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if level < 0 || int32(level) >= _MAXLEVEL {
		return t.seterror("bad level (%d) in call to MakeNode", level)
	}
	t.maybegc()
	buf := make([]edge, 0, len(edges))
	for _, e := range edges {
		if t.checkptr(e.Child) != nil {
			return t.seterror("wrong child in call to MakeNode at level %d", level)
		}
		c := *e.Child
		if c > 1 && t.nodes[c].level != int32(level+1) {
			return t.seterror("child %d at level %d below node at level %d", c, t.nodes[c].level, level)
		}
		buf = append(buf, edge{value: e.Value, child: c})
	}
	sortedges(buf)
	for k := 1; k < len(buf); k++ {
		if buf[k].value == buf[k-1].value {
			return t.seterror("duplicate value %d in call to MakeNode", buf[k].value)
		}
	}
	res := t.makenode(int32(level), buf)
	if t.error != nil {
		return nil
	}
	return t.retnode(res)
}

// Level returns the level of node n, or -1 if n is a terminal.
func (t *Table) Level(n Node) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(n) != nil || *n < 2 {
		return -1
	}
	return int(t.nodes[*n].level)
}

// Edges returns the outgoing edges of node n, sorted by value.
func (t *Table) Edges(n Node) []Edge {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(n) != nil || *n < 2 {
		return nil
	}
	res := make([]Edge, len(t.nodes[*n].edges))
	for k, e := range t.nodes[*n].edges {
		res[k] = Edge{Value: e.value, Child: t.retnode(e.child)}
	}
	return res
}

// Equal tests equivalence between nodes.
func (t *Table) Equal(a, b Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// IsEmpty returns true if n denotes the empty set.
func (t *Table) IsEmpty(n Node) bool {
	return n != nil && *n == 0
}

// GC reclaims all the nodes that are not reachable from a live handle and
// resets the operation caches.
func (t *Table) GC() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gbc()
}

func (t *Table) level(n int) int32 {
	return t.nodes[n].level
}

// child returns the successor of n for value v, or 0 if there is none.
func (t *Table) child(n int, v int64) int {
	edges := t.nodes[n].edges
	lo, hi := 0, len(edges)
	for lo < hi {
		m := int(uint(lo+hi) >> 1)
		if edges[m].value < v {
			lo = m + 1
		} else {
			hi = m
		}
	}
	if lo < len(edges) && edges[lo].value == v {
		return edges[lo].child
	}
	return 0
}

// Stats returns information about the table.
func (t *Table) Stats() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := fmt.Sprintf("Allocated:  %d\n", len(t.nodes))
	res += fmt.Sprintf("Produced:   %d\n", t.produced)
	r := (float64(t.freenum) / float64(len(t.nodes))) * 100
	res += fmt.Sprintf("Free:       %d  (%.3g %%)\n", t.freenum, r)
	res += fmt.Sprintf("Used:       %d  (%.3g %%)\n", len(t.nodes)-t.freenum, (100.0 - r))
	res += fmt.Sprintf("Size:       %s\n", humanSize(len(t.nodes), unsafe.Sizeof(mddnode{})))
	res += "==============\n"
	res += t.gcstat.String()
	res += "==============\n"
	res += fmt.Sprintf("Unique Access:  %d\n", t.uniqueAccess)
	res += fmt.Sprintf("Unique Hit:     %d\n", t.uniqueHit)
	res += fmt.Sprintf("Unique Miss:    %d\n", t.uniqueMiss)
	t.updatestat()
	res += t.cacheStat.String()
	return res
}
