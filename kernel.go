// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"encoding/binary"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
)

// _MINFREENODES is the minimal number of nodes (%) that has to be left after a
// garbage collect unless a resize should be done.
const _MINFREENODES int = 20

// _MAXLEVEL is the level of the two terminal nodes. We use only the first 21
// bits for encoding levels (so also the max number of variables) and keep the
// other bits of refcou for markings.
const _MAXLEVEL int32 = 0x1FFFFF

// _FREELEVEL is the level of an unused slot in the node list.
const _FREELEVEL int32 = -1

// _MAXREFCOUNT is the maximal value of the reference counter (refcou), also
// used to stick nodes (like the terminals) in the node list. It is egal to
// 1023 (10 bits).
const _MAXREFCOUNT int32 = 0x3FF

// _DEFAULTMAXNODEINC is the default value for the maximal increase in the
// number of nodes during a resize. It is approx. one million nodes (1 048 576).
const _DEFAULTMAXNODEINC int = 1 << 20

var errMemory = errors.New("unable to free memory or resize node table")

// mddnode is a vertex of the diagram. Edges are sorted by increasing value and
// never point to the empty terminal. A free slot has level _FREELEVEL and uses
// next to chain the free list.
type mddnode struct {
	level  int32  // Position of the variable in the ordering
	refcou int32  // Count the number of external references
	edges  []edge // Outgoing edges, sorted by value
	next   int    // Next free slot, only meaningful for unused slots
}

type edge struct {
	value int64
	child int
}

func (t *Table) ismarked(n int) bool {
	return (t.nodes[n].refcou & 0x200000) != 0
}

func (t *Table) marknode(n int) {
	t.nodes[n].refcou |= 0x200000
}

func (t *Table) unmarknode(n int) {
	t.nodes[n].refcou &= 0x1FFFFF
}

func (t *Table) isfree(n int) bool {
	return t.nodes[n].level == _FREELEVEL
}

// retnode returns a handle on node n and increments its reference count. The
// count is decremented when the handle is reclaimed by the Go runtime.
func (t *Table) retnode(n int) Node {
	if n < 0 || n >= len(t.nodes) {
		t.seterror("invalid node index (%d)", n)
		return nil
	}
	if n == 0 {
		return mddzero
	}
	if n == 1 {
		return mddone
	}
	x := n
	if t.nodes[n].refcou < _MAXREFCOUNT {
		t.nodes[n].refcou++
		runtime.SetFinalizer(&x, t.nodefinalizer)
		atomic.AddUint64(&(t.gcstat.setfinalizers), 1)
	}
	return &x
}

// encode writes the byte key of node (level, edges) in t.hbuff.
func (t *Table) encode(level int32, edges []edge) {
	t.hbuff = t.hbuff[:0]
	t.hbuff = binary.LittleEndian.AppendUint32(t.hbuff, uint32(level))
	for _, e := range edges {
		t.hbuff = binary.LittleEndian.AppendUint64(t.hbuff, uint64(e.value))
		t.hbuff = binary.LittleEndian.AppendUint64(t.hbuff, uint64(e.child))
	}
}

// makenode returns the unique node with the given level and edges. Edges must
// be sorted by value; edges pointing to the empty terminal are dropped and a
// node without edges is the empty terminal itself. The slice is copied when a
// new node is created, so callers can reuse their buffers.
func (t *Table) makenode(level int32, edges []edge) int {
	k := 0
	for _, e := range edges {
		if e.child != 0 {
			edges[k] = e
			k++
		}
	}
	edges = edges[:k]
	if len(edges) == 0 {
		return 0
	}
	t.uniqueAccess++
	t.encode(level, edges)
	if res, ok := t.unique[string(t.hbuff)]; ok {
		t.uniqueHit++
		return res
	}
	t.uniqueMiss++
	if t.freepos == 0 {
		// We never collect garbage in the middle of an operation, since
		// intermediate results are not protected. Growing is the only option.
		if err := t.noderesize(); err != nil {
			t.seterror("cannot create node at level %d; %s", level, err)
			return 0
		}
		// noderesize overwrites the hash buffer when logging.
		t.encode(level, edges)
	}
	t.produced++
	res := t.freepos
	t.freepos = t.nodes[res].next
	t.freenum--
	t.nodes[res] = mddnode{
		level: level,
		edges: append([]edge(nil), edges...),
	}
	t.unique[string(t.hbuff)] = res
	return res
}

func (t *Table) delnode(n int) {
	t.encode(t.nodes[n].level, t.nodes[n].edges)
	delete(t.unique, string(t.hbuff))
}

func (t *Table) noderesize() error {
	oldsize := len(t.nodes)
	nodesize := oldsize
	if (oldsize >= t.maxnodesize) && (t.maxnodesize > 0) {
		return errMemory
	}
	if oldsize > (math.MaxInt32 >> 1) {
		nodesize = math.MaxInt32 - 1
	} else {
		nodesize = nodesize << 1
	}
	if t.maxnodeincrease > 0 && nodesize > (oldsize+t.maxnodeincrease) {
		nodesize = oldsize + t.maxnodeincrease
	}
	if (nodesize > t.maxnodesize) && (t.maxnodesize > 0) {
		nodesize = t.maxnodesize
	}
	if nodesize <= oldsize {
		return errMemory
	}
	t.log.WithField("from", oldsize).WithField("to", nodesize).Debug("resizing node table")

	tmp := t.nodes
	t.nodes = make([]mddnode, nodesize)
	copy(t.nodes, tmp)
	for n := oldsize; n < nodesize; n++ {
		t.nodes[n] = mddnode{level: _FREELEVEL, next: n + 1}
	}
	t.nodes[nodesize-1].next = t.freepos
	t.freepos = oldsize
	t.freenum += nodesize - oldsize
	t.cacheresize()
	return nil
}

// maybegc collects unused nodes when the table is running short of free
// slots. It is only called at the start of a public operation, when every
// live node is either referenced by a handle or reachable from one.
func (t *Table) maybegc() {
	if t.produced == t.gcproduced {
		return
	}
	if (t.freenum*100)/len(t.nodes) > t.minfreenodes {
		return
	}
	t.gbc()
}

func (t *Table) gbc() {
	t.gcstat.history = append(t.gcstat.history, gcpoint{
		nodes:            len(t.nodes),
		freenodes:        t.freenum,
		setfinalizers:    int(atomic.SwapUint64(&t.gcstat.setfinalizers, 0)),
		calledfinalizers: int(atomic.SwapUint64(&t.gcstat.calledfinalizers, 0)),
	})
	// we protect nodes with a positive refcount (and therefore also the ones
	// with a MAXREFCOUNT, such as terminals)
	for k := range t.nodes {
		if k > 1 && (t.nodes[k].refcou&0x1FFFFF) > 0 {
			t.markrec(k)
		}
	}
	t.freepos = 0
	t.freenum = 0
	// After this pass, t.freepos points to the first free position in t.nodes,
	// or it is 0 if we found none.
	for n := len(t.nodes) - 1; n > 1; n-- {
		if t.ismarked(n) && !t.isfree(n) {
			t.unmarknode(n)
			continue
		}
		if !t.isfree(n) {
			t.delnode(n)
			delete(t.identities, n)
		}
		t.nodes[n] = mddnode{level: _FREELEVEL, next: t.freepos}
		t.freepos = n
		t.freenum++
	}
	t.gcproduced = t.produced
	t.cachereset()
	t.log.WithField("free", t.freenum).WithField("size", len(t.nodes)).Debug("garbage collection")
}

func (t *Table) markrec(n int) {
	if n < 2 || t.ismarked(n) || t.isfree(n) {
		return
	}
	t.marknode(n)
	for _, e := range t.nodes[n].edges {
		t.markrec(e.child)
	}
}
