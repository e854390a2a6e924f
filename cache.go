// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"fmt"
	"math/big"
)

// ************************************************************
// cache is used for caching the results of set and relational operations.
// Caches are lossy: a new entry overwrites the previous one with the same hash.
type cache struct {
	cacheratio int // value used to resize the caches as a factor of the number of nodes
	table      []cacheData
	hit        int // entries found in the cache
	miss       int // entries not found in the cache
}

// cacheData is a unit of information stored in a cache
type cacheData struct {
	res int
	a   int
	b   int
	c   int
}

// caches groups the different kind of caches used in the table.
type caches struct {
	applycache cache // Cache for union, intersection and difference
	imagecache cache // Cache for relational products
	swapcache  cache // Cache for relation reversal
	cacheStat
}

// cacheStat stores status information about cache usage
type cacheStat struct {
	opHit  int // entries found in the operator caches, since the last reset
	opMiss int // entries not found in the operator caches, since the last reset
}

// ************************************************************

// Basic functions shared by all caches

func (bc *cache) cacheinit(size int, ratio int) {
	size = nextPrime(size)
	bc.table = make([]cacheData, size)
	bc.cacheratio = ratio
	bc.cachereset()
}

func (bc *cache) cacheresize(nodes int) {
	if bc.cacheratio > 0 {
		bc.cacheinit((nodes*bc.cacheratio)/100, bc.cacheratio)
		return
	}
	bc.cachereset()
}

func (bc *cache) cachereset() {
	for k := range bc.table {
		bc.table[k].a = -1
	}
}

// size returns the number of entries in use.
func (bc *cache) size() int {
	res := 0
	for _, e := range bc.table {
		if e.a >= 0 {
			res++
		}
	}
	return res
}

// nextPrime returns the least odd prime not smaller than n. Prime sizes spread
// the entries of the cache.
func nextPrime(n int) int {
	if n < 3 {
		return 3
	}
	n |= 1
	for !big.NewInt(int64(n)).ProbablyPrime(0) {
		n += 2
	}
	return n
}

// slot returns the index of the entry for key (a, b, c).
func (bc *cache) slot(a, b, c int) int {
	h := uint64(a)*0x9e3779b97f4a7c15 ^ uint64(b)*0xc2b2ae3d27d4eb4f ^ uint64(c)*0x165667b19e3779f9
	h ^= h >> 29
	return int(h % uint64(len(bc.table)))
}

func (bc *cache) match(a, b, c int) int {
	entry := bc.table[bc.slot(a, b, c)]
	if entry.a == a && entry.b == b && entry.c == c {
		bc.hit++
		return entry.res
	}
	bc.miss++
	return -1
}

func (bc *cache) set(a, b, c, res int) int {
	bc.table[bc.slot(a, b, c)] = cacheData{
		a:   a,
		b:   b,
		c:   c,
		res: res,
	}
	return res
}

// *************************************************************************
// Setup and shutdown

func (t *Table) cacheinit(cachesize int) {
	if cachesize <= 0 {
		cachesize = len(t.nodes)/5 + 1
	}
	t.applycache.cacheinit(cachesize, t.cacheratio)
	t.imagecache.cacheinit(cachesize, t.cacheratio)
	t.swapcache.cacheinit(cachesize, t.cacheratio)
}

func (t *Table) cachereset() {
	t.applycache.cachereset()
	t.imagecache.cachereset()
	t.swapcache.cachereset()
}

func (t *Table) cacheresize() {
	t.applycache.cacheresize(len(t.nodes))
	t.imagecache.cacheresize(len(t.nodes))
	t.swapcache.cacheresize(len(t.nodes))
}

func (t *Table) updatestat() {
	t.opHit = t.applycache.hit + t.imagecache.hit + t.swapcache.hit
	t.opMiss = t.applycache.miss + t.imagecache.miss + t.swapcache.miss
}

// ************************************************************

// The hash function for Apply is #(left, right, op).

func (t *Table) matchapply(left, right int, op Operator) int {
	return t.applycache.match(left, right, int(op))
}

func (t *Table) setapply(left, right int, op Operator, res int) int {
	return t.applycache.set(left, right, int(op), res)
}

// The hash function for images is #(states, relation, 0).

func (t *Table) matchimage(s, r int) int {
	return t.imagecache.match(s, r, 0)
}

func (t *Table) setimage(s, r, res int) int {
	return t.imagecache.set(s, r, 0, res)
}

// The hash function for Swap(r) is #(r, 0, 0).

func (t *Table) matchswap(r int) int {
	return t.swapcache.match(r, 0, 0)
}

func (t *Table) setswap(r, res int) int {
	return t.swapcache.set(r, 0, 0, res)
}

// ************************************************************

// Prints information about the cache performance. Hit and miss count is given
// for the operator caches.

func (c cacheStat) String() string {
	res := fmt.Sprintf("Operator Hits:  %d\n", c.opHit)
	res += fmt.Sprintf("Operator Miss:  %d\n", c.opMiss)
	return res
}
