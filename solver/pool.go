// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package solver

import "sync"

// Pool is a set of interchangeable solver sessions. It is safe for
// concurrent use.
type Pool struct {
	mu      sync.Mutex
	free    []Solver
	factory func() Solver
	created int
}

// NewPool returns a pool of sessions built by factory.
func NewPool(factory func() Solver) *Pool {
	return &Pool{factory: factory}
}

// NewGiniPool returns a pool of gini sessions sharing the same options.
func NewGiniPool(options ...func(*configs)) *Pool {
	return NewPool(func() Solver { return NewGini(options...) })
}

// Get returns an idle session, or a new one if there is none.
func (p *Pool) Get() Solver {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free = p.free[:n-1]
		return s
	}
	p.created++
	return p.factory()
}

// Put gives back a session to the pool, after popping all its open scopes.
func (p *Pool) Put(s Solver) {
	for s.Depth() > 0 {
		s.Pop()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, s)
}

// Created returns the number of sessions created by the pool.
func (p *Pool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
