// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import "github.com/pkg/errors"

// bfsProvider computes the reachable states by iterating the image of the
// frontier until no new state is found.
type bfsProvider struct {
	t     *Table
	order *Order
	stats ProviderStats
}

func (p *bfsProvider) Stats() ProviderStats {
	return p.stats
}

func (p *bfsProvider) Compute(initial Node, d Descriptor) (Node, error) {
	t := p.t
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.checkptr(initial) != nil {
		return nil, errors.Wrap(t.error, "bfs")
	}
	t.maybegc()
	p.stats = ProviderStats{}
	// statistics must not depend on earlier operations
	t.imagecache.cachereset()
	hit, miss := t.imagecache.hit, t.imagecache.miss
	reach := *initial
	frontier := reach
	for frontier != 0 && t.error == nil {
		p.stats.Iterations++
		next := t.union(reach, t.image(d, frontier))
		if next == reach {
			break
		}
		frontier = t.diff(next, reach)
		reach = next
	}
	p.stats.Hits = int64(t.imagecache.hit - hit)
	p.stats.Queries = int64(t.imagecache.hit + t.imagecache.miss - hit - miss)
	p.stats.CacheSize = t.imagecache.size()
	if t.error != nil {
		return nil, errors.Wrap(t.error, "bfs")
	}
	return t.retnode(reach), nil
}
