// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Strategy selects the algorithm used to compute the set of reachable states.
type Strategy int

const (
	BFS  Strategy = iota // Breadth-first image computation
	SAT                  // Saturation, all the events of a level fire together
	GSAT                 // Generalized saturation, deepest events fire first
)

// DefaultStrategy is the strategy used when none is given.
const DefaultStrategy = GSAT

var strategynames = [3]string{
	BFS:  "BFS",
	SAT:  "SAT",
	GSAT: "GSAT",
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategynames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategynames[s]
}

// ParseStrategy returns the strategy with the given name, ignoring case.
func ParseStrategy(name string) (Strategy, error) {
	for k, v := range strategynames {
		if strings.EqualFold(v, name) {
			return Strategy(k), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

// ProviderStats reports the activity of a provider during its last call to
// Compute.
type ProviderStats struct {
	Hits       int64 // Lookups answered by the cache
	Queries    int64 // Total number of cache lookups
	CacheSize  int   // Number of entries left in the cache
	Iterations int   // Number of image (BFS) or saturation (SAT, GSAT) steps
	Firings    int   // Number of events fired during saturation (SAT, GSAT)
}

// Provider computes the set of states reachable from an initial set by a
// next-state descriptor.
type Provider interface {
	// Compute returns the least set of states containing initial and closed
	// under d, taking into account the pruning of on-the-fly descriptors.
	Compute(initial Node, d Descriptor) (Node, error)
	// Stats returns the cache statistics of the last computation.
	Stats() ProviderStats
}

// NewProvider returns a provider implementing strategy s, for states over
// the given order.
func NewProvider(t *Table, order *Order, s Strategy) (Provider, error) {
	switch s {
	case BFS:
		return &bfsProvider{t: t, order: order}, nil
	case SAT:
		return &satProvider{t: t, order: order}, nil
	case GSAT:
		return &satProvider{t: t, order: order, generalized: true}, nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%s", s)
}
