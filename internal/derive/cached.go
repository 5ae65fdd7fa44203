package derive

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/userstats/internal/ir"
)

// Cached memoizes another Deriver. Derivation is pure, so a cached result
// is always equal to a fresh one. Errors are not cached.
//
// Thread-safety: safe for concurrent use (the LRU is internally locked).
type Cached struct {
	next  Deriver
	cache *lru.Cache[ir.Identity, Derivation]
}

var _ Deriver = (*Cached)(nil)

// NewCached wraps next with an LRU of the given size.
func NewCached(next Deriver, size int) (*Cached, error) {
	cache, err := lru.New[ir.Identity, Derivation](size)
	if err != nil {
		return nil, fmt.Errorf("derive cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Derive returns the cached derivation for owner, computing it on a miss.
func (c *Cached) Derive(owner ir.Identity) (Derivation, error) {
	if d, ok := c.cache.Get(owner); ok {
		return d, nil
	}
	d, err := c.next.Derive(owner)
	if err != nil {
		return Derivation{}, err
	}
	c.cache.Add(owner, d)
	return d, nil
}

// Len returns the number of cached derivations.
func (c *Cached) Len() int { return c.cache.Len() }
