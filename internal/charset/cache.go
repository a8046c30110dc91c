package charset

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoized resolutions per Resolver.
const DefaultCacheSize = 64

// Resolver memoizes Resolve for one model's charset. Misses recompute, so the
// cache affects speed only. Safe for concurrent use.
type Resolver struct {
	cfg   *Config
	cache *lru.Cache[string, []string]
}

// NewResolver creates a resolver for cfg, which may be nil for models without
// a symbol table. size <= 0 selects DefaultCacheSize.
func NewResolver(cfg *Config, size int) *Resolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Resolver{cfg: cfg, cache: cache}
}

// Resolve returns the expanded symbol list for r. The result is a fresh copy
// the caller may modify.
func (r *Resolver) Resolve(rng Range) ([]string, error) {
	key := rng.Key()
	if symbols, ok := r.cache.Get(key); ok {
		return append([]string(nil), symbols...), nil
	}

	symbols, err := Resolve(rng, r.cfg)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, symbols)
	return append([]string(nil), symbols...), nil
}

// Len reports the number of cached resolutions.
func (r *Resolver) Len() int {
	return r.cache.Len()
}
