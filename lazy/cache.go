// Copyright 2025 The Gromb Authors. All rights reserved.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package lazy

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tayne3/spanbuf"
)

// UndefLen is the sentinel a Loader reports from Length when its segment
// length is unknown until the first Load.
const UndefLen int64 = -1

var nextLoaderID uint64

// NewLoaderID hands out a process-wide unique key for the shared cache; an
// in-process monotonic counter is all identity a Cache entry needs.
// Exported so spanbuf/tree's TreeLazyLoader (which reuses this cache
// mechanism rather than re-deriving one) can mint its own ids.
func NewLoaderID() uint64 { return atomic.AddUint64(&nextLoaderID, 1) }

// DefaultCacheSize bounds the number of distinct loader segments kept
// resident at once. Go has no portable soft reference (see DESIGN.md); an
// LRU bounded across all loaders sharing a Factory is the idiomatic Go
// substitute for "reclaimable under memory pressure" used throughout the
// retrieved pack (grafana-tempo requires hashicorp/golang-lru/v2 directly).
const DefaultCacheSize = 256

// Cache is a soft-reference stand-in shared by every Loader created from
// the same Factory (or the same TreeLazyLoader tree): Load results are
// cached keyed by the loader's private id, and eviction (by the shared
// LRU, once more distinct segments are touched than the cache holds) is
// the "memory pressure" signal that triggers a Loader's next Load to
// re-fetch.
type Cache struct {
	lru *lru.Cache[uint64, spanbuf.Buffer]
}

// NewCache creates a Cache bounded to size entries (DefaultCacheSize if
// size <= 0).
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[uint64, spanbuf.Buffer](size)
	if err != nil {
		// Only returns an error for a non-positive size, which is excluded
		// above; a panic here would indicate a bug in this constructor.
		panic(err)
	}
	return &Cache{lru: c}
}

// DefaultCache is used by loaders that are not explicitly given one (e.g.
// constructed directly in tests rather than through a Factory).
var DefaultCache = NewCache(DefaultCacheSize)

// Singleflight ensures concurrent Load calls for the same loader id observe
// at most one underlying fetch.
type Singleflight struct {
	mu sync.Mutex
}

// LoadOnce returns the cached buffer for id, or calls fetch to populate it.
// fetch is invoked with sf's mutex held, so concurrent callers serialize
// rather than fetch in parallel.
func (c *Cache) LoadOnce(sf *Singleflight, id uint64, fetch func() (spanbuf.Buffer, error)) (spanbuf.Buffer, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if buf, ok := c.lru.Get(id); ok {
		return buf, nil
	}
	buf, err := fetch()
	if err != nil {
		return nil, err
	}
	c.lru.Add(id, buf)
	return buf, nil
}

// Forget evicts id from the cache, e.g. after an I/O error so a later Load
// doesn't see stale cached success.
func (c *Cache) Forget(id uint64) { c.lru.Remove(id) }
