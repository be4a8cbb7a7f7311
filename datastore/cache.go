package datastore

import (
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Entry is one cached read or write result. Present is false when the store
// reported the key absent; caching absence saves a round trip on repeated
// lookups of codes that don't exist.
type Entry struct {
	Value   []byte
	Present bool
}

// Cache is the strategy a Table uses to retain values it has already seen.
// The interface exists so the unbounded reference behavior and a bounded
// policy can be swapped without touching call sites. Implementations must be
// safe for concurrent use from multiple request handlers.
type Cache interface {
	Get(key string) (Entry, bool)
	Put(key string, e Entry)
	Evict(key string)
}

// MapCache retains every entry it is given for the lifetime of the process.
// Acceptable when key cardinality is bounded; long-running high-cardinality
// deployments should prefer NewRistrettoCache.
type MapCache struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMapCache initializes an empty unbounded cache.
func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[string]Entry)}
}

// Get returns the entry cached under key, if any.
func (c *MapCache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put caches e under key, replacing any previous entry.
func (c *MapCache) Put(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}

// Evict drops the entry cached under key, if any.
func (c *MapCache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// RistrettoCache bounds the number of retained entries. Admission is
// best-effort: a Put may be dropped or applied asynchronously, which is fine
// for a read cache backed by an authoritative store, since a miss just falls
// through to the store.
type RistrettoCache struct {
	cache *ristretto.Cache
}

// NewRistrettoCache initializes a cache that retains at most maxEntries
// entries, each costed equally.
func NewRistrettoCache(maxEntries int64) (*RistrettoCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoCache{cache: c}, nil
}

// Get returns the entry cached under key, if it was admitted and survived.
func (c *RistrettoCache) Get(key string) (Entry, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Put offers e to the cache. The offer may be declined.
func (c *RistrettoCache) Put(key string, e Entry) {
	c.cache.Set(key, e, 1)
}

// Evict drops the entry cached under key, if any.
func (c *RistrettoCache) Evict(key string) {
	c.cache.Del(key)
}
