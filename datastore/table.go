package datastore

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/surly-sh/surly/storage"
)

// Table is one logical table layered over a KeyValue store, optionally
// retaining a local read cache. The cache belongs to this instance alone: it
// is populated only by successful reads and writes through this handle, and
// another handle or another process writing the same table can make it
// stale. That trade-off is sound for write-once data like shortcode targets;
// tables whose values change after creation (API keys) must be constructed
// uncached.
type Table struct {
	kv    storage.KeyValue
	name  string
	cache Cache // nil means every read is a fresh fetch
}

// NewTable returns a handle on the named table. Pass a nil cache for
// uncached mode.
func NewTable(kv storage.KeyValue, name string, cache Cache) *Table {
	return &Table{
		kv:    kv,
		name:  name,
		cache: cache,
	}
}

// Name returns the physical table name this handle reads and writes.
func (t *Table) Name() string {
	return t.name
}

// Read returns the value stored under key. A cache hit returns without
// touching the physical store; a miss fetches and, in cached mode, retains
// what it found, including the fact that nothing was found.
func (t *Table) Read(key string) ([]byte, bool, error) {
	if t.cache != nil {
		if e, ok := t.cache.Get(key); ok {
			return e.Value, e.Present, nil
		}
	}

	value, ok, err := t.kv.Get(t.name, key)
	if err != nil {
		return nil, false, fmt.Errorf("can't read %q from table %v: %v", key, t.name, err)
	}

	if t.cache != nil {
		t.cache.Put(key, Entry{Value: value, Present: ok})
	}

	return value, ok, nil
}

// Contains reports whether key has a value. It is defined in terms of Read
// so that its caching behavior can never diverge from Read's.
func (t *Table) Contains(key string) (bool, error) {
	_, ok, err := t.Read(key)
	return ok, err
}

// Write stores value under key, writing through to the physical store. The
// cache is updated only after the store accepts the write, so a failed write
// can never leave the cache ahead of the store.
func (t *Table) Write(key string, value []byte) error {
	log.Debug().
		Str("table", t.name).
		Str("key", key).
		Msg("adding mapping")

	if err := t.kv.Put(t.name, key, value); err != nil {
		return fmt.Errorf("can't write %q to table %v: %v", key, t.name, err)
	}

	if t.cache != nil {
		t.cache.Put(key, Entry{Value: value, Present: true})
	}

	return nil
}

// Remove deletes key from the physical store and purges any cached entry, so
// a later Read through this handle can't report a deleted value as still
// present.
func (t *Table) Remove(key string) error {
	if err := t.kv.Delete(t.name, key); err != nil {
		return fmt.Errorf("can't delete %q from table %v: %v", key, t.name, err)
	}

	if t.cache != nil {
		t.cache.Evict(key)
	}

	return nil
}
