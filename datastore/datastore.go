// Package datastore presents several logically distinct key/value tables
// over one physical storage.KeyValue, with optional per-table caching. It
// carries no state of its own beyond each table's cache, and it is meant to
// be constructed once at startup and passed explicitly to whatever needs it.
package datastore

import (
	"fmt"

	"github.com/surly-sh/surly/storage"
)

// The logical tables the service uses. They share one physical store but
// never share keys, since the table name is part of the physical key.
const (
	ShortcodesTable = "shortcodes"
	APIKeysTable    = "api_keys"
	ConfigTable     = "config"
)

// CacheFactory builds one cache instance per cached table. Returning a fresh
// instance each call keeps tables from sharing cache key spaces.
type CacheFactory func() (Cache, error)

// Unbounded is the reference cache policy: retain everything for the life of
// the process.
func Unbounded() (Cache, error) {
	return NewMapCache(), nil
}

// Bounded returns a CacheFactory producing caches that hold at most
// maxEntries entries.
func Bounded(maxEntries int64) CacheFactory {
	return func() (Cache, error) {
		return NewRistrettoCache(maxEntries)
	}
}

// Config controls how a DataStore lays its tables over the physical store.
type Config struct {
	// TablePrefix namespaces the physical table names so several services
	// can share one store. Empty means no namespacing.
	TablePrefix string
	// NewCache builds the cache for each cached table. Nil means
	// Unbounded.
	NewCache CacheFactory
}

// DataStore bundles the service's standard tables. The shortcodes and config
// tables are cached; api_keys is always uncached so permission checks see
// grants and revocations as soon as they land in the store.
type DataStore struct {
	Shortcodes *Table
	APIKeys    *Table
	Config     *Table
}

// New provisions the standard tables on kv and returns handles on them.
func New(kv storage.KeyValue, conf Config) (*DataStore, error) {
	newCache := conf.NewCache
	if newCache == nil {
		newCache = Unbounded
	}

	names := []string{
		tableName(conf.TablePrefix, ShortcodesTable),
		tableName(conf.TablePrefix, APIKeysTable),
		tableName(conf.TablePrefix, ConfigTable),
	}
	if err := kv.EnsureTables(names); err != nil {
		return nil, fmt.Errorf("can't provision the backing tables: %v", err)
	}

	shortcodeCache, err := newCache()
	if err != nil {
		return nil, fmt.Errorf("can't build the shortcode cache: %v", err)
	}
	configCache, err := newCache()
	if err != nil {
		return nil, fmt.Errorf("can't build the config cache: %v", err)
	}

	return &DataStore{
		Shortcodes: NewTable(kv, names[0], shortcodeCache),
		APIKeys:    NewTable(kv, names[1], nil),
		Config:     NewTable(kv, names[2], configCache),
	}, nil
}

func tableName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
