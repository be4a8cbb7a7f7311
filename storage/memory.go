package storage

import "sync"

// MemoryKV is an in-memory KeyValue used for tests and for running the
// service without a storage directory. It keeps everything in one map
// guarded by a mutex, so it is safe for concurrent request handlers but
// loses all state when the process exits.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string][]byte
	tables  map[string]bool
}

// NewMemoryKV initializes an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		entries: make(map[string][]byte),
		tables:  make(map[string]bool),
	}
}

// Put upserts the value stored under (table, key). The value is copied so
// callers can't mutate stored state through a retained slice.
func (db *MemoryKV) Put(table, key string, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	db.entries[table+keySeparator+key] = v
	return nil
}

// Get returns the value stored under (table, key), copying it for the same
// reason Put does.
func (db *MemoryKV) Get(table, key string) ([]byte, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.entries[table+keySeparator+key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Delete removes the value stored under (table, key). Absent keys are a
// no-op.
func (db *MemoryKV) Delete(table, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.entries, table+keySeparator+key)
	return nil
}

// EnsureTables records the named tables. Repeated calls are harmless.
func (db *MemoryKV) EnsureTables(tables []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, table := range tables {
		db.tables[table] = true
	}
	return nil
}

// Close is a no-op; there is no connection to drain.
func (db *MemoryKV) Close() error {
	return nil
}
