package datastore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/surly-sh/surly/storage"
)

// countingKV wraps a KeyValue and counts physical fetches so tests can tell
// a cache hit from a fresh read.
type countingKV struct {
	storage.KeyValue
	gets int
}

func (c *countingKV) Get(table, key string) ([]byte, bool, error) {
	c.gets++
	return c.KeyValue.Get(table, key)
}

func TestTableReadAfterWrite(t *testing.T) {
	testCases := []struct {
		description string
		cache       Cache
	}{
		{
			description: "cached mode",
			cache:       NewMapCache(),
		},
		{
			description: "uncached mode",
			cache:       nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			table := NewTable(storage.NewMemoryKV(), "shortcodes", tc.cache)

			if err := table.Write("abcde", []byte("v1")); err != nil {
				t.Fatal(err)
			}

			v, ok, err := table.Read("abcde")
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("a just-written key reads back as absent")
			}
			if !bytes.Equal(v, []byte("v1")) {
				t.Fatalf("wanted %q but got %q", "v1", v)
			}
		})
	}
}

func TestTableNeverWrittenKey(t *testing.T) {
	table := NewTable(storage.NewMemoryKV(), "shortcodes", NewMapCache())

	_, ok, err := table.Read("nope")
	if err != nil {
		t.Fatalf("reading an absent key must not be an error, got %v", err)
	}
	if ok {
		t.Fatal("a never-written key reads back as present")
	}

	if err := table.Remove("nope"); err != nil {
		t.Fatalf("removing an absent key must not be an error, got %v", err)
	}
}

func TestTableCachedReadSkipsStore(t *testing.T) {
	kv := &countingKV{KeyValue: storage.NewMemoryKV()}
	table := NewTable(kv, "shortcodes", NewMapCache())

	if err := table.Write("abcde", []byte("v1")); err != nil {
		t.Fatal(err)
	}

	// The write populated the cache, so no read should reach the store.
	for i := 0; i < 3; i++ {
		if _, _, err := table.Read("abcde"); err != nil {
			t.Fatal(err)
		}
	}

	if kv.gets != 0 {
		t.Fatalf("expected 0 physical fetches after a cached write, got %v", kv.gets)
	}
}

func TestTableCachesAbsence(t *testing.T) {
	kv := &countingKV{KeyValue: storage.NewMemoryKV()}
	table := NewTable(kv, "shortcodes", NewMapCache())

	for i := 0; i < 3; i++ {
		_, ok, err := table.Read("missing")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("a never-written key reads back as present")
		}
	}

	if kv.gets != 1 {
		t.Fatalf("expected 1 physical fetch for repeated absent reads, got %v", kv.gets)
	}
}

func TestTableUncachedAlwaysFetches(t *testing.T) {
	kv := &countingKV{KeyValue: storage.NewMemoryKV()}
	table := NewTable(kv, "api_keys", nil)

	if err := table.Write("acct", []byte("v1")); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := table.Read("acct"); err != nil {
			t.Fatal(err)
		}
	}

	if kv.gets != 3 {
		t.Fatalf("expected 3 physical fetches in uncached mode, got %v", kv.gets)
	}
}

func TestTableRemovePurgesCache(t *testing.T) {
	table := NewTable(storage.NewMemoryKV(), "shortcodes", NewMapCache())

	if err := table.Write("abcde", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := table.Remove("abcde"); err != nil {
		t.Fatal(err)
	}

	// Without the purge the cache would still answer "present" here.
	_, ok, err := table.Read("abcde")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("a deleted key reads back as present through the same handle")
	}
}

func TestTableContainsFollowsRead(t *testing.T) {
	kv := &countingKV{KeyValue: storage.NewMemoryKV()}
	table := NewTable(kv, "shortcodes", NewMapCache())

	if err := table.Write("abcde", []byte("v1")); err != nil {
		t.Fatal(err)
	}

	ok, err := table.Contains("abcde")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Contains reports a written key as absent")
	}
	if kv.gets != 0 {
		t.Fatalf("Contains bypassed the cache: %v physical fetches", kv.gets)
	}
}

func TestTableFailedWriteLeavesCacheCold(t *testing.T) {
	table := NewTable(&failingKV{}, "shortcodes", NewMapCache())

	if err := table.Write("abcde", []byte("v1")); err == nil {
		t.Fatal("expected the write to fail")
	}

	// The failed write must not have primed the cache; the read goes to
	// the store, which also fails.
	if _, _, err := table.Read("abcde"); err == nil {
		t.Fatal("expected the read to reach the failing store")
	}
}

// failingKV refuses every operation, standing in for an unreachable backend.
type failingKV struct{}

func (f *failingKV) Put(table, key string, value []byte) error {
	return errStoreDown
}

func (f *failingKV) Get(table, key string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}

func (f *failingKV) Delete(table, key string) error {
	return errStoreDown
}

func (f *failingKV) EnsureTables(tables []string) error {
	return errStoreDown
}

func (f *failingKV) Close() error {
	return nil
}

var errStoreDown = errors.New("the backing store is unreachable")
