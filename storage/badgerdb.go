package storage

import (
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v3"
)

// Physical keys are table + keySeparator + key. BadgerDB has a flat key
// space, so the separator is what keeps logical tables apart. Table names
// must not contain the separator byte; key strings may contain anything.
const keySeparator = "\x00"

// Table provisioning markers live under this reserved table name so that
// EnsureTables can tell a fresh store from an existing one.
const manifestTable = "_manifest"

// BadgerKV implements KeyValue and represents the application's connection
// to BadgerDB.
type BadgerKV struct {
	connection *badger.DB
}

// NewBadgerKV initializes the BadgerDB embedded database. It is up to the
// caller to close the database with Close().
func NewBadgerKV(conf *KVConfig) (*BadgerKV, error) {
	// Open the Badger database at dirPath.
	// See: https://dgraph.io/docs/badger/get-started/#opening-a-database
	db, err := badger.Open(badger.DefaultOptions(conf.StorageDirPath))

	if err != nil {
		return &BadgerKV{}, fmt.Errorf("can't open the db connection: %v", err)
	}

	return &BadgerKV{
		connection: db,
	}, nil
}

func physicalKey(table, key string) []byte {
	return []byte(table + keySeparator + key)
}

// Put upserts the value stored under (table, key).
func (db *BadgerKV) Put(table, key string, value []byte) error {
	err := db.connection.Update(func(txn *badger.Txn) error {
		err := txn.Set(physicalKey(table, key), value)
		if err != nil {
			return fmt.Errorf("could not set the KV pair: %v", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %v", err)
	}
	return nil
}

// Get returns the value stored under (table, key). A missing key is reported
// via the second return value, never as an error.
func (db *BadgerKV) Get(table, key string) ([]byte, bool, error) {
	var val []byte
	found := true
	// See: https://dgraph.io/docs/badger/get-started/#read-only-transactions
	err := db.connection.View(func(txn *badger.Txn) error {
		item, err := txn.Get(physicalKey(table, key))

		if err == badger.ErrKeyNotFound {
			found = false
			return nil
		}
		if err != nil {
			return fmt.Errorf("can't retrieve a value for the key provided: %v", err)
		}

		// We copy values rather than return them directly because item.Value()
		// is considered undefined behavior outside a transaction.
		// https://godoc.org/github.com/dgraph-io/badger#Item.Value
		val, err = item.ValueCopy(nil)

		if err != nil {
			return fmt.Errorf("can't copy the value from the database: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return val, found, nil
}

// Delete removes the value stored under (table, key). Deleting a key that
// was never written succeeds without touching anything: Badger's Delete is
// itself an upsert of a tombstone.
func (db *BadgerKV) Delete(table, key string) error {
	err := db.connection.Update(func(txn *badger.Txn) error {
		return txn.Delete(physicalKey(table, key))
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %v", err)
	}
	return nil
}

// EnsureTables writes a provisioning marker for each named table unless one
// already exists. Running it twice, or racing another provisioner for the
// same store, leaves exactly one marker per table.
func (db *BadgerKV) EnsureTables(tables []string) error {
	err := db.connection.Update(func(txn *badger.Txn) error {
		for _, table := range tables {
			marker := physicalKey(manifestTable, table)
			_, err := txn.Get(marker)
			if err == badger.ErrKeyNotFound {
				stamp := []byte(fmt.Sprintf("%d", time.Now().Unix()))
				if err := txn.Set(marker, stamp); err != nil {
					return fmt.Errorf("could not write the table marker: %v", err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("can't check for the table marker: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %v", err)
	}
	return nil
}

// Close tears down the database connection. You should defer this.
func (db *BadgerKV) Close() error {
	err := db.connection.Close()
	if err != nil {
		return fmt.Errorf("could not close the database: %v", err)
	}
	return nil
}
