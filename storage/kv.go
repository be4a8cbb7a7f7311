package storage

// KVConfig contains settings specific to BadgerDB connections
type KVConfig struct {
	StorageDirPath string `yaml:"storageDir" json:"storageDir"`
}

// KeyValue exposes a common interface for performing CRUD operations on an
// underlying storage layer. The store presents several logical tables over
// one physical key space: the table name is part of every physical key, so
// two tables can never collide on a key.
//
// Implentations need to include connection logic in code to initialize
// a store.
type KeyValue interface {
	// Replace the value stored under (table, key), or create a new one if
	// it doesn't exist. The value must be durable before Put returns.
	Put(table, key string, value []byte) error
	// Return the value stored under (table, key). A missing key is not an
	// error; it is reported through the second return value so callers can
	// distinguish "missing" from "failure" cheaply.
	Get(table, key string) (value []byte, ok bool, err error)
	// Remove the value stored under (table, key). Deleting an absent key
	// is a no-op.
	Delete(table, key string) error
	// Provision the named tables. Idempotent: ensuring tables that already
	// exist, including racing a concurrent provisioner for them, is a
	// success.
	EnsureTables(tables []string) error
	// Drain/tear down the connection, or something analogous for
	// an embedded database
	Close() error
}
