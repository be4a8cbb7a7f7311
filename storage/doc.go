package storage

// storage contains the KeyValue interface for working with a persistent key/
// value store partitioned into logical tables, as well as implementations
// for BadgerDB and for an in-memory map. Note that the storage package isn't
// designed to represent _what_ is stored in the database, and deals only in
// opaque binary data.
