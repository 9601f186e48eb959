package db

// KVStore represents a key-value storage interface providing basic operations
// for data manipulation and iteration.
type KVStore interface {
	Reader
	Writer
	Delete(key []byte) error
	NewBatch() Batch
	NewIndexedBatch() IndexedBatch
	Close() error
}

type Reader interface {
	Get(key []byte) ([]byte, error)
	NewIterator(start, end []byte) (Iterator, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// ReadWriter can both read and stage writes, like an indexed batch.
type ReadWriter interface {
	Reader
	Writer
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// IndexedBatch is a Batch whose reads see both its own uncommitted writes
// and the committed contents of the store.
type IndexedBatch interface {
	Batch
	Reader
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	// Error reports a failure that ended iteration early. It is nil when
	// Next returned false because the range was exhausted.
	Error() error
	Close() error
}
