package db

import "errors"

// KVStore represents a key-value storage interface providing basic operations
// for data manipulation and iteration.
// Keys and values are opaque byte slices. Keys must be non-empty.
type KVStore interface {
	Reader
	Writer
	NewBatch() (Batch, error)
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

type Reader interface {
	// Get returns a copy of the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// Batch represents an atomic batch of operations.
// Staged operations are applied in call order when Write is called, the last
// operation on a key wins. Write does not reset the batch, so calling it again
// applies the same set of operations once more.
type Batch interface {
	Writer
	// Clear drops every staged operation without touching the store.
	Clear() error
	// Write applies all staged operations to the store as a single unit.
	Write() error
	// Len returns the number of staged operations.
	Len() int
	// Close releases the resources held by the batch. It is safe to call it
	// more than once.
	Close() error
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}

// GetOrDefault returns the value stored under key, or def if the key is absent.
func GetOrDefault(r Reader, key, def []byte) ([]byte, error) {
	value, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// CheckKey validates a key before it reaches a storage engine.
func CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

// Clone returns a copy of b that never aliases it. A nil slice becomes an
// empty one so stored values are never nil.
func Clone(b []byte) []byte {
	result := make([]byte, len(b))
	copy(result, b)
	return result
}
