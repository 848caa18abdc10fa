package memory

import (
	"sync"

	"github.com/eigerco/kvstore/pkg/db"
)

var _ db.KVStore = (*KVStore)(nil)

// KVStore keeps every entry in a process-local map. Contents are lost on Close.
type KVStore struct {
	data   map[string][]byte
	closed bool
	mu     sync.RWMutex
}

func New() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (m *KVStore) Get(key []byte) ([]byte, error) {
	if err := db.CheckKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, db.ErrClosed
	}

	value, ok := m.data[string(key)]
	if !ok {
		return nil, db.ErrNotFound
	}
	return db.Clone(value), nil
}

func (m *KVStore) Put(key, value []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return db.ErrClosed
	}

	m.data[string(key)] = db.Clone(value)
	return nil
}

func (m *KVStore) Delete(key []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return db.ErrClosed
	}

	delete(m.data, string(key))
	return nil
}

func (m *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, db.ErrClosed
	}

	var pairs []db.Pair
	for k, v := range m.data {
		key := []byte(k)
		if db.InRange(key, start, end) {
			pairs = append(pairs, db.Pair{Key: key, Value: db.Clone(v)})
		}
	}
	return db.NewSliceIterator(pairs), nil
}

func (m *KVStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	return nil
}

// apply runs staged operations under a single write lock so readers never
// observe a partially applied batch.
func (m *KVStore) apply(ops []db.Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return db.ErrClosed
	}

	for _, op := range ops {
		if op.Delete {
			delete(m.data, string(op.Key))
			continue
		}
		m.data[string(op.Key)] = db.Clone(op.Value)
	}
	return nil
}
