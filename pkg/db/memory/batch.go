package memory

import (
	"github.com/eigerco/kvstore/pkg/db"
)

type Batch struct {
	store  *KVStore
	staged db.Staged
	closed bool
}

func (m *KVStore) NewBatch() (db.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, db.ErrClosed
	}
	return &Batch{store: m}, nil
}

func (b *Batch) Put(key, value []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	return b.staged.Put(key, value)
}

// Delete stages the removal of key. Deleting a key that is neither staged nor
// stored is not an error.
func (b *Batch) Delete(key []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	return b.staged.Delete(key)
}

func (b *Batch) Clear() error {
	if b.closed {
		return db.ErrBatchClosed
	}
	b.staged.Clear()
	return nil
}

func (b *Batch) Write() error {
	if b.closed {
		return db.ErrBatchClosed
	}
	return b.store.apply(b.staged.Ops())
}

func (b *Batch) Len() int {
	return b.staged.Len()
}

func (b *Batch) Close() error {
	b.closed = true
	b.staged.Clear()
	return nil
}
