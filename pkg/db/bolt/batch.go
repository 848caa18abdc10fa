package bolt

import (
	"github.com/eigerco/kvstore/pkg/db"
)

// Batch stages operations in memory and applies them in a single bbolt
// read-write transaction.
type Batch struct {
	store  *KVStore
	staged db.Staged
	closed bool
}

func (s *KVStore) NewBatch() (db.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}
	return &Batch{store: s}, nil
}

func (b *Batch) Put(key, value []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	return b.staged.Put(key, value)
}

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

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	if b.store.closed {
		return db.ErrClosed
	}
	if b.staged.Len() == 0 {
		return nil
	}
	return b.store.update(opWrite, b.staged.Ops())
}

func (b *Batch) Len() int {
	return b.staged.Len()
}

func (b *Batch) Close() error {
	b.closed = true
	b.staged.Clear()
	return nil
}
