package pebble

import (
	"github.com/cockroachdb/pebble"

	"github.com/eigerco/kvstore/pkg/db"
)

// Batch stages operations in a pebble batch that is never committed itself.
// Write copies the staged operations into a fresh engine batch and commits
// that one, so the same staged set can be written again.
type Batch struct {
	store  *KVStore
	staged *pebble.Batch
	closed bool
}

func (p *KVStore) NewBatch() (db.Batch, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, db.ErrClosed
	}
	return &Batch{
		store:  p,
		staged: p.db.NewBatch(),
	}, nil
}

func (b *Batch) Put(key, value []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	if err := db.CheckKey(key); err != nil {
		return err
	}
	return convertError(opBatch, b.staged.Set(key, value, nil))
}

func (b *Batch) Delete(key []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	if err := db.CheckKey(key); err != nil {
		return err
	}
	return convertError(opBatch, b.staged.Delete(key, nil))
}

func (b *Batch) Clear() error {
	if b.closed {
		return db.ErrBatchClosed
	}
	b.staged.Reset()
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
	if b.staged.Empty() {
		return nil
	}

	commit := b.store.db.NewBatch()
	defer commit.Close() //nolint:errcheck

	if err := commit.Apply(b.staged, nil); err != nil {
		return convertError(opWrite, err)
	}
	return convertError(opWrite, commit.Commit(b.store.writeOpts))
}

func (b *Batch) Len() int {
	if b.closed {
		return 0
	}
	return int(b.staged.Count())
}

func (b *Batch) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return convertError(opBatch, b.staged.Close())
}
