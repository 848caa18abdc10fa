package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/eigerco/kvstore/pkg/db"
)

// Batch wraps a goleveldb batch. goleveldb does not consume a batch on
// write, so Write can be repeated.
type Batch struct {
	store  *KVStore
	batch  *leveldb.Batch
	closed bool
}

func (l *KVStore) NewBatch() (db.Batch, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, db.ErrClosed
	}
	return &Batch{store: l, batch: new(leveldb.Batch)}, nil
}

func (b *Batch) Put(key, value []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	if err := db.CheckKey(key); err != nil {
		return err
	}
	b.batch.Put(key, value)
	return nil
}

func (b *Batch) Delete(key []byte) error {
	if b.closed {
		return db.ErrBatchClosed
	}
	if err := db.CheckKey(key); err != nil {
		return err
	}
	b.batch.Delete(key)
	return nil
}

func (b *Batch) Clear() error {
	if b.closed {
		return db.ErrBatchClosed
	}
	b.batch.Reset()
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
	if b.batch.Len() == 0 {
		return nil
	}
	return convertError(opWrite, b.store.db.Write(b.batch, b.store.writeOpts))
}

func (b *Batch) Len() int {
	return b.batch.Len()
}

func (b *Batch) Close() error {
	b.closed = true
	b.batch.Reset()
	return nil
}
