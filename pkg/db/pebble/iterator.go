package pebble

import (
	"github.com/cockroachdb/pebble"

	"github.com/eigerco/kvstore/pkg/db"
)

// Iterator walks a live pebble iterator. Closing the store releases it,
// after which Next reports false and Value returns db.ErrClosed.
type Iterator struct {
	store    *KVStore
	iter     *pebble.Iterator
	started  bool
	released bool
}

func (p *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, db.ErrClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, convertError(opIterator, err)
	}
	it := &Iterator{store: p, iter: iter}
	p.iters[it] = struct{}{}
	return it, nil
}

func (it *Iterator) Next() bool {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.released {
		return false
	}
	// The first call positions the iterator at the first key
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	if !it.iter.Valid() {
		return false
	}
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.released || !it.iter.Valid() {
		return nil
	}
	return db.Clone(it.iter.Key())
}

func (it *Iterator) Value() ([]byte, error) {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.released {
		return nil, db.ErrClosed
	}
	if !it.iter.Valid() {
		return nil, db.ErrIteratorInvalid
	}

	val, err := it.iter.ValueAndErr()
	if err != nil {
		return nil, convertError(opIterator, err)
	}
	return db.Clone(val), nil
}

func (it *Iterator) Valid() bool {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	return !it.released && it.iter.Valid()
}

func (it *Iterator) Close() error {
	it.store.mu.Lock()
	defer it.store.mu.Unlock()

	delete(it.store.iters, it)
	return it.release()
}

// release closes the engine iterator once. Callers hold the store lock.
func (it *Iterator) release() error {
	if it.released {
		return nil
	}
	it.released = true
	return convertError(opIterator, it.iter.Close())
}
