package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb/iterator"

	"github.com/eigerco/kvstore/pkg/db"
)

type Iterator struct {
	iter iterator.Iterator
}

func (it *Iterator) Next() bool {
	// goleveldb positions an unpositioned iterator on the first key itself
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	if !it.iter.Valid() {
		return nil
	}
	return db.Clone(it.iter.Key())
}

func (it *Iterator) Value() ([]byte, error) {
	if !it.iter.Valid() {
		return nil, db.ErrIteratorInvalid
	}
	if err := it.iter.Error(); err != nil {
		return nil, convertError(opIterator, err)
	}
	return db.Clone(it.iter.Value()), nil
}

func (it *Iterator) Valid() bool {
	return it.iter.Valid()
}

func (it *Iterator) Close() error {
	err := it.iter.Error()
	it.iter.Release()
	return convertError(opIterator, err)
}
