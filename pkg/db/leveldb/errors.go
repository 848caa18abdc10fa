package leveldb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/eigerco/kvstore/pkg/db"
)

const (
	opOpen     = "open"
	opGet      = "get"
	opPut      = "put"
	opDelete   = "delete"
	opClose    = "close"
	opWrite    = "write"
	opIterator = "iterator"
)

func convertError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return db.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return db.ErrClosed
	case lerrors.IsCorrupted(err):
		return db.StoreError(op, err)
	}
	return db.Wrap(op, err)
}
