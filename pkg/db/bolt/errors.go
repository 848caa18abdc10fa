package bolt

import (
	"errors"
	"fmt"

	berrors "go.etcd.io/bbolt"

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
	case errors.Is(err, berrors.ErrDatabaseNotOpen):
		return db.ErrClosed
	case errors.Is(err, berrors.ErrKeyTooLarge), errors.Is(err, berrors.ErrValueTooLarge),
		errors.Is(err, berrors.ErrKeyRequired):
		return fmt.Errorf("%w: %v", db.ErrInvalidArgument, err)
	case errors.Is(err, berrors.ErrTimeout):
		return db.IOError(op, err)
	}
	return db.Wrap(op, err)
}
