package pebble

import (
	"errors"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/eigerco/kvstore/pkg/db"
)

const (
	opOpen     = "open"
	opGet      = "get"
	opPut      = "put"
	opDelete   = "delete"
	opClose    = "close"
	opBatch    = "batch"
	opWrite    = "write"
	opIterator = "iterator"
)

// convertError maps pebble errors into the db error taxonomy.
func convertError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pebble.ErrNotFound):
		return db.ErrNotFound
	case errors.Is(err, pebble.ErrClosed):
		return db.ErrClosed
	case isLockHeld(err):
		return db.IOError(op, err)
	}
	return db.Wrap(op, err)
}

// isLockHeld reports a directory lock already taken inside this process.
// pebble builds that error from a plain message, without an errno.
func isLockHeld(err error) bool {
	return strings.Contains(err.Error(), "lock held by current process")
}
