package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "path_error", err: &fs.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}, kind: ErrIO},
		{name: "syscall_error", err: os.NewSyscallError("fsync", syscall.EIO), kind: ErrIO},
		{name: "errno", err: syscall.ENOSPC, kind: ErrIO},
		{name: "not_exist", err: fmt.Errorf("lock: %w", fs.ErrNotExist), kind: ErrIO},
		{name: "wrapped_path_error", err: fmt.Errorf("create db directory: %w", &fs.PathError{Op: "mkdir", Path: "/x", Err: syscall.ENOTDIR}), kind: ErrIO},
		{name: "generic", err: errors.New("pebble: invalid option"), kind: ErrStore},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Wrap("put", tc.err)
			assert.ErrorIs(t, err, tc.kind)
			assert.ErrorIs(t, err, tc.err)

			var dbErr *Error
			require.ErrorAs(t, err, &dbErr)
			assert.Equal(t, "put", dbErr.Op)
		})
	}
}

func TestWrapKeepsTaxonomy(t *testing.T) {
	assert.NoError(t, Wrap("get", nil))
	assert.Same(t, ErrNotFound, Wrap("get", ErrNotFound))
	assert.Same(t, ErrClosed, Wrap("get", ErrClosed))

	ioErr := IOError("open", syscall.EIO)
	assert.Same(t, ioErr, Wrap("get", ioErr))
}

func TestIOAndStoreKindsAreDistinct(t *testing.T) {
	ioErr := IOError("open", syscall.EIO)
	storeErr := StoreError("open", errors.New("corrupt"))

	assert.ErrorIs(t, ioErr, ErrIO)
	assert.NotErrorIs(t, ioErr, ErrStore)
	assert.ErrorIs(t, storeErr, ErrStore)
	assert.NotErrorIs(t, storeErr, ErrIO)

	assert.Equal(t, "kv-store: store I/O error: open: input/output error", ioErr.Error())
}

func TestCheckKey(t *testing.T) {
	assert.ErrorIs(t, CheckKey(nil), ErrInvalidArgument)
	assert.ErrorIs(t, CheckKey([]byte{}), ErrEmptyKey)
	assert.NoError(t, CheckKey([]byte{0}))
}

func TestClone(t *testing.T) {
	assert.NotNil(t, Clone(nil))
	assert.Empty(t, Clone(nil))

	src := []byte("value")
	dst := Clone(src)
	src[0] = 'X'
	assert.Equal(t, []byte("value"), dst)
}
