package leveldb

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/dbtest"
)

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func TestKVStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.KVStore {
		store, err := NewKVStore(fileURI(t.TempDir()), Config{NoSync: true})
		require.NoError(t, err)
		return store
	})
}

func TestNewKVStoreRejectsScheme(t *testing.T) {
	for _, uri := range []string{"http://example.com", "leveldb:///tmp/x", "/tmp/x", "::"} {
		t.Run(uri, func(t *testing.T) {
			store, err := NewKVStore(uri, Config{})
			assert.ErrorIs(t, err, db.ErrInvalidConfig)
			assert.Nil(t, store)
		})
	}
}

func TestOpenIOError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := NewKVStore(fileURI(filepath.Join(file, "store")), Config{})
	assert.ErrorIs(t, err, db.ErrIO)
	assert.NotErrorIs(t, err, db.ErrStore)
}

func TestOpenReadOnlyMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing", "store")

	store, err := NewKVStore(fileURI(missing), Config{ReadOnly: true})
	require.Error(t, err)
	assert.Nil(t, store)
	assert.ErrorIs(t, err, db.ErrIO)
}

func TestReopenPersists(t *testing.T) {
	uri := fileURI(t.TempDir())

	store, err := NewKVStore(uri, Config{})
	require.NoError(t, err)

	batch, err := store.NewBatch()
	require.NoError(t, err)
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Delete([]byte("a")))
	require.NoError(t, batch.Write())
	require.NoError(t, store.Close())

	store, err = NewKVStore(uri, Config{ErrorIfMissing: true})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	_, err = store.Get([]byte("a"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	value, err := store.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), value)
}

func TestConvertError(t *testing.T) {
	corrupted := lerrors.NewErrCorrupted(storage.FileDesc{}, errors.New("bad block"))
	pathErr := &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "not_found", err: leveldb.ErrNotFound, want: db.ErrNotFound},
		{name: "closed", err: leveldb.ErrClosed, want: db.ErrClosed},
		{name: "corrupted", err: corrupted, want: db.ErrStore},
		{name: "path_error", err: pathErr, want: db.ErrIO},
		{name: "other", err: errors.New("boom"), want: db.ErrStore},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := convertError(opGet, tc.err)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
			if tc.err != nil && tc.want != db.ErrNotFound && tc.want != db.ErrClosed {
				assert.ErrorIs(t, got, tc.err)
			}
		})
	}
}
