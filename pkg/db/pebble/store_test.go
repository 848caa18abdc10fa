package pebble

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/dbtest"
)

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func TestKVStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.KVStore {
		store, err := NewMemKVStore()
		require.NoError(t, err)
		return store
	})
}

func TestKVStoreOnDisk(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.KVStore {
		store, err := NewKVStore(fileURI(t.TempDir()), Config{NoSync: true})
		require.NoError(t, err)
		return store
	})
}

func TestNewKVStore(t *testing.T) {
	tests := []struct {
		name    string
		uri     func(t *testing.T) string
		wantErr error
	}{
		{
			name: "file_uri",
			uri:  func(t *testing.T) string { return fileURI(t.TempDir()) },
		},
		{
			name: "nested_missing_directory",
			uri:  func(t *testing.T) string { return fileURI(filepath.Join(t.TempDir(), "a", "b")) },
		},
		{
			name:    "http_scheme",
			uri:     func(t *testing.T) string { return "http://example.com" },
			wantErr: db.ErrInvalidConfig,
		},
		{
			name:    "plain_path",
			uri:     func(t *testing.T) string { return t.TempDir() },
			wantErr: db.ErrInvalidConfig,
		},
		{
			name:    "empty_path",
			uri:     func(t *testing.T) string { return "file://" },
			wantErr: db.ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewKVStore(tc.uri(t), Config{})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			require.NoError(t, store.Close())
		})
	}
}

func TestRejectedSchemeCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "store")

	_, err := NewKVStore("s3://"+filepath.ToSlash(target), Config{})
	require.ErrorIs(t, err, db.ErrInvalidConfig)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenIOError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := NewKVStore(fileURI(filepath.Join(file, "store")), Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrIO)

	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, opOpen, dbErr.Op)
}

func TestOpenReadOnlyMissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	store, err := NewKVStore(fileURI(missing), Config{ReadOnly: true})
	require.Error(t, err)
	assert.Nil(t, store)
	assert.ErrorIs(t, err, db.ErrIO)
	assert.NotErrorIs(t, err, db.ErrStore)

	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOpenLockedDir(t *testing.T) {
	uri := fileURI(t.TempDir())

	store, err := NewKVStore(uri, Config{})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	second, err := NewKVStore(uri, Config{})
	require.Error(t, err)
	assert.Nil(t, second)
	assert.ErrorIs(t, err, db.ErrIO)
}

func TestCloseReleasesIterators(t *testing.T) {
	store, err := NewMemKVStore()
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("a"), []byte("1")))
	require.NoError(t, store.Put([]byte("b"), []byte("2")))

	live, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	require.True(t, live.Next())

	closed, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	require.NoError(t, closed.Close())

	require.NoError(t, store.Close())

	assert.False(t, live.Next())
	assert.False(t, live.Valid())
	assert.Nil(t, live.Key())
	_, err = live.Value()
	assert.ErrorIs(t, err, db.ErrClosed)
	assert.NoError(t, live.Close())
	assert.NoError(t, closed.Close())
}

func TestReopenPersists(t *testing.T) {
	uri := fileURI(t.TempDir())

	store, err := NewKVStore(uri, Config{})
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("key"), []byte("value")))

	batch, err := store.NewBatch()
	require.NoError(t, err)
	require.NoError(t, batch.Put([]byte("batched"), []byte("yes")))
	require.NoError(t, batch.Write())
	require.NoError(t, batch.Close())
	require.NoError(t, store.Close())

	store, err = NewKVStore(uri, Config{ReadOnly: true})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	value, err := store.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	value, err = store.Get([]byte("batched"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), value)

	err = store.Put([]byte("key"), []byte("other"))
	assert.ErrorIs(t, err, db.ErrStore)
}

func TestEngineLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)

	store, err := NewKVStore(fileURI(t.TempDir()), Config{Logger: &l})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	newLogger(l).Errorf("compaction failed: %d", 7)
	assert.Contains(t, buf.String(), `"engine":"pebble"`)
	assert.Contains(t, buf.String(), "compaction failed: 7")

	assert.Panics(t, func() {
		newLogger(l).Fatalf("fatal")
	})
}
