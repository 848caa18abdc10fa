package factory

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/memory"
)

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		t       db.Type
		uri     func(t *testing.T) string
		wantErr error
	}{
		{
			name: "pebble_file_uri",
			t:    db.TypePebble,
			uri:  func(t *testing.T) string { return fileURI(t.TempDir()) },
		},
		{
			name: "leveldb_file_uri",
			t:    db.TypeLevelDB,
			uri:  func(t *testing.T) string { return fileURI(t.TempDir()) },
		},
		{
			name: "bolt_file_uri",
			t:    db.TypeBolt,
			uri:  func(t *testing.T) string { return fileURI(filepath.Join(t.TempDir(), "kv.db")) },
		},
		{
			name: "memory_ignores_uri",
			t:    db.TypeMemory,
			uri:  func(t *testing.T) string { return "" },
		},
		{
			name:    "pebble_http_uri",
			t:       db.TypePebble,
			uri:     func(t *testing.T) string { return "http://example.com" },
			wantErr: db.ErrInvalidConfig,
		},
		{
			name:    "unknown_type",
			t:       db.Type("rocksdb"),
			uri:     func(t *testing.T) string { return fileURI(t.TempDir()) },
			wantErr: db.ErrInvalidConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := New(tc.t, tc.uri(t), Options{})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, store)
				return
			}
			require.NoError(t, err)
			defer store.Close() //nolint:errcheck

			require.NoError(t, store.Put([]byte("key"), []byte("value")))
			value, err := store.Get([]byte("key"))
			require.NoError(t, err)
			assert.Equal(t, []byte("value"), value)
		})
	}
}

func TestNewUnknownTypeNamesTag(t *testing.T) {
	_, err := New(db.Type("rocksdb"), "file:///tmp/x", Options{})
	require.ErrorIs(t, err, db.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "rocksdb")
}

func TestNewLogsOpen(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	store, err := New(db.TypeMemory, "", Options{Logger: logger})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.Contains(t, buf.String(), "store opened")
	assert.Contains(t, buf.String(), `"type":"memory"`)
}

func TestRegister(t *testing.T) {
	const custom db.Type = "custom-memory"
	t.Cleanup(func() {
		mu.Lock()
		delete(registry, custom)
		mu.Unlock()
	})

	var gotURI string
	err := Register(custom, func(uri string, _ Options) (db.KVStore, error) {
		gotURI = uri
		return memory.New(), nil
	})
	require.NoError(t, err)
	assert.Contains(t, Registered(), custom)

	store, err := New(custom, "custom://somewhere", Options{})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.Equal(t, "custom://somewhere", gotURI)

	// Duplicates and empty registrations are rejected
	err = Register(custom, func(string, Options) (db.KVStore, error) { return memory.New(), nil })
	assert.ErrorIs(t, err, db.ErrInvalidConfig)

	err = Register(db.TypePebble, func(string, Options) (db.KVStore, error) { return memory.New(), nil })
	assert.ErrorIs(t, err, db.ErrInvalidConfig)

	err = Register("", nil)
	assert.ErrorIs(t, err, db.ErrInvalidConfig)
}

func TestRegistered(t *testing.T) {
	assert.Equal(t, []db.Type{db.TypeBolt, db.TypeLevelDB, db.TypeMemory, db.TypePebble}, Registered())
}

// TestBackendsAgree replays the same operations on every built-in backend and
// compares the final contents with the memory backend.
func TestBackendsAgree(t *testing.T) {
	uris := map[db.Type]func(t *testing.T) string{
		db.TypePebble:  func(t *testing.T) string { return fileURI(t.TempDir()) },
		db.TypeLevelDB: func(t *testing.T) string { return fileURI(t.TempDir()) },
		db.TypeBolt:    func(t *testing.T) string { return fileURI(filepath.Join(t.TempDir(), "kv.db")) },
		db.TypeMemory:  func(t *testing.T) string { return "" },
	}

	dumps := make(map[db.Type]string)
	for typ, uri := range uris {
		store, err := New(typ, uri(t), Options{})
		require.NoError(t, err, typ)
		replay(t, store)
		dumps[typ] = dump(t, store)
		require.NoError(t, store.Close())
	}

	expected := dumps[db.TypeMemory]
	require.NotEmpty(t, expected)
	for typ, actual := range dumps {
		if actual == expected {
			continue
		}
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(expected),
			B:        difflib.SplitLines(actual),
			FromFile: "memory",
			ToFile:   typ.String(),
			Context:  1,
		})
		t.Errorf("backend %s differs from memory:\n%s", typ, diff)
	}
}

func replay(t *testing.T, store db.KVStore) {
	for i := 0; i < 20; i++ {
		require.NoError(t, store.Put([]byte(fmt.Sprintf("key-%02d", i)), []byte(fmt.Sprintf("value-%d", i))))
	}
	for i := 0; i < 20; i += 3 {
		require.NoError(t, store.Delete([]byte(fmt.Sprintf("key-%02d", i))))
	}

	batch, err := store.NewBatch()
	require.NoError(t, err)
	defer batch.Close() //nolint:errcheck

	require.NoError(t, batch.Put([]byte("key-01"), []byte("batched")))
	require.NoError(t, batch.Delete([]byte("key-02")))
	require.NoError(t, batch.Put([]byte("key-03"), []byte("revived")))
	require.NoError(t, batch.Put([]byte("key-04"), []byte{}))
	require.NoError(t, batch.Delete([]byte("missing")))
	require.NoError(t, batch.Write())

	require.NoError(t, batch.Clear())
	require.NoError(t, batch.Put([]byte("key-05"), []byte("second")))
	require.NoError(t, batch.Write())
}

func dump(t *testing.T, store db.KVStore) string {
	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var sb strings.Builder
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)
		fmt.Fprintf(&sb, "%s=%q\n", iter.Key(), value)
	}
	return sb.String()
}
