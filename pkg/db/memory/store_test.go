package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/dbtest"
)

func TestKVStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.KVStore {
		return New()
	})
}

func TestCloseDropsContents(t *testing.T) {
	store := New()
	require.NoError(t, store.Put([]byte("key"), []byte("value")))
	require.NoError(t, store.Close())

	assert.Nil(t, store.data)
	assert.True(t, store.closed)
}

func TestBatchStagesPrivately(t *testing.T) {
	store := New()
	defer store.Close() //nolint:errcheck

	b, err := store.NewBatch()
	require.NoError(t, err)
	batch := b.(*Batch)

	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Delete([]byte("b")))
	require.NoError(t, batch.Put([]byte("a"), []byte("2")))

	ops := batch.staged.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, db.Mutation{Key: []byte("a"), Value: []byte("1")}, ops[0])
	assert.Equal(t, db.Mutation{Key: []byte("b"), Delete: true}, ops[1])
	assert.Empty(t, store.data)
}
