// Package dbtest holds the behaviour every db.KVStore backend must share.
// Backend packages run it from their own tests with a constructor for a
// fresh, empty store.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/kvstore/pkg/db"
)

// NewStoreFunc returns a fresh, empty store. Cleanup is the caller's concern.
type NewStoreFunc func(t *testing.T) db.KVStore

type testCase struct {
	name string
	fn   func(t *testing.T, store db.KVStore)
}

// Run executes the shared store, batch and iterator suites against newStore.
func Run(t *testing.T, newStore NewStoreFunc) {
	t.Run("store", func(t *testing.T) { run(t, newStore, storeTests) })
	t.Run("batch", func(t *testing.T) { run(t, newStore, batchTests) })
	t.Run("iterator", func(t *testing.T) { run(t, newStore, iteratorTests) })
}

func run(t *testing.T, newStore NewStoreFunc, tests []testCase) {
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close() //nolint:errcheck

			tc.fn(t, store)
		})
	}
}

var storeTests = []testCase{
	{name: "basic_put_get", fn: testBasicPutGet},
	{name: "get_or_default", fn: testGetOrDefault},
	{name: "overwrite", fn: testOverwrite},
	{name: "empty_value", fn: testEmptyValue},
	{name: "binary_key", fn: testBinaryKey},
	{name: "empty_key", fn: testEmptyKey},
	{name: "value_isolation", fn: testValueIsolation},
	{name: "delete_operations", fn: testDelete},
	{name: "store_closure", fn: testStoreClosure},
}

var batchTests = []testCase{
	{name: "basic_batch_operations", fn: testBasicBatchOperations},
	{name: "not_visible_before_write", fn: testBatchNotVisibleBeforeWrite},
	{name: "last_write_wins", fn: testBatchLastWriteWins},
	{name: "delete_applied", fn: testBatchDeleteApplied},
	{name: "delete_unknown_key", fn: testBatchDeleteUnknownKey},
	{name: "clear_discards", fn: testBatchClear},
	{name: "rewrite_reapplies", fn: testBatchRewrite},
	{name: "empty_key", fn: testBatchEmptyKey},
	{name: "batch_close", fn: testBatchClose},
	{name: "store_closed", fn: testBatchStoreClosed},
	{name: "multiple_batches", fn: testMultipleBatches},
}

var iteratorTests = []testCase{
	{name: "full_range_iteration", fn: testFullRangeIteration},
	{name: "bounded_range_iteration", fn: testBoundedRangeIteration},
	{name: "iterator_validity", fn: testIteratorValidity},
	{name: "empty_store", fn: testIteratorEmpty},
}

func testBasicPutGet(t *testing.T, store db.KVStore) {
	key := []byte("test-key")
	value := []byte("test-value")

	err := store.Put(key, value)
	require.NoError(t, err)

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	// Test non-existent key
	_, err = store.Get([]byte("non-existent"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testGetOrDefault(t *testing.T, store db.KVStore) {
	def := []byte("default")

	value, err := db.GetOrDefault(store, []byte("missing"), def)
	require.NoError(t, err)
	assert.Equal(t, def, value)

	require.NoError(t, store.Put([]byte("present"), []byte("stored")))
	value, err = db.GetOrDefault(store, []byte("present"), def)
	require.NoError(t, err)
	assert.Equal(t, []byte("stored"), value)

	_, err = db.GetOrDefault(store, nil, def)
	assert.ErrorIs(t, err, db.ErrInvalidArgument)
}

func testOverwrite(t *testing.T, store db.KVStore) {
	key := []byte("key")
	require.NoError(t, store.Put(key, []byte("first")))
	require.NoError(t, store.Put(key, []byte("second")))

	value, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
}

func testEmptyValue(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("empty"), []byte{}))
	require.NoError(t, store.Put([]byte("nil"), nil))

	value, err := store.Get([]byte("empty"))
	require.NoError(t, err)
	assert.Empty(t, value)

	value, err = store.Get([]byte("nil"))
	require.NoError(t, err)
	assert.Empty(t, value)
}

func testBinaryKey(t *testing.T, store db.KVStore) {
	key := []byte{0x00, 0xff, 0x10, 0x00}
	value := []byte{0xde, 0xad, 0xbe, 0xef, 0x00}

	require.NoError(t, store.Put(key, value))

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	_, err = store.Get(key[:2])
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testEmptyKey(t *testing.T, store db.KVStore) {
	err := store.Put(nil, []byte("value"))
	assert.ErrorIs(t, err, db.ErrInvalidArgument)

	err = store.Put([]byte{}, []byte("value"))
	assert.ErrorIs(t, err, db.ErrInvalidArgument)

	_, err = store.Get([]byte{})
	assert.ErrorIs(t, err, db.ErrInvalidArgument)

	err = store.Delete(nil)
	assert.ErrorIs(t, err, db.ErrInvalidArgument)

	// Nothing was written
	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck
	assert.False(t, iter.Next())
}

func testValueIsolation(t *testing.T, store db.KVStore) {
	key := []byte("key")
	value := []byte("value")

	require.NoError(t, store.Put(key, value))
	value[0] = 'X'

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), retrieved)

	retrieved[0] = 'Y'
	again, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), again)
}

func testDelete(t *testing.T, store db.KVStore) {
	key := []byte("delete-test")
	value := []byte("to-be-deleted")

	err := store.Put(key, value)
	require.NoError(t, err)

	err = store.Delete(key)
	require.NoError(t, err)

	_, err = store.Get(key)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// Delete non-existent key should not error
	err = store.Delete([]byte("non-existent"))
	assert.NoError(t, err)
}

func testStoreClosure(t *testing.T, store db.KVStore) {
	err := store.Close()
	require.NoError(t, err)

	// Test operations after close
	_, err = store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Put([]byte("key"), []byte("value"))
	assert.ErrorIs(t, err, db.ErrClosed)

	err = store.Delete([]byte("key"))
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.NewBatch()
	assert.ErrorIs(t, err, db.ErrClosed)

	_, err = store.NewIterator(nil, nil)
	assert.ErrorIs(t, err, db.ErrClosed)

	// Double close should not error
	err = store.Close()
	assert.NoError(t, err)
}

func newBatch(t *testing.T, store db.KVStore) db.Batch {
	batch, err := store.NewBatch()
	require.NoError(t, err)
	t.Cleanup(func() { _ = batch.Close() })
	return batch
}

func testBasicBatchOperations(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)

	// Test batch Put operations
	keys := [][]byte{[]byte("key1"), []byte("key2"), []byte("key3")}
	values := [][]byte{[]byte("value1"), []byte("value2"), []byte("value3")}

	for i := range keys {
		err := batch.Put(keys[i], values[i])
		require.NoError(t, err)
	}

	// Delete one key in the same batch
	err := batch.Delete(keys[1])
	require.NoError(t, err)
	assert.Equal(t, 4, batch.Len())

	err = batch.Write()
	require.NoError(t, err)

	// Verify values
	val1, err := store.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, values[0], val1)

	// Verify deleted key
	_, err = store.Get(keys[1])
	assert.ErrorIs(t, err, db.ErrNotFound)

	val3, err := store.Get(keys[2])
	require.NoError(t, err)
	assert.Equal(t, values[2], val3)
}

func testBatchNotVisibleBeforeWrite(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)

	require.NoError(t, batch.Put([]byte("key"), []byte("value")))

	_, err := store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, batch.Write())

	value, err := store.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func testBatchLastWriteWins(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)
	key := []byte("key")

	require.NoError(t, batch.Put(key, []byte("v1")))
	require.NoError(t, batch.Put(key, []byte("v2")))
	require.NoError(t, batch.Write())

	value, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)

	// A put staged after a delete of the same key wins as well
	batch2 := newBatch(t, store)
	require.NoError(t, batch2.Delete(key))
	require.NoError(t, batch2.Put(key, []byte("v3")))
	require.NoError(t, batch2.Write())

	value, err = store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), value)
}

func testBatchDeleteApplied(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("stored"), []byte("value")))

	batch := newBatch(t, store)
	require.NoError(t, batch.Delete([]byte("stored")))
	require.NoError(t, batch.Write())

	_, err := store.Get([]byte("stored"))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testBatchDeleteUnknownKey(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)

	err := batch.Delete([]byte("never-inserted"))
	require.NoError(t, err)

	err = batch.Write()
	require.NoError(t, err)
}

func testBatchClear(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put([]byte("stored"), []byte("value")))

	batch := newBatch(t, store)
	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Delete([]byte("stored")))

	require.NoError(t, batch.Clear())
	assert.Equal(t, 0, batch.Len())

	require.NoError(t, batch.Write())

	_, err := store.Get([]byte("key"))
	assert.ErrorIs(t, err, db.ErrNotFound)

	value, err := store.Get([]byte("stored"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	// The batch is reusable after Clear
	require.NoError(t, batch.Put([]byte("key"), []byte("reused")))
	require.NoError(t, batch.Write())

	value, err = store.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("reused"), value)
}

func testBatchRewrite(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)
	key := []byte("key")

	require.NoError(t, batch.Put(key, []byte("batched")))
	require.NoError(t, batch.Write())
	assert.Equal(t, 1, batch.Len())

	// Change the store behind the batch's back, then write again
	require.NoError(t, store.Put(key, []byte("direct")))
	require.NoError(t, batch.Write())

	value, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("batched"), value)
}

func testBatchEmptyKey(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)

	assert.ErrorIs(t, batch.Put(nil, []byte("value")), db.ErrInvalidArgument)
	assert.ErrorIs(t, batch.Delete([]byte{}), db.ErrInvalidArgument)
	assert.Equal(t, 0, batch.Len())
}

func testBatchClose(t *testing.T, store db.KVStore) {
	batch, err := store.NewBatch()
	require.NoError(t, err)

	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Write())

	err = batch.Close()
	require.NoError(t, err)

	// Operations after close should fail
	err = batch.Put([]byte("key2"), []byte("value2"))
	assert.ErrorIs(t, err, db.ErrBatchClosed)

	err = batch.Delete([]byte("key2"))
	assert.ErrorIs(t, err, db.ErrBatchClosed)

	err = batch.Clear()
	assert.ErrorIs(t, err, db.ErrBatchClosed)

	err = batch.Write()
	assert.ErrorIs(t, err, db.ErrBatchClosed)

	// Double close should not error
	err = batch.Close()
	assert.NoError(t, err)

	// Data written before close stays
	value, err := store.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func testBatchStoreClosed(t *testing.T, store db.KVStore) {
	batch := newBatch(t, store)
	require.NoError(t, batch.Put([]byte("key"), []byte("value")))

	require.NoError(t, store.Close())

	err := batch.Write()
	assert.ErrorIs(t, err, db.ErrClosed)
}

func testMultipleBatches(t *testing.T, store db.KVStore) {
	batch1 := newBatch(t, store)
	batch2 := newBatch(t, store)

	// Write to both batches
	err := batch1.Put([]byte("key1"), []byte("batch1"))
	require.NoError(t, err)
	err = batch2.Put([]byte("key2"), []byte("batch2"))
	require.NoError(t, err)

	err = batch1.Write()
	require.NoError(t, err)
	err = batch2.Write()
	require.NoError(t, err)

	// Verify both writes succeeded
	val1, err := store.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("batch1"), val1)

	val2, err := store.Get([]byte("key2"))
	require.NoError(t, err)
	assert.Equal(t, []byte("batch2"), val2)
}

func putAll(t *testing.T, store db.KVStore, data map[string]string) {
	for k, v := range data {
		err := store.Put([]byte(k), []byte(v))
		require.NoError(t, err)
	}
}

// collect drains iter and returns the visited keys in order.
func collect(t *testing.T, iter db.Iterator, expected map[string]string) []string {
	var keys []string
	for iter.Next() {
		value, err := iter.Value()
		require.NoError(t, err)

		key := string(iter.Key())
		expectedValue, exists := expected[key]
		assert.True(t, exists, "unexpected key %q", key)
		assert.Equal(t, []byte(expectedValue), value)
		keys = append(keys, key)
	}
	return keys
}

func testFullRangeIteration(t *testing.T, store db.KVStore) {
	data := map[string]string{
		"d": "value-d",
		"a": "value-a",
		"c": "value-c",
		"b": "value-b",
	}
	putAll(t, store, data)

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	keys := collect(t, iter, data)
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)
}

func testBoundedRangeIteration(t *testing.T, store db.KVStore) {
	data := map[string]string{
		"a": "value-a",
		"b": "value-b",
		"c": "value-c",
		"d": "value-d",
		"e": "value-e",
	}
	putAll(t, store, data)

	// Test bounded range iteration (b to d)
	iter, err := store.NewIterator([]byte("b"), []byte("e"))
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	expected := map[string]string{
		"b": "value-b",
		"c": "value-c",
		"d": "value-d",
	}
	keys := collect(t, iter, expected)
	assert.Equal(t, []string{"b", "c", "d"}, keys)
}

func testIteratorValidity(t *testing.T, store db.KVStore) {
	testData := map[string]string{
		"key1": "value1",
		"key2": "value2",
	}
	putAll(t, store, testData)

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	// Initial state - iterator is not positioned
	assert.False(t, iter.Valid())

	// First Next() should position at first element
	assert.True(t, iter.Next())
	assert.True(t, iter.Valid())
	assert.Equal(t, []byte("key1"), iter.Key())

	val, err := iter.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), val)

	// Should be able to move to second element
	assert.True(t, iter.Next())
	assert.True(t, iter.Valid())
	assert.Equal(t, []byte("key2"), iter.Key())

	// No more elements
	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())

	// Value() should error when invalid
	_, err = iter.Value()
	assert.ErrorIs(t, err, db.ErrIteratorInvalid)
}

func testIteratorEmpty(t *testing.T, store db.KVStore) {
	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())
}
