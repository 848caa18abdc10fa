// Package factory opens a db.KVStore for a backend type and connection uri.
package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eigerco/kvstore/pkg/db"
	"github.com/eigerco/kvstore/pkg/db/bolt"
	"github.com/eigerco/kvstore/pkg/db/leveldb"
	"github.com/eigerco/kvstore/pkg/db/memory"
	"github.com/eigerco/kvstore/pkg/db/pebble"
)

// Options carries the per-backend settings. Only the config of the selected
// backend is used.
type Options struct {
	Pebble  pebble.Config
	LevelDB leveldb.Config
	Bolt    bolt.Config
	Logger  zerolog.Logger
}

// Constructor opens a store of one backend type.
type Constructor func(uri string, opts Options) (db.KVStore, error)

var (
	mu       sync.RWMutex
	registry = map[db.Type]Constructor{
		db.TypePebble:  newPebble,
		db.TypeLevelDB: newLevelDB,
		db.TypeBolt:    newBolt,
		db.TypeMemory:  newMemory,
	}
)

// New opens the store registered for t.
func New(t db.Type, uri string, opts Options) (db.KVStore, error) {
	mu.RLock()
	newStore, ok := registry[t]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: store type is invalid, store_type=%q", db.ErrInvalidConfig, t)
	}

	store, err := newStore(uri, opts)
	if err != nil {
		opts.Logger.Debug().Err(err).Str("type", t.String()).Str("uri", uri).Msg("open store failed")
		return nil, err
	}
	opts.Logger.Debug().Str("type", t.String()).Str("uri", uri).Msg("store opened")
	return store, nil
}

// Register adds a backend under a new tag.
func Register(t db.Type, c Constructor) error {
	if t == "" || c == nil {
		return fmt.Errorf("%w: backend registration needs a type and a constructor", db.ErrInvalidConfig)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, ok := registry[t]; ok {
		return fmt.Errorf("%w: store type %q is already registered", db.ErrInvalidConfig, t)
	}
	registry[t] = c
	return nil
}

// Registered lists the known backend types in name order.
func Registered() []db.Type {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]db.Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func newPebble(uri string, opts Options) (db.KVStore, error) {
	cfg := opts.Pebble
	if cfg.Logger == nil {
		l := opts.Logger
		cfg.Logger = &l
	}
	return pebble.NewKVStore(uri, cfg)
}

func newLevelDB(uri string, opts Options) (db.KVStore, error) {
	return leveldb.NewKVStore(uri, opts.LevelDB)
}

func newBolt(uri string, opts Options) (db.KVStore, error) {
	return bolt.NewKVStore(uri, opts.Bolt)
}

// newMemory ignores the uri, the store lives only as long as the process.
func newMemory(_ string, _ Options) (db.KVStore, error) {
	return memory.New(), nil
}
