package pebble

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/rs/zerolog"

	"github.com/eigerco/kvstore/pkg/db"
)

const (
	DefaultCacheSize        = 64 * 1024 * 1024  // 64MB
	DefaultMemTableSize     = 32 * 1024 * 1024  // 32MB
	DefaultMaxMemTableTotal = 128 * 1024 * 1024 // 128MB
)

var _ db.KVStore = (*KVStore)(nil)

// Config tunes the pebble engine. The zero value uses the defaults above.
type Config struct {
	CacheSize        int64
	MemTableSize     uint64
	MaxMemTableTotal uint64
	NoSync           bool            // Skip fsync on writes
	ReadOnly         bool            // Open the database read-only
	FS               vfs.FS          // Filesystem, defaults to the OS one
	Logger           *zerolog.Logger // Engine log sink, pebble's default logger when nil
}

// KVStore is a db.KVStore backed by a pebble LSM-tree.
type KVStore struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	iters     map[*Iterator]struct{}
	closed    bool
	mu        sync.RWMutex
}

// NewKVStore opens (or creates) a pebble database at the path named by a file uri.
func NewKVStore(uri string, cfg Config) (*KVStore, error) {
	path, err := db.ParseFileURI(uri)
	if err != nil {
		return nil, err
	}
	return open(path, cfg)
}

// NewMemKVStore opens a pebble database on an in-memory filesystem.
func NewMemKVStore() (*KVStore, error) {
	return open("", Config{FS: vfs.NewMem()})
}

func open(path string, cfg Config) (*KVStore, error) {
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.MemTableSize == 0 {
		cfg.MemTableSize = DefaultMemTableSize
	}
	if cfg.MaxMemTableTotal == 0 {
		cfg.MaxMemTableTotal = DefaultMaxMemTableTotal
	}

	cache := pebble.NewCache(cfg.CacheSize)
	defer cache.Unref()

	opts := &pebble.Options{
		Cache:                       cache,
		MemTableSize:                cfg.MemTableSize,
		MemTableStopWritesThreshold: int(max(cfg.MaxMemTableTotal/cfg.MemTableSize, 2)),
		ReadOnly:                    cfg.ReadOnly,
		FS:                          cfg.FS,
	}
	if cfg.Logger != nil {
		opts.Logger = newLogger(*cfg.Logger)
	}

	// pebble drops the filesystem cause when a read-only database is missing
	if cfg.ReadOnly {
		filesystem := cfg.FS
		if filesystem == nil {
			filesystem = vfs.Default
		}
		if _, err := filesystem.Stat(path); err != nil {
			return nil, db.Wrap(opOpen, err)
		}
	}

	pdb, err := pebble.Open(path, opts)
	if err != nil {
		return nil, convertError(opOpen, err)
	}

	writeOpts := pebble.Sync
	if cfg.NoSync {
		writeOpts = pebble.NoSync
	}
	return &KVStore{db: pdb, writeOpts: writeOpts, iters: make(map[*Iterator]struct{})}, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	if err := db.CheckKey(key); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, db.ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if err != nil {
		return nil, convertError(opGet, err)
	}
	defer closer.Close() //nolint:errcheck

	return db.Clone(value), nil
}

func (p *KVStore) Put(key, value []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return db.ErrClosed
	}

	return convertError(opPut, p.db.Set(key, value, p.writeOpts))
}

func (p *KVStore) Delete(key []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return db.ErrClosed
	}

	return convertError(opDelete, p.db.Delete(key, p.writeOpts))
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	// Open iterators pin engine state, release them before the engine goes away
	var errs []error
	for it := range p.iters {
		errs = append(errs, it.release())
	}
	p.iters = nil
	errs = append(errs, p.db.Close())
	return convertError(opClose, errors.Join(errs...))
}
