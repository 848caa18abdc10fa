// Package leveldb adapts goleveldb to the db.KVStore interface.
package leveldb

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/eigerco/kvstore/pkg/db"
)

var _ db.KVStore = (*KVStore)(nil)

// Config tunes goleveldb. Zero values keep the goleveldb defaults.
type Config struct {
	BlockCacheCapacity int
	WriteBuffer        int
	NoSync             bool
	ReadOnly           bool
	// ErrorIfMissing fails the open when the database does not exist yet.
	ErrorIfMissing bool
}

type KVStore struct {
	db        *leveldb.DB
	writeOpts *opt.WriteOptions
	closed    bool
	mu        sync.RWMutex
}

// NewKVStore opens (or creates) a LevelDB database at the path named by a file uri.
func NewKVStore(uri string, cfg Config) (*KVStore, error) {
	path, err := db.ParseFileURI(uri)
	if err != nil {
		return nil, err
	}

	ldb, err := leveldb.OpenFile(path, &opt.Options{
		BlockCacheCapacity: cfg.BlockCacheCapacity,
		WriteBuffer:        cfg.WriteBuffer,
		ReadOnly:           cfg.ReadOnly,
		ErrorIfMissing:     cfg.ErrorIfMissing,
	})
	if err != nil {
		return nil, convertError(opOpen, err)
	}

	return &KVStore{
		db:        ldb,
		writeOpts: &opt.WriteOptions{Sync: !cfg.NoSync},
	}, nil
}

func (l *KVStore) Get(key []byte) ([]byte, error) {
	if err := db.CheckKey(key); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, db.ErrClosed
	}

	value, err := l.db.Get(key, nil)
	if err != nil {
		return nil, convertError(opGet, err)
	}
	// goleveldb already returns a copy
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (l *KVStore) Put(key, value []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return db.ErrClosed
	}

	return convertError(opPut, l.db.Put(key, value, l.writeOpts))
}

func (l *KVStore) Delete(key []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return db.ErrClosed
	}

	return convertError(opDelete, l.db.Delete(key, l.writeOpts))
}

func (l *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, db.ErrClosed
	}

	return &Iterator{
		iter: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil),
	}, nil
}

func (l *KVStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return convertError(opClose, l.db.Close())
}
