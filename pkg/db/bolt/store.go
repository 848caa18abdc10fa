// Package bolt adapts bbolt, a B+tree engine, to the db.KVStore interface.
// Every entry lives in a single bucket.
package bolt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/eigerco/kvstore/pkg/db"
)

const (
	DefaultBucket  = "kv"
	DefaultTimeout = time.Second
)

var _ db.KVStore = (*KVStore)(nil)

type Config struct {
	Bucket   string        // Bucket holding the entries, DefaultBucket when empty
	Timeout  time.Duration // How long to wait for the file lock, DefaultTimeout when zero
	NoSync   bool
	ReadOnly bool
}

type KVStore struct {
	db     *bolt.DB
	bucket []byte
	closed bool
	mu     sync.RWMutex
}

// NewKVStore opens (or creates) a bbolt database file at the path named by a file uri.
func NewKVStore(uri string, cfg Config) (*KVStore, error) {
	path, err := db.ParseFileURI(uri)
	if err != nil {
		return nil, err
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, convertError(opOpen, fmt.Errorf("create db directory: %w", err))
		}
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout:  cfg.Timeout,
		NoSync:   cfg.NoSync,
		ReadOnly: cfg.ReadOnly,
	})
	if err != nil {
		return nil, convertError(opOpen, err)
	}

	bucket := []byte(cfg.Bucket)
	if !cfg.ReadOnly {
		err = bdb.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucket)
			return err
		})
		if err != nil {
			_ = bdb.Close()
			return nil, convertError(opOpen, fmt.Errorf("create bucket: %w", err))
		}
	}

	return &KVStore{db: bdb, bucket: bucket}, nil
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	if err := db.CheckKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return db.ErrNotFound
		}
		k, v := b.Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return db.ErrNotFound
		}
		value = db.Clone(v)
		return nil
	})
	if err != nil {
		return nil, convertError(opGet, err)
	}
	return value, nil
}

func (s *KVStore) Put(key, value []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}

	return s.update(opPut, []db.Mutation{{Key: key, Value: value}})
}

func (s *KVStore) Delete(key []byte) error {
	if err := db.CheckKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return db.ErrClosed
	}

	return s.update(opDelete, []db.Mutation{{Key: key, Delete: true}})
}

// update applies ops in one read-write transaction. Callers hold the write lock.
func (s *KVStore) update(op string, ops []db.Mutation) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", s.bucket)
		}
		for _, m := range ops {
			if m.Delete {
				if err := b.Delete(m.Key); err != nil {
					return err
				}
				continue
			}
			if err := b.Put(m.Key, db.Clone(m.Value)); err != nil {
				return err
			}
		}
		return nil
	})
	return convertError(op, err)
}

func (s *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, db.ErrClosed
	}

	var pairs []db.Pair
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		k, v := c.First()
		if start != nil {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if !db.InRange(k, start, end) {
				break
			}
			pairs = append(pairs, db.Pair{Key: db.Clone(k), Value: db.Clone(v)})
		}
		return nil
	})
	if err != nil {
		return nil, convertError(opIterator, err)
	}
	return db.NewSliceIterator(pairs), nil
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return convertError(opClose, s.db.Close())
}
