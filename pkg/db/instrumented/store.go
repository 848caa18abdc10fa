// Package instrumented wraps a db.KVStore with operation metrics and failure logging.
package instrumented

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"

	"github.com/eigerco/kvstore/pkg/db"
)

const (
	opGet        = "get"
	opPut        = "put"
	opDelete     = "delete"
	opNewBatch   = "new_batch"
	opIterator   = "iterator"
	opClose      = "close"
	opBatchWrite = "batch_write"
)

var _ db.KVStore = (*KVStore)(nil)

// KVStore forwards every call to the wrapped store and records it.
// Errors are returned unchanged.
type KVStore struct {
	store  db.KVStore
	name   string
	set    *metrics.Set
	logger zerolog.Logger
}

// Wrap instruments store. name labels every metric of this store.
func Wrap(store db.KVStore, name string, logger zerolog.Logger) *KVStore {
	return &KVStore{
		store:  store,
		name:   name,
		set:    metrics.NewSet(),
		logger: logger.With().Str("store", name).Logger(),
	}
}

// Unwrap returns the instrumented store.
func (s *KVStore) Unwrap() db.KVStore {
	return s.store
}

// WritePrometheus writes the collected metrics in Prometheus text format.
func (s *KVStore) WritePrometheus(w io.Writer) {
	s.set.WritePrometheus(w)
}

// Ops returns how many times op was called.
func (s *KVStore) Ops(op string) uint64 {
	return s.set.GetOrCreateCounter(s.metricName("kvstore_ops_total", op)).Get()
}

// Errors returns how many calls of op failed. Missing keys are not failures.
func (s *KVStore) Errors(op string) uint64 {
	return s.set.GetOrCreateCounter(s.metricName("kvstore_errors_total", op)).Get()
}

func (s *KVStore) metricName(metric, op string) string {
	return fmt.Sprintf(`%s{store=%q,op=%q}`, metric, s.name, op)
}

func (s *KVStore) observe(op string, start time.Time, err error) {
	s.set.GetOrCreateCounter(s.metricName("kvstore_ops_total", op)).Inc()
	s.set.GetOrCreateHistogram(s.metricName("kvstore_op_duration_seconds", op)).UpdateDuration(start)

	if err == nil || errors.Is(err, db.ErrNotFound) {
		return
	}
	s.set.GetOrCreateCounter(s.metricName("kvstore_errors_total", op)).Inc()
	s.logger.Warn().Err(err).Str("op", op).Msg("store operation failed")
}

func (s *KVStore) Get(key []byte) ([]byte, error) {
	start := time.Now()
	value, err := s.store.Get(key)
	s.observe(opGet, start, err)
	return value, err
}

func (s *KVStore) Put(key, value []byte) error {
	start := time.Now()
	err := s.store.Put(key, value)
	s.observe(opPut, start, err)
	return err
}

func (s *KVStore) Delete(key []byte) error {
	start := time.Now()
	err := s.store.Delete(key)
	s.observe(opDelete, start, err)
	return err
}

func (s *KVStore) NewBatch() (db.Batch, error) {
	start := time.Now()
	batch, err := s.store.NewBatch()
	s.observe(opNewBatch, start, err)
	if err != nil {
		return nil, err
	}
	return &Batch{Batch: batch, store: s}, nil
}

func (s *KVStore) NewIterator(start, end []byte) (db.Iterator, error) {
	now := time.Now()
	iter, err := s.store.NewIterator(start, end)
	s.observe(opIterator, now, err)
	return iter, err
}

func (s *KVStore) Close() error {
	start := time.Now()
	err := s.store.Close()
	s.observe(opClose, start, err)
	return err
}

// Batch records Write calls. Staging calls go straight to the wrapped batch.
type Batch struct {
	db.Batch
	store *KVStore
}

func (b *Batch) Write() error {
	start := time.Now()
	err := b.Batch.Write()
	b.store.observe(opBatchWrite, start, err)
	return err
}
