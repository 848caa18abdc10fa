package db

import (
	"bytes"
	"sort"
)

// Pair is a single key-value entry.
type Pair struct {
	Key   []byte
	Value []byte
}

// InRange reports whether key lies within [start, end). Nil bounds are open.
func InRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(key, end) >= 0 {
		return false
	}
	return true
}

// SliceIterator iterates over an in-memory snapshot of entries.
type SliceIterator struct {
	pairs  []Pair
	pos    int
	closed bool
}

// NewSliceIterator sorts pairs by key and returns an iterator over them.
// The iterator takes ownership of pairs.
func NewSliceIterator(pairs []Pair) *SliceIterator {
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].Key, pairs[j].Key) < 0
	})
	return &SliceIterator{pairs: pairs, pos: -1}
}

func (it *SliceIterator) Next() bool {
	if it.closed || it.pos >= len(it.pairs) {
		return false
	}
	it.pos++
	return it.Valid()
}

func (it *SliceIterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return Clone(it.pairs[it.pos].Key)
}

func (it *SliceIterator) Value() ([]byte, error) {
	if !it.Valid() {
		return nil, ErrIteratorInvalid
	}
	return Clone(it.pairs[it.pos].Value), nil
}

func (it *SliceIterator) Valid() bool {
	return !it.closed && it.pos >= 0 && it.pos < len(it.pairs)
}

func (it *SliceIterator) Close() error {
	it.closed = true
	it.pairs = nil
	return nil
}
