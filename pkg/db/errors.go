package db

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

var (
	ErrNotFound        = errors.New("kv-store: key not found")
	ErrClosed          = errors.New("kv-store: database is closed")
	ErrBatchClosed     = errors.New("kv-store: batch is closed")
	ErrIteratorInvalid = errors.New("kv-store: iterator is not positioned on an entry")
	ErrInvalidArgument = errors.New("kv-store: invalid argument")
	ErrInvalidConfig   = errors.New("kv-store: invalid configuration")
	ErrStore           = errors.New("kv-store: store error")
	ErrIO              = errors.New("kv-store: store I/O error")
	ErrEmptyKey        = fmt.Errorf("%w: key must not be empty", ErrInvalidArgument)
)

// Error is a storage engine failure normalized to one of ErrStore or ErrIO.
// Both the kind and the engine cause are reachable through errors.Is and errors.As.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// StoreError wraps err as a generic store error.
func StoreError(op string, err error) error {
	return &Error{Op: op, Kind: ErrStore, Err: err}
}

// IOError wraps err as a store I/O error.
func IOError(op string, err error) error {
	return &Error{Op: op, Kind: ErrIO, Err: err}
}

// Wrap classifies an engine error that has no engine specific mapping.
// Errors already belonging to the taxonomy are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTaxonomy(err) {
		return err
	}
	if IsIOError(err) {
		return IOError(op, err)
	}
	return StoreError(op, err)
}

// IsTaxonomy reports whether err already carries one of the package error kinds.
func IsTaxonomy(err error) bool {
	for _, kind := range []error{
		ErrNotFound, ErrClosed, ErrBatchClosed, ErrIteratorInvalid,
		ErrInvalidArgument, ErrInvalidConfig, ErrStore, ErrIO,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsIOError reports whether err originates from the filesystem or the operating system.
func IsIOError(err error) bool {
	var (
		pathErr    *fs.PathError
		linkErr    *os.LinkError
		syscallErr *os.SyscallError
		errno      syscall.Errno
	)
	switch {
	case errors.As(err, &pathErr), errors.As(err, &linkErr),
		errors.As(err, &syscallErr), errors.As(err, &errno):
		return true
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission),
		errors.Is(err, fs.ErrExist), errors.Is(err, os.ErrDeadlineExceeded):
		return true
	}
	return false
}
