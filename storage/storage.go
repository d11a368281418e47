package storage

import "errors"

// ErrReadOnly is returned when a write is attempted inside a View.
var ErrReadOnly = errors.New("storage: write inside read-only transaction")

// KV is the mutable key/value view handed to a single state transition. Keys
// and values are opaque byte slices; encoding is the caller's concern.
type KV interface {
	Get(key []byte) ([]byte, bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Database exposes transactional access to the backing store. Every write
// issued inside one Update call commits together or not at all, which is what
// makes each bounty operation atomic across the records it touches.
type Database interface {
	View(fn func(KV) error) error
	Update(fn func(KV) error) error
	Close() error
}
