package storage

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("state")

// ErrClosed is returned when the database has already been closed.
var ErrClosed = errors.New("storage: database closed")

// BoltDB persists state in a single bbolt bucket. bbolt gives serialized
// read-write transactions, so one Update call maps directly onto one atomic
// operation against the ledger state.
type BoltDB struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) the state database at path.
func OpenBolt(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: init bucket: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// View runs fn against a read-only snapshot of the store.
func (b *BoltDB) View(fn func(KV) error) error {
	if b == nil || b.db == nil {
		return ErrClosed
	}
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(boltKV{bucket: tx.Bucket(bucketState)})
	})
}

// Update runs fn inside a single read-write transaction. If fn returns an
// error every write it issued is rolled back.
func (b *BoltDB) Update(fn func(KV) error) error {
	if b == nil || b.db == nil {
		return ErrClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(boltKV{bucket: tx.Bucket(bucketState)})
	})
}

// Close releases the underlying database handle.
func (b *BoltDB) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type boltKV struct {
	bucket *bolt.Bucket
}

func (kv boltKV) Get(key []byte) ([]byte, bool, error) {
	if kv.bucket == nil {
		return nil, false, ErrClosed
	}
	value := kv.bucket.Get(key)
	if value == nil {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (kv boltKV) Put(key, value []byte) error {
	if kv.bucket == nil {
		return ErrClosed
	}
	return kv.bucket.Put(key, append([]byte(nil), value...))
}

func (kv boltKV) Delete(key []byte) error {
	if kv.bucket == nil {
		return ErrClosed
	}
	return kv.bucket.Delete(key)
}
