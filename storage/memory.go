package storage

import "sync"

// MemoryDB is an in-memory Database used by tests and ephemeral nodes. Updates
// buffer their writes and apply them only when the callback succeeds, mirroring
// the rollback behaviour of the bbolt backend.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryDB returns a ready-to-use in-memory database.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

// View runs fn against the current contents. Writes issued through a View are
// rejected by handing fn a read-only adapter.
func (m *MemoryDB) View(fn func(KV) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryKV{base: m.data, readOnly: true})
}

// Update runs fn against a buffered overlay and flushes the buffer on success.
func (m *MemoryDB) Update(fn func(KV) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	overlay := &memoryKV{
		base:    m.data,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
	if err := fn(overlay); err != nil {
		return err
	}
	for key := range overlay.deletes {
		delete(m.data, key)
	}
	for key, value := range overlay.writes {
		m.data[key] = value
	}
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryDB) Close() error { return nil }

type memoryKV struct {
	base     map[string][]byte
	writes   map[string][]byte
	deletes  map[string]struct{}
	readOnly bool
}

func (kv *memoryKV) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if kv.writes != nil {
		if value, ok := kv.writes[k]; ok {
			return append([]byte(nil), value...), true, nil
		}
	}
	if kv.deletes != nil {
		if _, ok := kv.deletes[k]; ok {
			return nil, false, nil
		}
	}
	value, ok := kv.base[k]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (kv *memoryKV) Put(key, value []byte) error {
	if kv.readOnly {
		return ErrReadOnly
	}
	k := string(key)
	delete(kv.deletes, k)
	kv.writes[k] = append([]byte(nil), value...)
	return nil
}

func (kv *memoryKV) Delete(key []byte) error {
	if kv.readOnly {
		return ErrReadOnly
	}
	k := string(key)
	delete(kv.writes, k)
	kv.deletes[k] = struct{}{}
	return nil
}
