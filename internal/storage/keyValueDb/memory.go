package keyValueDb

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryDB is a map-backed DB used when no data directory is configured
// and in tests.
type MemoryDB struct {
	data     map[string][]byte
	mu       sync.RWMutex
	isClosed bool
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

func (m *MemoryDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.isClosed {
		return nil, ErrDBClosed
	}
	if value, ok := m.data[string(key)]; ok {
		return bytes.Clone(value), nil
	}
	return nil, ErrKeyNotFound
}

func (m *MemoryDB) Write(ctx context.Context, key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return ErrDBClosed
	}
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemoryDB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return ErrDBClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *MemoryDB) Batch(ctx context.Context, ops []BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isClosed {
		return ErrDBClosed
	}
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			m.data[string(op.Key)] = bytes.Clone(op.Value)
		case BatchDelete:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

func (m *MemoryDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.isClosed {
		return nil, ErrDBClosed
	}

	var keys []string
	for k := range m.data {
		key := []byte(k)
		if (start == nil || bytes.Compare(key, start) >= 0) &&
			(end == nil || bytes.Compare(key, end) < 0) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	it := &memoryIterator{position: -1}
	for _, k := range keys {
		it.keys = append(it.keys, []byte(k))
		it.values = append(it.values, bytes.Clone(m.data[k]))
	}
	return it, nil
}

func (m *MemoryDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isClosed = true
	return nil
}

type memoryIterator struct {
	keys     [][]byte
	values   [][]byte
	position int
}

func (it *memoryIterator) Next() bool {
	it.position++
	return it.position < len(it.keys)
}

func (it *memoryIterator) Key() []byte {
	if it.position >= 0 && it.position < len(it.keys) {
		return it.keys[it.position]
	}
	return nil
}

func (it *memoryIterator) Value() []byte {
	if it.position >= 0 && it.position < len(it.values) {
		return it.values[it.position]
	}
	return nil
}

func (it *memoryIterator) Error() error {
	return nil
}

func (it *memoryIterator) Close() error {
	return nil
}

// MemoryManager hands out MemoryDBs by name.
type MemoryManager struct {
	mu  sync.Mutex
	dbs map[string]*MemoryDB
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{dbs: make(map[string]*MemoryDB)}
}

func (m *MemoryManager) OpenDB(name string) (DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if db, ok := m.dbs[name]; ok {
		return db, nil
	}
	db := NewMemoryDB()
	m.dbs[name] = db
	return db, nil
}

func (m *MemoryManager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	db, ok := m.dbs[name]
	if !ok {
		return nil
	}
	delete(m.dbs, name)
	return db.Close()
}

func (m *MemoryManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, db := range m.dbs {
		_ = db.Close()
		delete(m.dbs, name)
	}
	return nil
}
