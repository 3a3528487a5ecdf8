package persistence

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryEngine is an in-memory implementation of Engine. Every instance is an
// independent store; the identifier only labels it.
type MemoryEngine struct {
	identifier string

	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool

	// writeMu is held by the open write transaction
	writeMu sync.Mutex
}

// NewMemoryEngine creates a new in-memory persistence engine
func NewMemoryEngine(identifier string) *MemoryEngine {
	return &MemoryEngine{
		identifier: identifier,
		buckets:    make(map[string]map[string][]byte),
	}
}

func (m *MemoryEngine) Get(bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	return m.getLocked(bucket, key)
}

func (m *MemoryEngine) getLocked(bucket, key string) ([]byte, error) {
	if val, ok := m.buckets[bucket][key]; ok {
		return append([]byte(nil), val...), nil
	}
	return nil, ErrKeyNotFound
}

func (m *MemoryEngine) List(bucket string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	data := m.buckets[bucket]
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		records = append(records, Record{Key: key, Value: append([]byte(nil), data[key]...)})
	}
	return records, nil
}

func (m *MemoryEngine) Count(bucket string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	return len(m.buckets[bucket]), nil
}

func (m *MemoryEngine) BeginTx() (Transaction, error) {
	m.writeMu.Lock()

	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		m.writeMu.Unlock()
		return nil, ErrClosed
	}

	return &memoryTx{
		engine:  m,
		pending: make(map[string]map[string][]byte),
		cleared: make(map[string]bool),
	}, nil
}

func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.buckets = nil
	return nil
}

func (m *MemoryEngine) Path() string {
	return ""
}

func (m *MemoryEngine) Describe() string {
	return fmt.Sprintf("memory engine {inMemoryIdentifier: %q, readOnly: false, schemaVersion: 0}", m.identifier)
}

// memoryTx buffers writes and applies them on Commit. A nil value in pending
// marks a deletion.
type memoryTx struct {
	engine  *MemoryEngine
	pending map[string]map[string][]byte
	cleared map[string]bool
	done    bool
}

func (tx *memoryTx) Get(bucket, key string) ([]byte, error) {
	if tx.done {
		return nil, ErrTxClosed
	}

	if val, ok := tx.pending[bucket][key]; ok {
		if val == nil {
			return nil, ErrKeyNotFound
		}
		return append([]byte(nil), val...), nil
	}
	if tx.cleared[bucket] {
		return nil, ErrKeyNotFound
	}
	return tx.engine.Get(bucket, key)
}

func (tx *memoryTx) Set(bucket, key string, value []byte) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.bucket(bucket)[key] = append([]byte{}, value...)
	return nil
}

func (tx *memoryTx) Delete(bucket, key string) error {
	if _, err := tx.Get(bucket, key); err != nil {
		return err
	}
	tx.bucket(bucket)[key] = nil
	return nil
}

func (tx *memoryTx) DeleteAll(bucket string) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.cleared[bucket] = true
	tx.pending[bucket] = make(map[string][]byte)
	return nil
}

func (tx *memoryTx) bucket(name string) map[string][]byte {
	b, ok := tx.pending[name]
	if !ok {
		b = make(map[string][]byte)
		tx.pending[name] = b
	}
	return b
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return ErrTxClosed
	}
	defer tx.finish()

	e := tx.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	for name := range tx.cleared {
		delete(e.buckets, name)
	}
	for name, ops := range tx.pending {
		data, ok := e.buckets[name]
		if !ok {
			data = make(map[string][]byte)
			e.buckets[name] = data
		}
		for key, value := range ops {
			if value == nil {
				delete(data, key)
			} else {
				data[key] = value
			}
		}
		if len(data) == 0 {
			delete(e.buckets, name)
		}
	}
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *memoryTx) finish() {
	tx.done = true
	tx.pending = nil
	tx.cleared = nil
	tx.engine.writeMu.Unlock()
}
