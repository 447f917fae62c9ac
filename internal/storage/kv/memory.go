package kv

import "sync"

// MemorySlot keeps values in process memory. Nothing survives a restart.
type MemorySlot struct {
	mu       sync.Mutex
	values   map[string][]byte
	maxBytes int64
	closed   bool
}

// NewMemorySlot creates an empty slot bounded to maxBytes.
func NewMemorySlot(maxBytes int64) *MemorySlot {
	return &MemorySlot{
		values:   make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

func (m *MemorySlot) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	v, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	copied := make([]byte, len(v))
	copy(copied, v)
	return copied, nil
}

func (m *MemorySlot) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	var used int64
	for k, v := range m.values {
		if k != key {
			used += int64(len(k) + len(v))
		}
	}
	if err := checkQuota(used, key, value, m.maxBytes); err != nil {
		return err
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	m.values[key] = copied
	return nil
}

func (m *MemorySlot) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.values, key)
	return nil
}

func (m *MemorySlot) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
