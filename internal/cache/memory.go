package cache

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*Memory)(nil)

// Memory is a map-backed Store. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty store. A ttl <= 0 uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the time source; used by tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Get returns the payload stored under key while it is fresh.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !e.Fresh(m.now(), m.ttl) {
		return nil, false, nil
	}
	return e.Payload, true, nil
}

// Put stores a copy of payload under key, replacing any earlier entry.
func (m *Memory) Put(ctx context.Context, key string, payload []byte) error {
	copied := make([]byte, len(payload))
	copy(copied, payload)

	m.mu.Lock()
	m.entries[key] = Entry{Key: key, Payload: copied, StoredAt: m.now()}
	m.mu.Unlock()
	return nil
}

// Len reports how many entries are held, stale ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
