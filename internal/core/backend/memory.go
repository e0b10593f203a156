package backend

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is the in-process backend. It is the failover destination when the
// shared store is unreachable, and the only backend when none is configured.
// It never fails with ErrUnavailable.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	value     string
	count     int64
	expiresAt time.Time
}

// NewMemory creates an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

// SetClock overrides the time source. Tests only.
func (m *Memory) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *Memory) now() time.Time {
	if m.clock != nil {
		return m.clock()
	}
	return time.Now().UTC()
}

// live returns the entry at key, lazily discarding it when expired. Caller
// holds the mutex.
func (m *Memory) live(key string) *memoryEntry {
	ent, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !ent.expiresAt.IsZero() && !m.now().Before(ent.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return ent
}

// Incr implements Backend.
func (m *Memory) Incr(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent := m.live(key)
	if ent == nil {
		ent = &memoryEntry{}
		if ttl > 0 {
			ent.expiresAt = m.now().Add(ttl)
		}
		m.entries[key] = ent
	}
	ent.count += amount
	ent.value = strconv.FormatInt(ent.count, 10)
	return ent.count, nil
}

// Get implements Backend.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent := m.live(key)
	if ent == nil {
		return "", false, nil
	}
	return ent.value, true, nil
}

// Set implements Backend.
func (m *Memory) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent := &memoryEntry{value: value}
	if ttl > 0 {
		ent.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = ent
	return nil
}

// Del implements Backend.
func (m *Memory) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Len reports the number of live entries. The key space stays small: quota
// windows come from a fixed scope enum and cache entries expire lazily.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.entries {
		if m.live(key) != nil {
			n++
		}
	}
	return n
}
