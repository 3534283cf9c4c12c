package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   string
	expiresAt time.Time // zero means no expiry
}

// Memory is a process-local cache. Safe for concurrent use.
type Memory struct {
	namespace string
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory cache whose keys are prefixed with
// namespace.
func NewMemory(namespace string) *Memory {
	return &Memory{
		namespace: namespace,
		now:       time.Now,
		entries:   make(map[string]memoryEntry),
	}
}

// Fetch returns the payload stored under key, if present and not expired.
func (m *Memory) Fetch(_ context.Context, key string) (string, bool, error) {
	k := namespaced(m.namespace, key)

	m.mu.RLock()
	e, ok := m.entries[k]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}

	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		// Re-check: a concurrent Store may have refreshed the entry.
		if cur, ok := m.entries[k]; ok && cur == e {
			delete(m.entries, k)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.payload, true, nil
}

// Store saves payload under key. A lifetime of zero or less never expires.
func (m *Memory) Store(_ context.Context, key, payload string, lifetime time.Duration) error {
	e := memoryEntry{payload: payload}
	if lifetime > 0 {
		e.expiresAt = m.now().Add(lifetime)
	}

	m.mu.Lock()
	m.entries[namespaced(m.namespace, key)] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, namespaced(m.namespace, key))
	m.mu.Unlock()
	return nil
}

// Purge drops every expired entry and reports how many were removed.
func (m *Memory) Purge(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
