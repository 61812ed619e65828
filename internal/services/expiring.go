package services

import (
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type expiringEntry struct {
	value    string
	deadline time.Time
}

// ExpiringMap is an in-process key → (value, deadline) mapping with the same
// observable semantics as an expiring key-value store: an expired or absent
// key is indistinguishable from one that was never set. It backs the
// in-memory fallback of the activity/reauth stores and bounds its own memory
// by sweeping expired entries when it grows past maxEntries.
type ExpiringMap struct {
	mu         sync.Mutex
	entries    map[string]expiringEntry
	maxEntries int
	now        func() time.Time
}

func NewExpiringMap() *ExpiringMap {
	return &ExpiringMap{
		entries:    make(map[string]expiringEntry),
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
}

// Set stores value under key until now+ttl. A non-positive ttl deletes the key.
func (m *ExpiringMap) Set(key, value string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.entries, key)
		return
	}

	m.entries[key] = expiringEntry{value: value, deadline: m.now().Add(ttl)}

	if len(m.entries) > m.maxEntries {
		m.sweepLocked()
	}
}

// Get returns the live value for key. Expired entries are removed on read.
func (m *ExpiringMap) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if !m.now().Before(entry.deadline) {
		delete(m.entries, key)
		return "", false
	}
	return entry.value, true
}

func (m *ExpiringMap) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len reports the number of stored entries, including not-yet-swept expired ones.
func (m *ExpiringMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep removes all expired entries. The cleanup scheduler calls this
// periodically so sustained attack traffic cannot grow the map unboundedly.
func (m *ExpiringMap) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
}

func (m *ExpiringMap) sweepLocked() {
	now := m.now()
	for key, entry := range m.entries {
		if !now.Before(entry.deadline) {
			delete(m.entries, key)
		}
	}
}
