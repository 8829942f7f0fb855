package attempts

import (
	"sync"
	"time"
)

// MemoryStore keeps records in a map guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Get(key string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok, nil
}

func (m *MemoryStore) Set(key string, rec Record) error {
	m.mu.Lock()
	m.records[key] = rec
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Hit(key string, now, cutoff time.Time, limit int) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	switch {
	case !ok || !rec.LastAttempt.After(cutoff):
		rec = Record{Count: 1, LastAttempt: now}
	case rec.Count < limit:
		rec.Count++
		rec.LastAttempt = now
	default:
		rec.Count++
	}
	m.records[key] = rec
	return rec, nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Sweep(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, rec := range m.records {
		if rec.LastAttempt.Before(cutoff) {
			delete(m.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of tracked addresses.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MemoryStore) Close() error { return nil }
