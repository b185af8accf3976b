package statistics

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process.
type MemoryStore struct {
	mu    sync.RWMutex
	stats map[string]*PlayerStats
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: make(map[string]*PlayerStats)}
}

func (m *MemoryStore) Record(_ context.Context, playerID string, c Counter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[playerID]
	if !ok {
		s = &PlayerStats{}
		m.stats[playerID] = s
	}
	s.Add(c, 1)
	return nil
}

// Stats returns zero counters for unknown players.
func (m *MemoryStore) Stats(_ context.Context, playerID string) (PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.stats[playerID]; ok {
		return *s, nil
	}
	return PlayerStats{}, nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) snapshot() map[string]PlayerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]PlayerStats, len(m.stats))
	for id, s := range m.stats {
		out[id] = *s
	}
	return out
}

func (m *MemoryStore) load(in map[string]PlayerStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range in {
		s := s
		m.stats[id] = &s
	}
}
