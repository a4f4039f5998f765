package counts

import (
	"context"
	"sync"
	"time"

	"kantinku-be/internal/order"
)

// MemoryStore is the single-process snapshot store. Used in tests and as the
// default when no Redis URL is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uint]memoryEntry
}

type memoryEntry struct {
	snap      *order.CountsSnapshot
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uint]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, cafeteriaID uint) (*order.CountsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[cafeteriaID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	return e.snap, nil
}

func (s *MemoryStore) Set(_ context.Context, snap *order.CountsSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[snap.CafeteriaID] = memoryEntry{
		snap:      snap,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, cafeteriaID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, cafeteriaID)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[uint]memoryEntry)
	return nil
}
