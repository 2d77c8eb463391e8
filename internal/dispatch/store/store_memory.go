// Package store persists dispatch log entries, idempotently keyed on
// (eventId, channel).
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"relay/internal/dispatch/models"
)

// MemoryStore is an in-memory dispatch log for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[logKey]*models.LogEntry
}

type logKey struct {
	eventID string
	channel string
}

// NewMemory constructs an empty in-memory dispatch log.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[logKey]*models.LogEntry)}
}

func (s *MemoryStore) Upsert(ctx context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey{eventID: entry.EventID, channel: entry.Channel}
	if existing, ok := s.entries[key]; ok {
		updated := *entry
		updated.ID = existing.ID
		updated.CreatedTime = existing.CreatedTime
		s.entries[key] = &updated
		return nil
	}

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.entries[key] = &stored
	return nil
}

// Get returns the stored entry for the key, or nil when absent.
func (s *MemoryStore) Get(eventID, channel string) *models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[logKey{eventID: eventID, channel: channel}]
	if !ok {
		return nil
	}
	clone := *entry
	return &clone
}

// Len reports the number of stored rows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// NoopStore discards every write, used when dispatch logging is disabled.
type NoopStore struct{}

// NewNoop constructs a NoopStore.
func NewNoop() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) Upsert(ctx context.Context, entry *models.LogEntry) error {
	return nil
}
