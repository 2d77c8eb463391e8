package store

import (
	"context"
	"sort"
	"sync"

	"relay/internal/configstore/models"
	"relay/internal/sentinel"
	"relay/pkg/document"
	"relay/pkg/tenant"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*models.ConfigEntry
}

// NewMemory constructs an empty in-memory config store.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*models.ConfigEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, entry *models.ConfigEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.ConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (s *MemoryStore) Update(ctx context.Context, entry *models.ConfigEntry, expectedRevision int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[entry.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Revision != expectedRevision {
		return sentinel.ErrConflict
	}
	s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.ConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.ConfigEntry
	for _, entry := range s.entries {
		if matchesCriteria(entry, criteria) {
			matched = append(matched, cloneEntry(entry))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Audit.LastModifiedTime > matched[j].Audit.LastModifiedTime
	})

	return paginate(matched, criteria.Limit, criteria.Offset), nil
}

func (s *MemoryStore) Count(ctx context.Context, criteria models.SearchCriteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if matchesCriteria(entry, criteria) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, params models.ResolveParams, chain []string) (*models.ConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.ConfigEntry
	bestRank := len(chain) + 1
	for _, entry := range s.entries {
		if !entry.IsEnabled() {
			continue
		}
		if entry.ConfigCode != params.ConfigCode {
			continue
		}
		if params.Module != "" && entry.Module != params.Module {
			continue
		}
		if params.Channel != "" && entry.Channel != params.Channel {
			continue
		}
		if params.EventName != "" && entry.EventName() != params.EventName {
			continue
		}
		rank := tenant.Rank(chain, entry.TenantID)
		if rank >= len(chain) {
			continue
		}
		// Same tenant level: most recently modified wins.
		if rank < bestRank ||
			(rank == bestRank && entry.Audit.LastModifiedTime > best.Audit.LastModifiedTime) {
			best = entry
			bestRank = rank
		}
	}

	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(best), nil
}

func matchesCriteria(entry *models.ConfigEntry, c models.SearchCriteria) bool {
	if len(c.IDs) > 0 && !containsString(c.IDs, entry.ID) {
		return false
	}
	if c.ConfigCode != "" && entry.ConfigCode != c.ConfigCode {
		return false
	}
	if c.Module != "" && entry.Module != c.Module {
		return false
	}
	if c.Channel != "" && entry.Channel != c.Channel {
		return false
	}
	if c.TenantID != "" && entry.TenantID != c.TenantID {
		return false
	}
	if c.EventName != "" && entry.EventName() != c.EventName {
		return false
	}
	if c.Enabled != nil && entry.IsEnabled() != *c.Enabled {
		return false
	}
	for key, want := range c.ValueFilter {
		if entry.Value == nil || document.Stringify(entry.Value[key]) != want {
			return false
		}
	}
	return true
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func paginate(entries []*models.ConfigEntry, limit, offset int) []*models.ConfigEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

func cloneEntry(entry *models.ConfigEntry) *models.ConfigEntry {
	clone := *entry
	if entry.Value != nil {
		clone.Value = make(document.Document, len(entry.Value))
		for k, v := range entry.Value {
			clone.Value[k] = v
		}
	}
	if entry.Enabled != nil {
		enabled := *entry.Enabled
		clone.Enabled = &enabled
	}
	return &clone
}
