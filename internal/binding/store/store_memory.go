package store

import (
	"context"
	"sort"
	"sync"

	"relay/internal/binding/models"
	"relay/internal/sentinel"
	"relay/pkg/document"
	"relay/pkg/tenant"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	bindings  map[string]*models.TemplateBinding
	providers map[string]*models.ProviderDetail
}

// NewMemory constructs an empty in-memory binding store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		bindings:  make(map[string]*models.TemplateBinding),
		providers: make(map[string]*models.ProviderDetail),
	}
}

func (s *MemoryStore) SaveBinding(ctx context.Context, binding *models.TemplateBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bindings[binding.ID]; exists {
		return sentinel.ErrConflict
	}
	s.bindings[binding.ID] = cloneBinding(binding)
	return nil
}

func (s *MemoryStore) GetBinding(ctx context.Context, id string) (*models.TemplateBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	binding, ok := s.bindings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneBinding(binding), nil
}

func (s *MemoryStore) UpdateBinding(ctx context.Context, binding *models.TemplateBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[binding.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.bindings[binding.ID] = cloneBinding(binding)
	return nil
}

func (s *MemoryStore) SearchBindings(ctx context.Context, criteria models.BindingSearchCriteria) ([]*models.TemplateBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.TemplateBinding
	for _, binding := range s.bindings {
		if matchesBinding(binding, criteria) {
			matched = append(matched, cloneBinding(binding))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Audit.LastModifiedTime > matched[j].Audit.LastModifiedTime
	})
	return paginateBindings(matched, criteria.Limit, criteria.Offset), nil
}

func (s *MemoryStore) CountBindings(ctx context.Context, criteria models.BindingSearchCriteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, binding := range s.bindings {
		if matchesBinding(binding, criteria) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ResolveBinding(ctx context.Context, eventName string, chain []string) (*models.TemplateBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.TemplateBinding
	bestRank := len(chain) + 1
	for _, binding := range s.bindings {
		if !binding.IsEnabled() || binding.EventName != eventName {
			continue
		}
		rank := tenant.Rank(chain, binding.TenantID)
		if rank >= len(chain) {
			continue
		}
		if rank < bestRank ||
			(rank == bestRank && binding.Audit.LastModifiedTime > best.Audit.LastModifiedTime) {
			best = binding
			bestRank = rank
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneBinding(best), nil
}

func (s *MemoryStore) SaveProvider(ctx context.Context, provider *models.ProviderDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.providers[provider.ID]; exists {
		return sentinel.ErrConflict
	}
	s.providers[provider.ID] = cloneProvider(provider)
	return nil
}

func (s *MemoryStore) GetProvider(ctx context.Context, id string) (*models.ProviderDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProvider(provider), nil
}

func (s *MemoryStore) UpdateProvider(ctx context.Context, provider *models.ProviderDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[provider.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.providers[provider.ID] = cloneProvider(provider)
	return nil
}

func (s *MemoryStore) SearchProviders(ctx context.Context, criteria models.ProviderSearchCriteria) ([]*models.ProviderDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.ProviderDetail
	for _, provider := range s.providers {
		if matchesProvider(provider, criteria) {
			matched = append(matched, cloneProvider(provider))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Audit.LastModifiedTime > matched[j].Audit.LastModifiedTime
	})
	return paginateProviders(matched, criteria.Limit, criteria.Offset), nil
}

func (s *MemoryStore) CountProviders(ctx context.Context, criteria models.ProviderSearchCriteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, provider := range s.providers {
		if matchesProvider(provider, criteria) {
			count++
		}
	}
	return count, nil
}

func matchesBinding(b *models.TemplateBinding, c models.BindingSearchCriteria) bool {
	if len(c.IDs) > 0 && !containsString(c.IDs, b.ID) {
		return false
	}
	if c.EventName != "" && b.EventName != c.EventName {
		return false
	}
	if c.TenantID != "" && b.TenantID != c.TenantID {
		return false
	}
	if c.TemplateID != "" && b.TemplateID != c.TemplateID {
		return false
	}
	if c.ProviderID != "" && b.ProviderID != c.ProviderID {
		return false
	}
	if c.Enabled != nil && b.IsEnabled() != *c.Enabled {
		return false
	}
	return true
}

func matchesProvider(p *models.ProviderDetail, c models.ProviderSearchCriteria) bool {
	if len(c.IDs) > 0 && !containsString(c.IDs, p.ID) {
		return false
	}
	if c.Name != "" && p.Name != c.Name {
		return false
	}
	if c.TenantID != "" && p.TenantID != c.TenantID {
		return false
	}
	if c.Enabled != nil && p.IsEnabled() != *c.Enabled {
		return false
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

func paginateBindings(list []*models.TemplateBinding, limit, offset int) []*models.TemplateBinding {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func paginateProviders(list []*models.ProviderDetail, limit, offset int) []*models.ProviderDetail {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func cloneBinding(b *models.TemplateBinding) *models.TemplateBinding {
	clone := *b
	clone.ParamOrder = append([]string(nil), b.ParamOrder...)
	clone.RequiredVars = append([]string(nil), b.RequiredVars...)
	if b.Enabled != nil {
		enabled := *b.Enabled
		clone.Enabled = &enabled
	}
	return &clone
}

func cloneProvider(p *models.ProviderDetail) *models.ProviderDetail {
	clone := *p
	if p.Value != nil {
		clone.Value = make(document.Document, len(p.Value))
		for k, v := range p.Value {
			clone.Value[k] = v
		}
	}
	if p.Enabled != nil {
		enabled := *p.Enabled
		clone.Enabled = &enabled
	}
	return &clone
}
