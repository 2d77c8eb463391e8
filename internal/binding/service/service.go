// Package service implements template binding and provider detail management
// plus the event-to-template resolution used by the dispatch pipeline.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"relay/internal/binding/models"
	"relay/internal/binding/store"
	"relay/internal/platform/metrics"
	"relay/internal/platform/redis"
	"relay/internal/sentinel"
	"relay/pkg/domain"
	domainerrors "relay/pkg/domain-errors"
	"relay/pkg/tenant"
)

const defaultCacheTTL = 60 * time.Second

type Option func(*Service)

// Service manages bindings and providers and resolves bindings for events.
type Service struct {
	store    store.Store
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    st,
		cacheTTL: defaultCacheTTL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithCache enables the read-through resolution cache. A nil client leaves
// caching disabled. Invalidation on writes is exact-key only, so descendant
// tenants that resolved through fallback keep a stale result until the TTL
// expires; keep the TTL short.
func WithCache(cache *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the service clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// CreateBinding persists a new binding.
func (s *Service) CreateBinding(ctx context.Context, binding *models.TemplateBinding, actor string) (*models.TemplateBinding, error) {
	if err := validateBinding(binding); err != nil {
		return nil, err
	}

	binding.ID = uuid.NewString()
	binding.Audit = domain.NewAudit(actor, s.now())

	if err := s.store.SaveBinding(ctx, binding); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "template binding already exists")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save template binding")
	}

	s.invalidate(ctx, binding.EventName, binding.TenantID)
	s.logger.InfoContext(ctx, "template binding created",
		"id", binding.ID,
		"event_name", binding.EventName,
		"tenant_id", binding.TenantID,
	)
	return binding, nil
}

// UpdateBinding replaces a binding in full, refreshing its modification audit.
func (s *Service) UpdateBinding(ctx context.Context, binding *models.TemplateBinding, actor string) (*models.TemplateBinding, error) {
	if binding == nil || binding.ID == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "id is required for update")
	}
	if err := validateBinding(binding); err != nil {
		return nil, err
	}

	existing, err := s.store.GetBinding(ctx, binding.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "template binding not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read template binding")
	}

	binding.Audit = existing.Audit
	binding.Audit.Touch(actor, s.now())

	if err := s.store.UpdateBinding(ctx, binding); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "template binding not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update template binding")
	}

	// Drop cache for both the old and new selectors when they moved.
	s.invalidate(ctx, existing.EventName, existing.TenantID)
	s.invalidate(ctx, binding.EventName, binding.TenantID)
	return binding, nil
}

// BindingSearchResult carries one page of bindings plus the unpaginated total.
type BindingSearchResult struct {
	Bindings   []*models.TemplateBinding `json:"templateBindings"`
	TotalCount int64                     `json:"totalCount"`
}

// SearchBindings returns bindings matching the criteria, newest first.
func (s *Service) SearchBindings(ctx context.Context, criteria models.BindingSearchCriteria) (*BindingSearchResult, error) {
	bindings, err := s.store.SearchBindings(ctx, criteria)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to search template bindings")
	}
	count, err := s.store.CountBindings(ctx, criteria)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count template bindings")
	}
	return &BindingSearchResult{Bindings: bindings, TotalCount: count}, nil
}

// CreateProvider persists a new provider detail.
func (s *Service) CreateProvider(ctx context.Context, provider *models.ProviderDetail, actor string) (*models.ProviderDetail, error) {
	if err := validateProvider(provider); err != nil {
		return nil, err
	}

	provider.ID = uuid.NewString()
	provider.Audit = domain.NewAudit(actor, s.now())

	if err := s.store.SaveProvider(ctx, provider); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "provider detail already exists")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save provider detail")
	}

	s.logger.InfoContext(ctx, "provider detail created",
		"id", provider.ID,
		"name", provider.Name,
		"tenant_id", provider.TenantID,
	)
	return provider, nil
}

// UpdateProvider replaces a provider detail in full.
func (s *Service) UpdateProvider(ctx context.Context, provider *models.ProviderDetail, actor string) (*models.ProviderDetail, error) {
	if provider == nil || provider.ID == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "id is required for update")
	}
	if err := validateProvider(provider); err != nil {
		return nil, err
	}

	existing, err := s.store.GetProvider(ctx, provider.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "provider detail not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read provider detail")
	}

	provider.Audit = existing.Audit
	provider.Audit.Touch(actor, s.now())

	if err := s.store.UpdateProvider(ctx, provider); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "provider detail not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update provider detail")
	}
	return provider, nil
}

// ProviderSearchResult carries one page of providers plus the unpaginated total.
type ProviderSearchResult struct {
	Providers  []*models.ProviderDetail `json:"providerDetails"`
	TotalCount int64                    `json:"totalCount"`
}

// SearchProviders returns providers matching the criteria, newest first.
func (s *Service) SearchProviders(ctx context.Context, criteria models.ProviderSearchCriteria) (*ProviderSearchResult, error) {
	providers, err := s.store.SearchProviders(ctx, criteria)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to search provider details")
	}
	count, err := s.store.CountProviders(ctx, criteria)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count provider details")
	}
	return &ProviderSearchResult{Providers: providers, TotalCount: count}, nil
}

// Resolve walks the tenant fallback chain for the event and joins the
// provider detail when the binding names one that exists. An empty tenant
// resolves against the global "*" level only. Cache reads and writes are
// best-effort.
func (s *Service) Resolve(ctx context.Context, eventName, tenantID string) (*models.ResolvedBinding, error) {
	if eventName == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "eventName is required")
	}

	if cached := s.cacheGet(ctx, eventName, tenantID); cached != nil {
		return cached, nil
	}

	chain := tenant.FallbackChain(tenantID)
	binding, err := s.store.ResolveBinding(ctx, eventName, chain)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeBindingNotResolved,
				fmt.Sprintf("no enabled binding for event %q in chain %v", eventName, chain))
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to resolve template binding")
	}

	resolved := &models.ResolvedBinding{Binding: binding}
	if binding.ProviderID != "" {
		provider, err := s.store.GetProvider(ctx, binding.ProviderID)
		switch {
		case err == nil && provider.IsEnabled():
			resolved.Provider = provider
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read provider detail")
		default:
			// Weak reference: a missing or disabled provider is a nil join.
			s.logger.DebugContext(ctx, "binding provider absent",
				"binding_id", binding.ID,
				"provider_id", binding.ProviderID,
			)
		}
	}

	s.cacheSet(ctx, eventName, tenantID, resolved)
	return resolved, nil
}

func (s *Service) cacheGet(ctx context.Context, eventName, tenantID string) *models.ResolvedBinding {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKey(eventName, tenantID)).Bytes()
	if err != nil {
		if s.metrics != nil {
			s.metrics.ResolveCacheMiss.Inc()
		}
		return nil
	}
	var resolved models.ResolvedBinding
	if err := json.Unmarshal(raw, &resolved); err != nil {
		s.logger.WarnContext(ctx, "corrupt binding cache entry dropped",
			"event_name", eventName,
			"tenant_id", tenantID,
			"error", err,
		)
		return nil
	}
	if s.metrics != nil {
		s.metrics.ResolveCacheHits.Inc()
	}
	return &resolved
}

func (s *Service) cacheSet(ctx context.Context, eventName, tenantID string, resolved *models.ResolvedBinding) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(eventName, tenantID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "binding cache write failed", "error", err)
	}
}

// invalidate drops the cache entry for the exact (eventName, tenantID) pair.
// Descendant tenants whose resolution fell back to this level are not touched
// and serve the old result until their entries expire.
func (s *Service) invalidate(ctx context.Context, eventName, tenantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(eventName, tenantID)).Err(); err != nil {
		s.logger.WarnContext(ctx, "binding cache invalidation failed", "error", err)
	}
}

func cacheKey(eventName, tenantID string) string {
	return "binding:resolve:" + eventName + ":" + tenantID
}

func validateBinding(binding *models.TemplateBinding) error {
	if binding == nil {
		return domainerrors.New(domainerrors.CodeInvalidInput, "template binding is required")
	}
	if binding.EventName == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "eventName is required")
	}
	if binding.TenantID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "tenantId is required")
	}
	if binding.TemplateID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "templateId is required")
	}
	return nil
}

func validateProvider(provider *models.ProviderDetail) error {
	if provider == nil {
		return domainerrors.New(domainerrors.CodeInvalidInput, "provider detail is required")
	}
	if provider.Name == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "name is required")
	}
	if provider.TenantID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "tenantId is required")
	}
	return nil
}
