// Package service implements the configuration store lifecycle: create,
// revision-checked update, search, and tenant-fallback resolution.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"relay/internal/configstore/models"
	"relay/internal/configstore/store"
	"relay/internal/sentinel"
	"relay/pkg/domain"
	domainerrors "relay/pkg/domain-errors"
	"relay/pkg/tenant"
)

type Option func(*Service)

// Service manages config entries and answers resolution queries.
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithClock overrides the service clock, used by tests for deterministic
// audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Create persists a new entry at revision 1.
func (s *Service) Create(ctx context.Context, entry *models.ConfigEntry, actor string) (*models.ConfigEntry, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}

	entry.ID = uuid.NewString()
	entry.Revision = 1
	entry.Audit = domain.NewAudit(actor, s.now())

	if err := s.store.Save(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeConflict, "config entry already exists")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save config entry")
	}

	s.logger.InfoContext(ctx, "config entry created",
		"id", entry.ID,
		"config_code", entry.ConfigCode,
		"tenant_id", entry.TenantID,
	)
	return entry, nil
}

// Update applies a full replacement of the entry guarded by optimistic
// locking. The caller submits the revision it last read; a stale revision
// fails with REVISION_MISMATCH and the caller must re-read and retry.
func (s *Service) Update(ctx context.Context, entry *models.ConfigEntry, actor string) (*models.ConfigEntry, error) {
	if entry == nil || entry.ID == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "id is required for update")
	}
	if err := validateEntry(entry); err != nil {
		return nil, err
	}
	if entry.Revision < 1 {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "revision is required for update")
	}

	existing, err := s.store.Get(ctx, entry.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "config entry not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read config entry")
	}

	expected := entry.Revision
	entry.Revision = expected + 1
	entry.Audit = existing.Audit
	entry.Audit.Touch(actor, s.now())

	if err := s.store.Update(ctx, entry, expected); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domainerrors.New(domainerrors.CodeRevisionMismatch,
				fmt.Sprintf("config entry %s was modified concurrently, re-read and retry", entry.ID))
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "config entry not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update config entry")
	}

	s.logger.InfoContext(ctx, "config entry updated",
		"id", entry.ID,
		"revision", entry.Revision,
	)
	return entry, nil
}

// Get fetches a single entry by id.
func (s *Service) Get(ctx context.Context, id string) (*models.ConfigEntry, error) {
	if id == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "id is required")
	}
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeNotFound, "config entry not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read config entry")
	}
	return entry, nil
}

// SearchResult carries one page of entries plus the unpaginated total.
type SearchResult struct {
	Entries    []*models.ConfigEntry `json:"configEntries"`
	TotalCount int64                 `json:"totalCount"`
}

// Search returns entries matching the criteria, newest first.
func (s *Service) Search(ctx context.Context, criteria models.SearchCriteria) (*SearchResult, error) {
	entries, err := s.store.Search(ctx, criteria)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to search config entries")
	}
	count, err := s.store.Count(ctx, criteria)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to count config entries")
	}
	return &SearchResult{Entries: entries, TotalCount: count}, nil
}

// Resolve walks the tenant fallback chain and returns the best enabled match
// for the selectors, annotated with the tenant level that satisfied it. An
// empty tenant resolves against the global "*" level only.
func (s *Service) Resolve(ctx context.Context, params models.ResolveParams) (*models.ResolvedEntry, error) {
	if params.ConfigCode == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "configCode is required")
	}

	chain := tenant.FallbackChain(params.TenantID)
	entry, err := s.store.Resolve(ctx, params, chain)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domainerrors.New(domainerrors.CodeConfigNotResolved,
				fmt.Sprintf("no enabled config for code %q in chain %v", params.ConfigCode, chain))
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to resolve config entry")
	}

	s.logger.DebugContext(ctx, "config entry resolved",
		"config_code", params.ConfigCode,
		"tenant_id", params.TenantID,
		"matched_tenant", entry.TenantID,
	)
	return &models.ResolvedEntry{
		Entry: entry,
		Meta: models.ResolutionMeta{
			MatchedTenant: entry.TenantID,
			Chain:         chain,
		},
	}, nil
}

func validateEntry(entry *models.ConfigEntry) error {
	if entry == nil {
		return domainerrors.New(domainerrors.CodeInvalidInput, "config entry is required")
	}
	if entry.ConfigCode == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "configCode is required")
	}
	if entry.TenantID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "tenantId is required")
	}
	if len(entry.Value) == 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "value document is required")
	}
	return nil
}
