package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/configstore/models"
	"relay/internal/sentinel"
	"relay/pkg/document"
	"relay/pkg/domain"
	"relay/pkg/tenant"
)

func newEntry(configCode, tenantID string, value document.Document, modified time.Time) *models.ConfigEntry {
	return &models.ConfigEntry{
		ID:         uuid.NewString(),
		ConfigCode: configCode,
		Module:     "PGR",
		Channel:    "WHATSAPP",
		TenantID:   tenantID,
		Value:      value,
		Revision:   1,
		Audit:      domain.NewAudit("tester", modified),
	}
}

func TestMemoryStoreOperations(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now()

	entry := newEntry("sms.templates", "pb.amritsar", document.Document{"eventName": "PGR.CREATE"}, now)
	require.NoError(t, store.Save(ctx, entry))

	// Duplicate id is rejected
	require.ErrorIs(t, store.Save(ctx, entry), sentinel.ErrConflict)

	fetched, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ConfigCode, fetched.ConfigCode)

	// Copy integrity
	fetched.Value["eventName"] = "PGR.RESOLVE"
	again, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "PGR.CREATE", again.EventName())

	// Update honors the expected revision
	entry.Revision = 2
	entry.Value = document.Document{"eventName": "PGR.CREATE", "locale": "en_IN"}
	require.NoError(t, store.Update(ctx, entry, 1))

	stale := *entry
	require.ErrorIs(t, store.Update(ctx, &stale, 1), sentinel.ErrConflict)

	missing := newEntry("sms.templates", "pb", nil, now)
	require.ErrorIs(t, store.Update(ctx, missing, 1), sentinel.ErrNotFound)

	_, err = store.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreSearch(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now()

	first := newEntry("sms.templates", "pb", document.Document{"eventName": "PGR.CREATE"}, now.Add(-time.Hour))
	second := newEntry("sms.templates", "pb.amritsar", document.Document{"eventName": "PGR.CREATE"}, now)
	third := newEntry("email.templates", "pb", document.Document{"eventName": "PGR.RESOLVE"}, now)
	disabled := newEntry("sms.templates", "pb", document.Document{"eventName": "PGR.CREATE"}, now)
	off := false
	disabled.Enabled = &off

	for _, e := range []*models.ConfigEntry{first, second, third, disabled} {
		require.NoError(t, store.Save(ctx, e))
	}

	results, err := store.Search(ctx, models.SearchCriteria{ConfigCode: "sms.templates"})
	require.NoError(t, err)
	assert.Len(t, results, 3)
	// Most recently modified first
	assert.Equal(t, second.ID, results[0].ID)

	enabled := true
	results, err = store.Search(ctx, models.SearchCriteria{ConfigCode: "sms.templates", Enabled: &enabled})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = store.Search(ctx, models.SearchCriteria{EventName: "PGR.RESOLVE"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, third.ID, results[0].ID)

	results, err = store.Search(ctx, models.SearchCriteria{ValueFilter: map[string]string{"eventName": "PGR.CREATE"}, TenantID: "pb.amritsar"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, second.ID, results[0].ID)

	results, err = store.Search(ctx, models.SearchCriteria{ConfigCode: "sms.templates", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	count, err := store.Count(ctx, models.SearchCriteria{ConfigCode: "sms.templates"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestMemoryStoreResolve(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now()

	wildcard := newEntry("sms.templates", tenant.Wildcard, document.Document{"eventName": "PGR.CREATE"}, now.Add(-2*time.Hour))
	state := newEntry("sms.templates", "pb", document.Document{"eventName": "PGR.CREATE"}, now.Add(-time.Hour))
	city := newEntry("sms.templates", "pb.amritsar", document.Document{"eventName": "PGR.CREATE"}, now)

	for _, e := range []*models.ConfigEntry{wildcard, state, city} {
		require.NoError(t, store.Save(ctx, e))
	}

	params := models.ResolveParams{ConfigCode: "sms.templates", Module: "PGR", Channel: "WHATSAPP", EventName: "PGR.CREATE", TenantID: "pb.amritsar"}
	chain := tenant.FallbackChain(params.TenantID)

	resolved, err := store.Resolve(ctx, params, chain)
	require.NoError(t, err)
	assert.Equal(t, city.ID, resolved.ID)

	// A sibling tenant falls through to the state record
	chain = tenant.FallbackChain("pb.jalandhar")
	resolved, err = store.Resolve(ctx, models.ResolveParams{ConfigCode: "sms.templates", EventName: "PGR.CREATE", TenantID: "pb.jalandhar"}, chain)
	require.NoError(t, err)
	assert.Equal(t, state.ID, resolved.ID)

	// Unrelated tenants land on the wildcard record
	chain = tenant.FallbackChain("ka.bengaluru")
	resolved, err = store.Resolve(ctx, models.ResolveParams{ConfigCode: "sms.templates", EventName: "PGR.CREATE", TenantID: "ka.bengaluru"}, chain)
	require.NoError(t, err)
	assert.Equal(t, wildcard.ID, resolved.ID)

	// Disabled records never resolve
	off := false
	city.Enabled = &off
	city.Revision = 2
	require.NoError(t, store.Update(ctx, city, 1))
	chain = tenant.FallbackChain("pb.amritsar")
	resolved, err = store.Resolve(ctx, params, chain)
	require.NoError(t, err)
	assert.Equal(t, state.ID, resolved.ID)

	_, err = store.Resolve(ctx, models.ResolveParams{ConfigCode: "push.templates", TenantID: "pb.amritsar"}, chain)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreResolveTieBreak(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Now()

	older := newEntry("sms.templates", "pb", document.Document{"eventName": "PGR.CREATE"}, now.Add(-time.Hour))
	newer := newEntry("sms.templates", "pb", document.Document{"eventName": "PGR.CREATE"}, now)
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	chain := tenant.FallbackChain("pb")
	resolved, err := store.Resolve(ctx, models.ResolveParams{ConfigCode: "sms.templates", EventName: "PGR.CREATE", TenantID: "pb"}, chain)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, resolved.ID)
}
