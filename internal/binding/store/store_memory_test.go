package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/binding/models"
	"relay/internal/sentinel"
	"relay/pkg/document"
	"relay/pkg/domain"
)

func newBinding(id, eventName, tenantID string, modified int64) *models.TemplateBinding {
	return &models.TemplateBinding{
		ID:         id,
		EventName:  eventName,
		TenantID:   tenantID,
		TemplateID: "tpl-" + id,
		Audit: domain.AuditDetails{
			CreatedTime:      modified,
			LastModifiedTime: modified,
		},
	}
}

func TestMemoryStoreBindingLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	binding := newBinding("b1", "BILL_GENERATED", "pb", 100)
	binding.RequiredVars = []string{"amount"}
	require.NoError(t, s.SaveBinding(ctx, binding))

	t.Run("duplicate save conflicts", func(t *testing.T) {
		assert.ErrorIs(t, s.SaveBinding(ctx, newBinding("b1", "X", "pb", 1)), sentinel.ErrConflict)
	})

	t.Run("stored copy is isolated", func(t *testing.T) {
		binding.RequiredVars[0] = "mutated"
		got, err := s.GetBinding(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, []string{"amount"}, got.RequiredVars)
	})

	t.Run("update replaces record", func(t *testing.T) {
		updated := newBinding("b1", "BILL_GENERATED", "pb", 200)
		updated.TemplateID = "tpl-new"
		require.NoError(t, s.UpdateBinding(ctx, updated))

		got, err := s.GetBinding(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "tpl-new", got.TemplateID)
	})

	t.Run("update of missing binding", func(t *testing.T) {
		assert.ErrorIs(t, s.UpdateBinding(ctx, newBinding("nope", "X", "pb", 1)), sentinel.ErrNotFound)
	})
}

func TestMemoryStoreResolveBinding(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	chain := []string{"pb.amritsar", "pb", "*"}

	require.NoError(t, s.SaveBinding(ctx, newBinding("global", "BILL_GENERATED", "*", 100)))
	require.NoError(t, s.SaveBinding(ctx, newBinding("state", "BILL_GENERATED", "pb", 100)))
	require.NoError(t, s.SaveBinding(ctx, newBinding("other", "BILL_GENERATED", "pb.ludhiana", 100)))

	t.Run("state beats global", func(t *testing.T) {
		got, err := s.ResolveBinding(ctx, "BILL_GENERATED", chain)
		require.NoError(t, err)
		assert.Equal(t, "state", got.ID)
	})

	t.Run("city beats state", func(t *testing.T) {
		require.NoError(t, s.SaveBinding(ctx, newBinding("city", "BILL_GENERATED", "pb.amritsar", 50)))
		got, err := s.ResolveBinding(ctx, "BILL_GENERATED", chain)
		require.NoError(t, err)
		assert.Equal(t, "city", got.ID)
	})

	t.Run("disabled bindings are invisible", func(t *testing.T) {
		disabled := false
		off := newBinding("off", "PAYMENT_RECEIVED", "pb.amritsar", 100)
		off.Enabled = &disabled
		require.NoError(t, s.SaveBinding(ctx, off))

		_, err := s.ResolveBinding(ctx, "PAYMENT_RECEIVED", chain)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("sibling tenant never matches", func(t *testing.T) {
		got, err := s.ResolveBinding(ctx, "BILL_GENERATED", []string{"pb.patiala", "pb", "*"})
		require.NoError(t, err)
		assert.Equal(t, "state", got.ID)
	})

	t.Run("rank ties go to most recently modified", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.SaveBinding(ctx, newBinding("older", "BILL_GENERATED", "pb", 100)))
		require.NoError(t, s.SaveBinding(ctx, newBinding("newer", "BILL_GENERATED", "pb", 200)))

		got, err := s.ResolveBinding(ctx, "BILL_GENERATED", chain)
		require.NoError(t, err)
		assert.Equal(t, "newer", got.ID)
	})
}

func TestMemoryStoreProviderLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	provider := &models.ProviderDetail{
		ID:       "p1",
		Name:     "twilio",
		TenantID: "pb",
		Value:    document.Document{"accountSid": "AC123"},
	}
	require.NoError(t, s.SaveProvider(ctx, provider))
	assert.ErrorIs(t, s.SaveProvider(ctx, provider), sentinel.ErrConflict)

	got, err := s.GetProvider(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "twilio", got.Name)

	provider.Value["accountSid"] = "mutated"
	got, err = s.GetProvider(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "AC123", got.Value["accountSid"])

	_, err = s.GetProvider(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreSearchBindings(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.SaveBinding(ctx, newBinding("b1", "BILL_GENERATED", "pb", 100)))
	require.NoError(t, s.SaveBinding(ctx, newBinding("b2", "BILL_GENERATED", "pb.amritsar", 200)))
	require.NoError(t, s.SaveBinding(ctx, newBinding("b3", "PAYMENT_RECEIVED", "pb", 300)))

	results, err := s.SearchBindings(ctx, models.BindingSearchCriteria{EventName: "BILL_GENERATED"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b2", results[0].ID, "most recently modified first")

	count, err := s.CountBindings(ctx, models.BindingSearchCriteria{TenantID: "pb"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	paged, err := s.SearchBindings(ctx, models.BindingSearchCriteria{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b2", paged[0].ID)
}
