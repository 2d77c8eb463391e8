package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/binding/models"
	"relay/internal/binding/store"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store.NewMemory(), logger)
}

func pgrBinding(tenantID string) *models.TemplateBinding {
	return &models.TemplateBinding{
		EventName:    "PGR.CREATE",
		TenantID:     tenantID,
		TemplateID:   "pgr-create-citizen",
		RequiredVars: []string{"complaintNumber", "citizenName"},
		Locale:       "en_IN",
	}
}

func TestCreateBindingEnrichment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBinding(ctx, pgrBinding("pb"), "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "admin", created.Audit.CreatedBy)
	assert.True(t, created.IsEnabled())
}

func TestCreateBindingValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		binding *models.TemplateBinding
	}{
		{"nil binding", nil},
		{"missing eventName", &models.TemplateBinding{TenantID: "pb", TemplateID: "x"}},
		{"missing tenantId", &models.TemplateBinding{EventName: "PGR.CREATE", TemplateID: "x"}},
		{"missing templateId", &models.TemplateBinding{EventName: "PGR.CREATE", TenantID: "pb"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBinding(ctx, tc.binding, "admin")
			assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
		})
	}
}

func TestUpdateBindingPreservesCreationAudit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBinding(ctx, pgrBinding("pb"), "admin")
	require.NoError(t, err)

	updated := *created
	updated.TemplateID = "pgr-create-citizen-v2"
	result, err := svc.UpdateBinding(ctx, &updated, "editor")
	require.NoError(t, err)
	assert.Equal(t, "admin", result.Audit.CreatedBy)
	assert.Equal(t, "editor", result.Audit.LastModifiedBy)

	missing := pgrBinding("pb")
	missing.ID = "missing"
	_, err = svc.UpdateBinding(ctx, missing, "editor")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeNotFound))
}

func TestResolvePrefersMostSpecificTenant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := time.Now()
	clock := base
	svc.now = func() time.Time { return clock }

	_, err := svc.CreateBinding(ctx, pgrBinding("*"), "admin")
	require.NoError(t, err)
	clock = base.Add(time.Second)
	state, err := svc.CreateBinding(ctx, pgrBinding("pb"), "admin")
	require.NoError(t, err)
	clock = base.Add(2 * time.Second)
	city, err := svc.CreateBinding(ctx, pgrBinding("pb.amritsar"), "admin")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, "PGR.CREATE", "pb.amritsar")
	require.NoError(t, err)
	assert.Equal(t, city.ID, resolved.Binding.ID)

	resolved, err = svc.Resolve(ctx, "PGR.CREATE", "pb.jalandhar")
	require.NoError(t, err)
	assert.Equal(t, state.ID, resolved.Binding.ID)
}

func TestResolveEmptyTenantHitsGlobalLevel(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	global, err := svc.CreateBinding(ctx, pgrBinding("*"), "admin")
	require.NoError(t, err)
	_, err = svc.CreateBinding(ctx, pgrBinding("pb"), "admin")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, "PGR.CREATE", "")
	require.NoError(t, err)
	assert.Equal(t, global.ID, resolved.Binding.ID)

	_, err = svc.Resolve(ctx, "", "pb")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidInput))
}

func TestResolveJoinsProvider(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	provider, err := svc.CreateProvider(ctx, &models.ProviderDetail{
		Name:     "twilio",
		TenantID: "pb",
		Value:    document.Document{"accountSid": "AC123"},
	}, "admin")
	require.NoError(t, err)

	binding := pgrBinding("pb")
	binding.ProviderID = provider.ID
	_, err = svc.CreateBinding(ctx, binding, "admin")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, "PGR.CREATE", "pb.amritsar")
	require.NoError(t, err)
	require.NotNil(t, resolved.Provider)
	assert.Equal(t, "twilio", resolved.Provider.Name)
}

func TestResolveToleratesMissingProvider(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	binding := pgrBinding("pb")
	binding.ProviderID = "no-such-provider"
	_, err := svc.CreateBinding(ctx, binding, "admin")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, "PGR.CREATE", "pb")
	require.NoError(t, err)
	assert.Nil(t, resolved.Provider)
}

func TestResolveMiss(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Resolve(context.Background(), "PGR.CREATE", "pb.amritsar")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBindingNotResolved))
}

func TestSearchBindingsPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, tenantID := range []string{"pb", "pb.amritsar", "pb.jalandhar"} {
		_, err := svc.CreateBinding(ctx, pgrBinding(tenantID), "admin")
		require.NoError(t, err)
	}

	result, err := svc.SearchBindings(ctx, models.BindingSearchCriteria{EventName: "PGR.CREATE", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Bindings, 2)
	assert.EqualValues(t, 3, result.TotalCount)
}
