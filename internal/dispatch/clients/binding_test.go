package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bindingmodels "relay/internal/binding/models"
	"relay/pkg/document"
	domainerrors "relay/pkg/domain-errors"
)

type stubBindingService struct {
	resolve func(ctx context.Context, eventName, tenantID string) (*bindingmodels.ResolvedBinding, error)
}

func (s *stubBindingService) Resolve(ctx context.Context, eventName, tenantID string) (*bindingmodels.ResolvedBinding, error) {
	return s.resolve(ctx, eventName, tenantID)
}

func TestBindingAdapterFlattensResolvedBinding(t *testing.T) {
	adapter := NewBindingAdapter(&stubBindingService{
		resolve: func(_ context.Context, eventName, tenantID string) (*bindingmodels.ResolvedBinding, error) {
			assert.Equal(t, "PGR.CREATE", eventName)
			assert.Equal(t, "pb.amritsar", tenantID)
			return &bindingmodels.ResolvedBinding{
				Binding: &bindingmodels.TemplateBinding{
					TemplateID:      "pgr-create-citizen",
					TemplateVersion: "v3",
					ContentSid:      "HX0123456789abcdef0123456789abcdef",
					RequiredVars:    []string{"complaintNumber"},
					ParamOrder:      []string{"complaintNumber", "citizenName"},
				},
				Provider: &bindingmodels.ProviderDetail{
					Name:  "twilio",
					Value: document.Document{"accountSid": "AC123"},
				},
			}, nil
		},
	})

	template, err := adapter.ResolveTemplate(context.Background(), "PGR.CREATE", "pb.amritsar")
	require.NoError(t, err)
	assert.Equal(t, "pgr-create-citizen", template.TemplateKey)
	assert.Equal(t, "v3", template.TemplateVersion)
	assert.Equal(t, "HX0123456789abcdef0123456789abcdef", template.ContentSid)
	assert.Equal(t, []string{"complaintNumber"}, template.RequiredVars)
	assert.Equal(t, []string{"complaintNumber", "citizenName"}, template.ParamOrder)
	assert.Equal(t, document.Document{"accountSid": "AC123"}, template.ProviderConfig)
}

func TestBindingAdapterRecoversLegacyContentSid(t *testing.T) {
	// Records written before the dedicated column carried the content id in
	// templateVersion.
	adapter := NewBindingAdapter(&stubBindingService{
		resolve: func(_ context.Context, _, _ string) (*bindingmodels.ResolvedBinding, error) {
			return &bindingmodels.ResolvedBinding{
				Binding: &bindingmodels.TemplateBinding{
					TemplateID:      "pgr-create-citizen",
					TemplateVersion: "HXfeedfacefeedfacefeedfacefeedface",
				},
			}, nil
		},
	})

	template, err := adapter.ResolveTemplate(context.Background(), "PGR.CREATE", "pb")
	require.NoError(t, err)
	assert.Equal(t, "HXfeedfacefeedfacefeedfacefeedface", template.ContentSid)
	assert.Nil(t, template.ProviderConfig)
}

func TestBindingAdapterPassesResolutionMissThrough(t *testing.T) {
	adapter := NewBindingAdapter(&stubBindingService{
		resolve: func(_ context.Context, _, _ string) (*bindingmodels.ResolvedBinding, error) {
			return nil, domainerrors.New(domainerrors.CodeBindingNotResolved, "no enabled binding")
		},
	})

	_, err := adapter.ResolveTemplate(context.Background(), "PGR.CREATE", "pb")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeBindingNotResolved))
}
