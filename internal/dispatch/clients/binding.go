package clients

import (
	"context"

	bindingmodels "relay/internal/binding/models"
	"relay/internal/dispatch/models"
)

// BindingResolverService is the slice of the binding service the adapter needs.
type BindingResolverService interface {
	Resolve(ctx context.Context, eventName, tenantID string) (*bindingmodels.ResolvedBinding, error)
}

// BindingAdapter adapts the in-process binding service to the pipeline's
// template view.
type BindingAdapter struct {
	bindings BindingResolverService
}

// NewBindingAdapter creates the in-process binding resolver adapter.
func NewBindingAdapter(bindings BindingResolverService) *BindingAdapter {
	return &BindingAdapter{bindings: bindings}
}

// ResolveTemplate resolves the binding for the event and flattens it into the
// provider-facing template shape. Binding-not-resolved errors pass through
// unchanged for the consumer's dead-letter routing.
func (a *BindingAdapter) ResolveTemplate(ctx context.Context, eventName, tenantID string) (*models.ResolvedTemplate, error) {
	resolved, err := a.bindings.Resolve(ctx, eventName, tenantID)
	if err != nil {
		return nil, err
	}

	template := &models.ResolvedTemplate{
		TemplateKey:     resolved.Binding.TemplateID,
		TemplateVersion: resolved.Binding.TemplateVersion,
		ContentSid:      resolved.Binding.EffectiveContentSid(),
		RequiredVars:    resolved.Binding.RequiredVars,
		ParamOrder:      resolved.Binding.ParamOrder,
	}
	if resolved.Provider != nil {
		template.ProviderConfig = resolved.Provider.Value
	}
	return template, nil
}
