package store

import (
	"context"

	"relay/internal/binding/models"
)

// Store defines the persistence interface for template bindings and provider
// details.
// Error Contract:
// - GetBinding, GetProvider and ResolveBinding return sentinel.ErrNotFound
//   when no record matches
// - Save methods return sentinel.ErrConflict on duplicate ids
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	SaveBinding(ctx context.Context, binding *models.TemplateBinding) error
	GetBinding(ctx context.Context, id string) (*models.TemplateBinding, error)
	UpdateBinding(ctx context.Context, binding *models.TemplateBinding) error
	SearchBindings(ctx context.Context, criteria models.BindingSearchCriteria) ([]*models.TemplateBinding, error)
	CountBindings(ctx context.Context, criteria models.BindingSearchCriteria) (int64, error)
	// ResolveBinding returns the single best enabled binding for the event,
	// ranked by position of the record's tenant within the chain, then by most
	// recent modification.
	ResolveBinding(ctx context.Context, eventName string, chain []string) (*models.TemplateBinding, error)

	SaveProvider(ctx context.Context, provider *models.ProviderDetail) error
	GetProvider(ctx context.Context, id string) (*models.ProviderDetail, error)
	UpdateProvider(ctx context.Context, provider *models.ProviderDetail) error
	SearchProviders(ctx context.Context, criteria models.ProviderSearchCriteria) ([]*models.ProviderDetail, error)
	CountProviders(ctx context.Context, criteria models.ProviderSearchCriteria) (int64, error)
}
