package store

import (
	"context"

	"relay/internal/configstore/models"
)

// Store defines the persistence interface for config entries.
// Error Contract:
// - Get and Resolve return sentinel.ErrNotFound when no record matches
// - Update returns sentinel.ErrConflict when the expected revision is stale
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Save(ctx context.Context, entry *models.ConfigEntry) error
	Get(ctx context.Context, id string) (*models.ConfigEntry, error)
	// Update persists the entry only when the stored revision equals
	// expectedRevision, making optimistic locking atomic at the storage layer.
	Update(ctx context.Context, entry *models.ConfigEntry, expectedRevision int) error
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.ConfigEntry, error)
	Count(ctx context.Context, criteria models.SearchCriteria) (int64, error)
	// Resolve returns the single best enabled match for the selectors, ranked
	// by position of the record's tenant within the chain, then by most recent
	// modification.
	Resolve(ctx context.Context, params models.ResolveParams, chain []string) (*models.ConfigEntry, error)
}
