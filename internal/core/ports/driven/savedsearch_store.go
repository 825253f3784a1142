package driven

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// SavedSearchStore persists saved searches.
type SavedSearchStore interface {
	// Save creates or updates a saved search.
	Save(ctx context.Context, search domain.SavedSearch) error

	// Get retrieves a saved search by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.SavedSearch, error)

	// List returns all saved searches ordered by name.
	List(ctx context.Context) ([]domain.SavedSearch, error)

	// Delete removes a saved search.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}
