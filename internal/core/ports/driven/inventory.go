package driven

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// InventoryClient is the inventory server's search and record API.
type InventoryClient interface {
	// Search runs a filtered listing, or a permalink lookup when params.Permalink is set.
	// The context is cancelled when a newer search supersedes this one.
	Search(ctx context.Context, params domain.SearchParameters) (*domain.SearchResults, error)

	// ListBaskets returns the current user's baskets.
	ListBaskets(ctx context.Context) ([]domain.Basket, error)

	// GetRecord fetches a single record by global id.
	GetRecord(ctx context.Context, id domain.GlobalID) (*domain.InventoryRecord, error)

	// RenameRecord changes a record's name.
	RenameRecord(ctx context.Context, id domain.GlobalID, name string) error

	// SetTags replaces a record's tags.
	SetTags(ctx context.Context, id domain.GlobalID, tags []string) error

	// ShareRecords shares records with the given groups.
	ShareRecords(ctx context.Context, ids []domain.GlobalID, groupIDs []int64) error
}
