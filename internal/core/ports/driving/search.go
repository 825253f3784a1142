package driving

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// SearchService owns the filter state of an inventory search and keeps
// cross-filter rules consistent. Setters that change the parameters run a
// new fetch; rejected changes return domain.ErrFilterNotAllowed.
type SearchService interface {
	// Load fetches baskets and runs the initial search.
	Load(ctx context.Context) error

	// DoSearch commits staged changes and fetches results.
	DoSearch(ctx context.Context) error

	// SetQuery replaces the free text query.
	SetQuery(ctx context.Context, query string) error

	// SetTypeFilter restricts results to one record type.
	SetTypeFilter(ctx context.Context, t domain.ResultType) error

	// SetOwner filters by owner. With doSearchImmediately false the change is staged.
	SetOwner(ctx context.Context, owner *domain.Person, doSearchImmediately bool) error

	// SetBench filters by bench owner. SAMPLE and TEMPLATE type filters fall back to ALL.
	SetBench(ctx context.Context, bench *domain.Person, doSearchImmediately bool) error

	// SetDeletedItems selects how deleted records are treated.
	SetDeletedItems(ctx context.Context, d domain.DeletedItems) error

	// SetOrder sorts by key, inverting the direction if key is already current.
	SetOrder(ctx context.Context, key string) error

	// SetParentGlobalID scopes the listing to a parent record. Empty clears it.
	SetParentGlobalID(ctx context.Context, id domain.GlobalID) error

	// SetPermalink looks up a single record by global id.
	SetPermalink(ctx context.Context, id domain.GlobalID) error

	// SetPage moves to another page of results.
	SetPage(ctx context.Context, page int) error

	// RemoveChip clears the filter a chip stands for.
	RemoveChip(ctx context.Context, kind domain.ChipKind) error

	// Params returns the current (possibly staged) parameters.
	Params() domain.SearchParameters

	// AllowedTypeFilters returns the type filters permitted right now.
	AllowedTypeFilters() []domain.ResultType

	// AllowedStatusFilters returns the deleted item filters permitted right now.
	AllowedStatusFilters() []domain.DeletedItems

	// StatusMessage returns the single status line for the current state.
	StatusMessage() string

	// Chips returns the active filter chips.
	Chips() []domain.Chip

	// Baskets returns the baskets loaded by Load.
	Baskets() []domain.Basket

	// CurrentBasket returns the basket the search is scoped to, if any.
	CurrentBasket(baskets []domain.Basket) *domain.Basket

	// Snapshot returns everything a renderer needs.
	Snapshot() domain.SearchSnapshot

	// SavedSearches lists saved searches with their applicability in this context.
	SavedSearches(ctx context.Context) ([]domain.SavedSearchOption, error)

	// ApplySavedSearch replaces the parameters with a saved search and fetches.
	ApplySavedSearch(ctx context.Context, id string) error

	// SaveCurrent stores the current parameters under name.
	SaveCurrent(ctx context.Context, name string) (*domain.SavedSearch, error)

	// ImportSavedSearch stores a saved search read from elsewhere.
	ImportSavedSearch(ctx context.Context, search domain.SavedSearch) (*domain.SavedSearch, error)

	// DeleteSavedSearch removes a saved search.
	DeleteSavedSearch(ctx context.Context, id string) error

	// OnChange registers a callback run after every state change.
	OnChange(fn func())
}

// SearchFactory builds a search scoped by the named SearchContext, seeded
// with the context defaults and then the overrides. An empty name selects
// the configured context.
type SearchFactory func(contextName string, overrides ...domain.Override) (SearchService, error)
