package domain

import (
	"slices"
	"time"
)

// ServerSettings locates and authenticates against the inventory server.
type ServerSettings struct {
	// URL is the server base URL, e.g. https://eln.example.org.
	URL string

	// Token is the API token sent as a bearer credential.
	Token string
}

// IsConfigured returns true if both URL and token are set.
func (s ServerSettings) IsConfigured() bool {
	return s.URL != "" && s.Token != ""
}

// HTTPSettings tunes the REST client.
type HTTPSettings struct {
	// Timeout bounds a single request.
	Timeout time.Duration

	// MaxRetries is how often a failed request is retried.
	MaxRetries int

	// RateLimit is the sustained requests per second.
	RateLimit float64

	// Burst is the token bucket size.
	Burst int
}

// SearchSettings holds search defaults.
type SearchSettings struct {
	// PageSize is the number of results per page.
	PageSize int

	// Context names the SearchContext preset.
	Context string

	// OrderBy is the default sort key.
	OrderBy string

	// SortOrder is the default sort direction.
	SortOrder SortOrder
}

// MaxHTTPRetries bounds HTTPSettings.MaxRetries.
const MaxHTTPRetries = 10

// AppSettings holds all application settings.
type AppSettings struct {
	Server ServerSettings
	HTTP   HTTPSettings
	Search SearchSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The server is left unconfigured; users set it with `labinv settings set`.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		HTTP: HTTPSettings{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RateLimit:  5,
			Burst:      10,
		},
		Search: SearchSettings{
			PageSize:  DefaultPageSize,
			Context:   SearchContextInventory,
			OrderBy:   DefaultOrderBy,
			SortOrder: DefaultSortOrder(DefaultOrderBy),
		},
	}
}

// SearchContext is the scoped configuration of an embedded search.
// It says which filters the embedding screen permits.
type SearchContext struct {
	// Name identifies the preset.
	Name string

	// AllowedTypeFilters lists the result types the user may pick.
	AllowedTypeFilters []ResultType

	// AllowedStatusFilters lists the deleted item filters the user may pick.
	AllowedStatusFilters []DeletedItems

	// Defaults seeds the parameters of a fresh search.
	Defaults SearchParameters
}

// AllowsType reports whether t is one of the allowed type filters.
func (c SearchContext) AllowsType(t ResultType) bool {
	return slices.Contains(c.AllowedTypeFilters, t)
}

// AllowsStatus reports whether d is one of the allowed status filters.
func (c SearchContext) AllowsStatus(d DeletedItems) bool {
	return slices.Contains(c.AllowedStatusFilters, d)
}

// Search context preset names.
const (
	SearchContextInventory = "inventory"
	SearchContextPicker    = "picker"
	SearchContextBasket    = "basket"
	SearchContextContainer = "container"
)

// SearchContextByName returns the preset called name.
func SearchContextByName(name string) (SearchContext, bool) {
	defaults := DefaultSearchParameters()
	switch name {
	case SearchContextInventory:
		return SearchContext{
			Name:                 name,
			AllowedTypeFilters:   AllResultTypes(),
			AllowedStatusFilters: AllDeletedItems(),
			Defaults:             defaults,
		}, true
	case SearchContextPicker:
		return SearchContext{
			Name: name,
			AllowedTypeFilters: []ResultType{
				ResultTypeAll, ResultTypeContainer, ResultTypeSample, ResultTypeSubSample,
			},
			AllowedStatusFilters: []DeletedItems{DeletedItemsExclude},
			Defaults:             defaults,
		}, true
	case SearchContextBasket:
		return SearchContext{
			Name:                 name,
			AllowedTypeFilters:   AllResultTypes(),
			AllowedStatusFilters: []DeletedItems{DeletedItemsExclude, DeletedItemsInclude},
			Defaults:             defaults,
		}, true
	case SearchContextContainer:
		return SearchContext{
			Name:                 name,
			AllowedTypeFilters:   []ResultType{ResultTypeAll, ResultTypeContainer, ResultTypeSubSample},
			AllowedStatusFilters: []DeletedItems{DeletedItemsExclude, DeletedItemsInclude},
			Defaults:             defaults,
		}, true
	default:
		return SearchContext{}, false
	}
}

// SearchContextNames returns the preset names.
func SearchContextNames() []string {
	return []string{SearchContextInventory, SearchContextPicker, SearchContextBasket, SearchContextContainer}
}
