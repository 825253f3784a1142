package domain

import "time"

// ResultType restricts a search to one kind of inventory record.
type ResultType string

// Available result types.
const (
	ResultTypeAll       ResultType = "ALL"
	ResultTypeContainer ResultType = "CONTAINER"
	ResultTypeSample    ResultType = "SAMPLE"
	ResultTypeSubSample ResultType = "SUBSAMPLE"
	ResultTypeTemplate  ResultType = "TEMPLATE"
)

// AllResultTypes returns every result type in display order.
func AllResultTypes() []ResultType {
	return []ResultType{
		ResultTypeAll,
		ResultTypeContainer,
		ResultTypeSample,
		ResultTypeSubSample,
		ResultTypeTemplate,
	}
}

// IsValid returns true if the result type is recognised.
func (t ResultType) IsValid() bool {
	switch t {
	case ResultTypeAll, ResultTypeContainer, ResultTypeSample, ResultTypeSubSample, ResultTypeTemplate:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t ResultType) String() string {
	return string(t)
}

// Plural returns the plural noun used in status messages and chips.
func (t ResultType) Plural() string {
	switch t {
	case ResultTypeContainer:
		return "containers"
	case ResultTypeSample:
		return "samples"
	case ResultTypeSubSample:
		return "subsamples"
	case ResultTypeTemplate:
		return "templates"
	default:
		return "items"
	}
}

// DeletedItems controls whether deleted records are part of the results.
type DeletedItems string

// Available deleted item filters.
const (
	DeletedItemsExclude     DeletedItems = "EXCLUDE"
	DeletedItemsInclude     DeletedItems = "INCLUDE"
	DeletedItemsDeletedOnly DeletedItems = "DELETED_ONLY"
)

// AllDeletedItems returns every deleted item filter in display order.
func AllDeletedItems() []DeletedItems {
	return []DeletedItems{DeletedItemsExclude, DeletedItemsInclude, DeletedItemsDeletedOnly}
}

// IsValid returns true if the filter is recognised.
func (d DeletedItems) IsValid() bool {
	switch d {
	case DeletedItemsExclude, DeletedItemsInclude, DeletedItemsDeletedOnly:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (d DeletedItems) String() string {
	return string(d)
}

// Label returns a human-readable description of the filter.
func (d DeletedItems) Label() string {
	switch d {
	case DeletedItemsInclude:
		return "Current and deleted"
	case DeletedItemsDeletedOnly:
		return "Deleted only"
	default:
		return "Current"
	}
}

// Person references a user by id with a display label.
type Person struct {
	// ID is the username the server filters by.
	ID string `json:"id" yaml:"id"`

	// Label is the display name. It is not part of the query string.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayName returns Label, falling back to ID.
func (p Person) DisplayName() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}

// SearchParameters is the canonical filter state of an inventory search.
type SearchParameters struct {
	Query          string       `json:"query,omitempty" yaml:"query,omitempty"`
	ResultType     ResultType   `json:"resultType" yaml:"resultType"`
	Owner          *Person      `json:"owner,omitempty" yaml:"owner,omitempty"`
	Bench          *Person      `json:"benchOwner,omitempty" yaml:"benchOwner,omitempty"`
	DeletedItems   DeletedItems `json:"deletedItems" yaml:"deletedItems"`
	ParentGlobalID GlobalID     `json:"parentGlobalId,omitempty" yaml:"parentGlobalId,omitempty"`
	OrderBy        string       `json:"orderBy" yaml:"orderBy"`
	SortOrder      SortOrder    `json:"sortOrder" yaml:"sortOrder"`
	Permalink      GlobalID     `json:"permalink,omitempty" yaml:"permalink,omitempty"`
	PageNumber     int          `json:"pageNumber,omitempty" yaml:"pageNumber,omitempty"`
	PageSize       int          `json:"pageSize" yaml:"pageSize"`
}

// Default page size for searches.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// DefaultSearchParameters returns the parameters of a fresh, unfiltered search.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{
		ResultType:   ResultTypeAll,
		DeletedItems: DeletedItemsExclude,
		OrderBy:      DefaultOrderBy,
		SortOrder:    DefaultSortOrder(DefaultOrderBy),
		PageSize:     DefaultPageSize,
	}
}

// IsPermalink reports whether the search is a direct lookup of one record.
func (p SearchParameters) IsPermalink() bool {
	return p.Permalink != ""
}

// Clone returns a deep copy.
func (p SearchParameters) Clone() SearchParameters {
	out := p
	if p.Owner != nil {
		owner := *p.Owner
		out.Owner = &owner
	}
	if p.Bench != nil {
		bench := *p.Bench
		out.Bench = &bench
	}
	return out
}

// With returns a copy with only the overridden keys changed.
func (p SearchParameters) With(overrides ...Override) SearchParameters {
	out := p.Clone()
	for _, o := range overrides {
		o(&out)
	}
	return out
}

// Override changes a single key of a SearchParameters copy.
type Override func(*SearchParameters)

// WithQuery overrides the free text query.
func WithQuery(q string) Override {
	return func(p *SearchParameters) { p.Query = q }
}

// WithResultType overrides the result type.
func WithResultType(t ResultType) Override {
	return func(p *SearchParameters) { p.ResultType = t }
}

// WithOwner overrides the owner. A nil person clears it.
func WithOwner(owner *Person) Override {
	return func(p *SearchParameters) { p.Owner = copyPerson(owner) }
}

// WithBench overrides the bench owner. A nil person clears it.
func WithBench(bench *Person) Override {
	return func(p *SearchParameters) { p.Bench = copyPerson(bench) }
}

// WithDeletedItems overrides the deleted items filter.
func WithDeletedItems(d DeletedItems) Override {
	return func(p *SearchParameters) { p.DeletedItems = d }
}

// WithParentGlobalID overrides the parent scope. An empty id clears it.
func WithParentGlobalID(id GlobalID) Override {
	return func(p *SearchParameters) { p.ParentGlobalID = id }
}

// WithOrder overrides the sort key and direction together.
func WithOrder(key string, order SortOrder) Override {
	return func(p *SearchParameters) {
		p.OrderBy = key
		p.SortOrder = order
	}
}

// WithPermalink turns the search into a direct lookup of id. An empty id clears it.
func WithPermalink(id GlobalID) Override {
	return func(p *SearchParameters) { p.Permalink = id }
}

// WithPage overrides the page number.
func WithPage(n int) Override {
	return func(p *SearchParameters) { p.PageNumber = n }
}

func copyPerson(p *Person) *Person {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// InventoryRecord is a single search hit.
type InventoryRecord struct {
	GlobalID       GlobalID  `json:"globalId" yaml:"globalId"`
	Name           string    `json:"name" yaml:"name"`
	Type           string    `json:"type" yaml:"type"`
	Owner          Person    `json:"owner" yaml:"owner"`
	Created        time.Time `json:"created" yaml:"created"`
	Modified       time.Time `json:"lastModified" yaml:"lastModified"`
	Deleted        bool      `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Tags           []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	ParentGlobalID GlobalID  `json:"parentGlobalId,omitempty" yaml:"parentGlobalId,omitempty"`
}

// SearchResults is one page of search hits.
type SearchResults struct {
	Records   []InventoryRecord `json:"records" yaml:"records"`
	TotalHits int               `json:"totalHits" yaml:"totalHits"`
}

// SavedSearch is a named set of search parameters a user can reapply.
type SavedSearch struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Params    SearchParameters `json:"params" yaml:"params"`
	CreatedAt time.Time        `json:"createdAt" yaml:"createdAt"`
}

// SavedSearchOption is a saved search as offered for selection.
type SavedSearchOption struct {
	SavedSearch

	// Enabled is false when the search's result type is outside the context's allowed filters.
	Enabled bool
}

// Basket is a user-curated collection of records usable as a search scope.
type Basket struct {
	GlobalID  GlobalID `json:"globalId" yaml:"globalId"`
	Name      string   `json:"name" yaml:"name"`
	ItemCount int      `json:"itemCount" yaml:"itemCount"`
}

// FetchState is the lifecycle of a single fetch.
type FetchState int

// Fetch lifecycle states.
const (
	FetchIdle FetchState = iota
	FetchLoading
	FetchSuccess
	FetchError
)

// String returns the string representation.
func (s FetchState) String() string {
	switch s {
	case FetchIdle:
		return "IDLE"
	case FetchLoading:
		return "LOADING"
	case FetchSuccess:
		return "SUCCESS"
	case FetchError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ChipKind identifies which filter a chip represents.
type ChipKind string

// Chip kinds in display order.
const (
	ChipType   ChipKind = "type"
	ChipOwner  ChipKind = "owner"
	ChipBench  ChipKind = "bench"
	ChipStatus ChipKind = "status"
	ChipBasket ChipKind = "basket"
	ChipParent ChipKind = "parent"
)

// Chip is an active filter shown next to the results.
type Chip struct {
	Kind  ChipKind `json:"kind" yaml:"kind"`
	Label string   `json:"label" yaml:"label"`
}

// SearchSnapshot is everything a renderer needs to draw a search.
type SearchSnapshot struct {
	State   FetchState       `json:"state" yaml:"state"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
	Params  SearchParameters `json:"params" yaml:"params"`
	Status  string           `json:"status" yaml:"status"`
	Chips   []Chip           `json:"chips" yaml:"chips"`
	Results SearchResults    `json:"results" yaml:"results"`
}

// Loading reports whether a fetch is in flight.
func (s SearchSnapshot) Loading() bool {
	return s.State == FetchLoading
}

// MarshalText encodes the state by name.
func (s FetchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
