package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService derives the view state of an inventory search from the
// Fetcher's parameters and a scoped SearchContext, and keeps cross-filter
// rules consistent.
type SearchService struct {
	fetcher *Fetcher
	context domain.SearchContext
	client  driven.InventoryClient
	store   driven.SavedSearchStore

	// paramsMu serialises read-modify-write of the fetcher's parameters.
	paramsMu sync.Mutex

	mu      sync.Mutex
	staged  bool
	baskets []domain.Basket
}

// NewSearchService creates a search over fetcher scoped by searchCtx.
// Parameters that searchCtx does not allow are reset to their defaults.
// The store is optional (can be nil).
func NewSearchService(
	fetcher *Fetcher,
	searchCtx domain.SearchContext,
	client driven.InventoryClient,
	store driven.SavedSearchStore,
) *SearchService {
	s := &SearchService{
		fetcher: fetcher,
		context: searchCtx,
		client:  client,
		store:   store,
	}
	fetcher.SetParams(s.normalise(fetcher.Params()))
	return s
}

// Fetcher returns the underlying fetcher.
func (s *SearchService) Fetcher() *Fetcher {
	return s.fetcher
}

// Context returns the scoped search configuration.
func (s *SearchService) Context() domain.SearchContext {
	return s.context
}

// Load fetches baskets and runs the search concurrently. A basket failure
// is reported but leaves the search running.
func (s *SearchService) Load(ctx context.Context) error {
	logger.Section("Search Load")
	var g errgroup.Group
	g.Go(func() error {
		if s.client == nil {
			return nil
		}
		baskets, err := s.client.ListBaskets(ctx)
		if err != nil {
			return &domain.OperationError{Op: "load baskets", Err: err}
		}
		s.mu.Lock()
		s.baskets = baskets
		s.mu.Unlock()
		logger.Debug("loaded %d baskets", len(baskets))
		return nil
	})
	g.Go(func() error {
		return s.fetch(ctx)
	})
	return g.Wait()
}

// DoSearch commits staged changes and fetches results.
func (s *SearchService) DoSearch(ctx context.Context) error {
	return s.fetch(ctx)
}

// Staged reports whether parameter changes wait for DoSearch.
func (s *SearchService) Staged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged
}

// SetQuery replaces the free text query.
func (s *SearchService) SetQuery(ctx context.Context, query string) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		return p.With(domain.WithQuery(query), domain.WithPermalink(""), domain.WithPage(0)), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// SetTypeFilter restricts results to t. It is rejected when t is not one of
// AllowedTypeFilters.
func (s *SearchService) SetTypeFilter(ctx context.Context, t domain.ResultType) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		if !t.IsValid() {
			return p, fmt.Errorf("%w: result type %q", domain.ErrInvalidInput, t)
		}
		if !slices.Contains(s.allowedTypeFilters(p), t) {
			return p, fmt.Errorf("%w: result type %s", domain.ErrFilterNotAllowed, t)
		}
		return p.With(domain.WithResultType(t), domain.WithPage(0)), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// SetOwner filters by owner. A nil owner clears the filter.
func (s *SearchService) SetOwner(ctx context.Context, owner *domain.Person, doSearchImmediately bool) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		return p.With(domain.WithOwner(owner), domain.WithPage(0)), nil
	})
	return s.afterUpdate(ctx, changed, err, doSearchImmediately)
}

// SetBench filters by bench owner. Selecting a bench while the type filter
// is SAMPLE or TEMPLATE sets the type filter to ALL.
func (s *SearchService) SetBench(ctx context.Context, bench *domain.Person, doSearchImmediately bool) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		next := p.With(domain.WithBench(bench), domain.WithPage(0))
		if bench != nil && (next.ResultType == domain.ResultTypeSample || next.ResultType == domain.ResultTypeTemplate) {
			logger.Debug("bench selected, type filter %s reset to ALL", next.ResultType)
			next.ResultType = domain.ResultTypeAll
		}
		return next, nil
	})
	return s.afterUpdate(ctx, changed, err, doSearchImmediately)
}

// SetDeletedItems selects how deleted records are treated. It is rejected
// when d is not one of AllowedStatusFilters.
func (s *SearchService) SetDeletedItems(ctx context.Context, d domain.DeletedItems) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		if !d.IsValid() {
			return p, fmt.Errorf("%w: deleted items %q", domain.ErrInvalidInput, d)
		}
		if !slices.Contains(s.allowedStatusFilters(p), d) {
			return p, fmt.Errorf("%w: deleted items %s", domain.ErrFilterNotAllowed, d)
		}
		return p.With(domain.WithDeletedItems(d), domain.WithPage(0)), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// SetOrder sorts by key. The current key has its direction inverted; any
// other key starts with its own default direction.
func (s *SearchService) SetOrder(ctx context.Context, key string) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		if !domain.IsSortKey(key) {
			return p, fmt.Errorf("%w: sort key %q", domain.ErrInvalidInput, key)
		}
		order := s.fetcher.DefaultSortOrder(key)
		if p.OrderBy == key {
			order = p.SortOrder.Invert()
		}
		return p.With(domain.WithOrder(key, order)), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// SetParentGlobalID scopes the listing to id's children. An empty id clears
// the scope, which also drops the basket chip. Type and status filters the
// new scope does not allow fall back to ALL and EXCLUDE.
func (s *SearchService) SetParentGlobalID(ctx context.Context, id domain.GlobalID) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		if id != "" && !id.IsValid() {
			return p, fmt.Errorf("%w: global id %q", domain.ErrInvalidInput, id)
		}
		next := p.With(domain.WithParentGlobalID(id), domain.WithPermalink(""), domain.WithPage(0))
		return s.normalise(next), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// SetPermalink turns the search into a direct lookup of id. An empty id
// returns to the filtered listing.
func (s *SearchService) SetPermalink(ctx context.Context, id domain.GlobalID) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		if id != "" && !id.IsValid() {
			return p, fmt.Errorf("%w: global id %q", domain.ErrInvalidInput, id)
		}
		return p.With(domain.WithPermalink(id), domain.WithPage(0)), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// SetPage moves to page n.
func (s *SearchService) SetPage(ctx context.Context, page int) error {
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		if page < 0 {
			return p, fmt.Errorf("%w: page %d", domain.ErrInvalidInput, page)
		}
		return p.With(domain.WithPage(page)), nil
	})
	return s.afterUpdate(ctx, changed, err, true)
}

// RemoveChip clears the filter the chip stands for.
func (s *SearchService) RemoveChip(ctx context.Context, kind domain.ChipKind) error {
	switch kind {
	case domain.ChipType:
		return s.SetTypeFilter(ctx, domain.ResultTypeAll)
	case domain.ChipOwner:
		return s.SetOwner(ctx, nil, true)
	case domain.ChipBench:
		return s.SetBench(ctx, nil, true)
	case domain.ChipStatus:
		return s.SetDeletedItems(ctx, domain.DeletedItemsExclude)
	case domain.ChipBasket, domain.ChipParent:
		return s.SetParentGlobalID(ctx, "")
	default:
		return fmt.Errorf("%w: chip %q", domain.ErrInvalidInput, kind)
	}
}

// Params returns the current (possibly staged) parameters.
func (s *SearchService) Params() domain.SearchParameters {
	return s.fetcher.Params()
}

// AllowedTypeFilters returns the context's type filters narrowed by the
// parent scope and the bench filter.
func (s *SearchService) AllowedTypeFilters() []domain.ResultType {
	return s.allowedTypeFilters(s.fetcher.Params())
}

// AllowedStatusFilters returns the context's status filters narrowed by the
// parent scope.
func (s *SearchService) AllowedStatusFilters() []domain.DeletedItems {
	return s.allowedStatusFilters(s.fetcher.Params())
}

func (s *SearchService) allowedTypeFilters(p domain.SearchParameters) []domain.ResultType {
	var scope []domain.ResultType
	switch p.ParentGlobalID.RecordType() {
	case domain.RecordTypeContainer:
		scope = []domain.ResultType{domain.ResultTypeAll, domain.ResultTypeContainer, domain.ResultTypeSubSample}
	case domain.RecordTypeSample:
		scope = []domain.ResultType{domain.ResultTypeAll, domain.ResultTypeSubSample}
	case domain.RecordTypeTemplate:
		scope = []domain.ResultType{domain.ResultTypeAll, domain.ResultTypeSample}
	}

	out := make([]domain.ResultType, 0, len(s.context.AllowedTypeFilters))
	for _, t := range s.context.AllowedTypeFilters {
		if scope != nil && !slices.Contains(scope, t) {
			continue
		}
		if p.Bench != nil && (t == domain.ResultTypeSample || t == domain.ResultTypeTemplate) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *SearchService) allowedStatusFilters(p domain.SearchParameters) []domain.DeletedItems {
	out := make([]domain.DeletedItems, 0, len(s.context.AllowedStatusFilters))
	for _, d := range s.context.AllowedStatusFilters {
		if p.ParentGlobalID.IsBasket() && d == domain.DeletedItemsDeletedOnly {
			continue
		}
		out = append(out, d)
	}
	return out
}

// normalise resets filters the scope no longer allows.
func (s *SearchService) normalise(p domain.SearchParameters) domain.SearchParameters {
	if !p.ResultType.IsValid() || !slices.Contains(s.allowedTypeFilters(p), p.ResultType) {
		p.ResultType = domain.ResultTypeAll
	}
	if !p.DeletedItems.IsValid() || !slices.Contains(s.allowedStatusFilters(p), p.DeletedItems) {
		p.DeletedItems = domain.DeletedItemsExclude
	}
	if !domain.IsSortKey(p.OrderBy) {
		p.OrderBy = domain.DefaultOrderBy
		p.SortOrder = domain.DefaultSortOrder(p.OrderBy)
	}
	if !p.SortOrder.IsValid() {
		p.SortOrder = domain.DefaultSortOrder(p.OrderBy)
	}
	if p.PageSize <= 0 || p.PageSize > domain.MaxPageSize {
		p.PageSize = domain.DefaultPageSize
	}
	return p
}

// StatusMessage returns exactly one status line. Predicates are checked in
// order: loading, error, query, result type, parent type, permalink.
func (s *SearchService) StatusMessage() string {
	return s.statusMessage(s.fetcher.State(), s.fetcher.Err(), s.fetcher.Params())
}

func (s *SearchService) statusMessage(state domain.FetchState, err error, p domain.SearchParameters) string {
	switch {
	case state == domain.FetchLoading:
		return "Loading..."
	case err != nil:
		return "Error: " + err.Error()
	case strings.TrimSpace(p.Query) != "":
		return fmt.Sprintf("Showing results for %q", p.Query)
	case p.ResultType != domain.ResultTypeAll && p.ResultType != "":
		return "Showing all " + p.ResultType.Plural()
	case p.ParentGlobalID != "":
		return s.parentMessage(p.ParentGlobalID)
	case p.IsPermalink():
		return fmt.Sprintf("Showing %s %s", p.Permalink.RecordType().Label(), p.Permalink)
	default:
		return "Showing all items"
	}
}

func (s *SearchService) parentMessage(id domain.GlobalID) string {
	switch id.RecordType() {
	case domain.RecordTypeBasket:
		if b := s.CurrentBasket(s.Baskets()); b != nil {
			return fmt.Sprintf("Showing contents of basket %q", b.Name)
		}
		return "Showing contents of basket " + id.String()
	case domain.RecordTypeContainer:
		return "Showing contents of container " + id.String()
	case domain.RecordTypeSample:
		return "Showing subsamples of sample " + id.String()
	case domain.RecordTypeTemplate:
		return "Showing samples created from template " + id.String()
	case domain.RecordTypeBench:
		return "Showing contents of bench " + id.String()
	default:
		return "Showing records in " + id.String()
	}
}

// Chips returns the active filter chips in display order.
func (s *SearchService) Chips() []domain.Chip {
	return s.chips(s.fetcher.Params())
}

func (s *SearchService) chips(p domain.SearchParameters) []domain.Chip {
	var chips []domain.Chip
	if p.ResultType != domain.ResultTypeAll && p.ResultType != "" {
		chips = append(chips, domain.Chip{Kind: domain.ChipType, Label: "Type: " + p.ResultType.Plural()})
	}
	if p.Owner != nil {
		chips = append(chips, domain.Chip{Kind: domain.ChipOwner, Label: "Owner: " + p.Owner.DisplayName()})
	}
	if p.Bench != nil {
		chips = append(chips, domain.Chip{Kind: domain.ChipBench, Label: "Bench: " + p.Bench.DisplayName()})
	}
	if p.DeletedItems != domain.DeletedItemsExclude && p.DeletedItems != "" {
		chips = append(chips, domain.Chip{Kind: domain.ChipStatus, Label: "Status: " + p.DeletedItems.Label()})
	}
	if p.ParentGlobalID.IsBasket() {
		label := p.ParentGlobalID.String()
		if b := s.CurrentBasket(s.Baskets()); b != nil {
			label = b.Name
		}
		chips = append(chips, domain.Chip{Kind: domain.ChipBasket, Label: "Basket: " + label})
	} else if p.ParentGlobalID != "" {
		chips = append(chips, domain.Chip{
			Kind:  domain.ChipParent,
			Label: fmt.Sprintf("In %s %s", p.ParentGlobalID.RecordType().Label(), p.ParentGlobalID),
		})
	}
	return chips
}

// Baskets returns the baskets loaded by Load.
func (s *SearchService) Baskets() []domain.Basket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Basket(nil), s.baskets...)
}

// CurrentBasket returns the basket whose global id is the parent scope, or nil.
func (s *SearchService) CurrentBasket(baskets []domain.Basket) *domain.Basket {
	parent := s.fetcher.Params().ParentGlobalID
	if !parent.IsBasket() {
		return nil
	}
	for i := range baskets {
		if baskets[i].GlobalID == parent {
			b := baskets[i]
			return &b
		}
	}
	return nil
}

// Snapshot returns everything a renderer needs.
func (s *SearchService) Snapshot() domain.SearchSnapshot {
	state := s.fetcher.State()
	err := s.fetcher.Err()
	params := s.fetcher.Params()
	snap := domain.SearchSnapshot{
		State:   state,
		Params:  params,
		Status:  s.statusMessage(state, err, params),
		Chips:   s.chips(params),
		Results: s.fetcher.Results(),
	}
	if err != nil {
		snap.Error = err.Error()
	}
	return snap
}

// SavedSearches lists saved searches. A saved search is disabled when its
// result type is outside the context's allowed type filters.
func (s *SearchService) SavedSearches(ctx context.Context) ([]domain.SavedSearchOption, error) {
	if s.store == nil {
		return nil, fmt.Errorf("saved searches: %w", domain.ErrNotConfigured)
	}
	saved, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("saved searches: %w", err)
	}
	out := make([]domain.SavedSearchOption, 0, len(saved))
	for _, ss := range saved {
		out = append(out, domain.SavedSearchOption{
			SavedSearch: ss,
			Enabled:     s.context.AllowsType(ss.Params.ResultType),
		})
	}
	return out, nil
}

// ApplySavedSearch replaces the parameters with those of saved search id.
// Disabled saved searches are rejected, never applied.
func (s *SearchService) ApplySavedSearch(ctx context.Context, id string) error {
	if s.store == nil {
		return fmt.Errorf("apply saved search: %w", domain.ErrNotConfigured)
	}
	saved, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("apply saved search: %w", err)
	}
	if !s.context.AllowsType(saved.Params.ResultType) {
		return fmt.Errorf("apply saved search %q: %w: result type %s",
			saved.Name, domain.ErrFilterNotAllowed, saved.Params.ResultType)
	}
	changed, err := s.update(func(p domain.SearchParameters) (domain.SearchParameters, error) {
		next := saved.Params.Clone()
		next.PageSize = p.PageSize
		next.PageNumber = 0
		return s.normalise(next), nil
	})
	if err == nil && !changed {
		// Reapplying the search already shown still refreshes the results.
		changed = true
	}
	return s.afterUpdate(ctx, changed, err, true)
}

// SaveCurrent stores the current parameters under name.
func (s *SearchService) SaveCurrent(ctx context.Context, name string) (*domain.SavedSearch, error) {
	params := s.fetcher.Params()
	params.PageNumber = 0
	return s.ImportSavedSearch(ctx, domain.SavedSearch{Name: name, Params: params})
}

// ImportSavedSearch validates and stores search, assigning an id if it has none.
func (s *SearchService) ImportSavedSearch(ctx context.Context, search domain.SavedSearch) (*domain.SavedSearch, error) {
	if s.store == nil {
		return nil, fmt.Errorf("save search: %w", domain.ErrNotConfigured)
	}
	search.Name = strings.TrimSpace(search.Name)
	if search.Name == "" {
		return nil, fmt.Errorf("save search: %w: name is required", domain.ErrInvalidInput)
	}
	if !search.Params.ResultType.IsValid() || !search.Params.DeletedItems.IsValid() {
		return nil, fmt.Errorf("save search %q: %w: unknown filter value", search.Name, domain.ErrInvalidInput)
	}
	if search.ID == "" {
		search.ID = uuid.New().String()
	}
	if search.CreatedAt.IsZero() {
		search.CreatedAt = time.Now()
	}
	if err := s.store.Save(ctx, search); err != nil {
		return nil, fmt.Errorf("save search %q: %w", search.Name, err)
	}
	return &search, nil
}

// DeleteSavedSearch removes a saved search.
func (s *SearchService) DeleteSavedSearch(ctx context.Context, id string) error {
	if s.store == nil {
		return fmt.Errorf("delete saved search: %w", domain.ErrNotConfigured)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}
	return nil
}

// OnChange registers fn to run after every state change.
func (s *SearchService) OnChange(fn func()) {
	s.fetcher.OnChange(fn)
}

// update applies fn to the parameters under the lock and reports whether
// they changed.
func (s *SearchService) update(
	fn func(domain.SearchParameters) (domain.SearchParameters, error),
) (bool, error) {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	current := s.fetcher.Params()
	next, err := fn(current)
	if err != nil {
		return false, err
	}
	if sameParams(current, next) {
		return false, nil
	}
	s.mu.Lock()
	s.staged = true
	s.mu.Unlock()
	s.fetcher.SetParams(next)
	return true, nil
}

func (s *SearchService) afterUpdate(ctx context.Context, changed bool, err error, fetchNow bool) error {
	if err != nil {
		logger.Debug("search: %v", err)
		return err
	}
	if !changed || !fetchNow {
		return nil
	}
	return s.fetch(ctx)
}

// fetch runs the fetcher. A superseded fetch is not an error for the caller
// because a newer fetch owns the state.
func (s *SearchService) fetch(ctx context.Context) error {
	s.mu.Lock()
	s.staged = false
	s.mu.Unlock()
	err := s.fetcher.Fetch(ctx)
	if errors.Is(err, domain.ErrStaleResponse) {
		return nil
	}
	return err
}

func sameParams(a, b domain.SearchParameters) bool {
	if !samePerson(a.Owner, b.Owner) || !samePerson(a.Bench, b.Bench) {
		return false
	}
	a.Owner, a.Bench, b.Owner, b.Bench = nil, nil, nil, nil
	return a == b
}

func samePerson(a, b *domain.Person) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
