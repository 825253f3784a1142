package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Fetcher owns the canonical search parameters and the outcome of the most
// recent fetch. Each fetch takes a generation number; a response whose
// generation is no longer current is discarded.
type Fetcher struct {
	client driven.InventoryClient
	codec  *QueryCodec

	mu         sync.Mutex
	params     domain.SearchParameters
	state      domain.FetchState
	err        error
	results    domain.SearchResults
	generation uint64
	cancel     context.CancelFunc
	listeners  []func()
}

// NewFetcher creates a fetcher seeded with params.
func NewFetcher(client driven.InventoryClient, params domain.SearchParameters) *Fetcher {
	return &Fetcher{
		client: client,
		codec:  NewQueryCodec(),
		params: params.Clone(),
		state:  domain.FetchIdle,
	}
}

// NewFetcherFromQuery creates a fetcher from a URL query string.
func NewFetcherFromQuery(client driven.InventoryClient, rawQuery string) (*Fetcher, error) {
	f := NewFetcher(client, domain.DefaultSearchParameters())
	params, err := f.codec.DecodeString(rawQuery)
	if err != nil {
		return nil, err
	}
	f.params = params
	return f, nil
}

// Codec returns the query codec.
func (f *Fetcher) Codec() *QueryCodec {
	return f.codec
}

// Params returns a copy of the current parameters.
func (f *Fetcher) Params() domain.SearchParameters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params.Clone()
}

// SetParams replaces the parameters without fetching.
func (f *Fetcher) SetParams(params domain.SearchParameters) {
	f.mu.Lock()
	f.params = params.Clone()
	f.mu.Unlock()
	f.notify()
}

// GenerateNewQuery returns the current parameters with only the overridden
// keys changed. The fetcher itself is not modified.
func (f *Fetcher) GenerateNewQuery(overrides ...domain.Override) domain.SearchParameters {
	return f.Params().With(overrides...)
}

// QueryString returns the encoded query of GenerateNewQuery(overrides...).
func (f *Fetcher) QueryString(overrides ...domain.Override) string {
	return f.codec.EncodeString(f.GenerateNewQuery(overrides...))
}

// IsCurrentSort reports whether key is the current sort key.
func (f *Fetcher) IsCurrentSort(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params.OrderBy == key
}

// InvertSortOrder returns the opposite of the current sort direction.
func (f *Fetcher) InvertSortOrder() domain.SortOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params.SortOrder.Invert()
}

// DefaultSortOrder returns the documented default direction of key.
func (f *Fetcher) DefaultSortOrder(key string) domain.SortOrder {
	return domain.DefaultSortOrder(key)
}

// State returns the fetch lifecycle state.
func (f *Fetcher) State() domain.FetchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Loading reports whether a fetch is in flight.
func (f *Fetcher) Loading() bool {
	return f.State() == domain.FetchLoading
}

// Err returns the error of the last completed fetch. It is kept while a new
// fetch is loading and cleared by the next successful one.
func (f *Fetcher) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Results returns the results of the last successful fetch.
func (f *Fetcher) Results() domain.SearchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.results
	out.Records = append([]domain.InventoryRecord(nil), f.results.Records...)
	return out
}

// OnChange registers fn to run after every state transition.
func (f *Fetcher) OnChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Fetch runs a search with the current parameters. A fetch started while
// another is in flight cancels the older request; if the older response still
// arrives it is discarded with domain.ErrStaleResponse.
func (f *Fetcher) Fetch(ctx context.Context) error {
	f.mu.Lock()
	if f.client == nil {
		f.mu.Unlock()
		return fmt.Errorf("fetch: %w: inventory client", domain.ErrNotConfigured)
	}
	f.generation++
	gen := f.generation
	if f.cancel != nil {
		f.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	params := f.params.Clone()
	f.state = domain.FetchLoading
	f.mu.Unlock()
	f.notify()

	logger.Debug("fetch #%d: %s", gen, f.codec.EncodeString(params))
	results, err := f.client.Search(reqCtx, params)
	cancel()

	f.mu.Lock()
	if gen != f.generation {
		current := f.generation
		f.mu.Unlock()
		logger.Debug("fetch #%d superseded by #%d, response discarded", gen, current)
		return domain.ErrStaleResponse
	}
	f.cancel = nil
	if err != nil {
		err = wrapOp("search inventory", err)
		f.state = domain.FetchError
		f.err = err
		f.mu.Unlock()
		logger.Debug("fetch #%d failed: %v", gen, err)
		f.notify()
		return err
	}
	f.state = domain.FetchSuccess
	f.err = nil
	f.results = domain.SearchResults{}
	if results != nil {
		f.results = *results
	}
	count := len(f.results.Records)
	f.mu.Unlock()
	logger.Debug("fetch #%d: %d records", gen, count)
	f.notify()
	return nil
}

// Cancel aborts the fetch in flight, if any. Its response will be discarded.
func (f *Fetcher) Cancel() {
	f.mu.Lock()
	if f.cancel == nil {
		f.mu.Unlock()
		return
	}
	f.cancel()
	f.cancel = nil
	f.generation++
	if f.state == domain.FetchLoading {
		f.state = domain.FetchIdle
	}
	f.mu.Unlock()
	f.notify()
}

func (f *Fetcher) notify() {
	f.mu.Lock()
	listeners := append([]func(){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
