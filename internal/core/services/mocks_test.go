package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// mockInventory implements driven.InventoryClient. searchFn, when set,
// replaces the canned search response.
type mockInventory struct {
	mu       sync.Mutex
	results  *domain.SearchResults
	baskets  []domain.Basket
	records  map[domain.GlobalID]domain.InventoryRecord
	err      error
	// basketsErr fails ListBaskets alone.
	basketsErr error
	searchFn   func(ctx context.Context, params domain.SearchParameters) (*domain.SearchResults, error)

	searches []domain.SearchParameters
	renamed  map[domain.GlobalID]string
	tags     map[domain.GlobalID][]string
	shared   []int64
}

func (m *mockInventory) Search(ctx context.Context, params domain.SearchParameters) (*domain.SearchResults, error) {
	m.mu.Lock()
	m.searches = append(m.searches, params)
	fn, results, err := m.searchFn, m.results, m.err
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, params)
	}
	return results, err
}

func (m *mockInventory) ListBaskets(context.Context) ([]domain.Basket, error) {
	if m.basketsErr != nil {
		return nil, m.basketsErr
	}
	return m.baskets, m.err
}

func (m *mockInventory) GetRecord(_ context.Context, id domain.GlobalID) (*domain.InventoryRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *mockInventory) RenameRecord(_ context.Context, id domain.GlobalID, name string) error {
	if m.err != nil {
		return m.err
	}
	if m.renamed == nil {
		m.renamed = make(map[domain.GlobalID]string)
	}
	m.renamed[id] = name
	return nil
}

func (m *mockInventory) SetTags(_ context.Context, id domain.GlobalID, tags []string) error {
	if m.err != nil {
		return m.err
	}
	if m.tags == nil {
		m.tags = make(map[domain.GlobalID][]string)
	}
	m.tags[id] = tags
	return nil
}

func (m *mockInventory) ShareRecords(_ context.Context, _ []domain.GlobalID, groupIDs []int64) error {
	if m.err != nil {
		return m.err
	}
	m.shared = groupIDs
	return nil
}

func (m *mockInventory) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.searches)
}

func (m *mockInventory) lastSearch() domain.SearchParameters {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.searches) == 0 {
		return domain.SearchParameters{}
	}
	return m.searches[len(m.searches)-1]
}

// mockAdminClient implements driven.AdminClient.
type mockAdminClient struct {
	communities []domain.Community
	groups      []domain.LabGroup
	err         error
	deleted     []string
}

func (m *mockAdminClient) ListCommunities(context.Context) ([]domain.Community, error) {
	return m.communities, m.err
}

func (m *mockAdminClient) ListGroups(context.Context) ([]domain.LabGroup, error) {
	return m.groups, m.err
}

func (m *mockAdminClient) DeleteCommunity(context.Context, int64) error {
	m.deleted = append(m.deleted, "community")
	return m.err
}

func (m *mockAdminClient) DeleteGroup(context.Context, int64) error {
	m.deleted = append(m.deleted, "group")
	return m.err
}

func (m *mockAdminClient) DeleteFileSystem(context.Context, int64) error {
	m.deleted = append(m.deleted, "filesystem")
	return m.err
}

// mockLDAPClient implements driven.LDAPClient.
type mockLDAPClient struct {
	mu    sync.Mutex
	calls []string
	sids  map[string]string
	fail  map[string]error
	hook  func(username string)
}

func (m *mockLDAPClient) RetrieveSID(_ context.Context, username string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, username)
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		hook(username)
	}
	if err := m.fail[username]; err != nil {
		return "", err
	}
	return m.sids[username], nil
}

func (m *mockLDAPClient) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
