package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// execute runs the root command with args and returns what it printed.
// Flags are reset afterwards since cobra keeps their values between runs.
func execute(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(Services{}) })
}

// mockSearch overrides the search methods the commands call; the rest panic.
type mockSearch struct {
	driving.SearchService

	context  string
	params   domain.SearchParameters
	records  []domain.InventoryRecord
	total    int
	baskets  []domain.Basket
	options  []domain.SavedSearchOption
	applied  []string
	deleted  []string
	imported []domain.SavedSearch
	err      error
}

// factory returns a SearchFactory that applies the overrides to the
// default parameters and hands out m.
func (m *mockSearch) factory() driving.SearchFactory {
	return func(name string, overrides ...domain.Override) (driving.SearchService, error) {
		m.context = name
		m.params = domain.DefaultSearchParameters()
		for _, o := range overrides {
			o(&m.params)
		}
		return m, nil
	}
}

func (m *mockSearch) DoSearch(context.Context) error { return m.err }
func (m *mockSearch) Load(context.Context) error     { return m.err }
func (m *mockSearch) Baskets() []domain.Basket       { return m.baskets }

func (m *mockSearch) Snapshot() domain.SearchSnapshot {
	total := m.total
	if total == 0 {
		total = len(m.records)
	}
	return domain.SearchSnapshot{
		State:   domain.FetchSuccess,
		Params:  m.params,
		Status:  "Showing all items",
		Results: domain.SearchResults{Records: m.records, TotalHits: total},
	}
}

func (m *mockSearch) SavedSearches(context.Context) ([]domain.SavedSearchOption, error) {
	return m.options, m.err
}

func (m *mockSearch) SaveCurrent(_ context.Context, name string) (*domain.SavedSearch, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SavedSearch{ID: "s-new", Name: name, Params: m.params}, nil
}

func (m *mockSearch) ApplySavedSearch(_ context.Context, id string) error {
	m.applied = append(m.applied, id)
	return m.err
}

func (m *mockSearch) DeleteSavedSearch(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockSearch) ImportSavedSearch(_ context.Context, s domain.SavedSearch) (*domain.SavedSearch, error) {
	if s.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	m.imported = append(m.imported, s)
	return &s, nil
}

// mockRecords implements driving.RecordActionService.
type mockRecords struct {
	renamed map[domain.GlobalID]string
	tagged  []string
	groups  []int64
	copied  []domain.GlobalID
	compare *domain.Comparison
	err     error
}

func (m *mockRecords) OpenDialog(context.Context, domain.Event) error { return m.err }

func (m *mockRecords) Rename(_ context.Context, id domain.GlobalID, name string) error {
	if m.renamed == nil {
		m.renamed = make(map[domain.GlobalID]string)
	}
	m.renamed[id] = name
	return m.err
}

func (m *mockRecords) Tag(_ context.Context, _ []domain.GlobalID, tags []string) error {
	m.tagged = tags
	return m.err
}

func (m *mockRecords) Share(_ context.Context, _ []domain.GlobalID, groups []int64) error {
	m.groups = groups
	return m.err
}

func (m *mockRecords) Compare(context.Context, []domain.GlobalID) (*domain.Comparison, error) {
	return m.compare, m.err
}

func (m *mockRecords) CopyGlobalIDs(ids []domain.GlobalID) error {
	m.copied = ids
	return m.err
}

// mockSettings is an in-memory driving.SettingsService.
type mockSettings struct {
	settings domain.AppSettings
	set      map[string]string
	token    string
	invalid  error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Set(key, value string) error {
	if key == "bogus" {
		return domain.ErrInvalidInput
	}
	m.set[key] = value
	if key == "server.url" {
		m.settings.Server.URL = value
	}
	return nil
}

func (m *mockSettings) Unset(key string) error {
	delete(m.set, key)
	return nil
}

func (m *mockSettings) Keys() []string {
	return []string{"server.url", "server.token", "search.page_size"}
}

func (m *mockSettings) SetToken(token string) error {
	m.token = token
	m.settings.Server.Token = token
	return nil
}

func (m *mockSettings) SearchContext(string) (domain.SearchContext, error) {
	return domain.SearchContext{}, nil
}

func (m *mockSettings) Validate() error { return m.invalid }
