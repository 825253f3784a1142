package mcp

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
// Only the methods the server calls do anything.
type mockSearchService struct {
	params   domain.SearchParameters
	snapshot domain.SearchSnapshot
	saved    []domain.SavedSearchOption
	baskets  []domain.Basket
	err      error

	searched bool
	loaded   bool
}

func (m *mockSearchService) Load(_ context.Context) error {
	m.loaded = true
	return m.err
}

func (m *mockSearchService) DoSearch(_ context.Context) error {
	m.searched = true
	return m.err
}

func (m *mockSearchService) SetQuery(_ context.Context, _ string) error { return nil }

func (m *mockSearchService) SetTypeFilter(_ context.Context, _ domain.ResultType) error { return nil }

func (m *mockSearchService) SetOwner(_ context.Context, _ *domain.Person, _ bool) error { return nil }

func (m *mockSearchService) SetBench(_ context.Context, _ *domain.Person, _ bool) error { return nil }

func (m *mockSearchService) SetDeletedItems(_ context.Context, _ domain.DeletedItems) error {
	return nil
}

func (m *mockSearchService) SetOrder(_ context.Context, _ string) error { return nil }

func (m *mockSearchService) SetParentGlobalID(_ context.Context, _ domain.GlobalID) error {
	return nil
}

func (m *mockSearchService) SetPermalink(_ context.Context, _ domain.GlobalID) error { return nil }

func (m *mockSearchService) SetPage(_ context.Context, _ int) error { return nil }

func (m *mockSearchService) RemoveChip(_ context.Context, _ domain.ChipKind) error { return nil }

func (m *mockSearchService) Params() domain.SearchParameters { return m.params }

func (m *mockSearchService) AllowedTypeFilters() []domain.ResultType { return nil }

func (m *mockSearchService) AllowedStatusFilters() []domain.DeletedItems { return nil }

func (m *mockSearchService) StatusMessage() string { return m.snapshot.Status }

func (m *mockSearchService) Chips() []domain.Chip { return m.snapshot.Chips }

func (m *mockSearchService) Baskets() []domain.Basket { return m.baskets }

func (m *mockSearchService) CurrentBasket(_ []domain.Basket) *domain.Basket { return nil }

func (m *mockSearchService) Snapshot() domain.SearchSnapshot { return m.snapshot }

func (m *mockSearchService) SavedSearches(_ context.Context) ([]domain.SavedSearchOption, error) {
	return m.saved, m.err
}

func (m *mockSearchService) ApplySavedSearch(_ context.Context, _ string) error { return nil }

func (m *mockSearchService) SaveCurrent(_ context.Context, _ string) (*domain.SavedSearch, error) {
	return nil, nil
}

func (m *mockSearchService) ImportSavedSearch(
	_ context.Context,
	s domain.SavedSearch,
) (*domain.SavedSearch, error) {
	return &s, nil
}

func (m *mockSearchService) DeleteSavedSearch(_ context.Context, _ string) error { return nil }

func (m *mockSearchService) OnChange(_ func()) {}

// mockFactory returns a factory handing out svc and recording its calls.
type mockFactory struct {
	svc         *mockSearchService
	contextName string
	err         error
}

func (f *mockFactory) factory() driving.SearchFactory {
	return func(contextName string, overrides ...domain.Override) (driving.SearchService, error) {
		if f.err != nil {
			return nil, f.err
		}
		f.contextName = contextName
		f.svc.params = domain.DefaultSearchParameters().With(overrides...)
		return f.svc, nil
	}
}

// stubCodec encodes only the result type.
type stubCodec struct{}

func (stubCodec) EncodeString(p domain.SearchParameters) string {
	return "resultType=" + string(p.ResultType)
}

func (stubCodec) DecodeString(_ string) (domain.SearchParameters, error) {
	return domain.DefaultSearchParameters(), nil
}

// mockRecordActions is a mock implementation of driving.RecordActionService.
type mockRecordActions struct {
	compared []domain.GlobalID
	err      error
}

func (m *mockRecordActions) OpenDialog(_ context.Context, _ domain.Event) error { return nil }

func (m *mockRecordActions) Rename(_ context.Context, _ domain.GlobalID, _ string) error {
	return nil
}

func (m *mockRecordActions) Tag(_ context.Context, _ []domain.GlobalID, _ []string) error {
	return nil
}

func (m *mockRecordActions) Share(_ context.Context, _ []domain.GlobalID, _ []int64) error {
	return nil
}

func (m *mockRecordActions) Compare(_ context.Context, ids []domain.GlobalID) (*domain.Comparison, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.compared = ids
	return &domain.Comparison{
		Columns: ids,
		Rows:    []domain.ComparisonRow{{Field: "Name", Values: []string{"a", "b"}, Differs: true}},
	}, nil
}

func (m *mockRecordActions) CopyGlobalIDs(_ []domain.GlobalID) error { return nil }
