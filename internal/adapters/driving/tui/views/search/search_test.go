package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/labinv/internal/core/domain"
)

// mockSearch implements driving.SearchService by recording calls and
// serving a fixed snapshot.
type mockSearch struct {
	params   domain.SearchParameters
	snapshot domain.SearchSnapshot
	types    []domain.ResultType
	statuses []domain.DeletedItems
	chips    []domain.Chip
	calls    []string
	err      error
	saved    string
}

func newMockSearch(records ...domain.InventoryRecord) *mockSearch {
	m := &mockSearch{
		params:   domain.DefaultSearchParameters(),
		types:    domain.AllResultTypes(),
		statuses: domain.AllDeletedItems(),
	}
	m.snapshot = domain.SearchSnapshot{
		State:   domain.FetchSuccess,
		Status:  "Showing all items",
		Results: domain.SearchResults{Records: records, TotalHits: len(records)},
	}
	return m
}

func (m *mockSearch) record(call string) error {
	m.calls = append(m.calls, call)
	return m.err
}

func (m *mockSearch) Load(context.Context) error     { return m.record("Load") }
func (m *mockSearch) DoSearch(context.Context) error { return m.record("DoSearch") }

func (m *mockSearch) SetQuery(_ context.Context, q string) error {
	m.params.Query = q
	return m.record("SetQuery:" + q)
}

func (m *mockSearch) SetTypeFilter(_ context.Context, t domain.ResultType) error {
	m.params.ResultType = t
	return m.record("SetTypeFilter:" + string(t))
}

func (m *mockSearch) SetOwner(context.Context, *domain.Person, bool) error {
	return m.record("SetOwner")
}

func (m *mockSearch) SetBench(context.Context, *domain.Person, bool) error {
	return m.record("SetBench")
}

func (m *mockSearch) SetDeletedItems(_ context.Context, d domain.DeletedItems) error {
	m.params.DeletedItems = d
	return m.record("SetDeletedItems:" + string(d))
}

func (m *mockSearch) SetOrder(_ context.Context, key string) error {
	return m.record("SetOrder:" + key)
}

func (m *mockSearch) SetParentGlobalID(_ context.Context, id domain.GlobalID) error {
	return m.record("SetParentGlobalID:" + id.String())
}

func (m *mockSearch) SetPermalink(context.Context, domain.GlobalID) error {
	return m.record("SetPermalink")
}

func (m *mockSearch) SetPage(_ context.Context, page int) error {
	m.params.PageNumber = page
	return m.record("SetPage")
}

func (m *mockSearch) RemoveChip(_ context.Context, kind domain.ChipKind) error {
	return m.record("RemoveChip:" + string(kind))
}

func (m *mockSearch) Params() domain.SearchParameters            { return m.params }
func (m *mockSearch) AllowedTypeFilters() []domain.ResultType     { return m.types }
func (m *mockSearch) AllowedStatusFilters() []domain.DeletedItems { return m.statuses }
func (m *mockSearch) StatusMessage() string                       { return m.snapshot.Status }
func (m *mockSearch) Chips() []domain.Chip                        { return m.chips }
func (m *mockSearch) Baskets() []domain.Basket                    { return nil }
func (m *mockSearch) CurrentBasket([]domain.Basket) *domain.Basket {
	return nil
}

func (m *mockSearch) Snapshot() domain.SearchSnapshot {
	snap := m.snapshot
	snap.Params = m.params
	snap.Chips = m.chips
	return snap
}

func (m *mockSearch) SavedSearches(context.Context) ([]domain.SavedSearchOption, error) {
	return nil, nil
}

func (m *mockSearch) ApplySavedSearch(context.Context, string) error { return nil }

func (m *mockSearch) SaveCurrent(_ context.Context, name string) (*domain.SavedSearch, error) {
	m.saved = name
	return &domain.SavedSearch{ID: "s1", Name: name}, m.err
}

func (m *mockSearch) ImportSavedSearch(context.Context, domain.SavedSearch) (*domain.SavedSearch, error) {
	return nil, nil
}

func (m *mockSearch) DeleteSavedSearch(context.Context, string) error { return nil }
func (m *mockSearch) OnChange(func())                                 {}

type mockRecords struct {
	opened []domain.Event
	copied []domain.GlobalID
	err    error
}

func (m *mockRecords) OpenDialog(_ context.Context, e domain.Event) error {
	m.opened = append(m.opened, e)
	return m.err
}

func (m *mockRecords) Rename(context.Context, domain.GlobalID, string) error   { return nil }
func (m *mockRecords) Tag(context.Context, []domain.GlobalID, []string) error  { return nil }
func (m *mockRecords) Share(context.Context, []domain.GlobalID, []int64) error { return nil }
func (m *mockRecords) Compare(context.Context, []domain.GlobalID) (*domain.Comparison, error) {
	return nil, nil
}

func (m *mockRecords) CopyGlobalIDs(ids []domain.GlobalID) error {
	m.copied = ids
	return m.err
}

func testRecords() []domain.InventoryRecord {
	return []domain.InventoryRecord{
		{GlobalID: "IC1", Name: "Freezer", Type: "CONTAINER", Tags: []string{"cold"}},
		{GlobalID: "SA2", Name: "Buffer A", Type: "SAMPLE"},
		{GlobalID: "SS3", Name: "Aliquot", Type: "SUBSAMPLE"},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and every command nested in its batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// done runs cmd and feeds the resulting SearchDone back into the view.
func done(t *testing.T, v *View, cmd tea.Cmd) messages.SearchDone {
	t.Helper()
	for _, msg := range collect(cmd) {
		if d, ok := msg.(messages.SearchDone); ok {
			v.Update(d)
			return d
		}
	}
	t.Fatal("no SearchDone message")
	return messages.SearchDone{}
}

// resultsView returns a sized view showing records with the list focused.
func resultsView(t *testing.T, svc *mockSearch, records *mockRecords) *View {
	t.Helper()
	var v *View
	if records == nil {
		v = NewView(nil, nil, svc, nil)
	} else {
		v = NewView(nil, nil, svc, records)
	}
	v.SetDimensions(120, 40)
	done(t, v, v.Init())
	v.Update(keyMsg("esc"))
	require.False(t, v.InputFocused())
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.True(t, v.InputFocused())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_Init_WithoutService(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	msgs := collect(v.Init())

	require.Len(t, msgs, 1)
	errMsg, ok := msgs[0].(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, ErrNoSearchService)
}

func TestView_Init_LoadsAndShowsResults(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := NewView(nil, nil, svc, nil)
	v.SetDimensions(120, 40)

	done(t, v, v.Init())

	assert.Equal(t, []string{"Load"}, svc.calls)
	assert.Len(t, v.Records(), 3)
	assert.Equal(t, status.StateResults, v.Status().State())
	view := v.View()
	assert.Contains(t, view, "Freezer")
	assert.Contains(t, view, "Showing all items")
	assert.Contains(t, view, "sorted by last modified, Newest first")
}

func TestView_QuerySubmit(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := NewView(nil, nil, svc, nil)
	v.SetDimensions(120, 40)

	for _, r := range "buffer" {
		v.Update(keyMsg(string(r)))
	}
	_, cmd := v.Update(keyMsg("enter"))
	done(t, v, cmd)

	assert.Contains(t, svc.calls, "SetQuery:buffer")
	assert.False(t, v.InputFocused())
}

func TestView_EscFromEmptyInputGoesToMenu(t *testing.T) {
	v := NewView(nil, nil, newMockSearch(), nil)

	_, cmd := v.Update(keyMsg("esc"))

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_FilterKeys(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		setup func(*mockSearch)
		want  string
	}{
		{
			name: "type cycles to the next allowed type",
			key:  "t",
			want: "SetTypeFilter:CONTAINER",
		},
		{
			name: "type wraps around",
			key:  "t",
			setup: func(m *mockSearch) {
				m.params.ResultType = domain.ResultTypeTemplate
			},
			want: "SetTypeFilter:ALL",
		},
		{
			name: "type cycles within the context",
			key:  "t",
			setup: func(m *mockSearch) {
				m.types = []domain.ResultType{domain.ResultTypeAll, domain.ResultTypeSubSample}
			},
			want: "SetTypeFilter:SUBSAMPLE",
		},
		{
			name: "deleted items cycle",
			key:  "d",
			want: "SetDeletedItems:INCLUDE",
		},
		{
			name: "order moves to the next key",
			key:  "o",
			want: "SetOrder:owner",
		},
		{
			name: "reverse re-selects the current key",
			key:  "O",
			want: "SetOrder:modificationDate",
		},
		{
			name: "clear removes the last chip",
			key:  "x",
			setup: func(m *mockSearch) {
				m.chips = []domain.Chip{
					{Kind: domain.ChipType, Label: "Samples"},
					{Kind: domain.ChipOwner, Label: "Owned by alice"},
				}
			},
			want: "RemoveChip:owner",
		},
		{
			name: "enter scopes into a container",
			key:  "enter",
			want: "SetParentGlobalID:IC1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockSearch(testRecords()...)
			if tt.setup != nil {
				tt.setup(svc)
			}
			v := resultsView(t, svc, nil)

			_, cmd := v.Update(keyMsg(tt.key))
			done(t, v, cmd)

			assert.Contains(t, svc.calls, tt.want)
		})
	}
}

func TestView_ClearWithoutChipsDoesNothing(t *testing.T) {
	v := resultsView(t, newMockSearch(testRecords()...), nil)

	_, cmd := v.Update(keyMsg("x"))

	assert.Nil(t, cmd)
}

func TestView_ScopeRejectsSubsample(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, nil)
	v.Update(keyMsg("down"))
	v.Update(keyMsg("down"))

	_, cmd := v.Update(keyMsg("enter"))

	assert.Nil(t, cmd)
	assert.Equal(t, "SS3 has no contents to list", v.Status().Notice())
}

func TestView_Paging(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	svc.params.PageSize = 3
	svc.snapshot.Results.TotalHits = 7
	v := resultsView(t, svc, nil)

	_, cmd := v.Update(keyMsg("["))
	assert.Nil(t, cmd, "no page before the first")

	_, cmd = v.Update(keyMsg("]"))
	done(t, v, cmd)
	_, cmd = v.Update(keyMsg("]"))
	done(t, v, cmd)
	assert.Equal(t, 2, svc.params.PageNumber)
	assert.Contains(t, v.View(), "Page 3 of 3")

	_, cmd = v.Update(keyMsg("]"))
	assert.Nil(t, cmd, "no page after the last")
}

func TestView_ServiceErrorShownInStatusBar(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, nil)
	svc.err = domain.ErrFilterNotAllowed

	_, cmd := v.Update(keyMsg("t"))
	done(t, v, cmd)

	assert.ErrorIs(t, v.Err(), domain.ErrFilterNotAllowed)
	assert.Equal(t, status.StateError, v.Status().State())
}

func TestView_StaleResponseIsNotAnError(t *testing.T) {
	v := resultsView(t, newMockSearch(testRecords()...), nil)

	v.Update(messages.SearchDone{Err: domain.ErrStaleResponse})

	assert.NoError(t, v.Err())
}

func TestView_FetchErrorSnapshot(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, nil)
	svc.snapshot.State = domain.FetchError
	svc.snapshot.Error = "search inventory failed: timeout"

	v.Update(messages.SearchChanged{})

	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.Status().Message(), "timeout")
}

func TestView_RecordDialogs(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		check func(t *testing.T, e domain.Event)
	}{
		{
			name: "rename selected",
			keys: []string{"r"},
			check: func(t *testing.T, e domain.Event) {
				assert.Equal(t, domain.OpenRenameDialog{GlobalID: "IC1", RecordName: "Freezer"}, e)
			},
		},
		{
			name: "tag selected keeps its tags",
			keys: []string{"g"},
			check: func(t *testing.T, e domain.Event) {
				assert.Equal(t, domain.OpenTagDialog{GlobalIDs: []domain.GlobalID{"IC1"}, Tags: []string{"cold"}}, e)
			},
		},
		{
			name: "share marked records",
			keys: []string{" ", "down", " ", "h"},
			check: func(t *testing.T, e domain.Event) {
				assert.Equal(t, domain.OpenShareDialog{
					GlobalIDs: []domain.GlobalID{"IC1", "SA2"},
					Names:     []string{"Freezer", "Buffer A"},
				}, e)
			},
		},
		{
			name: "compare marked records",
			keys: []string{" ", "down", "down", " ", "c"},
			check: func(t *testing.T, e domain.Event) {
				assert.Equal(t, domain.OpenCompareDialog{GlobalIDs: []domain.GlobalID{"IC1", "SS3"}}, e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &mockRecords{}
			v := resultsView(t, newMockSearch(testRecords()...), records)

			var cmd tea.Cmd
			for _, k := range tt.keys {
				_, cmd = v.Update(keyMsg(k))
			}
			require.NotNil(t, cmd)
			assert.Nil(t, cmd())

			require.Len(t, records.opened, 1)
			tt.check(t, records.opened[0])
		})
	}
}

func TestView_CompareNeedsTwoRecords(t *testing.T) {
	records := &mockRecords{}
	v := resultsView(t, newMockSearch(testRecords()...), records)

	_, cmd := v.Update(keyMsg("c"))

	assert.Nil(t, cmd)
	assert.Empty(t, records.opened)
	assert.Equal(t, "Mark two or more records to compare", v.Status().Notice())
}

func TestView_DialogWithoutHandlerReportsError(t *testing.T) {
	records := &mockRecords{err: errors.New("no dialog handles OPEN_RENAME_DIALOG")}
	v := resultsView(t, newMockSearch(testRecords()...), records)

	_, cmd := v.Update(keyMsg("r"))
	v.Update(cmd())

	assert.ErrorContains(t, v.Err(), "no dialog handles")
}

func TestView_Copy(t *testing.T) {
	records := &mockRecords{}
	v := resultsView(t, newMockSearch(testRecords()...), records)
	v.Update(keyMsg("down"))

	v.Update(keyMsg("y"))

	assert.Equal(t, []domain.GlobalID{"SA2"}, records.copied)
	assert.Equal(t, "Copied 1 global ids", v.Status().Notice())
}

func TestView_ActionCompletedRefreshes(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, &mockRecords{})
	v.Update(keyMsg(" "))

	_, cmd := v.Update(messages.ActionCompleted{Message: "Renamed IC1"})
	d := done(t, v, cmd)

	assert.Equal(t, "Renamed IC1", d.Notice)
	assert.Contains(t, svc.calls, "DoSearch")
	assert.Equal(t, "Renamed IC1", v.Status().Notice())
	assert.Equal(t, []domain.GlobalID{"IC1"}, v.Targets())
}

func TestView_RefetchDiscardsMarks(t *testing.T) {
	t.Run("refetch starting", func(t *testing.T) {
		svc := newMockSearch(testRecords()...)
		v := resultsView(t, svc, nil)
		v.Update(keyMsg("down"))
		v.Update(keyMsg(" "))
		v.Update(keyMsg("down"))
		require.Equal(t, []domain.GlobalID{"SA2"}, v.Targets())

		svc.snapshot.State = domain.FetchLoading
		v.Update(messages.SearchChanged{})
		svc.snapshot.State = domain.FetchSuccess
		v.Update(messages.SearchChanged{})

		assert.Equal(t, []domain.GlobalID{"SS3"}, v.Targets(), "only the selection remains")
	})

	t.Run("different results", func(t *testing.T) {
		svc := newMockSearch(testRecords()...)
		v := resultsView(t, svc, nil)
		v.Update(keyMsg(" "))

		svc.snapshot.Results = domain.SearchResults{
			Records:   []domain.InventoryRecord{{GlobalID: "IC7", Name: "Shelf"}, {GlobalID: "IC1", Name: "Freezer"}},
			TotalHits: 2,
		}
		v.Update(messages.SearchChanged{})

		assert.Equal(t, []domain.GlobalID{"IC7"}, v.Targets())
	})

	t.Run("redraw keeps marks", func(t *testing.T) {
		svc := newMockSearch(testRecords()...)
		v := resultsView(t, svc, nil)
		v.Update(keyMsg(" "))
		v.Update(keyMsg("down"))

		v.Update(messages.SearchChanged{})

		assert.Equal(t, []domain.GlobalID{"IC1"}, v.Targets())
	})
}

func TestView_ActionFailed(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, &mockRecords{})

	_, cmd := v.Update(messages.ActionCompleted{Err: errors.New("forbidden")})

	assert.Nil(t, cmd)
	assert.EqualError(t, v.Err(), "forbidden")
	assert.NotContains(t, svc.calls, "DoSearch")
}

func TestView_SaveCurrent(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, nil)

	v.Update(keyMsg("S"))
	require.True(t, v.Saving())
	assert.Contains(t, v.View(), "Save as:")

	for _, r := range "Frozen" {
		v.Update(keyMsg(string(r)))
	}
	_, cmd := v.Update(keyMsg("enter"))
	done(t, v, cmd)

	assert.False(t, v.Saving())
	assert.Equal(t, "Frozen", svc.saved)
	assert.Equal(t, `Saved search "Frozen"`, v.Status().Notice())
}

func TestView_SaveCancel(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	v := resultsView(t, svc, nil)
	v.Update(keyMsg("S"))

	v.Update(keyMsg("esc"))

	assert.False(t, v.Saving())
	assert.Empty(t, svc.saved)
}

func TestView_ChipsRendered(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	svc.chips = []domain.Chip{{Kind: domain.ChipType, Label: "Samples"}}
	v := resultsView(t, svc, nil)

	assert.Contains(t, v.View(), "Samples")
}

func TestView_Focus_RestoresQuery(t *testing.T) {
	svc := newMockSearch(testRecords()...)
	svc.params.Query = "buffer"
	v := resultsView(t, svc, nil)

	v.Focus()

	assert.True(t, v.InputFocused())
	assert.Equal(t, "buffer", v.Query())
}

func TestNextAfter(t *testing.T) {
	assert.Equal(t, "b", nextAfter([]string{"a", "b"}, "a"))
	assert.Equal(t, "a", nextAfter([]string{"a", "b"}, "b"))
	assert.Equal(t, "a", nextAfter([]string{"a", "b"}, "zzz"))
	assert.Equal(t, "x", nextAfter(nil, "x"))
	assert.Equal(t, "abc", nextAfter([]string{"abc"}, "abc"))
}
