package dialog

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/labinv/internal/core/domain"
)

type mockRecords struct {
	renamed    map[domain.GlobalID]string
	tagged     []string
	sharedWith []int64
	compared   []domain.GlobalID
	err        error
}

func (m *mockRecords) OpenDialog(context.Context, domain.Event) error { return nil }

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
	m.sharedWith = groups
	return m.err
}

func (m *mockRecords) Compare(_ context.Context, ids []domain.GlobalID) (*domain.Comparison, error) {
	m.compared = ids
	if m.err != nil {
		return nil, m.err
	}
	cmp := domain.CompareRecords([]domain.InventoryRecord{
		{GlobalID: ids[0], Name: "Buffer A", Type: "SAMPLE"},
		{GlobalID: ids[1], Name: "Buffer B", Type: "SAMPLE"},
	})
	return &cmp, nil
}

func (m *mockRecords) CopyGlobalIDs([]domain.GlobalID) error { return nil }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(key(string(r)))
	}
}

func TestView_StartsClosed(t *testing.T) {
	v := NewView(nil, nil)

	assert.False(t, v.Active())
	assert.Empty(t, v.View())

	_, cmd := v.Update(key("enter"))
	assert.Nil(t, cmd)
}

func TestView_Open_IgnoresUnknownEvents(t *testing.T) {
	v := NewView(nil, &mockRecords{})

	v.Open(fakeEvent{})

	assert.False(t, v.Active())
}

type fakeEvent struct{}

func (fakeEvent) Name() domain.EventName { return "other" }
func (fakeEvent) Detail() any            { return nil }

func TestView_Rename(t *testing.T) {
	records := &mockRecords{}
	v := NewView(nil, records)
	v.Open(domain.OpenRenameDialog{GlobalID: "SA1", RecordName: "Buffer"})

	require.True(t, v.Active())
	assert.Contains(t, v.View(), "Rename SA1")

	typeText(v, " A")
	_, cmd := v.Update(key("enter"))

	require.NotNil(t, cmd)
	assert.False(t, v.Active())
	msg := cmd().(messages.ActionCompleted)
	require.NoError(t, msg.Err)
	assert.Equal(t, "Renamed SA1", msg.Message)
	assert.Equal(t, "Buffer A", records.renamed["SA1"])
}

func TestView_Rename_EmptyNameStaysOpen(t *testing.T) {
	v := NewView(nil, &mockRecords{})
	v.Open(domain.OpenRenameDialog{GlobalID: "SA1"})

	_, cmd := v.Update(key("enter"))

	assert.Nil(t, cmd)
	assert.True(t, v.Active())
	assert.Contains(t, v.View(), "name must not be empty")
}

func TestView_Tag(t *testing.T) {
	records := &mockRecords{}
	v := NewView(nil, records)
	v.Open(domain.OpenTagDialog{GlobalIDs: []domain.GlobalID{"SA1", "SA2"}, Tags: []string{"frozen"}})

	typeText(v, ", dna")
	_, cmd := v.Update(key("enter"))

	require.NotNil(t, cmd)
	msg := cmd().(messages.ActionCompleted)
	assert.Equal(t, "Tagged 2 records", msg.Message)
	assert.Equal(t, []string{"frozen", " dna"}, records.tagged)
}

func TestView_Share(t *testing.T) {
	t.Run("valid group ids", func(t *testing.T) {
		records := &mockRecords{}
		v := NewView(nil, records)
		v.Open(domain.OpenShareDialog{GlobalIDs: []domain.GlobalID{"SA1"}, Names: []string{"Buffer"}})
		assert.Contains(t, v.View(), "Share Buffer")

		typeText(v, "3, 7")
		_, cmd := v.Update(key("enter"))

		require.NotNil(t, cmd)
		msg := cmd().(messages.ActionCompleted)
		assert.Equal(t, "Shared 1 records with 2 groups", msg.Message)
		assert.Equal(t, []int64{3, 7}, records.sharedWith)
	})

	t.Run("invalid group id", func(t *testing.T) {
		v := NewView(nil, &mockRecords{})
		v.Open(domain.OpenShareDialog{GlobalIDs: []domain.GlobalID{"SA1"}})

		typeText(v, "lab")
		_, cmd := v.Update(key("enter"))

		assert.Nil(t, cmd)
		assert.Contains(t, v.View(), `invalid group id "lab"`)
	})

	t.Run("no group ids", func(t *testing.T) {
		v := NewView(nil, &mockRecords{})
		v.Open(domain.OpenShareDialog{GlobalIDs: []domain.GlobalID{"SA1"}})

		_, cmd := v.Update(key("enter"))

		assert.Nil(t, cmd)
		assert.True(t, v.Active())
	})
}

func TestView_ActionError(t *testing.T) {
	records := &mockRecords{err: errors.New("forbidden")}
	v := NewView(nil, records)
	v.Open(domain.OpenRenameDialog{GlobalID: "SA1", RecordName: "Buffer"})

	_, cmd := v.Update(key("enter"))

	msg := cmd().(messages.ActionCompleted)
	assert.EqualError(t, msg.Err, "forbidden")
}

func TestView_NoRecordService(t *testing.T) {
	v := NewView(nil, nil)
	v.Open(domain.OpenRenameDialog{GlobalID: "SA1", RecordName: "Buffer"})

	_, cmd := v.Update(key("enter"))

	assert.Nil(t, cmd)
	assert.Contains(t, v.View(), "record actions are not available")
}

func TestView_Compare(t *testing.T) {
	records := &mockRecords{}
	v := NewView(nil, records)
	ids := []domain.GlobalID{"SA1", "SA2"}

	cmd := v.Open(domain.OpenCompareDialog{GlobalIDs: ids})
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading...")

	v.Update(cmd())

	view := v.View()
	assert.Equal(t, ids, records.compared)
	assert.Contains(t, view, "SA2")
	assert.Contains(t, view, "Buffer B")
	assert.Contains(t, view, "* Name")

	v.Update(key("q"))
	assert.False(t, v.Active())
}

func TestView_CompareError(t *testing.T) {
	v := NewView(nil, &mockRecords{err: errors.New("not found")})

	cmd := v.Open(domain.OpenCompareDialog{GlobalIDs: []domain.GlobalID{"SA1", "SA2"}})
	v.Update(cmd())

	assert.Contains(t, v.View(), "not found")
	assert.NotContains(t, v.View(), "Loading...")
}

func TestView_Confirm(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		want   bool
		closed bool
	}{
		{"yes", "y", true, true},
		{"no", "n", false, true},
		{"enter defaults to no", "enter", false, true},
		{"esc cancels", "esc", false, true},
		{"other keys ignored", "x", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var answers []bool
			v := NewView(nil, nil)
			v.Open(domain.ConfirmAction{
				Title:        "Delete saved search",
				Message:      "Delete Frozen?",
				ConfirmLabel: "Delete",
				Respond:      func(ok bool) { answers = append(answers, ok) },
			})
			assert.Contains(t, v.View(), "[y] Delete")

			v.Update(key(tt.key))

			assert.Equal(t, !tt.closed, v.Active())
			if tt.closed {
				assert.Equal(t, []bool{tt.want}, answers)
			} else {
				assert.Empty(t, answers)
			}
		})
	}
}

func TestView_EscClosesWithoutAction(t *testing.T) {
	records := &mockRecords{}
	v := NewView(nil, records)
	v.Open(domain.OpenRenameDialog{GlobalID: "SA1", RecordName: "Buffer"})

	_, cmd := v.Update(key("esc"))

	assert.Nil(t, cmd)
	assert.False(t, v.Active())
	assert.Empty(t, records.renamed)
}

func TestParseGroupIDs(t *testing.T) {
	ids, err := parseGroupIDs(" 1,2 ,, 30 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 30}, ids)

	_, err = parseGroupIDs("0")
	assert.Error(t, err)
}
