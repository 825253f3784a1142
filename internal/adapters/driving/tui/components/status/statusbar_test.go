package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wideBar() *Bar {
	bar := NewBar(nil, nil)
	bar.SetWidth(200)
	return bar
}

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.NotNil(t, bar.Init())
}

func TestBar_Update_IgnoresKeys(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Same(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_Update_SpinnerOnlyWhileLoading(t *testing.T) {
	bar := NewBar(nil, nil)
	tick := bar.spinner.Tick()

	_, cmd := bar.Update(tick)
	assert.Nil(t, cmd)

	bar.SetState(StateLoading)
	_, cmd = bar.Update(tick)
	assert.NotNil(t, cmd)

	_, isTick := tick.(spinner.TickMsg)
	assert.True(t, isTick)
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetNotice("Copied")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Empty(t, bar.Notice())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		notice  string
		want    []string
		notWant []string
	}{
		{
			name: "ready without message",
			want: []string{"Ready", "help"},
		},
		{
			name:    "loading shows status line",
			state:   StateLoading,
			message: "Searching for samples",
			want:    []string{"Searching for samples"},
		},
		{
			name:    "error",
			state:   StateError,
			message: "connection failed",
			want:    []string{"Error: connection failed"},
		},
		{
			name:    "results show result hints",
			state:   StateResults,
			message: "Showing all samples",
			want:    []string{"Showing all samples", "type", "next page"},
		},
		{
			name:    "notice replaces status",
			state:   StateResults,
			message: "Showing all samples",
			notice:  "Copied SA1",
			want:    []string{"Copied SA1"},
			notWant: []string{"Showing all samples"},
		},
		{
			name:    "notice hidden while loading",
			state:   StateLoading,
			message: "Searching",
			notice:  "Copied SA1",
			want:    []string{"Searching"},
			notWant: []string{"Copied SA1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := wideBar()
			if tt.state != "" {
				bar.SetState(tt.state)
			}
			bar.SetMessage(tt.message)
			bar.SetNotice(tt.notice)

			view := bar.View()

			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, view, w)
			}
		})
	}
}
