package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(f *Field, text string) {
	for _, r := range text {
		f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewQueryInput(t *testing.T) {
	f := NewQueryInput(nil)

	require.NotNil(t, f)
	assert.Equal(t, "", f.Value())
	assert.True(t, f.Focused())
	assert.Equal(t, "Search: ", f.Label())
	assert.Equal(t, 50, f.Width())
}

func TestField_Init(t *testing.T) {
	assert.NotNil(t, NewField(nil, "Name: ", "").Init())
}

func TestField_Typing(t *testing.T) {
	f := NewField(nil, "Tags: ", "comma separated")

	typeText(f, "frozen,dna")

	assert.Equal(t, "frozen,dna", f.Value())
}

func TestField_Backspace(t *testing.T) {
	f := NewField(nil, "Name: ", "")
	f.SetValue("buffer")

	f.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "buffe", f.Value())
}

func TestField_SetValueThenType(t *testing.T) {
	f := NewField(nil, "Name: ", "")
	f.SetValue("buffer")

	typeText(f, " A")

	assert.Equal(t, "buffer A", f.Value())
}

func TestField_View(t *testing.T) {
	f := NewField(nil, "Rename: ", "")

	assert.Contains(t, f.View(), "Rename:")
}

func TestField_FocusAndBlur(t *testing.T) {
	f := NewQueryInput(nil)

	f.Blur()
	assert.False(t, f.Focused())

	f.Focus()
	assert.True(t, f.Focused())
}

func TestField_BlurredIgnoresKeys(t *testing.T) {
	f := NewQueryInput(nil)
	f.Blur()

	typeText(f, "abc")

	assert.Equal(t, "", f.Value())
}

func TestField_SetWidth(t *testing.T) {
	f := NewQueryInput(nil)

	f.SetWidth(100)
	assert.Equal(t, 100, f.Width())

	f.SetWidth(10)
	assert.Equal(t, 10, f.Width())
}

func TestField_Reset(t *testing.T) {
	f := NewQueryInput(nil)
	f.SetValue("some text")

	f.Reset()

	assert.Equal(t, "", f.Value())
}
