// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Search submits the query.
	Search key.Binding

	// Up navigates up in a list.
	Up key.Binding

	// Down navigates down in a list.
	Down key.Binding

	// Select confirms a selection.
	Select key.Binding

	// Focus moves focus to the query input.
	Focus key.Binding

	// TypeFilter cycles through the allowed result types.
	TypeFilter key.Binding

	// StatusFilter cycles through the allowed deleted item filters.
	StatusFilter key.Binding

	// Order cycles the sort key.
	Order key.Binding

	// Reverse inverts the sort direction.
	Reverse key.Binding

	// NextPage and PrevPage move between result pages.
	NextPage key.Binding
	PrevPage key.Binding

	// ClearFilter removes the last filter chip.
	ClearFilter key.Binding

	// Mark toggles the selection mark on a result.
	Mark key.Binding

	// Scope searches inside the selected container, sample or template.
	Scope key.Binding

	// Rename, Tag, Share and Compare open record dialogs.
	Rename  key.Binding
	Tag     key.Binding
	Share   key.Binding
	Compare key.Binding

	// Copy copies global ids to the clipboard.
	Copy key.Binding

	// Save stores the current search.
	Save key.Binding

	// Delete removes the selected saved search.
	Delete key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Search: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Focus: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "query"),
		),
		TypeFilter: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "type"),
		),
		StatusFilter: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "deleted"),
		),
		Order: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "order"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "reverse"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "prev page"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filter"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "mark"),
		),
		Scope: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Tag: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "tag"),
		),
		Share: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "share"),
		),
		Compare: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compare"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy id"),
		),
		Save: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "save search"),
		),
		Delete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Help, k.Back}
}

// ResultsHelp returns keybindings for the results view.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.TypeFilter, k.Order, k.NextPage, k.Mark, k.Rename, k.Help}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Scope, k.Mark},
		{k.Focus, k.Search, k.TypeFilter, k.StatusFilter, k.ClearFilter},
		{k.Order, k.Reverse, k.NextPage, k.PrevPage},
		{k.Rename, k.Tag, k.Share, k.Compare, k.Copy, k.Save},
		{k.Help, k.Back, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
