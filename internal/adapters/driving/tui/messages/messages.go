// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/labinv/internal/core/domain"
)

// SearchChanged is sent whenever the search service reports a state change.
type SearchChanged struct{}

// SearchDone carries the outcome of a search operation started by a key press.
// A nil Err with a non-empty Notice shows the notice in the status bar.
type SearchDone struct {
	Notice string
	Err    error
}

// DialogRequested carries a dialog event published on the bus.
type DialogRequested struct {
	Event domain.Event
}

// ActionCompleted reports the result of a record action.
type ActionCompleted struct {
	Message string
	Err     error
}

// CompareLoaded carries a comparison for the compare dialog.
type CompareLoaded struct {
	Comparison *domain.Comparison
	Err        error
}

// SavedSearchesLoaded carries the saved searches for the current context.
type SavedSearchesLoaded struct {
	Options []domain.SavedSearchOption
	Err     error
}

// BasketsLoaded carries the user's baskets.
type BasketsLoaded struct {
	Baskets []domain.Basket
	Err     error
}

// SavedSearchApplied is sent when a saved search or basket scope replaced
// the parameters of the main search.
type SavedSearchApplied struct {
	Name string
	Err  error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the inventory search view.
	ViewSearch
	// ViewSaved lists saved searches and baskets.
	ViewSaved
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewSaved:
		return "saved"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
