// Package saved lists saved searches and baskets and applies them to the
// search view.
package saved

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// entry is one selectable line: a saved search or a basket.
type entry struct {
	search *domain.SavedSearchOption
	basket *domain.Basket
}

// View lists saved searches followed by baskets.
type View struct {
	styles *styles.Styles
	search driving.SearchService
	bus    driving.EventBus
	ctx    context.Context

	options  []domain.SavedSearchOption
	baskets  []domain.Basket
	selected int
	loading  bool
	notice   string
	err      error
	width    int
	height   int
}

// NewView creates the saved searches view. bus carries delete confirmations.
func NewView(s *styles.Styles, search driving.SearchService, bus driving.EventBus) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		search: search,
		bus:    bus,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init reloads saved searches and baskets.
func (v *View) Init() tea.Cmd {
	if v.search == nil {
		return nil
	}
	v.loading = true
	v.err = nil
	search, ctx := v.search, v.ctx
	return tea.Batch(
		func() tea.Msg {
			options, err := search.SavedSearches(ctx)
			return messages.SavedSearchesLoaded{Options: options, Err: err}
		},
		func() tea.Msg {
			return messages.BasketsLoaded{Baskets: search.Baskets()}
		},
	)
}

func (v *View) entries() []entry {
	out := make([]entry, 0, len(v.options)+len(v.baskets))
	for i := range v.options {
		out = append(out, entry{search: &v.options[i]})
	}
	for i := range v.baskets {
		out = append(out, entry{basket: &v.baskets[i]})
	}
	return out
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.SavedSearchesLoaded:
		v.loading = false
		v.options = msg.Options
		v.err = msg.Err
		v.clampSelection()
	case messages.BasketsLoaded:
		v.baskets = msg.Baskets
		v.clampSelection()
	case messages.SavedSearchApplied:
		if msg.Err != nil {
			v.err = msg.Err
		}
	case messages.ActionCompleted:
		v.err = msg.Err
		if msg.Err == nil {
			v.notice = msg.Message
			return v, v.Init()
		}
	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) clampSelection() {
	if n := len(v.entries()); v.selected >= n {
		v.selected = max(n-1, 0)
	}
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	entries := v.entries()
	switch msg.String() {
	case "esc":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(entries)-1 {
			v.selected++
		}
	case "enter":
		if v.selected < len(entries) {
			return v, v.apply(entries[v.selected])
		}
	case "D":
		if v.selected < len(entries) && entries[v.selected].search != nil {
			return v, v.delete(entries[v.selected].search.SavedSearch)
		}
	}
	return v, nil
}

func (v *View) apply(e entry) tea.Cmd {
	if v.search == nil {
		return nil
	}
	search, ctx := v.search, v.ctx
	switch {
	case e.search != nil:
		if !e.search.Enabled {
			v.notice = fmt.Sprintf("%q is not available in this context", e.search.Name)
			return nil
		}
		id, name := e.search.ID, e.search.Name
		return func() tea.Msg {
			return messages.SavedSearchApplied{Name: name, Err: search.ApplySavedSearch(ctx, id)}
		}
	case e.basket != nil:
		id, name := e.basket.GlobalID, e.basket.Name
		return func() tea.Msg {
			return messages.SavedSearchApplied{Name: name, Err: search.SetParentGlobalID(ctx, id)}
		}
	}
	return nil
}

// delete asks for confirmation on the bus and removes the saved search.
func (v *View) delete(s domain.SavedSearch) tea.Cmd {
	search, bus, ctx := v.search, v.bus, v.ctx
	return func() tea.Msg {
		confirmed, err := confirm(ctx, bus, domain.ConfirmAction{
			Title:        "Delete saved search",
			Message:      fmt.Sprintf("Delete the saved search %q?", s.Name),
			ConfirmLabel: "Delete",
		})
		if err != nil {
			return messages.ActionCompleted{Err: err}
		}
		if !confirmed {
			return messages.ActionCompleted{Message: "Cancelled"}
		}
		if err := search.DeleteSavedSearch(ctx, s.ID); err != nil {
			return messages.ActionCompleted{Err: err}
		}
		return messages.ActionCompleted{Message: fmt.Sprintf("Deleted %q", s.Name)}
	}
}

// confirm publishes action and waits for the dialog's answer. Without a
// handler the action counts as declined.
func confirm(ctx context.Context, bus driving.EventBus, action domain.ConfirmAction) (bool, error) {
	if bus == nil {
		return false, nil
	}
	answer := make(chan bool, 1)
	var once sync.Once
	action.Respond = func(ok bool) {
		once.Do(func() { answer <- ok })
	}
	if bus.Publish(ctx, action) == 0 {
		return false, nil
	}
	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// View renders the lists.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Saved searches"))
	b.WriteString("\n\n")

	entries := v.entries()
	switch {
	case v.loading && len(entries) == 0:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case len(v.options) == 0:
		b.WriteString(v.styles.Muted.Render("No saved searches. Press S in the search view to save one."))
		b.WriteString("\n")
	}

	for i, e := range entries {
		if e.basket != nil && (i == 0 || entries[i-1].basket == nil) {
			b.WriteString("\n" + v.styles.Subtitle.Render("Baskets") + "\n")
		}
		b.WriteString(v.renderEntry(i, e))
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString("\n" + v.styles.Error.Render("Error: "+v.err.Error()) + "\n")
	} else if v.notice != "" {
		b.WriteString("\n" + v.styles.Success.Render(v.notice) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Apply  [D] Delete  [esc] Back"))
	return b.String()
}

func (v *View) renderEntry(i int, e entry) string {
	cursor := "  "
	if i == v.selected {
		cursor = "> "
	}
	if e.basket != nil {
		line := fmt.Sprintf("%-8s %s (%d items)", e.basket.GlobalID, e.basket.Name, e.basket.ItemCount)
		if i == v.selected {
			return cursor + v.styles.Selected.Render(line)
		}
		return cursor + v.styles.Normal.Render(line)
	}

	line := e.search.Name
	switch {
	case i == v.selected:
		line = v.styles.Selected.Render(line)
	case !e.search.Enabled:
		line = v.styles.Muted.Render(line + " (not available here)")
	default:
		line = v.styles.Normal.Render(line)
	}
	return cursor + line
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Selected returns the index of the selected entry.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Notice returns the last notice.
func (v *View) Notice() string {
	return v.notice
}
