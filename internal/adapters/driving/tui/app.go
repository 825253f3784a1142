package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/views/dialog"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/views/saved"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/logger"
)

// eventBuffer bounds bus events waiting for the update loop.
const eventBuffer = 16

// dialogEvents are the bus events the TUI shows as dialogs.
var dialogEvents = []domain.EventName{
	domain.EventOpenRenameDialog,
	domain.EventOpenTagDialog,
	domain.EventOpenShareDialog,
	domain.EventOpenCompareDialog,
	domain.EventConfirmAction,
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	menuView   *menu.View
	searchView *search.View
	savedView  *saved.View

	// dialogView overlays whichever view is active.
	dialogView *dialog.View

	// events carries bus events and search changes into the update loop.
	events      chan tea.Msg
	unsubscribe []func()

	currentView messages.ViewType

	// returnView is where help goes back to.
	returnView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports and subscribes
// it to dialog events on the bus. Close releases the subscriptions.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		help:        help.New(),
		menuView:    menu.NewView(s, ports.Server),
		searchView:  search.NewView(s, km, ports.Search, ports.Records),
		savedView:   saved.NewView(s, ports.Search, ports.Bus),
		dialogView:  dialog.NewView(s, ports.Records),
		events:      make(chan tea.Msg, eventBuffer),
		currentView: messages.ViewMenu,
		returnView:  messages.ViewMenu,
	}
	a.subscribe()
	return a, nil
}

func (a *App) subscribe() {
	for _, name := range dialogEvents {
		a.unsubscribe = append(a.unsubscribe, a.ports.Bus.Subscribe(name, func(ctx context.Context, e domain.Event) {
			select {
			case a.events <- messages.DialogRequested{Event: e}:
			case <-ctx.Done():
			}
		}))
	}
	a.ports.Search.OnChange(func() {
		select {
		case a.events <- messages.SearchChanged{}:
		default:
		}
	})
}

// Close removes the app's bus subscriptions.
func (a *App) Close() {
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.savedView.WithContext(ctx)
	a.dialogView.WithContext(ctx)
	return a
}

// waitForEvent blocks until the bus or the search service has something
// for the update loop.
func (a *App) waitForEvent() tea.Cmd {
	events, ctx := a.events, a.ctx
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// Init implements tea.Model. The first search starts in the background so
// baskets are ready before the user opens a view.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("labinv - Lab Inventory Search"),
		a.waitForEvent(),
		a.searchView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.dialogView.Active() {
			a.dialogView, cmd = a.dialogView.Update(msg)
			return a, cmd
		}
		return a.handleKey(msg)

	case messages.DialogRequested:
		if a.dialogView.Active() {
			a.dialogView.Close()
		}
		return a, tea.Batch(a.dialogView.Open(msg.Event), a.waitForEvent())

	case messages.SearchChanged:
		a.searchView, cmd = a.searchView.Update(msg)
		return a, tea.Batch(cmd, a.waitForEvent())

	case messages.CompareLoaded:
		a.dialogView, cmd = a.dialogView.Update(msg)
		return a, cmd

	case messages.SearchDone:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.SavedSearchesLoaded, messages.BasketsLoaded:
		a.savedView, cmd = a.savedView.Update(msg)
		return a, cmd

	case messages.SavedSearchApplied:
		if msg.Err != nil {
			a.err = msg.Err
			a.savedView, cmd = a.savedView.Update(msg)
			return a, cmd
		}
		a.currentView = messages.ViewSearch
		a.searchView, cmd = a.searchView.Update(messages.SearchDone{Notice: "Applied " + msg.Name})
		return a, cmd

	case messages.ActionCompleted:
		a.err = msg.Err
		if a.currentView == messages.ViewSaved {
			a.savedView, cmd = a.savedView.Update(msg)
		} else {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Spinner ticks and cursor blinks.
	var cmds []tea.Cmd
	a.searchView, cmd = a.searchView.Update(msg)
	cmds = append(cmds, cmd)
	if a.dialogView.Active() {
		a.dialogView, cmd = a.dialogView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	k := msg.String()

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)

	case messages.ViewSearch:
		if !a.searchView.InputFocused() && !a.searchView.Saving() {
			switch {
			case keymap.Matches(k, a.keymap.Help):
				return a, a.switchTo(messages.ViewHelp)
			case keymap.Matches(k, a.keymap.Quit):
				return a, tea.Quit
			}
		}
		a.searchView, cmd = a.searchView.Update(msg)

	case messages.ViewSaved:
		if keymap.Matches(k, a.keymap.Help) {
			return a, a.switchTo(messages.ViewHelp)
		}
		a.savedView, cmd = a.savedView.Update(msg)

	case messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) || k == "q" {
			a.currentView = a.returnView
		}
	}
	return a, cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	if view == messages.ViewHelp && a.currentView != messages.ViewHelp {
		a.returnView = a.currentView
	}
	a.currentView = view

	//nolint:exhaustive // menu and help need no initialisation
	switch view {
	case messages.ViewSearch:
		a.searchView.Refresh()
		return a.searchView.Focus()
	case messages.ViewSaved:
		return a.savedView.Init()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.dialogView.Active() {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.dialogView.View())
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSaved:
		return a.savedView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + "\n\n" +
		a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
		a.styles.Help.Render("[esc] back")
}

// Run starts the TUI application and blocks until it exits.
// Log output is discarded while the program owns the terminal.
func (a *App) Run() error {
	defer a.Close()
	prev := logger.SetOutput(io.Discard)
	defer logger.SetOutput(prev)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Records returns the records on the current page.
func (a *App) Records() []domain.InventoryRecord {
	return a.searchView.Records()
}

// DialogActive reports whether a dialog is open.
func (a *App) DialogActive() bool {
	return a.dialogView.Active()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.savedView.SetDimensions(width, height)
	a.dialogView.SetDimensions(width, height)
}
