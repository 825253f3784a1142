// Package search provides the inventory search view for the TUI.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

// View is the search screen: query input, filter chips, results and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	saveInput *input.Field
	list      *list.ResultList
	statusbar *status.Bar

	search  driving.SearchService
	records driving.RecordActionService
	ctx     context.Context

	snapshot   domain.SearchSnapshot
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
	saving     bool
}

// NewView creates a new search view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	search driving.SearchService,
	records driving.RecordActionService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		saveInput:  input.NewField(s, "Save as: ", "name of the saved search"),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		search:     search,
		records:    records,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads baskets and runs the initial search.
func (v *View) Init() tea.Cmd {
	if v.search == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoSearchService} }
	}
	v.statusbar.SetState(status.StateLoading)
	v.statusbar.SetMessage("Loading...")
	return tea.Batch(v.input.Init(), v.statusbar.Init(), v.run("", v.search.Load))
}

// run calls fn off the update loop and reports the outcome as SearchDone.
func (v *View) run(notice string, fn func(context.Context) error) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		return messages.SearchDone{Notice: notice, Err: fn(ctx)}
	}
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchChanged:
		v.Refresh()
		return v, nil

	case messages.SearchDone:
		v.Refresh()
		v.statusbar.SetNotice(msg.Notice)
		v.setErr(msg.Err)
		return v, nil

	case messages.ActionCompleted:
		if msg.Err != nil {
			v.setErr(msg.Err)
			return v, nil
		}
		v.list.ClearMarks()
		if v.search == nil {
			v.statusbar.SetNotice(msg.Message)
			return v, nil
		}
		return v, v.run(msg.Message, v.search.DoSearch)

	case messages.ErrorOccurred:
		v.setErr(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	return v, cmd
}

func (v *View) setErr(err error) {
	if err == nil || errors.Is(err, domain.ErrStaleResponse) {
		v.err = nil
		return
	}
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// Refresh redraws from the service snapshot.
func (v *View) Refresh() {
	if v.search == nil {
		return
	}
	prev := v.snapshot.State
	v.snapshot = v.search.Snapshot()
	if v.snapshot.State == domain.FetchLoading && prev != domain.FetchLoading {
		v.list.ClearMarks()
	}
	v.list.SetRecords(v.snapshot.Results.Records)
	v.statusbar.SetMessage(v.snapshot.Status)

	switch v.snapshot.State {
	case domain.FetchLoading:
		v.statusbar.SetNotice("")
		v.statusbar.SetState(status.StateLoading)
	case domain.FetchError:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(v.snapshot.Error)
	case domain.FetchSuccess:
		v.statusbar.SetState(status.StateResults)
	case domain.FetchIdle:
		v.statusbar.SetState(status.StateReady)
	}
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.saving {
		return v.handleSaveKey(msg)
	}
	if v.focusInput {
		return v.handleInputKey(msg)
	}

	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	if v.search == nil {
		return v, nil
	}

	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(k, v.keymap.Focus):
		v.focusInput = true
		return v, v.input.Focus()
	case keymap.Matches(k, v.keymap.Mark):
		v.list.ToggleMark()
	case keymap.Matches(k, v.keymap.Scope):
		return v, v.scopeToSelected()
	case keymap.Matches(k, v.keymap.TypeFilter):
		return v, v.cycleType()
	case keymap.Matches(k, v.keymap.StatusFilter):
		return v, v.cycleStatus()
	case keymap.Matches(k, v.keymap.Order):
		return v, v.cycleOrder()
	case keymap.Matches(k, v.keymap.Reverse):
		key := v.search.Params().OrderBy
		return v, v.start(func(ctx context.Context) error { return v.search.SetOrder(ctx, key) })
	case keymap.Matches(k, v.keymap.NextPage):
		return v, v.turnPage(1)
	case keymap.Matches(k, v.keymap.PrevPage):
		return v, v.turnPage(-1)
	case keymap.Matches(k, v.keymap.ClearFilter):
		return v, v.clearLastChip()
	case keymap.Matches(k, v.keymap.Rename):
		return v, v.openRename()
	case keymap.Matches(k, v.keymap.Tag):
		return v, v.openTag()
	case keymap.Matches(k, v.keymap.Share):
		return v, v.openShare()
	case keymap.Matches(k, v.keymap.Compare):
		return v, v.openCompare()
	case keymap.Matches(k, v.keymap.Copy):
		v.copyIDs()
	case keymap.Matches(k, v.keymap.Save):
		v.saving = true
		v.saveInput.Reset()
		return v, v.saveInput.Focus()
	}
	return v, nil
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		if v.list.Count() > 0 {
			v.focusInput = false
			v.input.Blur()
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case tea.KeyEnter:
		if v.search == nil {
			return v, nil
		}
		query := strings.TrimSpace(v.input.Value())
		v.focusInput = false
		v.input.Blur()
		return v, v.start(func(ctx context.Context) error { return v.search.SetQuery(ctx, query) })
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleSaveKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.saving = false
		v.saveInput.Blur()
		return v, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(v.saveInput.Value())
		if name == "" {
			return v, nil
		}
		v.saving = false
		v.saveInput.Blur()
		return v, v.run(fmt.Sprintf("Saved search %q", name), func(ctx context.Context) error {
			_, err := v.search.SaveCurrent(ctx, name)
			return err
		})
	}

	var cmd tea.Cmd
	v.saveInput, cmd = v.saveInput.Update(msg)
	return v, cmd
}

// start marks the view as loading and runs a parameter change.
func (v *View) start(fn func(context.Context) error) tea.Cmd {
	v.err = nil
	v.statusbar.SetNotice("")
	v.statusbar.SetState(status.StateLoading)
	return tea.Batch(v.statusbar.Init(), v.run("", fn))
}

func (v *View) cycleType() tea.Cmd {
	next := nextAfter(v.search.AllowedTypeFilters(), v.search.Params().ResultType)
	return v.start(func(ctx context.Context) error { return v.search.SetTypeFilter(ctx, next) })
}

func (v *View) cycleStatus() tea.Cmd {
	next := nextAfter(v.search.AllowedStatusFilters(), v.search.Params().DeletedItems)
	return v.start(func(ctx context.Context) error { return v.search.SetDeletedItems(ctx, next) })
}

func (v *View) cycleOrder() tea.Cmd {
	props := domain.SortProperties()
	keys := make([]string, len(props))
	for i, p := range props {
		keys[i] = p.Key
	}
	next := nextAfter(keys, v.search.Params().OrderBy)
	return v.start(func(ctx context.Context) error { return v.search.SetOrder(ctx, next) })
}

// nextAfter returns the element following current, wrapping around.
func nextAfter[T comparable](options []T, current T) T {
	if len(options) == 0 {
		return current
	}
	i := slices.Index(options, current)
	return options[(i+1)%len(options)]
}

func (v *View) turnPage(delta int) tea.Cmd {
	p := v.search.Params()
	page := p.PageNumber + delta
	if page < 0 || page >= v.pageCount() {
		return nil
	}
	return v.start(func(ctx context.Context) error { return v.search.SetPage(ctx, page) })
}

func (v *View) pageCount() int {
	size := v.search.Params().PageSize
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	total := v.snapshot.Results.TotalHits
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

func (v *View) clearLastChip() tea.Cmd {
	chips := v.search.Chips()
	if len(chips) == 0 {
		return nil
	}
	kind := chips[len(chips)-1].Kind
	return v.start(func(ctx context.Context) error { return v.search.RemoveChip(ctx, kind) })
}

// scopeToSelected lists the contents of the selected container, sample or template.
func (v *View) scopeToSelected() tea.Cmd {
	rec := v.list.SelectedRecord()
	if rec == nil {
		return nil
	}
	switch rec.GlobalID.RecordType() {
	case domain.RecordTypeContainer, domain.RecordTypeSample, domain.RecordTypeTemplate:
	default:
		v.statusbar.SetNotice(fmt.Sprintf("%s has no contents to list", rec.GlobalID))
		return nil
	}
	id := rec.GlobalID
	return v.start(func(ctx context.Context) error { return v.search.SetParentGlobalID(ctx, id) })
}

// openDialog publishes event; an open dialog arrives back through the bus.
func (v *View) openDialog(event domain.Event) tea.Cmd {
	if v.records == nil {
		v.statusbar.SetNotice("Record actions are not available")
		return nil
	}
	records, ctx := v.records, v.ctx
	return func() tea.Msg {
		if err := records.OpenDialog(ctx, event); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return nil
	}
}

func (v *View) openRename() tea.Cmd {
	rec := v.list.SelectedRecord()
	if rec == nil {
		return nil
	}
	return v.openDialog(domain.OpenRenameDialog{GlobalID: rec.GlobalID, RecordName: rec.Name})
}

func (v *View) openTag() tea.Cmd {
	ids := v.list.Targets()
	if len(ids) == 0 {
		return nil
	}
	event := domain.OpenTagDialog{GlobalIDs: ids}
	if rec := v.list.SelectedRecord(); len(ids) == 1 && rec != nil && rec.GlobalID == ids[0] {
		event.Tags = rec.Tags
	}
	return v.openDialog(event)
}

func (v *View) openShare() tea.Cmd {
	ids := v.list.Targets()
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, v.nameOf(id))
	}
	return v.openDialog(domain.OpenShareDialog{GlobalIDs: ids, Names: names})
}

func (v *View) openCompare() tea.Cmd {
	ids := v.list.Targets()
	if len(ids) < 2 {
		v.statusbar.SetNotice("Mark two or more records to compare")
		return nil
	}
	return v.openDialog(domain.OpenCompareDialog{GlobalIDs: ids})
}

func (v *View) nameOf(id domain.GlobalID) string {
	for _, r := range v.list.Records() {
		if r.GlobalID == id {
			return r.Name
		}
	}
	return id.String()
}

func (v *View) copyIDs() {
	ids := v.list.Targets()
	if len(ids) == 0 {
		return
	}
	if v.records == nil {
		v.statusbar.SetNotice("Copy not available")
		return
	}
	if err := v.records.CopyGlobalIDs(ids); err != nil {
		v.setErr(err)
		return
	}
	v.statusbar.SetNotice(fmt.Sprintf("Copied %d global ids", len(ids)))
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("labinv")+"  "+v.styles.Muted.Render(v.orderLabel()), "")

	if v.saving {
		sections = append(sections, v.saveInput.View())
	} else {
		sections = append(sections, v.input.View())
	}

	if chips := v.renderChips(); chips != "" {
		sections = append(sections, chips)
	}
	sections = append(sections, "", v.list.View())

	if v.search != nil {
		if pages := v.pageCount(); pages > 1 {
			sections = append(sections, "", v.styles.Muted.Render(fmt.Sprintf("Page %d of %d  (%d results)",
				v.search.Params().PageNumber+1, pages, v.snapshot.Results.TotalHits)))
		}
	}
	if n := v.list.MarkedCount(); n > 0 {
		sections = append(sections, v.styles.Marked.Render(fmt.Sprintf("%d marked", n)))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderChips() string {
	if len(v.snapshot.Chips) == 0 {
		return ""
	}
	chips := make([]string, 0, len(v.snapshot.Chips))
	for _, c := range v.snapshot.Chips {
		chips = append(chips, v.styles.Chip.Render(c.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (v *View) orderLabel() string {
	if v.search == nil {
		return ""
	}
	p := v.search.Params()
	prop, ok := domain.LookupSortProperty(p.OrderBy)
	if !ok {
		return ""
	}
	return fmt.Sprintf("sorted by %s, %s", strings.ToLower(prop.Label), prop.OrderLabel(p.SortOrder))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.saveInput.SetWidth(width)
	v.list.SetDimensions(width, height-12)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the text in the query box.
func (v *View) Query() string {
	return v.input.Value()
}

// Records returns the records on screen.
func (v *View) Records() []domain.InventoryRecord {
	return v.list.Records()
}

// SelectedIndex returns the index of the selected record.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Targets returns the records a bulk action would apply to.
func (v *View) Targets() []domain.GlobalID {
	return v.list.Targets()
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the query box has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Saving returns whether the save-as prompt is open.
func (v *View) Saving() bool {
	return v.saving
}

// Focus moves focus to the query box, keeping its text.
func (v *View) Focus() tea.Cmd {
	v.focusInput = true
	v.input.SetValue(v.searchQuery())
	return v.input.Focus()
}

func (v *View) searchQuery() string {
	if v.search == nil {
		return ""
	}
	return v.search.Params().Query
}
