// Package dialog provides the modal dialogs opened by bus events: rename,
// tag, share, compare and confirm.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
)

var errNoRecordActions = errors.New("record actions are not available")

// View is the active dialog. The zero event means no dialog is open.
type View struct {
	styles  *styles.Styles
	records driving.RecordActionService
	ctx     context.Context

	event      domain.Event
	field      *input.Field
	comparison *domain.Comparison
	err        error
	width      int
}

// NewView creates a closed dialog.
func NewView(s *styles.Styles, records driving.RecordActionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		records: records,
		ctx:     context.Background(),
		width:   80,
	}
}

// WithContext sets the context used by dialog actions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open shows the dialog for event and returns its initial command.
func (v *View) Open(event domain.Event) tea.Cmd {
	v.event = event
	v.field = nil
	v.comparison = nil
	v.err = nil

	switch e := event.(type) {
	case domain.OpenRenameDialog:
		v.field = input.NewField(v.styles, "Name: ", "new name")
		v.field.SetValue(e.RecordName)
	case domain.OpenTagDialog:
		v.field = input.NewField(v.styles, "Tags: ", "comma separated")
		v.field.SetValue(strings.Join(e.Tags, ", "))
	case domain.OpenShareDialog:
		v.field = input.NewField(v.styles, "Groups: ", "lab group ids, comma separated")
	case domain.OpenCompareDialog:
		return v.loadComparison(e.GlobalIDs)
	case domain.ConfirmAction:
	default:
		v.event = nil
		return nil
	}
	if v.field != nil {
		v.field.SetWidth(v.width - 8)
		return v.field.Init()
	}
	return nil
}

// Active reports whether a dialog is open.
func (v *View) Active() bool {
	return v.event != nil
}

// Event returns the event the open dialog was created for.
func (v *View) Event() domain.Event {
	return v.event
}

// Close dismisses the dialog. An open confirmation is answered with no.
func (v *View) Close() {
	if c, ok := v.event.(domain.ConfirmAction); ok && c.Respond != nil {
		c.Respond(false)
	}
	v.event = nil
	v.field = nil
	v.comparison = nil
	v.err = nil
}

// Update handles keys and asynchronous results for the open dialog.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if !v.Active() {
		return v, nil
	}

	switch msg := msg.(type) {
	case messages.CompareLoaded:
		v.comparison = msg.Comparison
		v.err = msg.Err
		return v, nil
	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	if v.field != nil {
		var cmd tea.Cmd
		v.field, cmd = v.field.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		v.Close()
		return v, nil
	}

	switch e := v.event.(type) {
	case domain.ConfirmAction:
		switch msg.String() {
		case "y", "Y":
			if e.Respond != nil {
				e.Respond(true)
			}
			v.event = nil
		case "n", "N", "enter":
			v.Close()
		}
		return v, nil

	case domain.OpenCompareDialog:
		if msg.Type == tea.KeyEnter || msg.String() == "q" {
			v.Close()
		}
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		cmd, err := v.submit()
		if err != nil {
			v.err = err
			return v, nil
		}
		v.Close()
		return v, cmd
	}

	var cmd tea.Cmd
	v.field, cmd = v.field.Update(msg)
	return v, cmd
}

// submit validates the field and returns the command that performs the action.
func (v *View) submit() (tea.Cmd, error) {
	if v.records == nil {
		return nil, errNoRecordActions
	}
	value := strings.TrimSpace(v.field.Value())
	records, ctx := v.records, v.ctx

	switch e := v.event.(type) {
	case domain.OpenRenameDialog:
		if value == "" {
			return nil, errors.New("name must not be empty")
		}
		return func() tea.Msg {
			err := records.Rename(ctx, e.GlobalID, value)
			return messages.ActionCompleted{Message: fmt.Sprintf("Renamed %s", e.GlobalID), Err: err}
		}, nil

	case domain.OpenTagDialog:
		tags := strings.Split(value, ",")
		return func() tea.Msg {
			err := records.Tag(ctx, e.GlobalIDs, tags)
			return messages.ActionCompleted{Message: fmt.Sprintf("Tagged %d records", len(e.GlobalIDs)), Err: err}
		}, nil

	case domain.OpenShareDialog:
		groups, err := parseGroupIDs(value)
		if err != nil {
			return nil, err
		}
		return func() tea.Msg {
			err := records.Share(ctx, e.GlobalIDs, groups)
			return messages.ActionCompleted{
				Message: fmt.Sprintf("Shared %d records with %d groups", len(e.GlobalIDs), len(groups)),
				Err:     err,
			}
		}, nil
	}
	return nil, nil
}

func parseGroupIDs(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid group id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("enter at least one group id")
	}
	return ids, nil
}

func (v *View) loadComparison(ids []domain.GlobalID) tea.Cmd {
	if v.records == nil {
		v.err = errNoRecordActions
		return nil
	}
	records, ctx := v.records, v.ctx
	return func() tea.Msg {
		cmp, err := records.Compare(ctx, ids)
		return messages.CompareLoaded{Comparison: cmp, Err: err}
	}
}

// View renders the dialog box.
func (v *View) View() string {
	if !v.Active() {
		return ""
	}

	var b strings.Builder
	switch e := v.event.(type) {
	case domain.OpenRenameDialog:
		b.WriteString(v.styles.Title.Render("Rename " + e.GlobalID.String()))
		b.WriteString("\n\n" + v.field.View())
	case domain.OpenTagDialog:
		b.WriteString(v.styles.Title.Render(fmt.Sprintf("Tag %d records", len(e.GlobalIDs))))
		b.WriteString("\n\n" + v.field.View())
	case domain.OpenShareDialog:
		b.WriteString(v.styles.Title.Render("Share " + strings.Join(e.Names, ", ")))
		b.WriteString("\n\n" + v.field.View())
	case domain.OpenCompareDialog:
		b.WriteString(v.styles.Title.Render("Compare"))
		b.WriteString("\n\n" + v.renderComparison())
	case domain.ConfirmAction:
		b.WriteString(v.styles.Warning.Render(e.Title))
		b.WriteString("\n\n" + e.Message + "\n\n")
		label := e.ConfirmLabel
		if label == "" {
			label = "Confirm"
		}
		b.WriteString(v.styles.Help.Render(fmt.Sprintf("[y] %s  [n] Cancel", label)))
	}

	if v.err != nil {
		b.WriteString("\n\n" + v.styles.Error.Render("Error: "+v.err.Error()))
	}
	if _, ok := v.event.(domain.ConfirmAction); !ok {
		b.WriteString("\n\n" + v.styles.Help.Render("[enter] OK  [esc] Cancel"))
	}
	return v.styles.Dialog.Render(b.String())
}

func (v *View) renderComparison() string {
	if v.comparison == nil {
		if v.err != nil {
			return ""
		}
		return v.styles.Muted.Render("Loading...")
	}

	cols := make([][]string, len(v.comparison.Columns)+1)
	cols[0] = []string{""}
	for i, id := range v.comparison.Columns {
		cols[i+1] = []string{v.styles.Subtitle.Render(id.String())}
	}
	for _, row := range v.comparison.Rows {
		field := row.Field
		if row.Differs {
			field = v.styles.Warning.Render("* " + field)
		}
		cols[0] = append(cols[0], field)
		for i, val := range row.Values {
			cols[i+1] = append(cols[i+1], val)
		}
	}

	rendered := make([]string, len(cols))
	for i, c := range cols {
		rendered[i] = lipgloss.NewStyle().PaddingRight(2).Render(strings.Join(c, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// SetDimensions sets the dialog width.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
	if v.field != nil {
		v.field.SetWidth(width - 8)
	}
}
