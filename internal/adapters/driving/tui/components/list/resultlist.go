// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/labinv/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/labinv/internal/core/domain"
)

// ResultList displays inventory records in a navigable list and tracks
// which records are marked for bulk actions.
type ResultList struct {
	records  []domain.InventoryRecord
	marked   map[domain.GlobalID]bool
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		marked: make(map[domain.GlobalID]bool),
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of records.
func (r *ResultList) View() string {
	if len(r.records) == 0 {
		return r.styles.Muted.Render("No results")
	}

	visible := r.height - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.records))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, r.renderRecord(i, &r.records[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderRecord(index int, rec *domain.InventoryRecord) string {
	cursor := "  "
	if index == r.selected {
		cursor = "> "
	}
	mark := " "
	if r.marked[rec.GlobalID] {
		mark = r.styles.Marked.Render("*")
	}

	nameWidth := r.width - 40
	if nameWidth < 12 {
		nameWidth = 12
	}
	name := truncate(rec.Name, nameWidth)
	pad := strings.Repeat(" ", max(nameWidth-lipgloss.Width(name), 0))
	if rec.Deleted {
		name = r.styles.Deleted.Render(name)
	}

	id := fmt.Sprintf("%-8s", rec.GlobalID)
	meta := fmt.Sprintf("  %-10s %s", strings.ToLower(rec.Type), rec.Owner.DisplayName())

	if index == r.selected {
		return cursor + mark + r.styles.Selected.Render(id+" ") + name + pad + r.styles.Muted.Render(meta)
	}
	return cursor + mark + r.styles.Normal.Render(id+" ") + name + pad + r.styles.Muted.Render(meta)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// SetRecords replaces the records. Marks belong to one result set and are
// discarded when a different set arrives.
func (r *ResultList) SetRecords(records []domain.InventoryRecord) {
	if !sameRecords(r.records, records) {
		clear(r.marked)
	}
	r.records = records
	if r.selected >= len(records) {
		r.selected = 0
	}
}

// Records returns the current records.
func (r *ResultList) Records() []domain.InventoryRecord {
	return r.records
}

// Selected returns the index of the selected record.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.records) {
		r.selected = index
	}
}

// SelectedRecord returns the currently selected record, or nil if none.
func (r *ResultList) SelectedRecord() *domain.InventoryRecord {
	if r.selected < 0 || r.selected >= len(r.records) {
		return nil
	}
	return &r.records[r.selected]
}

// ToggleMark marks or unmarks the selected record.
func (r *ResultList) ToggleMark() {
	rec := r.SelectedRecord()
	if rec == nil {
		return
	}
	if r.marked[rec.GlobalID] {
		delete(r.marked, rec.GlobalID)
		return
	}
	r.marked[rec.GlobalID] = true
}

// ClearMarks unmarks every record.
func (r *ResultList) ClearMarks() {
	clear(r.marked)
}

// Targets returns the marked records' ids in list order.
// With nothing marked it returns the selected record.
func (r *ResultList) Targets() []domain.GlobalID {
	if len(r.marked) == 0 {
		if rec := r.SelectedRecord(); rec != nil {
			return []domain.GlobalID{rec.GlobalID}
		}
		return nil
	}

	ids := make([]domain.GlobalID, 0, len(r.marked))
	for i := range r.records {
		if id := r.records[i].GlobalID; r.marked[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func sameRecords(a, b []domain.InventoryRecord) bool {
	return slices.EqualFunc(a, b, func(x, y domain.InventoryRecord) bool {
		return x.GlobalID == y.GlobalID
	})
}

// MarkedCount returns how many records are marked.
func (r *ResultList) MarkedCount() int {
	return len(r.marked)
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.records)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of records.
func (r *ResultList) Count() int {
	return len(r.records)
}
