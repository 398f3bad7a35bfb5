package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/labtrack/internal/models"
	"github.com/fentz26/labtrack/internal/reconcile"
	"github.com/fentz26/labtrack/internal/view"
)

// tableModel is one of the two sample tables on the dashboard.
type tableModel struct {
	def    view.Table
	memo   *view.Memo
	pager  view.Pager
	cursor int
}

func newTableModel(def view.Table, memo *view.Memo) *tableModel {
	return &tableModel{def: def, memo: memo}
}

// page derives the visible page for the snapshot and query.
func (t *tableModel) page(snap reconcile.Snapshot, q view.Query) view.Page {
	rows := t.memo.Rows(t.def.Partition(snap), q)
	p := view.Paginate(rows, t.def.PageSize, t.pager.Page(q))
	t.pager.Clamp(p.TotalPages)
	if t.cursor >= len(p.Rows) {
		t.cursor = len(p.Rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	return p
}

// rows returns every row matching the query, across all pages.
func (t *tableModel) rows(snap reconcile.Snapshot, q view.Query) []view.Row {
	return t.memo.Rows(t.def.Partition(snap), q)
}

func (t *tableModel) selected(snap reconcile.Snapshot, q view.Query) (view.Row, bool) {
	p := t.page(snap, q)
	if p.Empty() || t.cursor >= len(p.Rows) {
		return view.Row{}, false
	}
	return p.Rows[t.cursor], true
}

func (t *tableModel) up() {
	if t.cursor > 0 {
		t.cursor--
	}
}

func (t *tableModel) down(snap reconcile.Snapshot, q view.Query) {
	if t.cursor < len(t.page(snap, q).Rows)-1 {
		t.cursor++
	}
}

func (t *tableModel) nextPage(snap reconcile.Snapshot, q view.Query) {
	p := t.page(snap, q)
	t.pager.Next(q, p.TotalPages)
	t.cursor = 0
}

func (t *tableModel) prevPage(q view.Query) {
	t.pager.Prev(q)
	t.cursor = 0
}

type column struct {
	title string
	width int
	value func(view.Row) string
}

func (t *tableModel) columns(role models.Role) []column {
	cols := []column{
		{"SAMPLE", 12, func(r view.Row) string { return r.Record.SampleID }},
		{"PATIENT", 20, func(r view.Row) string { return r.PatientName }},
		{"PATIENT ID", 12, func(r view.Row) string { return r.PatientID }},
		{"TEST", 9, func(r view.Row) string { return r.Record.TestType }},
	}
	if role == models.RoleLab {
		cols = append(cols, column{"SOURCE", 8, func(r view.Row) string { return r.Record.Source }})
	}
	cols = append(cols,
		column{"STATUS", 18, func(r view.Row) string { return string(r.Record.Status) }},
		column{"UPDATED", 12, func(r view.Row) string { return formatClock(r.Record.Timestamp) }},
	)
	if t.def.Done {
		cols = append(cols, column{"CLAIMED BY", 14, func(r view.Row) string { return r.Record.Claimer() }})
	}
	return cols
}

// render draws the table with its title, header and page footer.
func (t *tableModel) render(role models.Role, p view.Page, focused bool, width int) string {
	var b strings.Builder

	title := fmt.Sprintf("%s (%d)", t.def.Title, p.Total)
	if focused {
		b.WriteString(titleStyle.Render("▶ "+title) + "\n")
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1).Render("  "+title) + "\n")
	}

	cols := t.columns(role)
	headerCells := make([]string, len(cols))
	for i, c := range cols {
		headerCells[i] = pad(c.title, c.width)
	}
	b.WriteString(headerStyle.Render("  "+strings.Join(headerCells, " ")) + "\n")

	if p.Empty() {
		b.WriteString(emptyStyle.Render("  "+view.EmptyMessage) + "\n")
		return b.String()
	}

	for i, row := range p.Rows {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = pad(c.value(row), c.width)
		}
		line := strings.Join(cells, " ")
		if focused && i == t.cursor {
			b.WriteString(selectedStyle.Render("▶ "+line) + "\n")
			continue
		}
		b.WriteString(rowStyle(row.Record.Status).Render("  "+line) + "\n")
	}

	footer := fmt.Sprintf("  Page %d of %d", p.Number, p.TotalPages)
	if p.HasPrev() {
		footer += "  ← prev"
	}
	if p.HasNext() {
		footer += "  next →"
	}
	b.WriteString(helpStyle.Render(footer) + "\n")
	return b.String()
}

func formatClock(t models.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2 15:04")
}

func pad(s string, width int) string {
	s = truncate(s, width)
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
