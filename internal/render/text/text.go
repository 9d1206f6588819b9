// Package text renders grid snapshots for terminals.
package text

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
)

// DefaultMaxWidth caps a column's width in cells.
const DefaultMaxWidth = 28

// Styles are the lipgloss styles a table is drawn with.
type Styles struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Input    lipgloss.Style
	Invalid  lipgloss.Style
	Faint    lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Header:   base.Bold(true).Padding(0, 1),
		Cell:     base.Padding(0, 1),
		Cursor:   base.Reverse(true),
		Selected: base.Foreground(lipgloss.Color("6")),
		Input:    base.Underline(true),
		Invalid:  base.Foreground(lipgloss.Color("1")),
		Faint:    base.Faint(true),
	}
}

// Options tune Table.
type Options struct {
	Cursor   int // Display position of the highlighted row, -1 for none
	Field    string
	MaxWidth int
	Styles   *Styles
}

// Table draws snap as an aligned text table. The first column shows the
// selection box and the pin marker.
func Table(snap render.Snapshot, opts Options) string {
	st := DefaultStyles()
	if opts.Styles != nil {
		st = *opts.Styles
	}
	maxWidth := opts.MaxWidth
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	widths := make([]int, len(snap.Columns))
	headers := make([]string, len(snap.Columns))
	for i, c := range snap.Columns {
		headers[i] = c.Title
		if dir, ok := snap.Direction(c.Code); ok {
			headers[i] += map[grid.Direction]string{grid.Asc: " ^", grid.Desc: " v"}[dir]
		}
		widths[i] = lipgloss.Width(headers[i])
		for _, r := range snap.Rows {
			widths[i] = max(widths[i], lipgloss.Width(cellText(r.Cells[c.Code])))
		}
		widths[i] = min(widths[i], maxWidth)
	}

	lines := make([]string, 0, len(snap.Rows)+2)
	head := []string{st.Header.Render(pad("", 5))}
	rule := []string{strings.Repeat("-", 7)}
	for i, h := range headers {
		head = append(head, st.Header.Render(pad(h, widths[i])))
		rule = append(rule, strings.Repeat("-", widths[i]+2))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, head...), strings.Join(rule, ""))

	for pos, r := range snap.Rows {
		marker := "[ ]"
		switch {
		case !r.Selectable:
			marker = "   "
		case r.Selected:
			marker = "[x]"
		}
		if r.Pinned {
			marker += " *"
		} else {
			marker += "  "
		}
		cells := []string{st.Cell.Render(marker)}
		for i, c := range snap.Columns {
			v := r.Cells[c.Code]
			s := st.Cell
			switch {
			case v.Invalid != "":
				s = s.Inherit(st.Invalid)
			case v.Input != nil:
				s = s.Inherit(st.Input)
			case r.Selected:
				s = s.Inherit(st.Selected)
			}
			if pos == opts.Cursor && (opts.Field == "" || opts.Field == c.Code) {
				s = s.Inherit(st.Cursor)
			}
			cells = append(cells, s.Render(pad(cellText(v), widths[i])))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	if len(snap.Rows) == 0 {
		lines = append(lines, st.Faint.Render("  no rows"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Report draws a read-only report without selection markers.
func Report(title string, snap render.Snapshot) string {
	st := DefaultStyles()
	widths := make([]int, len(snap.Columns))
	for i, c := range snap.Columns {
		widths[i] = lipgloss.Width(c.Title)
		for _, r := range snap.Rows {
			widths[i] = max(widths[i], lipgloss.Width(r.Cells[c.Code].Text))
		}
		widths[i] = min(widths[i], DefaultMaxWidth*2)
	}

	lines := []string{st.Header.Render(title)}
	var head []string
	for i, c := range snap.Columns {
		head = append(head, st.Header.Render(pad(c.Title, widths[i])))
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, head...))
	for _, r := range snap.Rows {
		var cells []string
		for i, c := range snap.Columns {
			cells = append(cells, st.Cell.Render(pad(r.Cells[c.Code].Text, widths[i])))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// cellText is what a cell shows: the staged input text while editing,
// followed by the validation message when there is one.
func cellText(v grid.CellView) string {
	s := v.Text
	if v.Input != nil {
		s = "[" + v.Input.Text + "]"
	}
	if v.Invalid != "" {
		s += " ! " + v.Invalid
	}
	return s
}

// pad fits s to exactly width cells, truncating with an ellipsis.
func pad(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if w := lipgloss.Width(s); w > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		return string(runes) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}
