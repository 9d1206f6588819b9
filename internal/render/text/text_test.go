package text

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
)

func snapshot() render.Snapshot {
	return render.Snapshot{
		Columns: []grid.Column{{Code: "name", Title: "Name"}, {Code: "city", Title: "City"}},
		Rows: []grid.RowView{
			{Index: 2, Selectable: true, Pinned: true, Cells: map[string]grid.CellView{
				"name": {Text: "Globex"}, "city": {Text: "Springfield"},
			}},
			{Index: 0, Selectable: true, Selected: true, Cells: map[string]grid.CellView{
				"name": {Text: "Acme"}, "city": {Text: "Gotham"},
			}},
			{Index: 1, Editing: true, Cells: map[string]grid.CellView{
				"name": {Input: &form.View{Name: "name", Text: "Init"}, Invalid: "too short"},
				"city": {Text: "Metropolis"},
			}},
		},
		Ordering: grid.Ordering{Keys: []grid.SortKey{{Field: "name", Dir: grid.Desc}}},
	}
}

func TestTable(t *testing.T) {
	out := Table(snapshot(), Options{Cursor: -1})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "Name v")
	assert.True(t, strings.HasPrefix(lines[1], "-------"))
	assert.Contains(t, lines[2], "[ ] *")
	assert.Contains(t, lines[2], "Globex")
	assert.Contains(t, lines[3], "[x]")
	assert.Contains(t, lines[4], "[Init] ! too short")

	width := lipgloss.Width(lines[0])
	for _, l := range lines[2:] {
		assert.Equal(t, width, lipgloss.Width(l), "rows align with the header: %q", l)
	}
}

func TestTable_Truncates(t *testing.T) {
	snap := snapshot()
	snap.Rows[0].Cells["city"] = grid.CellView{Text: "A very long city name indeed"}
	out := Table(snap, Options{Cursor: 0, MaxWidth: 8})
	assert.Contains(t, out, "A very …")
	assert.NotContains(t, out, "indeed")
}

func TestTable_Empty(t *testing.T) {
	snap := snapshot()
	snap.Rows = nil
	assert.Contains(t, Table(snap, Options{Cursor: -1}), "no rows")
}

func TestReport(t *testing.T) {
	snap := render.Snapshot{
		Columns: []grid.Column{{Code: "label", Title: "Record"}, {Code: "message", Title: "Result"}},
		Rows: []grid.RowView{
			{Cells: map[string]grid.CellView{"label": {Text: "Acme"}, "message": {Text: "deleted"}}},
			{Cells: map[string]grid.CellView{"label": {Text: "Globex"}, "message": {Text: "still referenced"}}},
		},
	}
	out := Report("Delete report", snap)
	assert.Contains(t, out, "Delete report")
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "still referenced")
}

func TestPad(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 4, "abc…"},
		{"a\nb", 3, "a b"},
	}
	for _, tt := range tests {
		if got := pad(tt.in, tt.width); got != tt.want {
			t.Errorf("pad(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
