// Package html renders grid snapshots as HTML fragments.
//
// Every interactive element carries data attributes instead of handlers:
// data-role names the click role, data-row the grid index, data-field the
// column and data-action the action code. The page script sends clicks on
// the table root to the server as grid targets; data-op marks row
// operations that have their own endpoints (edit, save, cancel, pin,
// release, order).
package html

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
)

// Table describes one grid table fragment.
type Table struct {
	Grid        string // Grid key, used as the table root id
	Snapshot    render.Snapshot
	AllSelected bool
	Editable    bool // Show edit and save controls
	Pinnable    bool
}

// writer collects the first write error, the way generated templ code does.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) { w.raw(templ.EscapeString(s)) }

func (w *writer) attr(name, value string) {
	w.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (w *writer) flag(name string, on bool) {
	if on {
		w.raw(" " + name)
	}
}

// TableComponent renders the table root, its header and its rows.
func TableComponent(t Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw("<table class=\"grid\"")
		w.attr("id", "grid-"+t.Grid)
		w.attr("data-grid", t.Grid)
		w.raw("><thead><tr>")
		w.raw("<th class=\"grid-select\"><input type=\"checkbox\"")
		w.attr("data-role", string(grid.RoleSelectAll))
		w.flag("checked", t.AllSelected)
		w.raw("></th>")
		for _, c := range t.Snapshot.Columns {
			header(w, t.Snapshot, c)
		}
		w.raw("<th class=\"grid-controls\"></th></tr></thead><tbody>")
		for _, r := range t.Snapshot.Rows {
			row(w, t, r)
		}
		if len(t.Snapshot.Rows) == 0 {
			w.raw("<tr class=\"grid-empty\"><td")
			w.attr("colspan", strconv.Itoa(len(t.Snapshot.Columns)+2))
			w.raw(">No rows</td></tr>")
		}
		w.raw("</tbody></table>")
		return w.err
	})
}

func header(w *writer, snap render.Snapshot, c grid.Column) {
	w.raw("<th")
	w.attr("data-field", c.Code)
	if c.Orderable {
		next := grid.Asc
		dir, sorted := snap.Direction(c.Code)
		if sorted {
			w.attr("aria-sort", map[grid.Direction]string{grid.Asc: "ascending", grid.Desc: "descending"}[dir])
			if dir == grid.Asc {
				next = grid.Desc
			}
		}
		w.attr("data-op", "order")
		w.attr("data-dir", string(next))
	}
	w.raw(">")
	w.text(c.Title)
	if dir, ok := snap.Direction(c.Code); ok {
		if dir == grid.Desc {
			w.raw(" &#9660;")
		} else {
			w.raw(" &#9650;")
		}
	}
	w.raw("</th>")
}

func row(w *writer, t Table, r grid.RowView) {
	index := strconv.Itoa(r.Index)
	w.raw("<tr")
	w.attr("data-row", index)
	w.attr("data-id", r.ID)
	class := "grid-row"
	if r.Selected {
		class += " selected"
	}
	if r.Pinned {
		class += " pinned"
	}
	if r.Editing {
		class += " editing"
	}
	w.attr("class", class)
	w.raw("><td class=\"grid-select\">")
	if r.Selectable {
		w.raw("<input type=\"checkbox\"")
		w.attr("data-role", string(grid.RoleCheckbox))
		w.attr("data-row", index)
		w.flag("checked", r.Selected)
		w.raw(">")
	}
	w.raw("</td>")

	for _, c := range t.Snapshot.Columns {
		cell(w, index, c, r.Cells[c.Code])
	}

	w.raw("<td class=\"grid-controls\">")
	for _, b := range r.Buttons {
		w.raw("<button type=\"button\"")
		w.attr("data-role", string(grid.RoleRowButton))
		w.attr("data-row", index)
		w.attr("data-action", b.Code)
		if b.Class != "" {
			w.attr("class", b.Class)
		}
		w.flag("disabled", !b.Enabled)
		w.raw(">")
		w.text(b.Label)
		w.raw("</button>")
	}
	if t.Editable {
		if r.Editing {
			op(w, index, "save", "Save")
			op(w, index, "cancel", "Cancel")
		} else {
			op(w, index, "edit", "Edit")
		}
	}
	if t.Pinnable {
		if r.Pinned {
			op(w, index, "release", "Unpin")
		} else {
			op(w, index, "pin", "Pin")
		}
	}
	w.raw("</td></tr>")
}

func op(w *writer, index, name, label string) {
	w.raw("<button type=\"button\"")
	w.attr("data-op", name)
	w.attr("data-row", index)
	w.raw(">")
	w.text(label)
	w.raw("</button>")
}

func cell(w *writer, index string, c grid.Column, v grid.CellView) {
	w.raw("<td")
	w.attr("data-field", c.Code)
	if v.Invalid != "" {
		w.attr("class", "invalid")
	}
	w.raw(">")
	switch {
	case v.Input != nil:
		input(w, index, *v.Input)
	case v.Href != "":
		w.raw("<a")
		w.attr("href", string(templ.URL(v.Href)))
		w.attr("data-role", string(grid.RoleFieldFollow))
		w.attr("data-row", index)
		w.attr("data-field", c.Code)
		w.raw(">")
		w.text(v.Text)
		w.raw("</a>")
	case v.Clickable:
		w.raw("<span class=\"clickable\"")
		w.attr("data-role", string(grid.RoleFieldClick))
		w.attr("data-row", index)
		w.attr("data-field", c.Code)
		w.raw(">")
		w.text(v.Text)
		w.raw("</span>")
	default:
		w.text(v.Text)
	}
	if v.Invalid != "" {
		w.raw("<span class=\"grid-error\">")
		w.text(v.Invalid)
		w.raw("</span>")
	}
	w.raw("</td>")
}

// input renders an open edit widget. Typing is posted per field.
func input(w *writer, index string, v form.View) {
	switch v.Type {
	case form.Enum:
		w.raw("<select")
		inputAttrs(w, index, v)
		w.raw("><option value=\"\"></option>")
		for _, o := range v.Options {
			w.raw("<option")
			w.attr("value", o.Value)
			w.flag("selected", o.Value == v.Text || o.Label == v.Text)
			w.raw(">")
			w.text(o.Label)
			w.raw("</option>")
		}
		w.raw("</select>")
	case form.Bool:
		w.raw("<select")
		inputAttrs(w, index, v)
		w.raw(">")
		for _, o := range []string{"", "Yes", "No"} {
			w.raw("<option")
			w.attr("value", o)
			w.flag("selected", o == v.Text)
			w.raw(">")
			w.text(o)
			w.raw("</option>")
		}
		w.raw("</select>")
	default:
		w.raw("<input")
		w.attr("type", inputType(v.Type))
		if v.Type == form.Numeric {
			w.attr("inputmode", "decimal")
		}
		inputAttrs(w, index, v)
		w.attr("value", v.Text)
		w.raw(">")
	}
	if v.Error != "" {
		w.raw("<span class=\"grid-error\">")
		w.text(v.Error)
		w.raw("</span>")
	}
}

func inputAttrs(w *writer, index string, v form.View) {
	w.attr("name", v.Name)
	w.attr("aria-label", v.Label)
	w.attr("data-op", "input")
	w.attr("data-row", index)
	w.attr("data-field", v.Name)
}

func inputType(t form.InputType) string {
	switch t {
	case form.Date:
		return "date"
	default:
		return "text"
	}
}

// ToolbarComponent renders the grid's row and table actions.
func ToolbarComponent(gridKey string, tb grid.Toolbar, selected int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw("<div class=\"grid-toolbar\"")
		w.attr("data-grid", gridKey)
		w.raw(">")
		for _, a := range tb.RowActions {
			action(w, grid.RoleRowAction, a, a.Enabled && selected > 0)
		}
		for _, a := range tb.TableActions {
			action(w, grid.RoleTableAction, a, a.Enabled)
		}
		w.raw("<span class=\"grid-selected\">")
		w.text(fmt.Sprintf("%d selected", selected))
		w.raw("</span></div>")
		return w.err
	})
}

func action(w *writer, role grid.Role, a grid.ActionView, enabled bool) {
	w.raw("<button type=\"button\"")
	w.attr("data-role", string(role))
	w.attr("data-action", a.Code)
	if a.Icon != "" {
		w.attr("data-icon", a.Icon)
	}
	w.flag("disabled", !enabled)
	w.raw(">")
	w.text(a.Label)
	w.raw("</button>")
}

// ReportComponent renders a read-only report grid, such as the itemized
// result of a partially failed delete.
func ReportComponent(title string, snap render.Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw("<section class=\"grid-report\"><h3>")
		w.text(title)
		w.raw("</h3><table><thead><tr>")
		for _, c := range snap.Columns {
			w.raw("<th>")
			w.text(c.Title)
			w.raw("</th>")
		}
		w.raw("</tr></thead><tbody>")
		for _, r := range snap.Rows {
			w.raw("<tr>")
			for _, c := range snap.Columns {
				w.raw("<td>")
				w.text(r.Cells[c.Code].Text)
				w.raw("</td>")
			}
			w.raw("</tr>")
		}
		w.raw("</tbody></table></section>")
		return w.err
	})
}
