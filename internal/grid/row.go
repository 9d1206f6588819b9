package grid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridview/internal/form"
)

// Row binds one record to one rendered table row.
type Row[R any] struct {
	table    *Datatable[R]
	index    int
	id       uuid.UUID
	selected bool
	editing  bool
	draft    bool // Created through CreateItem and not yet saved
	removed  bool
}

// Index returns the row's stable grid index.
func (r *Row[R]) Index() int { return r.index }

// ID returns the row's identifier, used as the rendered row's element id.
func (r *Row[R]) ID() uuid.UUID { return r.id }

// Item returns the bound record. A removed row returns the zero value.
func (r *Row[R]) Item() R { return r.item() }

func (r *Row[R]) item() R {
	if sl, ok := r.table.slots.get(r.index); ok {
		return sl.item
	}
	var zero R
	return zero
}

// Removed reports whether the row's record has been removed from the grid.
func (r *Row[R]) Removed() bool { return r.removed }

func (r *Row[R]) Selected() bool { return r.selected }
func (r *Row[R]) Editing() bool  { return r.editing }
func (r *Row[R]) Draft() bool    { return r.draft }

// Pinned reports whether the row is fixed to the top of the table.
func (r *Row[R]) Pinned() bool {
	_, ok := r.table.pinned[r.index]
	return ok
}

// IsSelectable reports whether the grid's Selectable predicate admits the
// row. Grids without a predicate admit every row.
func (r *Row[R]) IsSelectable() bool {
	if r.removed {
		return false
	}
	if r.table.selectable == nil {
		return true
	}
	return r.table.selectable(r.item())
}

// Select adds the row to the selection. Selecting a selected row is a no-op.
func (r *Row[R]) Select() error {
	if r.removed {
		return r.gone("Select")
	}
	if r.selected {
		return nil
	}
	if !r.IsSelectable() {
		return &Error{
			Kind:  KindSelection,
			Op:    "Select",
			Label: r.table.labelOf(r.item()),
			Item:  r.item(),
			Err:   ErrNotSelectable,
		}
	}
	r.setSelected(true)
	r.table.events.publish(&Event[R]{Kind: SelectItem, Items: []R{r.item()}})
	return nil
}

// Unselect drops the row from the selection. Unselecting an unselected row
// is a no-op.
func (r *Row[R]) Unselect() error {
	if r.removed {
		return r.gone("Unselect")
	}
	if !r.selected {
		return nil
	}
	r.setSelected(false)
	r.table.events.publish(&Event[R]{Kind: UnselectItem, Items: []R{r.item()}})
	return nil
}

// setSelected is the single place that keeps the row flag and the grid's
// selection list consistent.
func (r *Row[R]) setSelected(on bool) {
	t := r.table
	if on {
		r.selected = true
		t.selected = append(t.selected, r.index)
	} else {
		r.selected = false
		for i, idx := range t.selected {
			if idx == r.index {
				t.selected = append(t.selected[:i], t.selected[i+1:]...)
				break
			}
		}
	}
	r.refresh()
}

// EnableEditMode opens an input in every cell whose field can host one.
func (r *Row[R]) EnableEditMode() error {
	if r.removed {
		return r.gone("EnableEditMode")
	}
	opened := false
	for _, f := range r.table.fields {
		if f.edit == nil || !f.edit.allowed(r) {
			continue
		}
		if err := f.enableEditMode(r); err != nil {
			return err
		}
		opened = true
	}
	if !opened {
		return &Error{
			Kind:  KindNotEditable,
			Op:    "EnableEditMode",
			Label: r.table.labelOf(r.item()),
			Item:  r.item(),
			Err:   ErrNotEditable,
		}
	}
	r.refresh()
	return nil
}

// DisableEditMode closes every open input, discarding staged values.
func (r *Row[R]) DisableEditMode() {
	if r.removed {
		return
	}
	for _, f := range r.table.fields {
		f.disableEditMode(r)
	}
	r.editing = false
	r.refresh()
}

// Cell returns the memoized cell of the named field.
func (r *Row[R]) Cell(code string) (*Cell[R], error) {
	if r.removed {
		return nil, r.gone("Cell")
	}
	f, ok := r.table.fieldsByCode[code]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "Cell", Field: code, Err: ErrUnknownField}
	}
	return r.table.cell(r, f), nil
}

// gone reports use of a row whose record was removed.
func (r *Row[R]) gone(op string) error {
	return &Error{Kind: KindNotFound, Op: op, Label: fmt.Sprintf("row %d", r.index), Err: ErrItemNotFound}
}

func (r *Row[R]) hasOpenInput() bool {
	for _, c := range r.table.cells[r] {
		if c.widget != nil {
			return true
		}
	}
	return false
}

// refresh repaints the row once the grid is mounted.
func (r *Row[R]) refresh() {
	if r.table.state == Ready && !r.removed {
		r.table.adapter.UpdateRow(r.table.rowView(r))
	}
}

// Cell is the memoized identity of a (Row, Field) pair. It holds transient
// edit and validation state that never reaches the record.
type Cell[R any] struct {
	row        *Row[R]
	field      *Field[R]
	widget     form.Widget
	validation *Validation
}

func (c *Cell[R]) Row() *Row[R]     { return c.row }
func (c *Cell[R]) Field() *Field[R] { return c.field }

// Editing reports whether the cell currently hosts a live input.
func (c *Cell[R]) Editing() bool { return c.widget != nil }

// Widget returns the cell's input, or nil outside edit mode.
func (c *Cell[R]) Widget() form.Widget { return c.widget }

// Validation returns the last validation result recorded on the cell.
func (c *Cell[R]) Validation() (Validation, bool) {
	if c.validation == nil {
		return Validation{}, false
	}
	return *c.validation, true
}

// Text returns what the cell displays: the input text while editing,
// the formatted committed value otherwise.
func (c *Cell[R]) Text() string {
	if c.widget != nil {
		return c.widget.Text()
	}
	return c.field.textAt(c.row.index, c.row.item())
}

// Refresh repaints just this cell.
func (c *Cell[R]) Refresh() {
	t := c.row.table
	if t.state != Ready || c.row.removed {
		return
	}
	t.adapter.UpdateCell(c.row.index, c.field.code, c.field.cellView(c.row))
}

// Clear drops the cell's transient state and its cached display values.
func (c *Cell[R]) Clear() {
	c.dispose()
	c.validation = nil
	c.field.invalidate(c.row.index)
	c.row.editing = c.row.hasOpenInput()
	c.Refresh()
}

func (c *Cell[R]) dispose() {
	if c.widget != nil {
		c.widget.Dispose()
		c.widget = nil
	}
}

// cell returns the memoized cell for (row, f), creating it on first use.
func (t *Datatable[R]) cell(row *Row[R], f *Field[R]) *Cell[R] {
	byField, ok := t.cells[row]
	if !ok {
		byField = make(map[string]*Cell[R])
		t.cells[row] = byField
	}
	c, ok := byField[f.code]
	if !ok {
		c = &Cell[R]{row: row, field: f}
		byField[f.code] = c
	}
	return c
}

// cachedCell returns the cell for (row, f) only if it already exists.
func (t *Datatable[R]) cachedCell(row *Row[R], f *Field[R]) *Cell[R] {
	return t.cells[row][f.code]
}

// clearCells disposes every input of row and drops its cells.
func (t *Datatable[R]) clearCells(row *Row[R]) {
	for _, c := range t.cells[row] {
		c.dispose()
	}
	delete(t.cells, row)
}
