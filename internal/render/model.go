// Package render holds the in-memory table model shared by the grid's
// rendering adapters. A Model implements grid.Adapter: it stores what the
// engine mounts and updates, and keeps the display order the way a
// tabular rendering library would.
package render

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/gridview/internal/grid"
)

// ErrMounted is returned when a mounted model is mounted again.
var ErrMounted = errors.New("model already mounted")

// Model is a grid.Adapter that keeps the table in memory.
type Model struct {
	cols    []grid.Column
	rows    map[int]grid.RowView
	ord     grid.Ordering
	order   []int // Grid indices in display order
	mounted bool
	redraws int
}

// NewModel returns an empty, unmounted model.
func NewModel() *Model {
	return &Model{rows: make(map[int]grid.RowView)}
}

var _ grid.Adapter = (*Model)(nil)

func (m *Model) Mount(cols []grid.Column, rows []grid.RowView, ord grid.Ordering) error {
	if m.mounted {
		return ErrMounted
	}
	m.cols = slices.Clone(cols)
	m.ord = ord
	for _, r := range rows {
		m.rows[r.Index] = r
		m.order = append(m.order, r.Index)
	}
	m.mounted = true
	m.sort()
	return nil
}

// InsertRow appends a row. It takes its sorted position on the next Redraw.
func (m *Model) InsertRow(row grid.RowView) {
	if _, ok := m.rows[row.Index]; !ok {
		m.order = append(m.order, row.Index)
	}
	m.rows[row.Index] = row
}

func (m *Model) RemoveRow(index int) {
	if _, ok := m.rows[index]; !ok {
		return
	}
	delete(m.rows, index)
	m.order = slices.DeleteFunc(m.order, func(i int) bool { return i == index })
}

func (m *Model) UpdateRow(row grid.RowView) {
	if _, ok := m.rows[row.Index]; ok {
		m.rows[row.Index] = row
	}
}

func (m *Model) UpdateCell(index int, code string, cell grid.CellView) {
	row, ok := m.rows[index]
	if !ok {
		return
	}
	cells := maps.Clone(row.Cells)
	if cells == nil {
		cells = make(map[string]grid.CellView)
	}
	cells[code] = cell
	row.Cells = cells
	m.rows[index] = row
}

func (m *Model) SetColumnVisible(code string, visible bool) {
	for i := range m.cols {
		if m.cols[i].Code == code {
			m.cols[i].Hidden = !visible
			return
		}
	}
}

func (m *Model) SetOrdering(ord grid.Ordering) { m.ord = ord }

func (m *Model) Redraw() {
	m.redraws++
	m.sort()
}

func (m *Model) RowAt(position int) (int, bool) {
	if position < 0 || position >= len(m.order) {
		return 0, false
	}
	return m.order[position], true
}

func (m *Model) Order() []int { return slices.Clone(m.order) }

// Mounted reports whether Mount has run.
func (m *Model) Mounted() bool { return m.mounted }

// Redraws counts Redraw calls.
func (m *Model) Redraws() int { return m.redraws }

// Ordering returns the ordering last set.
func (m *Model) Ordering() grid.Ordering { return m.ord }

// Columns returns every column, internal ones included.
func (m *Model) Columns() []grid.Column { return slices.Clone(m.cols) }

// VisibleColumns returns the columns a user sees, in declaration order.
func (m *Model) VisibleColumns() []grid.Column {
	var cols []grid.Column
	for _, c := range m.cols {
		if !c.Hidden && !c.Internal {
			cols = append(cols, c)
		}
	}
	return cols
}

// Row returns the stored view of the row at grid index.
func (m *Model) Row(index int) (grid.RowView, bool) {
	r, ok := m.rows[index]
	return r, ok
}

// Rows returns the rows in display order.
func (m *Model) Rows() []grid.RowView {
	rows := make([]grid.RowView, 0, len(m.order))
	for _, i := range m.order {
		rows = append(rows, m.rows[i])
	}
	return rows
}

// Filter returns the rows, in display order, whose visible searchable
// cells contain query (case-insensitive). An empty query matches every row.
func (m *Model) Filter(query string) []grid.RowView {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return m.Rows()
	}
	var rows []grid.RowView
	for _, r := range m.Rows() {
		for _, c := range m.cols {
			if !c.Searchable || c.Hidden {
				continue
			}
			if strings.Contains(strings.ToLower(r.Cells[c.Code].Search), query) {
				rows = append(rows, r)
				break
			}
		}
	}
	return rows
}

// Snapshot is a copy of what a model shows, safe to read after the model
// has moved on.
type Snapshot struct {
	Columns  []grid.Column // Visible columns only
	Rows     []grid.RowView
	Ordering grid.Ordering
}

// Snapshot copies the visible columns and the rows matching query.
func (m *Model) Snapshot(query string) Snapshot {
	return Snapshot{
		Columns:  m.VisibleColumns(),
		Rows:     m.Filter(query),
		Ordering: grid.Ordering{Fixed: slices.Clone(m.ord.Fixed), Keys: slices.Clone(m.ord.Keys)},
	}
}

// Direction returns the direction a visible column is sorted in, if it is
// one of the ordering's keys.
func (s Snapshot) Direction(code string) (grid.Direction, bool) {
	for _, k := range s.Ordering.Keys {
		if k.Field == code {
			return k.Dir, true
		}
	}
	return "", false
}

// sort orders rows by the fixed keys, then the keys, then grid index.
func (m *Model) sort() {
	keys := append(slices.Clone(m.ord.Fixed), m.ord.Keys...)
	slices.SortStableFunc(m.order, func(a, b int) int {
		ra, rb := m.rows[a], m.rows[b]
		for _, k := range keys {
			c := Compare(ra.Cells[k.Field].Order, rb.Cells[k.Field].Order)
			if k.Dir == grid.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a, b)
	})
}

// Compare orders two cell order values. Nil sorts first; numbers, times,
// booleans and strings compare by kind; mixed kinds compare as text.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
