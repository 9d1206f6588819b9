package grid

import "github.com/JonMunkholm/gridview/internal/form"

// PinColumn is the code of the hidden column that carries the pin flag.
// It is 1 for pinned rows and 0 otherwise and is always the primary,
// descending fixed sort.
const PinColumn = "_pinned"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps "desc" (any case) to Desc and everything else to Asc.
func ParseDirection(s string) Direction {
	if s == "desc" || s == "DESC" || s == "Desc" {
		return Desc
	}
	return Asc
}

// SortKey orders rows by one column.
type SortKey struct {
	Field string    `json:"field" yaml:"field"`
	Dir   Direction `json:"dir" yaml:"dir"`
}

// Ordering is what a rendering adapter sorts by: Fixed keys first, then Keys.
type Ordering struct {
	Fixed []SortKey
	Keys  []SortKey
}

// Column is the adapter's view of a field.
type Column struct {
	Code       string
	Title      string
	Input      form.InputType
	Hidden     bool
	Orderable  bool
	Searchable bool
	Internal   bool // Engine-owned column, never shown
}

// CellView is everything an adapter needs to draw one cell.
type CellView struct {
	Text      string
	Order     any
	Search    string
	Href      string
	Clickable bool
	Input     *form.View // Non-nil while the cell is in edit mode
	Invalid   string     // Inline validation message
}

// ButtonView is a rendered row button.
type ButtonView struct {
	Code    string
	Label   string
	Icon    string
	Class   string
	Enabled bool
}

// RowView is everything an adapter needs to draw one row.
type RowView struct {
	Index      int
	ID         string
	Selected   bool
	Selectable bool
	Editing    bool
	Pinned     bool
	Cells      map[string]CellView
	Buttons    []ButtonView
}

// Adapter is the narrow surface through which the grid drives a tabular
// rendering library. Rows are identified by their stable grid index.
type Adapter interface {
	Mount(cols []Column, rows []RowView, ord Ordering) error
	InsertRow(row RowView)
	RemoveRow(index int)
	UpdateRow(row RowView)
	UpdateCell(index int, code string, cell CellView)
	SetColumnVisible(code string, visible bool)
	SetOrdering(ord Ordering)
	// Redraw re-sorts and repaints.
	Redraw()
	// RowAt returns the grid index of the row at a display position.
	RowAt(position int) (int, bool)
	// Order returns grid indices in display order.
	Order() []int
}

// NopAdapter renders nothing. Order always reports nil, so callers fall
// back to index order.
type NopAdapter struct{}

func (NopAdapter) Mount([]Column, []RowView, Ordering) error { return nil }
func (NopAdapter) InsertRow(RowView)                         {}
func (NopAdapter) RemoveRow(int)                             {}
func (NopAdapter) UpdateRow(RowView)                         {}
func (NopAdapter) UpdateCell(int, string, CellView)          {}
func (NopAdapter) SetColumnVisible(string, bool)             {}
func (NopAdapter) SetOrdering(Ordering)                      {}
func (NopAdapter) Redraw()                                   {}
func (NopAdapter) RowAt(int) (int, bool)                     { return 0, false }
func (NopAdapter) Order() []int                              { return nil }
