// Package grid is the data-grid engine: it keeps a record collection, the
// rows and cells bound to those records, and a rendering library's view of
// them consistent while records are added, removed, selected, pinned,
// edited and deleted in batches.
//
// A Datatable is not safe for concurrent use. Every method must be called
// from the goroutine that owns the grid; the only work the engine itself
// runs concurrently is fetching option lists during Build and the
// per-record deletes of DeleteItems, both joined before any state changes.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/google/uuid"

	"github.com/JonMunkholm/gridview/internal/form"
)

// State is a step of the build pipeline.
type State int

const (
	Unbuilt State = iota
	AwaitingFieldOptions
	Rendering
	Ready
	BuildFailed
)

func (s State) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case AwaitingFieldOptions:
		return "awaiting-field-options"
	case Rendering:
		return "rendering"
	case Ready:
		return "ready"
	case BuildFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Params configures a Datatable.
type Params[R any] struct {
	Code  string
	Items []R

	Fields       []FieldSpec[R]
	RowActions   []RowActionSpec[R]
	RowButtons   []RowButtonSpec[R]
	TableActions []TableActionSpec[R]

	// DeleteAction installs the built-in row action that batch-deletes
	// the selection through Delete.
	DeleteAction bool

	// Order is the initial ordering. Empty means the first orderable
	// field, ascending.
	Order []SortKey

	// Equal identifies records. It defaults to == and is required when
	// R is not comparable.
	Equal func(a, b R) bool

	// Label names a record in messages and delete reports.
	Label func(item R) string

	// Delete removes one record from its backing store. The default
	// always succeeds.
	Delete DeleteFunc[R]

	Selectable    func(item R) bool
	Clickable     *bool
	ClickableFunc func(item R) bool
	RecordLink    func(item R) string

	Adapter       Adapter
	ReportAdapter func() Adapter
	Forms         form.Library
	Notifier      Notifier
	Logger        *slog.Logger

	// DeleteLimit bounds concurrent deletes in DeleteItems. Zero means
	// one goroutine per record.
	DeleteLimit int
}

// ItemOptions tune a single item operation.
type ItemOptions[R any] struct {
	NoRedraw bool
	// Equal overrides the grid's equality for resolving the target.
	Equal func(a, b R) bool
}

func itemOptions[R any](opts []ItemOptions[R]) ItemOptions[R] {
	if len(opts) == 0 {
		return ItemOptions[R]{}
	}
	return opts[0]
}

// Datatable is the grid controller.
type Datatable[R any] struct {
	code   string
	logger *slog.Logger

	equal      func(a, b R) bool
	label      func(R) string
	deleteFn   DeleteFunc[R]
	deleteMax  int
	selectable func(R) bool

	clickable     *bool
	clickableFunc func(R) bool
	recordLink    func(R) string

	fields       []*Field[R]
	fieldsByCode map[string]*Field[R]
	pinField     *Field[R]

	slots     slots[R]
	selected  []int // Selection, in the order records were selected
	pinned    map[int]struct{}
	pinOrder  []int
	cells     map[*Row[R]]map[string]*Cell[R]
	order     []SortKey
	events    bus[R]
	forms     form.Library
	notifier  Notifier
	adapter   Adapter
	reportFor func() Adapter

	rowActions       []*RowAction[R]
	rowButtons       []*RowButton[R]
	tableActions     []*TableAction[R]
	rowActionCodes   actionCodes
	tableActionCodes actionCodes

	state   State
	pending []func()
	ready   chan struct{}
}

// New validates p and constructs an unbuilt grid. Every configuration
// error is reported here, wrapping ErrConfig.
func New[R any](p Params[R]) (*Datatable[R], error) {
	const op = "New"

	t := &Datatable[R]{
		code:             p.Code,
		equal:            p.Equal,
		label:            p.Label,
		deleteFn:         p.Delete,
		deleteMax:        p.DeleteLimit,
		selectable:       p.Selectable,
		clickable:        p.Clickable,
		clickableFunc:    p.ClickableFunc,
		recordLink:       p.RecordLink,
		fieldsByCode:     make(map[string]*Field[R]),
		pinned:           make(map[int]struct{}),
		cells:            make(map[*Row[R]]map[string]*Cell[R]),
		forms:            p.Forms,
		notifier:         p.Notifier,
		adapter:          p.Adapter,
		reportFor:        p.ReportAdapter,
		rowActionCodes:   make(actionCodes),
		tableActionCodes: make(actionCodes),
		ready:            make(chan struct{}),
	}

	if t.equal == nil {
		if !reflect.TypeFor[R]().Comparable() {
			return nil, configErrorf(op, "record type %v is not comparable and no Equal func was given", reflect.TypeFor[R]())
		}
		t.equal = func(a, b R) bool { return any(a) == any(b) }
	}
	if t.deleteFn == nil {
		t.deleteFn = alwaysDeleted[R]
	}
	if t.deleteMax < 0 {
		return nil, configErrorf(op, "negative delete limit %d", t.deleteMax)
	}
	if t.forms == nil {
		t.forms = form.Default
	}
	if t.adapter == nil {
		t.adapter = NopAdapter{}
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t.logger = logger.With("grid", t.code)

	if len(p.Fields) == 0 {
		return nil, configErrorf(op, "grid has no fields")
	}
	for _, spec := range p.Fields {
		f, err := newField(t, spec)
		if err != nil {
			return nil, err
		}
		if _, dup := t.fieldsByCode[f.code]; dup {
			return nil, configErrorf(op, "duplicate field code %q", f.code)
		}
		t.fields = append(t.fields, f)
		t.fieldsByCode[f.code] = f
	}
	t.pinField = newPinField(t)

	for _, k := range p.Order {
		if err := t.checkSortKey(k); err != nil {
			return nil, configErrorf(op, "%v", err)
		}
	}
	t.order = slices.Clone(p.Order)

	if p.DeleteAction {
		if err := t.rowActionCodes.claim(op, "row action", DeleteActionCode); err != nil {
			return nil, err
		}
		t.rowActions = append(t.rowActions, newDeleteAction(t))
	}
	for _, spec := range p.RowActions {
		if err := t.rowActionCodes.claim(op, "row action", spec.Code); err != nil {
			return nil, err
		}
		a, err := newRowAction(t, spec)
		if err != nil {
			return nil, err
		}
		t.rowActions = append(t.rowActions, a)
	}
	buttonCodes := make(actionCodes)
	for _, spec := range p.RowButtons {
		if err := buttonCodes.claim(op, "row button", spec.Code); err != nil {
			return nil, err
		}
		b, err := newRowButton(t, spec)
		if err != nil {
			return nil, err
		}
		t.rowButtons = append(t.rowButtons, b)
	}
	for _, spec := range p.TableActions {
		if err := t.tableActionCodes.claim(op, "table action", spec.Code); err != nil {
			return nil, err
		}
		a, err := newTableAction(t, spec)
		if err != nil {
			return nil, err
		}
		t.tableActions = append(t.tableActions, a)
	}

	for _, item := range p.Items {
		if _, dup := t.slots.find(item, t.equal); dup {
			return nil, configErrorf(op, "record %s listed twice", t.labelOf(item))
		}
		t.insert(item, false)
	}

	return t, nil
}

// Open constructs and builds a grid.
func Open[R any](ctx context.Context, p Params[R]) (*Datatable[R], error) {
	t, err := New(p)
	if err != nil {
		return nil, err
	}
	if err := t.Build(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Code returns the grid's code.
func (t *Datatable[R]) Code() string { return t.code }

// State returns the current build state.
func (t *Datatable[R]) State() State { return t.state }

// Ready returns a channel closed when the grid reaches Ready.
func (t *Datatable[R]) Ready() <-chan struct{} { return t.ready }

// Adapter returns the rendering adapter.
func (t *Datatable[R]) Adapter() Adapter { return t.adapter }

// Subscribe registers fn for events of kind and returns a function that
// removes the subscription.
func (t *Datatable[R]) Subscribe(kind EventKind, fn Listener[R]) func() {
	return t.events.subscribe(kind, fn)
}

// whenReady runs fn now if the grid is Ready, or queues it until then.
func (t *Datatable[R]) whenReady(fn func()) {
	if t.state == Ready {
		fn()
		return
	}
	t.pending = append(t.pending, fn)
}

// Redraw asks the adapter to re-sort and repaint.
func (t *Datatable[R]) Redraw() {
	t.whenReady(t.adapter.Redraw)
}

// insert appends a slot and its Row.
func (t *Datatable[R]) insert(item R, draft bool) *Row[R] {
	row := &Row[R]{
		table: t,
		index: t.slots.reserve(),
		id:    uuid.New(),
		draft: draft,
	}
	t.slots.add(item, row)
	return row
}

// AddItem appends item and returns its row.
func (t *Datatable[R]) AddItem(item R) (*Row[R], error) {
	row, err := t.add("AddItem", item, false)
	if err != nil {
		return nil, err
	}
	t.events.publish(&Event[R]{Kind: ItemCreated, Items: []R{item}})
	return row, nil
}

// CreateItem appends item as a draft with an input open in every editable
// or creatable field. ItemCreated fires when the draft is saved.
func (t *Datatable[R]) CreateItem(item R) (*Row[R], error) {
	row, err := t.add("CreateItem", item, true)
	if err != nil {
		return nil, err
	}
	if err := row.EnableEditMode(); err != nil {
		t.remove(row, true, false)
		return nil, err
	}
	return row, nil
}

func (t *Datatable[R]) add(op string, item R, draft bool) (*Row[R], error) {
	if _, dup := t.slots.find(item, t.equal); dup {
		return nil, &Error{Kind: KindDuplicate, Op: op, Label: t.labelOf(item), Item: item, Err: ErrDuplicateItem}
	}
	row := t.insert(item, draft)
	t.pinField.invalidate(row.index)
	if t.state == Ready {
		t.adapter.InsertRow(t.rowView(row))
		t.adapter.Redraw()
	}
	return row, nil
}

// UpdateItem replaces the record bound to item's row with next and
// repaints the row.
func (t *Datatable[R]) UpdateItem(item, next R, opts ...ItemOptions[R]) error {
	o := itemOptions(opts)
	row, err := t.resolve("UpdateItem", item, o.Equal)
	if err != nil {
		return err
	}
	sl, _ := t.slots.get(row.index)
	sl.item = next
	t.invalidateRow(row)
	if t.state == Ready {
		t.adapter.UpdateRow(t.rowView(row))
		if !o.NoRedraw {
			t.adapter.Redraw()
		}
	}
	t.events.publish(&Event[R]{Kind: ItemEdited, Items: []R{next}})
	return nil
}

// RemoveItem removes item from the grid.
func (t *Datatable[R]) RemoveItem(item R, opts ...ItemOptions[R]) error {
	o := itemOptions(opts)
	row, err := t.resolve("RemoveItem", item, o.Equal)
	if err != nil {
		return err
	}
	t.remove(row, !o.NoRedraw, true)
	return nil
}

// RemoveIndex removes the record at grid index i.
func (t *Datatable[R]) RemoveIndex(i int, opts ...ItemOptions[R]) error {
	sl, ok := t.slots.get(i)
	if !ok {
		return &Error{Kind: KindNotFound, Op: "RemoveIndex", Label: fmt.Sprintf("index %d", i), Err: ErrItemNotFound}
	}
	t.remove(sl.row, !itemOptions(opts).NoRedraw, true)
	return nil
}

// RemoveRow removes the record bound to row.
func (t *Datatable[R]) RemoveRow(row *Row[R], opts ...ItemOptions[R]) error {
	if row == nil || row.table != t || row.removed {
		return &Error{Kind: KindNotFound, Op: "RemoveRow", Err: ErrItemNotFound}
	}
	t.remove(row, !itemOptions(opts).NoRedraw, true)
	return nil
}

// remove tears down row and tombstones its slot. The index is never
// handed out again.
func (t *Datatable[R]) remove(row *Row[R], redraw, emit bool) {
	item := row.item()
	row.removed = true
	row.editing = false
	if row.selected {
		row.setSelected(false)
	}
	if t.state == Ready {
		t.adapter.RemoveRow(row.index)
	}
	t.unpin(row.index)
	for _, f := range t.fields {
		f.forget(row.index)
	}
	t.pinField.forget(row.index)
	t.clearCells(row)
	t.slots.tombstone(row.index)

	if redraw && t.state == Ready {
		t.adapter.Redraw()
	}
	if emit {
		t.events.publish(&Event[R]{Kind: ItemDeleted, Items: []R{item}})
	}
}

// SaveItem validates every open input of item's row. When all pass, the
// staged values are written back to the record, the inputs close and
// ItemEdited fires (ItemCreated for a draft). A failed validation is
// returned, not raised. When a write fails the record keeps its old
// values and the inputs stay open.
func (t *Datatable[R]) SaveItem(ctx context.Context, item R) (Validation, error) {
	row, err := t.resolve("SaveItem", item, nil)
	if err != nil {
		return Validation{}, err
	}
	if !row.editing {
		return Validation{}, &Error{Kind: KindNotEditable, Op: "SaveItem", Label: t.labelOf(item), Item: item, Err: ErrNotEditing}
	}

	var open []*Cell[R]
	result := validOK
	for _, f := range t.fields {
		c := t.cachedCell(row, f)
		if c == nil || c.widget == nil {
			continue
		}
		open = append(open, c)
		if v := f.Validate(item); !v.Success && result.Success {
			result = Validation{Message: f.title + ": " + v.Message}
		}
	}
	if !result.Success {
		return result, nil
	}

	// Writes are all or nothing: a failed setter restores the fields
	// already written.
	before := make([]any, len(open))
	for i, c := range open {
		before[i] = c.field.read(item)
	}
	for i, c := range open {
		if err := c.field.edit.write(item, c.widget.Value()); err != nil {
			t.logger.WarnContext(ctx, "write back failed", "field", c.field.code, "item", t.labelOf(item), "error", err)
			for j := i - 1; j >= 0; j-- {
				if rerr := open[j].field.edit.write(item, before[j]); rerr != nil {
					t.logger.ErrorContext(ctx, "restore after failed write", "field", open[j].field.code, "item", t.labelOf(item), "error", rerr)
				}
			}
			t.invalidateRow(row)
			v := Validation{Message: err.Error()}
			c.validation = &v
			c.Refresh()
			return Validation{Message: c.field.title + ": " + err.Error()}, nil
		}
	}

	draft := row.draft
	row.draft = false
	for _, c := range open {
		c.field.disableEditMode(row)
	}
	row.editing = false
	t.invalidateRow(row)
	if t.state == Ready {
		t.adapter.UpdateRow(t.rowView(row))
		t.adapter.Redraw()
	}

	kind := ItemEdited
	if draft {
		kind = ItemCreated
	}
	t.events.publish(&Event[R]{Kind: kind, Items: []R{item}})
	return validOK, nil
}

// EnableEditMode opens inputs in every editable cell of item's row.
func (t *Datatable[R]) EnableEditMode(item R) error {
	row, err := t.resolve("EnableEditMode", item, nil)
	if err != nil {
		return err
	}
	return row.EnableEditMode()
}

// DisableEditMode closes every input of item's row. A draft row is
// discarded.
func (t *Datatable[R]) DisableEditMode(item R) error {
	row, err := t.resolve("DisableEditMode", item, nil)
	if err != nil {
		return err
	}
	if row.draft {
		t.remove(row, true, false)
		return nil
	}
	row.DisableEditMode()
	return nil
}

// FixRow pins item to the top of the table. Pinning a pinned row is a no-op.
func (t *Datatable[R]) FixRow(item R, opts ...ItemOptions[R]) error {
	o := itemOptions(opts)
	row, err := t.resolve("FixRow", item, o.Equal)
	if err != nil {
		return err
	}
	if row.Pinned() {
		return nil
	}
	t.pinned[row.index] = struct{}{}
	t.pinOrder = append(t.pinOrder, row.index)
	t.repin(row, o.NoRedraw)
	return nil
}

// ReleaseRow unpins item. Releasing a row that is not pinned is a no-op.
func (t *Datatable[R]) ReleaseRow(item R, opts ...ItemOptions[R]) error {
	o := itemOptions(opts)
	row, err := t.resolve("ReleaseRow", item, o.Equal)
	if err != nil {
		return err
	}
	if !row.Pinned() {
		return nil
	}
	t.unpin(row.index)
	t.repin(row, o.NoRedraw)
	return nil
}

func (t *Datatable[R]) unpin(index int) {
	if _, ok := t.pinned[index]; !ok {
		return
	}
	delete(t.pinned, index)
	t.pinOrder = slices.DeleteFunc(t.pinOrder, func(i int) bool { return i == index })
}

// repin marks the pin column's order value dirty and repaints.
func (t *Datatable[R]) repin(row *Row[R], noRedraw bool) {
	t.pinField.invalidate(row.index)
	if t.state != Ready {
		return
	}
	t.adapter.UpdateCell(row.index, PinColumn, t.pinField.cellView(row))
	t.adapter.UpdateRow(t.rowView(row))
	if !noRedraw {
		t.adapter.Redraw()
	}
}

// FixedItems returns the pinned records in the order they were pinned.
func (t *Datatable[R]) FixedItems() []R {
	items := make([]R, 0, len(t.pinOrder))
	for _, i := range t.pinOrder {
		if sl, ok := t.slots.get(i); ok {
			items = append(items, sl.item)
		}
	}
	return items
}

// SelectItem selects item.
func (t *Datatable[R]) SelectItem(item R) error {
	row, err := t.resolve("SelectItem", item, nil)
	if err != nil {
		return err
	}
	return row.Select()
}

// UnselectItem unselects item.
func (t *Datatable[R]) UnselectItem(item R) error {
	row, err := t.resolve("UnselectItem", item, nil)
	if err != nil {
		return err
	}
	return row.Unselect()
}

// SelectAllItems selects every row, skipping rows the Selectable predicate
// rejects unless force is set.
func (t *Datatable[R]) SelectAllItems(force bool) {
	var changed []R
	t.slots.each(func(_ int, sl *slot[R]) bool {
		if sl.row.selected {
			return true
		}
		if !force && !sl.row.IsSelectable() {
			return true
		}
		sl.row.setSelected(true)
		changed = append(changed, sl.item)
		return true
	})
	t.events.publish(&Event[R]{Kind: SelectAll, Items: changed})
}

// UnselectAllItems clears the selection.
func (t *Datatable[R]) UnselectAllItems() {
	items := t.SelectedItems()
	for _, i := range slices.Clone(t.selected) {
		if sl, ok := t.slots.get(i); ok {
			sl.row.setSelected(false)
		}
	}
	t.selected = t.selected[:0]
	t.events.publish(&Event[R]{Kind: UnselectAll, Items: items})
}

// SelectedItems returns the selection in the order it was made.
func (t *Datatable[R]) SelectedItems() []R {
	items := make([]R, 0, len(t.selected))
	for _, i := range t.selected {
		if sl, ok := t.slots.get(i); ok {
			items = append(items, sl.item)
		}
	}
	return items
}

// checkSortKey verifies k names an orderable column.
func (t *Datatable[R]) checkSortKey(k SortKey) error {
	f, ok := t.fieldsByCode[k.Field]
	if !ok {
		return fmt.Errorf("%w: order by %q", ErrUnknownField, k.Field)
	}
	if f.order == nil {
		return fmt.Errorf("field %q is not orderable", k.Field)
	}
	if k.Dir != Asc && k.Dir != Desc {
		return fmt.Errorf("field %q: bad direction %q", k.Field, k.Dir)
	}
	return nil
}

// Ordering returns what the adapter sorts by. The pin column always comes
// first, descending; then the explicit order, or the first orderable field
// ascending.
func (t *Datatable[R]) Ordering() Ordering {
	ord := Ordering{Fixed: []SortKey{{Field: PinColumn, Dir: Desc}}}
	if len(t.order) > 0 {
		ord.Keys = slices.Clone(t.order)
		return ord
	}
	for _, f := range t.fields {
		if f.order != nil {
			ord.Keys = []SortKey{{Field: f.code, Dir: Asc}}
			break
		}
	}
	return ord
}

// SetOrder replaces the ordering. An empty list restores the default.
func (t *Datatable[R]) SetOrder(keys []SortKey) error {
	for _, k := range keys {
		if err := t.checkSortKey(k); err != nil {
			return &Error{Kind: KindNotFound, Op: "SetOrder", Field: k.Field, Err: err}
		}
	}
	t.order = slices.Clone(keys)
	if t.state == Ready {
		t.adapter.SetOrdering(t.Ordering())
		t.adapter.Redraw()
	}
	t.events.publish(&Event[R]{Kind: OrderChanged, Items: t.VisibleItems()})
	return nil
}

// SetColumnVisible shows or hides a column.
func (t *Datatable[R]) SetColumnVisible(code string, visible bool) error {
	f, ok := t.fieldsByCode[code]
	if !ok {
		return &Error{Kind: KindNotFound, Op: "SetColumnVisible", Field: code, Err: ErrUnknownField}
	}
	f.hidden = !visible
	if t.state == Ready {
		t.adapter.SetColumnVisible(code, visible)
	}
	return nil
}

// Field returns a field by code. The hidden pin column is not a field.
func (t *Datatable[R]) Field(code string) (*Field[R], bool) {
	f, ok := t.fieldsByCode[code]
	return f, ok
}

// Fields returns the fields in declaration order.
func (t *Datatable[R]) Fields() []*Field[R] { return slices.Clone(t.fields) }

// Len returns the number of records in the grid.
func (t *Datatable[R]) Len() int { return t.slots.len() }

// Items returns the records in index order.
func (t *Datatable[R]) Items() []R {
	items := make([]R, 0, t.slots.len())
	t.slots.each(func(_ int, sl *slot[R]) bool {
		items = append(items, sl.item)
		return true
	})
	return items
}

// VisibleItems returns the records in display order. Adapters that do not
// track order fall back to index order.
func (t *Datatable[R]) VisibleItems() []R {
	order := t.adapter.Order()
	if order == nil || t.state != Ready {
		return t.Items()
	}
	items := make([]R, 0, len(order))
	for _, i := range order {
		if sl, ok := t.slots.get(i); ok {
			items = append(items, sl.item)
		}
	}
	return items
}

// Index returns item's stable grid index.
func (t *Datatable[R]) Index(item R) (int, bool) {
	return t.slots.find(item, t.equal)
}

// Row returns the row at grid index i.
func (t *Datatable[R]) Row(i int) (*Row[R], bool) {
	sl, ok := t.slots.get(i)
	if !ok {
		return nil, false
	}
	return sl.row, true
}

// RowOf returns item's row.
func (t *Datatable[R]) RowOf(item R) (*Row[R], bool) {
	i, ok := t.Index(item)
	if !ok {
		return nil, false
	}
	return t.Row(i)
}

// Cell returns the memoized cell of item in the named column.
func (t *Datatable[R]) Cell(item R, code string) (*Cell[R], error) {
	row, err := t.resolve("Cell", item, nil)
	if err != nil {
		return nil, err
	}
	return row.Cell(code)
}

// Label returns item's display label.
func (t *Datatable[R]) Label(item R) string { return t.labelOf(item) }

// resolve finds item's row using equal, or the grid's equality when nil.
func (t *Datatable[R]) resolve(op string, item R, equal func(a, b R) bool) (*Row[R], error) {
	if equal == nil {
		equal = t.equal
	}
	i, ok := t.slots.find(item, equal)
	if !ok {
		return nil, t.notFound(op, item)
	}
	sl, _ := t.slots.get(i)
	return sl.row, nil
}

func (t *Datatable[R]) notFound(op string, item R) error {
	return &Error{Kind: KindNotFound, Op: op, Label: t.labelOf(item), Item: item, Err: ErrItemNotFound}
}

func (t *Datatable[R]) labelOf(item R) string {
	if t.label != nil {
		return t.label(item)
	}
	if s, ok := any(item).(fmt.Stringer); ok {
		return s.String()
	}
	if len(t.fields) > 0 {
		return t.fields[0].Text(item)
	}
	return fmt.Sprint(item)
}

// invalidateRow drops the cached display values of every column of row.
func (t *Datatable[R]) invalidateRow(row *Row[R]) {
	for _, f := range t.fields {
		f.invalidate(row.index)
	}
	t.pinField.invalidate(row.index)
}

func (t *Datatable[R]) columns() []Column {
	cols := make([]Column, 0, len(t.fields)+1)
	for _, f := range t.fields {
		cols = append(cols, f.column())
	}
	return append(cols, t.pinField.column())
}

func (t *Datatable[R]) rowView(row *Row[R]) RowView {
	item := row.item()
	v := RowView{
		Index:      row.index,
		ID:         row.id.String(),
		Selected:   row.selected,
		Selectable: row.IsSelectable(),
		Editing:    row.editing,
		Pinned:     row.Pinned(),
		Cells:      make(map[string]CellView, len(t.fields)+1),
		Buttons:    t.buttonViews(item),
	}
	for _, f := range t.fields {
		v.Cells[f.code] = f.cellView(row)
	}
	v.Cells[PinColumn] = t.pinField.cellView(row)
	return v
}

func (t *Datatable[R]) rowViews() []RowView {
	views := make([]RowView, 0, t.slots.len())
	t.slots.each(func(_ int, sl *slot[R]) bool {
		views = append(views, t.rowView(sl.row))
		return true
	})
	return views
}
