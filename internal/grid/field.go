package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/JonMunkholm/gridview/internal/form"
)

// Attributes is implemented by records whose values can be read by name.
// Fields declared with Attr (or neither Attr nor Value) read through it.
type Attributes interface {
	Attr(name string) any
}

// AttributeSetter is implemented by records whose values can be written by
// name. Editable attribute fields write back through it.
type AttributeSetter interface {
	SetAttr(name string, v any) error
}

// OptionsFunc fetches a field's option list. It runs once, while the grid
// is being built.
type OptionsFunc func(ctx context.Context) ([]form.Option, error)

// FieldSpec declares one column.
type FieldSpec[R any] struct {
	Code  string // Unique within the grid; must not start with "_"
	Title string

	// Value extracts the committed value. When nil the field reads the
	// named attribute Attr (defaulting to Code) through Attributes.
	Value func(item R) any
	Attr  string

	// Format renders a committed value. Defaults to the option label for
	// fields with options and to form.FormatValue otherwise.
	Format func(v any, item R) string

	Order    func(item R) any    // Defaults to the formatted text
	Search   func(item R) string // Defaults to the formatted text
	NoOrder  bool
	NoSearch bool
	Hidden   bool

	Editable  bool
	Creatable bool // Editable only while the row is a draft
	Required  bool
	Input     form.InputType
	Options   OptionsFunc

	// Set writes a value back to the record. When nil, attribute fields
	// write through AttributeSetter.
	Set      func(item R, v any) error
	Validate func(v any, item R) error

	Link          func(item R) string
	LinkToRecord  bool // Link to the grid's RecordLink
	Clickable     *bool
	ClickableFunc func(item R) bool
	OnClick       Handler[R]

	// API marks values delivered as raw JSON; FromJSON decodes them.
	API      bool
	FromJSON func(raw []byte) (any, error)
}

// Validation is the outcome of validating a cell. It is displayed inline
// and never returned as an error.
type Validation struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

var validOK = Validation{Success: true}

// Capability interfaces. A field exposes each one only when it was
// declared with the matching configuration.
type (
	Orderable[R any] interface {
		OrderValue(item R) any
	}
	Linkable[R any] interface {
		Href(item R) string
	}
	Clickable[R any] interface {
		IsClickable(item R) bool
	}
	Editable[R any] interface {
		EnableEditMode(item R) error
		DisableEditMode(item R) error
		SetInput(item R, text string) error
		Validate(item R) Validation
	}
)

type orderCap[R any] struct {
	key func(R) any
}

func (c *orderCap[R]) OrderValue(item R) any { return c.key(item) }

type linkCap[R any] struct {
	href func(R) string
}

func (c *linkCap[R]) Href(item R) string { return c.href(item) }

// clickCap resolves clickability through a chain of levels; the first
// level that has an opinion wins.
type clickCap[R any] struct {
	chain []func(R) (bool, bool)
}

func (c *clickCap[R]) IsClickable(item R) bool {
	for _, level := range c.chain {
		if v, ok := level(item); ok {
			return v
		}
	}
	return false
}

type editCap[R any] struct {
	f         *Field[R]
	editable  bool
	creatable bool
	write     func(R, any) error
	rule      func(any, R) error
}

func (c *editCap[R]) EnableEditMode(item R) error        { return c.f.EnableEditMode(item) }
func (c *editCap[R]) DisableEditMode(item R) error       { return c.f.DisableEditMode(item) }
func (c *editCap[R]) SetInput(item R, text string) error { return c.f.SetInput(item, text) }
func (c *editCap[R]) Validate(item R) Validation         { return c.f.Validate(item) }

// allowed reports whether row may host an input for this field.
func (c *editCap[R]) allowed(row *Row[R]) bool {
	return c.editable || (c.creatable && row.draft)
}

// Field is one column of a Datatable.
type Field[R any] struct {
	table    *Datatable[R]
	code     string
	title    string
	hidden   bool
	internal bool
	input    form.InputType
	required bool

	read     func(R) any
	readAt   func(index int, item R) any // Internal columns read by index
	format   func(any, R) string
	search   func(R) string
	onClick  Handler[R]
	optionFn OptionsFunc
	options  []form.Option

	order *orderCap[R]
	edit  *editCap[R]
	link  *linkCap[R]
	click *clickCap[R]

	// Per-index caches, dropped by forget.
	textCache  map[int]string
	orderCache map[int]any
}

var (
	attributesType      = reflect.TypeOf((*Attributes)(nil)).Elem()
	attributeSetterType = reflect.TypeOf((*AttributeSetter)(nil)).Elem()
)

func implements[R any](iface reflect.Type) bool {
	t := reflect.TypeOf((*R)(nil)).Elem()
	return t.Implements(iface)
}

// newField validates spec and builds the field's capabilities.
func newField[R any](t *Datatable[R], spec FieldSpec[R]) (*Field[R], error) {
	const op = "New"
	code := strings.TrimSpace(spec.Code)
	if code == "" {
		return nil, configErrorf(op, "field has no code")
	}
	if strings.HasPrefix(code, "_") {
		return nil, configErrorf(op, "field code %q is reserved", code)
	}
	if spec.FromJSON != nil && !spec.API {
		return nil, configErrorf(op, "field %q declares FromJSON but is not an API field", code)
	}
	if spec.Link != nil && spec.LinkToRecord {
		return nil, configErrorf(op, "field %q declares both Link and LinkToRecord", code)
	}
	if spec.LinkToRecord && t.recordLink == nil {
		return nil, configErrorf(op, "field %q links to its record but the grid has no RecordLink", code)
	}

	f := &Field[R]{
		table:      t,
		code:       code,
		title:      spec.Title,
		hidden:     spec.Hidden,
		input:      spec.Input,
		required:   spec.Required,
		onClick:    spec.OnClick,
		optionFn:   spec.Options,
		textCache:  make(map[int]string),
		orderCache: make(map[int]any),
	}
	if f.title == "" {
		f.title = code
	}

	attr := spec.Attr
	switch {
	case spec.Value != nil:
		f.read = spec.Value
	case implements[R](attributesType):
		if attr == "" {
			attr = code
		}
		f.read = func(item R) any { return any(item).(Attributes).Attr(attr) }
	default:
		return nil, configErrorf(op, "field %q has no Value func and records do not implement Attributes", code)
	}
	if spec.API {
		f.read = decodeJSONValue(f.read, spec.FromJSON)
	}

	f.format = spec.Format
	if f.format == nil {
		f.format = func(v any, _ R) string {
			if s, ok := v.(string); ok && len(f.options) > 0 {
				return form.OptionLabel(f.options, s)
			}
			return form.FormatValue(v)
		}
	}

	switch {
	case spec.NoSearch:
	case spec.Search != nil:
		f.search = spec.Search
	default:
		f.search = f.Text
	}

	if !spec.NoOrder {
		key := spec.Order
		if key == nil {
			key = func(item R) any { return f.Text(item) }
		}
		f.order = &orderCap[R]{key: key}
	}

	if spec.Editable || spec.Creatable {
		write := spec.Set
		if write == nil && spec.Value == nil && implements[R](attributeSetterType) {
			write = func(item R, v any) error { return any(item).(AttributeSetter).SetAttr(attr, v) }
		}
		if write == nil {
			return nil, configErrorf(op, "field %q is editable but has no way to write values back", code)
		}
		f.edit = &editCap[R]{
			f:         f,
			editable:  spec.Editable,
			creatable: spec.Creatable,
			write:     write,
			rule:      spec.Validate,
		}
	}

	switch {
	case spec.Link != nil:
		f.link = &linkCap[R]{href: spec.Link}
	case spec.LinkToRecord:
		f.link = &linkCap[R]{href: t.recordLink}
	}

	f.click = &clickCap[R]{chain: []func(R) (bool, bool){
		func(R) (bool, bool) {
			if spec.Clickable == nil {
				return false, false
			}
			return *spec.Clickable, true
		},
		func(item R) (bool, bool) {
			if spec.ClickableFunc == nil {
				return false, false
			}
			return spec.ClickableFunc(item), true
		},
		func(R) (bool, bool) {
			if t.clickable == nil {
				return false, false
			}
			return *t.clickable, true
		},
		func(item R) (bool, bool) {
			if t.clickableFunc == nil {
				return false, false
			}
			return t.clickableFunc(item), true
		},
	}}

	return f, nil
}

// newPinField builds the engine-owned hidden column behind row pinning.
func newPinField[R any](t *Datatable[R]) *Field[R] {
	f := &Field[R]{
		table:      t,
		code:       PinColumn,
		title:      PinColumn,
		hidden:     true,
		internal:   true,
		input:      form.Numeric,
		textCache:  make(map[int]string),
		orderCache: make(map[int]any),
	}
	f.readAt = func(index int, _ R) any {
		if _, ok := t.pinned[index]; ok {
			return 1
		}
		return 0
	}
	f.read = func(item R) any {
		if i, ok := t.Index(item); ok {
			return f.readAt(i, item)
		}
		return 0
	}
	f.format = func(v any, _ R) string { return form.FormatValue(v) }
	f.search = func(R) string { return "" }
	f.order = &orderCap[R]{key: f.read}
	f.click = &clickCap[R]{}
	return f
}

func decodeJSONValue[R any](read func(R) any, fromJSON func([]byte) (any, error)) func(R) any {
	return func(item R) any {
		v := read(item)
		var raw []byte
		switch x := v.(type) {
		case []byte:
			raw = x
		case json.RawMessage:
			raw = x
		default:
			return v
		}
		if fromJSON != nil {
			decoded, err := fromJSON(raw)
			if err != nil {
				return nil
			}
			return decoded
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil
		}
		return decoded
	}
}

// Code returns the field's unique code.
func (f *Field[R]) Code() string { return f.code }

// Title returns the column heading.
func (f *Field[R]) Title() string { return f.title }

// Hidden reports whether the column is currently hidden.
func (f *Field[R]) Hidden() bool { return f.hidden }

// Options returns the option list loaded while building the grid.
func (f *Field[R]) Options() []form.Option { return f.options }

// Orderable returns the field's ordering capability.
func (f *Field[R]) Orderable() (Orderable[R], bool) {
	if f.order == nil {
		return nil, false
	}
	return f.order, true
}

// Editable returns the field's edit capability.
func (f *Field[R]) Editable() (Editable[R], bool) {
	if f.edit == nil {
		return nil, false
	}
	return f.edit, true
}

// Linkable returns the field's link capability.
func (f *Field[R]) Linkable() (Linkable[R], bool) {
	if f.link == nil {
		return nil, false
	}
	return f.link, true
}

// Clickable returns the field's click capability. Every field has one;
// it may resolve to false for every record.
func (f *Field[R]) Clickable() Clickable[R] { return f.click }

// Value returns the committed value of item, or with useEdited the value
// staged in the item's open input when there is one.
func (f *Field[R]) Value(item R, useEdited bool) any {
	if useEdited {
		if c := f.lookupCell(item); c != nil && c.widget != nil {
			return c.widget.Value()
		}
	}
	return f.read(item)
}

func (f *Field[R]) valueAt(index int, item R) any {
	if f.readAt != nil {
		return f.readAt(index, item)
	}
	return f.read(item)
}

// Text formats the committed value of item.
func (f *Field[R]) Text(item R) string {
	return f.format(f.read(item), item)
}

// OrderValue returns the value item sorts by in this column.
func (f *Field[R]) OrderValue(item R) any {
	if f.order == nil {
		return f.Text(item)
	}
	return f.order.OrderValue(item)
}

// SearchValue returns the text item is matched against when searching,
// empty for fields excluded from search.
func (f *Field[R]) SearchValue(item R) string {
	if f.search == nil {
		return ""
	}
	return f.search(item)
}

// IsClickable resolves, in order: the field's flag, the field's function,
// the grid's flag, the grid's function. Without any of them it is false.
func (f *Field[R]) IsClickable(item R) bool { return f.click.IsClickable(item) }

// Href returns the link target for item, or "" when the field has no link.
func (f *Field[R]) Href(item R) string {
	if f.link == nil {
		return ""
	}
	return f.link.Href(item)
}

func (f *Field[R]) textAt(index int, item R) string {
	if s, ok := f.textCache[index]; ok {
		return s
	}
	s := f.format(f.valueAt(index, item), item)
	f.textCache[index] = s
	return s
}

func (f *Field[R]) orderAt(index int, item R) any {
	if v, ok := f.orderCache[index]; ok {
		return v
	}
	var v any
	switch {
	case f.readAt != nil:
		v = f.readAt(index, item)
	case f.order != nil:
		v = f.order.OrderValue(item)
	default:
		v = f.textAt(index, item)
	}
	f.orderCache[index] = v
	return v
}

// invalidate marks the cached text and order value at index dirty.
func (f *Field[R]) invalidate(index int) {
	delete(f.textCache, index)
	delete(f.orderCache, index)
}

// forget drops everything the field remembers about index.
func (f *Field[R]) forget(index int) { f.invalidate(index) }

func (f *Field[R]) lookupCell(item R) *Cell[R] {
	row, ok := f.table.RowOf(item)
	if !ok {
		return nil
	}
	return f.table.cachedCell(row, f)
}

func (f *Field[R]) inputSpec() form.Spec {
	return form.Spec{
		Name:     f.code,
		Label:    f.title,
		Type:     f.input,
		Options:  f.options,
		Required: f.required,
	}
}

// EnableEditMode replaces item's cell content with an input pre-filled
// with the committed value. It is a no-op when the input is already open.
func (f *Field[R]) EnableEditMode(item R) error {
	row, err := f.table.resolve("EnableEditMode", item, nil)
	if err != nil {
		return err
	}
	return f.enableEditMode(row)
}

func (f *Field[R]) enableEditMode(row *Row[R]) error {
	if f.edit == nil || !f.edit.allowed(row) {
		return &Error{
			Kind:  KindNotEditable,
			Op:    "EnableEditMode",
			Field: f.code,
			Label: f.table.labelOf(row.item()),
			Item:  row.item(),
			Err:   ErrNotEditable,
		}
	}
	c := f.table.cell(row, f)
	if c.widget != nil {
		return nil
	}
	w, err := f.table.forms.New(f.inputSpec(), f.read(row.item()))
	if err != nil {
		return fmt.Errorf("edit %s: %w", f.code, err)
	}
	c.widget = w
	c.validation = nil
	row.editing = true
	row.refresh()
	return nil
}

// DisableEditMode closes item's input and restores the formatted
// committed value. Staged text is discarded.
func (f *Field[R]) DisableEditMode(item R) error {
	row, err := f.table.resolve("DisableEditMode", item, nil)
	if err != nil {
		return err
	}
	f.disableEditMode(row)
	return nil
}

func (f *Field[R]) disableEditMode(row *Row[R]) {
	c := f.table.cachedCell(row, f)
	if c == nil || c.widget == nil {
		return
	}
	c.widget.Dispose()
	c.widget = nil
	c.validation = nil
	f.invalidate(row.index)
	row.editing = row.hasOpenInput()
	row.refresh()
}

// SetInput stages text in item's open input, as if the user typed it.
func (f *Field[R]) SetInput(item R, text string) error {
	c := f.lookupCell(item)
	if c == nil || c.widget == nil {
		return &Error{Kind: KindNotEditable, Op: "SetInput", Field: f.code, Label: f.table.labelOf(item), Item: item, Err: ErrNotEditing}
	}
	if err := c.widget.SetText(text); err != nil {
		return fmt.Errorf("set input %s: %w", f.code, err)
	}
	return nil
}

// Validate checks the value staged for item (or the committed value when
// no input is open) and records the result on the cell for display.
// Fields that are not editable, or have no rule, always pass.
func (f *Field[R]) Validate(item R) Validation {
	if f.edit == nil {
		return validOK
	}
	row, ok := f.table.RowOf(item)
	if !ok {
		return validOK
	}
	c := f.table.cell(row, f)
	v := f.validateCell(c)
	c.validation = &v
	c.Refresh()
	return v
}

func (f *Field[R]) validateCell(c *Cell[R]) Validation {
	item := c.row.item()
	value := f.read(item)
	if c.widget != nil {
		if err := c.widget.Validate(); err != nil {
			return Validation{Success: false, Message: err.Error()}
		}
		value = c.widget.Value()
	}
	if f.edit.rule == nil {
		return validOK
	}
	if err := f.edit.rule(value, item); err != nil {
		return Validation{Success: false, Message: err.Error()}
	}
	return validOK
}

// column describes the field to the rendering adapter.
func (f *Field[R]) column() Column {
	return Column{
		Code:       f.code,
		Title:      f.title,
		Input:      f.input,
		Hidden:     f.hidden,
		Orderable:  f.order != nil,
		Searchable: f.search != nil && !f.internal,
		Internal:   f.internal,
	}
}

// cellView renders the cell of f in row.
func (f *Field[R]) cellView(row *Row[R]) CellView {
	item := row.item()
	cv := CellView{
		Text:  f.textAt(row.index, item),
		Order: f.orderAt(row.index, item),
	}
	if f.internal {
		return cv
	}
	if f.search != nil {
		cv.Search = f.search(item)
	}
	cv.Href = f.Href(item)
	cv.Clickable = f.IsClickable(item)
	if c := f.table.cachedCell(row, f); c != nil {
		if c.widget != nil {
			view := c.widget.View()
			cv.Input = &view
		}
		if c.validation != nil && !c.validation.Success {
			cv.Invalid = c.validation.Message
		}
	}
	return cv
}
