package grid

import (
	"context"
	"fmt"
)

// RowActionSpec declares an action applied to the current selection.
type RowActionSpec[R any] struct {
	Code    string
	Label   string
	Icon    string
	Hidden  bool
	Handler Handler[R]
}

// RowButtonSpec declares a button rendered in every row.
type RowButtonSpec[R any] struct {
	Code    string
	Label   Prop[R, string]
	Icon    Prop[R, string]
	Class   Prop[R, string]
	Enabled Prop[R, bool] // Unset means enabled
	Handler Handler[R]
}

// TableActionSpec declares an action applied to the whole table.
type TableActionSpec[R any] struct {
	Code    string
	Label   string
	Icon    string
	Handler Handler[R]
}

// ActionView is a rendered toolbar action.
type ActionView struct {
	Code    string
	Label   string
	Icon    string
	Enabled bool
}

// Toolbar lists the table-level controls in declaration order.
type Toolbar struct {
	RowActions   []ActionView
	TableActions []ActionView
}

// runFunc is the activation body shared by all action kinds.
type runFunc[R any] func(ctx context.Context, items []R) Outcome

func handlerRun[R any](h Handler[R]) runFunc[R] {
	return func(ctx context.Context, items []R) Outcome {
		return runHandler(ctx, h, items)
	}
}

// RowAction is bound to the current selection.
type RowAction[R any] struct {
	table  *Datatable[R]
	code   string
	label  string
	icon   string
	hidden bool
	run    runFunc[R]
}

func (a *RowAction[R]) Code() string  { return a.code }
func (a *RowAction[R]) Label() string { return a.label }

// Enabled reports whether the action can run: it is visible and at least
// one record is selected.
func (a *RowAction[R]) Enabled() bool {
	return !a.hidden && len(a.table.selected) > 0
}

// Activate runs the action against a snapshot of the selection.
func (a *RowAction[R]) Activate(ctx context.Context) Outcome {
	if !a.Enabled() {
		return a.table.notify(ctx, a.code, Failed("no items selected"))
	}
	return a.table.notify(ctx, a.code, a.run(ctx, a.table.SelectedItems()))
}

func (a *RowAction[R]) view() ActionView {
	return ActionView{Code: a.code, Label: a.label, Icon: a.icon, Enabled: a.Enabled()}
}

// RowButton is bound to a single record.
type RowButton[R any] struct {
	table   *Datatable[R]
	code    string
	label   Prop[R, string]
	icon    Prop[R, string]
	class   Prop[R, string]
	enabled Prop[R, bool]
	run     runFunc[R]
}

func (b *RowButton[R]) Code() string { return b.code }

// Enabled evaluates the button's enablement for item.
func (b *RowButton[R]) Enabled(item R) bool { return b.enabled.GetOr(item, true) }

// View evaluates every attribute for item.
func (b *RowButton[R]) View(item R) ButtonView {
	return ButtonView{
		Code:    b.code,
		Label:   b.label.GetOr(item, b.code),
		Icon:    b.icon.Get(item),
		Class:   b.class.Get(item),
		Enabled: b.Enabled(item),
	}
}

// Activate runs the button's handler for item.
func (b *RowButton[R]) Activate(ctx context.Context, item R) Outcome {
	if !b.Enabled(item) {
		return b.table.notify(ctx, b.code, Failed("action not available for this item"))
	}
	return b.table.notify(ctx, b.code, b.run(ctx, []R{item}))
}

// TableAction is bound to the whole table.
type TableAction[R any] struct {
	table *Datatable[R]
	code  string
	label string
	icon  string
	run   runFunc[R]
}

func (a *TableAction[R]) Code() string { return a.code }

// Activate runs the action against every record in the table.
func (a *TableAction[R]) Activate(ctx context.Context) Outcome {
	return a.table.notify(ctx, a.code, a.run(ctx, a.table.Items()))
}

func (a *TableAction[R]) view() ActionView {
	return ActionView{Code: a.code, Label: a.label, Icon: a.icon, Enabled: true}
}

// actionCodes tracks the codes declared per action kind, including
// actions whose installation is still deferred until the grid is ready.
type actionCodes map[string]struct{}

func (c actionCodes) claim(op, kind, code string) error {
	if code == "" {
		return configErrorf(op, "%s has no code", kind)
	}
	if _, dup := c[code]; dup {
		return configErrorf(op, "duplicate %s code %q", kind, code)
	}
	c[code] = struct{}{}
	return nil
}

func newRowAction[R any](t *Datatable[R], spec RowActionSpec[R]) (*RowAction[R], error) {
	if spec.Handler == nil {
		return nil, configErrorf("AddRowAction", "row action %q has no handler", spec.Code)
	}
	label := spec.Label
	if label == "" {
		label = spec.Code
	}
	return &RowAction[R]{
		table:  t,
		code:   spec.Code,
		label:  label,
		icon:   spec.Icon,
		hidden: spec.Hidden,
		run:    handlerRun(spec.Handler),
	}, nil
}

func newRowButton[R any](t *Datatable[R], spec RowButtonSpec[R]) (*RowButton[R], error) {
	if spec.Handler == nil {
		return nil, configErrorf("New", "row button %q has no handler", spec.Code)
	}
	return &RowButton[R]{
		table:   t,
		code:    spec.Code,
		label:   spec.Label,
		icon:    spec.Icon,
		class:   spec.Class,
		enabled: spec.Enabled,
		run:     handlerRun(spec.Handler),
	}, nil
}

func newTableAction[R any](t *Datatable[R], spec TableActionSpec[R]) (*TableAction[R], error) {
	if spec.Handler == nil {
		return nil, configErrorf("AddTableAction", "table action %q has no handler", spec.Code)
	}
	label := spec.Label
	if label == "" {
		label = spec.Code
	}
	return &TableAction[R]{
		table: t,
		code:  spec.Code,
		label: label,
		icon:  spec.Icon,
		run:   handlerRun(spec.Handler),
	}, nil
}

// DeleteActionCode is the code of the built-in delete row action.
const DeleteActionCode = "delete"

// newDeleteAction builds the built-in row action that batch-deletes the
// selection. It is installed through the internal constructor only.
func newDeleteAction[R any](t *Datatable[R]) *RowAction[R] {
	return &RowAction[R]{
		table: t,
		code:  DeleteActionCode,
		label: "Delete",
		icon:  "trash",
		run: func(ctx context.Context, items []R) Outcome {
			res, err := t.DeleteItems(ctx, items)
			if err != nil {
				return Failed(err.Error())
			}
			out := Outcome{Success: res.Success, Message: res.Message}
			if !res.Success {
				out.Report = res.Report
			}
			return out
		},
	}
}

func (t *Datatable[R]) notify(ctx context.Context, source string, out Outcome) Outcome {
	if t.notifier != nil {
		t.notifier.Notify(ctx, Notice{Grid: t.code, Source: source, Outcome: out})
	}
	return out
}

// RowAction returns a row action by code.
func (t *Datatable[R]) RowAction(code string) (*RowAction[R], bool) {
	for _, a := range t.rowActions {
		if a.code == code {
			return a, true
		}
	}
	return nil, false
}

// RowButton returns a row button by code.
func (t *Datatable[R]) RowButton(code string) (*RowButton[R], bool) {
	for _, b := range t.rowButtons {
		if b.code == code {
			return b, true
		}
	}
	return nil, false
}

// TableAction returns a table action by code.
func (t *Datatable[R]) TableAction(code string) (*TableAction[R], bool) {
	for _, a := range t.tableActions {
		if a.code == code {
			return a, true
		}
	}
	return nil, false
}

// AddRowAction declares a row action. Codes are checked immediately;
// the action is installed once the grid is ready.
func (t *Datatable[R]) AddRowAction(spec RowActionSpec[R]) error {
	a, err := newRowAction(t, spec)
	if err != nil {
		return err
	}
	if err := t.rowActionCodes.claim("AddRowAction", "row action", spec.Code); err != nil {
		return err
	}
	t.whenReady(func() {
		t.rowActions = append(t.rowActions, a)
		t.adapter.Redraw()
	})
	return nil
}

// AddTableAction declares a table action, installed once the grid is ready.
func (t *Datatable[R]) AddTableAction(spec TableActionSpec[R]) error {
	a, err := newTableAction(t, spec)
	if err != nil {
		return err
	}
	if err := t.tableActionCodes.claim("AddTableAction", "table action", spec.Code); err != nil {
		return err
	}
	t.whenReady(func() {
		t.tableActions = append(t.tableActions, a)
		t.adapter.Redraw()
	})
	return nil
}

// Toolbar returns the current table-level controls.
func (t *Datatable[R]) Toolbar() Toolbar {
	var tb Toolbar
	for _, a := range t.rowActions {
		if a.hidden {
			continue
		}
		tb.RowActions = append(tb.RowActions, a.view())
	}
	for _, a := range t.tableActions {
		tb.TableActions = append(tb.TableActions, a.view())
	}
	return tb
}

func (t *Datatable[R]) buttonViews(item R) []ButtonView {
	if len(t.rowButtons) == 0 {
		return nil
	}
	views := make([]ButtonView, len(t.rowButtons))
	for i, b := range t.rowButtons {
		views[i] = b.View(item)
	}
	return views
}

func unknownAction(op, kind, code string) error {
	return &Error{Kind: KindDispatch, Op: op, Err: fmt.Errorf("%w: %s %q", ErrUnknownAction, kind, code)}
}
