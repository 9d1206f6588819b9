package grid

import (
	"context"
	"fmt"
)

// Role is the role attribute of the element a click landed on.
type Role string

const (
	RoleCheckbox    Role = "checkbox"
	RoleSelectAll   Role = "select-all"
	RoleRowButton   Role = "row-button"
	RoleRowAction   Role = "row-action"
	RoleTableAction Role = "table-action"
	RoleFieldClick  Role = "field-click"
	RoleFieldFollow Role = "field-follow"
)

// Target describes a click delegated from the table root.
type Target struct {
	Role   Role   `json:"role"`
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Action string `json:"action,omitempty"`
}

// HandleClick routes a click by role. It runs synchronously; the returned
// Outcome is what the user should see. Errors are reserved for targets
// that do not exist in this grid.
func (t *Datatable[R]) HandleClick(ctx context.Context, target Target) (Outcome, error) {
	const op = "HandleClick"
	if t.state != Ready {
		return Outcome{}, &Error{Kind: KindDispatch, Op: op, Err: fmt.Errorf("%w (state %s)", ErrNotReady, t.state)}
	}

	switch target.Role {
	case RoleCheckbox:
		row, err := t.clickedRow(op, target)
		if err != nil {
			return Outcome{}, err
		}
		if row.selected {
			err = row.Unselect()
		} else {
			err = row.Select()
		}
		if err != nil {
			return Failed(err.Error()), nil
		}
		return Outcome{Success: true}, nil

	case RoleSelectAll:
		if t.allSelected() {
			t.UnselectAllItems()
		} else {
			t.SelectAllItems(false)
		}
		return Outcome{Success: true}, nil

	case RoleRowButton:
		row, err := t.clickedRow(op, target)
		if err != nil {
			return Outcome{}, err
		}
		b, ok := t.RowButton(target.Action)
		if !ok {
			return Outcome{}, unknownAction(op, "row button", target.Action)
		}
		return b.Activate(ctx, row.item()), nil

	case RoleRowAction:
		a, ok := t.RowAction(target.Action)
		if !ok {
			return Outcome{}, unknownAction(op, "row action", target.Action)
		}
		return a.Activate(ctx), nil

	case RoleTableAction:
		a, ok := t.TableAction(target.Action)
		if !ok {
			return Outcome{}, unknownAction(op, "table action", target.Action)
		}
		return a.Activate(ctx), nil

	case RoleFieldClick, RoleFieldFollow:
		row, err := t.clickedRow(op, target)
		if err != nil {
			return Outcome{}, err
		}
		f, ok := t.fieldsByCode[target.Field]
		if !ok {
			return Outcome{}, &Error{Kind: KindDispatch, Op: op, Field: target.Field, Err: ErrUnknownField}
		}
		item := row.item()
		if target.Role == RoleFieldFollow {
			return t.follow(ctx, f, item), nil
		}
		return t.fieldClick(ctx, f, item), nil

	default:
		return Outcome{}, &Error{Kind: KindDispatch, Op: op, Err: fmt.Errorf("%w: %q", ErrUnknownRole, target.Role)}
	}
}

func (t *Datatable[R]) clickedRow(op string, target Target) (*Row[R], error) {
	row, ok := t.Row(target.Row)
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: op, Label: fmt.Sprintf("row %d", target.Row), Err: ErrItemNotFound}
	}
	return row, nil
}

// allSelected reports whether every selectable row is selected.
func (t *Datatable[R]) allSelected() bool {
	all, some := true, false
	t.slots.each(func(_ int, sl *slot[R]) bool {
		if !sl.row.IsSelectable() {
			return true
		}
		some = true
		if !sl.row.selected {
			all = false
			return false
		}
		return true
	})
	return all && some
}

// fieldClick runs the field's click handler, or follows its link when it
// has no handler.
func (t *Datatable[R]) fieldClick(ctx context.Context, f *Field[R], item R) Outcome {
	if !f.IsClickable(item) {
		return Failed(fmt.Sprintf("%s is not clickable", f.title))
	}
	if f.onClick != nil {
		return t.notify(ctx, f.code, runHandler(ctx, f.onClick, []R{item}))
	}
	return t.follow(ctx, f, item)
}

func (t *Datatable[R]) follow(ctx context.Context, f *Field[R], item R) Outcome {
	href := f.Href(item)
	if href == "" {
		return t.notify(ctx, f.code, Failed(fmt.Sprintf("%s has no link", f.title)))
	}
	return Outcome{Success: true, Href: href}
}
