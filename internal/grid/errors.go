package grid

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error the engine returns wraps one of these so
// callers can branch with errors.Is.
var (
	// ErrConfig marks a grid, field or action declared inconsistently.
	// These are detected while constructing the grid, never later.
	ErrConfig = errors.New("invalid grid configuration")

	// ErrItemNotFound is returned when a record, index or row does not belong
	// to the grid. It signals API misuse rather than a data problem.
	ErrItemNotFound = errors.New("item not found")

	ErrDuplicateItem = errors.New("item already in grid")
	ErrNotEditable   = errors.New("field is not editable")
	ErrNotEditing    = errors.New("cell is not in edit mode")
	ErrNotSelectable = errors.New("item is not selectable")
	ErrUnknownField  = errors.New("unknown field")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownRole   = errors.New("unknown click role")
	ErrAlreadyBuilt  = errors.New("grid already built")
	ErrNotReady      = errors.New("grid is not ready")
	ErrOptionsFailed = errors.New("field options failed to load")
	ErrRenderFailed  = errors.New("rendering adapter failed to mount")
)

// ErrorKind is a stable, machine-readable classification of an Error.
type ErrorKind string

const (
	KindConfig      ErrorKind = "config"
	KindNotFound    ErrorKind = "not_found"
	KindDuplicate   ErrorKind = "duplicate"
	KindNotEditable ErrorKind = "not_editable"
	KindSelection   ErrorKind = "selection"
	KindDispatch    ErrorKind = "dispatch"
	KindBuild       ErrorKind = "build"
)

// Error carries enough context to render a useful message without
// knowing the record's shape.
type Error struct {
	Kind  ErrorKind
	Op    string // Operation that failed, e.g. "RemoveItem"
	Field string // Field code, if any
	Label string // Human-readable label of the offending record, if any
	Item  any    // The offending record, if any
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Label != "" {
		msg += fmt.Sprintf(" (%s)", e.Label)
	}
	if msg == "" {
		return e.Err.Error()
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// configErrorf builds a KindConfig error wrapping ErrConfig.
func configErrorf(op, format string, args ...any) error {
	return &Error{
		Kind: KindConfig,
		Op:   op,
		Err:  fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...)),
	}
}
