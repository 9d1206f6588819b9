// Package form builds the edit inputs grids place inside cells.
//
// A grid never reads or writes an input directly; it asks a [Library] for a
// [Widget] described by a [Spec] and then talks to it through get/set/validate
// and dispose. The default library keeps the typed text in memory, which is
// all a server-rendered or terminal front end needs.
package form

import (
	"errors"
	"fmt"
	"strings"
)

// InputType is the kind of value an input edits.
type InputType int

const (
	Text InputType = iota
	Enum
	Date
	Numeric
	Bool
)

// String returns a human-readable name for an input type.
func (t InputType) String() string {
	switch t {
	case Text:
		return "text"
	case Enum:
		return "enum"
	case Date:
		return "date"
	case Numeric:
		return "numeric"
	case Bool:
		return "bool"
	default:
		return "value"
	}
}

// ParseInputType maps a schema type name to an InputType.
func ParseInputType(name string) (InputType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "string":
		return Text, nil
	case "enum", "select":
		return Enum, nil
	case "date":
		return Date, nil
	case "numeric", "number", "decimal":
		return Numeric, nil
	case "bool", "boolean":
		return Bool, nil
	default:
		return Text, fmt.Errorf("unknown input type %q", name)
	}
}

// Option is one entry of an enum input's option list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Spec describes the input a grid wants for one cell.
type Spec struct {
	Name     string
	Label    string
	Type     InputType
	Options  []Option
	Required bool
}

// View is the render-ready state of a widget.
type View struct {
	Name    string
	Label   string
	Type    InputType
	Text    string
	Options []Option
	Error   string
}

// ErrDisposed is returned when a disposed widget is written to.
var ErrDisposed = errors.New("widget disposed")

// ValidationError describes why an input's text is not acceptable.
type ValidationError struct {
	Field   string // Input name
	Value   string // The rejected text
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Widget is a live edit input.
type Widget interface {
	// Value returns the staged value, typed by the widget's input type when the
	// text parses and the raw text otherwise. Empty text yields nil.
	Value() any
	Text() string
	// SetText replaces the staged text, as if the user typed it.
	SetText(text string) error
	// Set stages a typed value.
	Set(v any) error
	Validate() error
	View() View
	Dispose()
	Disposed() bool
}

// Library creates widgets.
type Library interface {
	New(spec Spec, initial any) (Widget, error)
}

// LibraryFunc adapts a function to the Library interface.
type LibraryFunc func(spec Spec, initial any) (Widget, error)

// New calls f.
func (f LibraryFunc) New(spec Spec, initial any) (Widget, error) {
	return f(spec, initial)
}

// Default is the in-memory widget library.
var Default Library = LibraryFunc(NewInput)

// Input is the default Widget implementation.
type Input struct {
	spec     Spec
	text     string
	disposed bool
}

// NewInput returns an Input pre-filled with initial.
func NewInput(spec Spec, initial any) (Widget, error) {
	if spec.Name == "" {
		return nil, errors.New("input spec has no name")
	}
	return &Input{spec: spec, text: FormatValue(initial)}, nil
}

func (in *Input) Text() string { return in.text }

func (in *Input) SetText(text string) error {
	if in.disposed {
		return ErrDisposed
	}
	in.text = text
	return nil
}

func (in *Input) Set(v any) error {
	return in.SetText(FormatValue(v))
}

func (in *Input) Value() any {
	return ParseValue(in.spec, in.text)
}

func (in *Input) Validate() error {
	return ValidateText(in.spec, in.text)
}

func (in *Input) View() View {
	v := View{
		Name:    in.spec.Name,
		Label:   in.spec.Label,
		Type:    in.spec.Type,
		Text:    in.text,
		Options: in.spec.Options,
	}
	if err := in.Validate(); err != nil {
		v.Error = err.Error()
	}
	return v
}

func (in *Input) Dispose() { in.disposed = true }

func (in *Input) Disposed() bool { return in.disposed }

// ParseValue converts input text to the value type of spec.
func ParseValue(spec Spec, text string) any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	switch spec.Type {
	case Date:
		if t, ok := ParseDate(text); ok {
			return t
		}
	case Numeric:
		if f, ok := ParseNumeric(text); ok {
			return f
		}
	case Bool:
		if b, ok := ParseBool(text); ok {
			return b
		}
	case Enum:
		if opt, ok := matchOption(spec.Options, text); ok {
			return opt.Value
		}
	}
	return text
}

// ValidateText checks input text against spec.
func ValidateText(spec Spec, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		if spec.Required {
			return &ValidationError{Field: spec.Name, Message: "required field is empty"}
		}
		return nil
	}

	invalid := func(msg string) error {
		return &ValidationError{Field: spec.Name, Value: text, Message: msg}
	}

	switch spec.Type {
	case Numeric:
		if _, ok := ParseNumeric(text); !ok {
			return invalid("invalid number format")
		}
	case Date:
		if _, ok := ParseDate(text); !ok {
			return invalid("invalid date format (use YYYY-MM-DD or similar)")
		}
	case Bool:
		if _, ok := ParseBool(text); !ok {
			return invalid("must be yes/no, true/false, or 1/0")
		}
	case Enum:
		if len(spec.Options) > 0 {
			if _, ok := matchOption(spec.Options, text); !ok {
				values := make([]string, len(spec.Options))
				for i, o := range spec.Options {
					values[i] = o.Value
				}
				return invalid("value must be one of: " + strings.Join(values, ", "))
			}
		}
	}
	return nil
}

// matchOption finds an option by value or label, case-insensitively.
func matchOption(opts []Option, text string) (Option, bool) {
	for _, o := range opts {
		if strings.EqualFold(o.Value, text) || strings.EqualFold(o.Label, text) {
			return o, true
		}
	}
	return Option{}, false
}

// OptionLabel returns the label for value, or value itself when no option matches.
func OptionLabel(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			if o.Label != "" {
				return o.Label
			}
			return o.Value
		}
	}
	return value
}
