package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Outcome is the canonical result shape of anything the grid runs on the
// caller's behalf: row deletions, action handlers, link follows.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Href    string `json:"href,omitempty"`

	// Report is set when a batch delete partially failed.
	Report *Datatable[*ReportEntry] `json:"-"`
}

// Succeeded returns a successful Outcome with an optional message.
func Succeeded(msg string) Outcome { return Outcome{Success: true, Message: msg} }

// Failed returns a failed Outcome.
func Failed(msg string) Outcome { return Outcome{Success: false, Message: msg} }

// NormalizeOutcome converts the legacy result shapes to an Outcome.
//
//	nil        success
//	bool       success flag, no message
//	string     success with message
//	error      failure with the error text
//	Outcome    as is
//	*Outcome   dereferenced (nil is success)
//
// Anything else is treated as success.
func NormalizeOutcome(v any) Outcome {
	switch x := v.(type) {
	case nil:
		return Outcome{Success: true}
	case Outcome:
		return x
	case *Outcome:
		if x == nil {
			return Outcome{Success: true}
		}
		return *x
	case bool:
		return Outcome{Success: x}
	case string:
		return Outcome{Success: true, Message: x}
	case error:
		return Outcome{Success: false, Message: x.Error()}
	default:
		return Outcome{Success: true}
	}
}

// Handler runs an action against the records it applies to. The returned
// message (or error) is shown to the user, never propagated.
type Handler[R any] func(ctx context.Context, items []R) (string, error)

// runHandler invokes h and turns its result, or a panic, into an Outcome.
func runHandler[R any](ctx context.Context, h Handler[R], items []R) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Sprintf("action failed: %v", r))
		}
	}()
	msg, err := h(ctx, items)
	if err != nil {
		return Failed(err.Error())
	}
	return Succeeded(msg)
}

// DeleteFunc deletes one record and reports how it went.
type DeleteFunc[R any] func(ctx context.Context, item R) Outcome

// DeleteWith adapts an error-returning delete to a DeleteFunc.
func DeleteWith[R any](fn func(ctx context.Context, item R) error) DeleteFunc[R] {
	return func(ctx context.Context, item R) Outcome {
		if err := fn(ctx, item); err != nil {
			return Failed(err.Error())
		}
		return Outcome{Success: true}
	}
}

// DeleteAny adapts a delete returning one of the legacy result shapes
// accepted by NormalizeOutcome.
func DeleteAny[R any](fn func(ctx context.Context, item R) any) DeleteFunc[R] {
	return func(ctx context.Context, item R) Outcome {
		return NormalizeOutcome(fn(ctx, item))
	}
}

func alwaysDeleted[R any](context.Context, R) Outcome { return Outcome{Success: true} }

// Notice is an Outcome addressed to the user.
type Notice struct {
	Grid    string
	Source  string // Action or field code that produced the outcome
	Outcome Outcome
}

// Notifier displays notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at info level, or warn level when it failed.
func (l LogNotifier) Notify(ctx context.Context, n Notice) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if !n.Outcome.Success {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "grid notice",
		"grid", n.Grid,
		"source", n.Source,
		"success", n.Outcome.Success,
		"message", n.Outcome.Message,
	)
}

// outcomeError converts a failed Outcome to an error, for logging.
func outcomeError(o Outcome) error {
	if o.Success {
		return nil
	}
	if o.Message == "" {
		return errors.New("failed")
	}
	return errors.New(o.Message)
}
