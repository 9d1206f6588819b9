package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/web/templates"
)

// ErrorResponse is the JSON body of every failed API call. Error repeats
// Message for clients that only read one field.
type ErrorResponse struct {
	Error string `json:"error"`
	core.UserMessage
}

// requestError is a malformed request. Its message is shown to the client
// after sanitizing.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// statusFor maps an error to the HTTP status it is answered with.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownGrid), errors.Is(err, grid.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrNotEditing):
		return http.StatusConflict
	case errors.Is(err, grid.ErrNotEditable),
		errors.Is(err, grid.ErrNotSelectable),
		errors.Is(err, grid.ErrUnknownField),
		errors.Is(err, grid.ErrUnknownAction),
		errors.Is(err, grid.ErrUnknownRole),
		errors.Is(err, grid.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyBatches), errors.Is(err, grid.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// userMessage maps err for display. Request errors carry their own text.
func userMessage(err error) core.UserMessage {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		msg := core.Message("REQ004")
		msg.Message = sanitizeErrorMessage(reqErr.msg)
		return msg
	}
	return core.MapError(err)
}

// respondError logs err with the request id and answers with its user
// message: an alert fragment for the grid script, JSON for API clients,
// plain text otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := userMessage(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	switch {
	case isPartial(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		writeMessage(w, status, msg)
	default:
		http.Error(w, msg.String(), status)
	}
}

// writeMessage writes msg as an ErrorResponse.
func writeMessage(w http.ResponseWriter, status int, msg core.UserMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg.Message, UserMessage: msg})
}

// isPartial reports whether the grid script asked for an HTML fragment.
func isPartial(r *http.Request) bool {
	return r.Header.Get(partialHeader) == "true"
}

// wantsJSON is true under /api/ and for clients that send or accept JSON.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// sanitizeErrorMessage trims a message for clients: the first line only,
// no driver internals, bounded length.
func sanitizeErrorMessage(message string) string {
	message, _, _ = strings.Cut(message, "\n")
	lower := strings.ToLower(message)
	if strings.Contains(lower, "sqlstate") || strings.Contains(lower, "pgx") || strings.Contains(lower, "dial tcp") {
		return "internal error"
	}
	if len(message) > 200 {
		message = message[:200]
	}
	return message
}
