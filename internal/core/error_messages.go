package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/store"
)

// UserMessage is what a person sees when an operation fails. Code is quoted
// to support, who look up the technical error in the logs.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// String formats the message as "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// Error codes by family:
//
//	GRD  grid operations (missing rows, editing, selection, configuration)
//	FRM  edit input that does not fit its column
//	DB   database constraints and availability
//	REQ  request lifecycle (canceled, timed out, busy, malformed)
//	RATE rate limiting
//	ERR000 nothing matched; check the logs
var catalog = map[string]UserMessage{
	"GRD001": {"The row is no longer in this grid", "Reload the grid to see the current rows", ""},
	"GRD002": {"This row cannot be edited", "Only highlighted columns accept changes", ""},
	"GRD003": {"The row is not being edited", "Click Edit before changing values", ""},
	"GRD004": {"This row cannot be selected", "Some rows are locked against bulk actions", ""},
	"GRD005": {"The grid is still loading", "Please wait a moment and try again", ""},
	"GRD006": {"The clicked element is not part of this grid", "Reload the page and try again", ""},
	"GRD007": {"Choices for a column could not be loaded", "Please try again in a few moments", ""},
	"GRD008": {"The row is already in the grid", "Reload the grid to see the current rows", ""},
	"GRD009": {"The grid is misconfigured", "Contact support with this code", ""},
	"GRD010": {"No grid with this name is configured", "Pick a grid from the start page", ""},

	"FRM001": {"Invalid date format", "Use YYYY-MM-DD, MM/DD/YYYY, or Jan 15, 2024", ""},
	"FRM002": {"Invalid number format", "Remove currency symbols and use standard decimal format", ""},
	"FRM003": {"Required field is empty", "Fill in every required column before saving", ""},
	"FRM004": {"Value is not in the allowed list", "Pick one of the offered choices", ""},

	"DB001": {"A record with this ID already exists", "Change the key value or edit the existing record", ""},
	"DB002": {"This value must be unique but already exists", "Choose a value no other row uses", ""},
	"DB003": {"Other records still refer to this row", "Remove or reassign the dependent records first", ""},
	"DB004": {"Unable to connect to database", "Please try again in a few moments", ""},
	"DB005": {"Database connection was interrupted", "Please try again", ""},
	"DB006": {"Operation timed out", "Please try again later", ""},
	"DB007": {"Database was busy with conflicting operations", "Please try again", ""},
	"DB008": {"The row was already changed or removed", "Reload the grid to see the current rows", ""},

	"REQ001":  {"Request was cancelled", "Please try again", ""},
	"REQ002":  {"Request timed out", "Please try again or check your connection", ""},
	"REQ003":  {"Too many deletions are running", "Please wait a moment and try again", ""},
	"REQ004":  {"The request could not be understood", "Check the request and try again", ""},
	"RATE001": {"Too many requests", "Please wait a moment before trying again", ""},

	"ERR000": {"An unexpected error occurred", "Please try again or contact support", ""},
}

// Message returns the catalog entry for code, or the ERR000 fallback.
func Message(code string) UserMessage {
	m, ok := catalog[code]
	if !ok {
		code = "ERR000"
		m = catalog[code]
	}
	m.Code = code
	return m
}

// sentinels are checked in order with errors.Is, before anything else.
var sentinels = []struct {
	err  error
	code string
}{
	{grid.ErrItemNotFound, "GRD001"},
	{grid.ErrNotEditable, "GRD002"},
	{grid.ErrNotEditing, "GRD003"},
	{grid.ErrNotSelectable, "GRD004"},
	{grid.ErrNotReady, "GRD005"},
	{grid.ErrUnknownRole, "GRD006"},
	{grid.ErrUnknownAction, "GRD006"},
	{grid.ErrUnknownField, "GRD006"},
	{grid.ErrOptionsFailed, "GRD007"},
	{grid.ErrDuplicateItem, "GRD008"},
	{grid.ErrConfig, "GRD009"},
	{ErrUnknownGrid, "GRD010"},
	{ErrTooManyBatches, "REQ003"},
	{store.ErrNoRows, "DB008"},
	{syscall.ECONNREFUSED, "DB004"},
	{syscall.ECONNRESET, "DB005"},
	{context.Canceled, "REQ001"},
	{context.DeadlineExceeded, "REQ002"},
}

// sqlStates maps PostgreSQL SQLSTATE codes. Class 08 (connection
// exceptions) is handled separately.
var sqlStates = map[string]string{
	"23505": "DB002", // unique_violation; primary keys become DB001
	"23503": "DB003", // foreign_key_violation
	"40P01": "DB007", // deadlock_detected
	"40001": "DB007", // serialization_failure
	"57014": "DB006", // query_canceled, including statement_timeout
}

// patterns match the lowercased error text when nothing typed matched,
// for errors that crossed a boundary as plain strings. First match wins.
var patterns = []struct {
	code  string
	texts []string
}{
	{"FRM001", []string{"invalid date"}},
	{"FRM002", []string{"invalid number"}},
	{"FRM003", []string{"required field", "is required"}},
	{"FRM004", []string{"value must be one of"}},
	{"DB001", []string{"duplicate key"}},
	{"DB002", []string{"unique constraint", "violates unique"}},
	{"DB003", []string{"foreign key constraint", "violates foreign key"}},
	{"DB008", []string{"no rows affected"}},
	{"DB004", []string{"connection refused"}},
	{"DB005", []string{"connection reset"}},
	{"DB007", []string{"deadlock"}},
	{"DB006", []string{"timeout", "timed out"}},
	{"RATE001", []string{"rate limit"}},
}

// MapError converts err to the message shown to users. Error identities
// win, then PostgreSQL error codes, then network timeouts, then text
// patterns. A nil error maps to the zero UserMessage.
//
//	MapError(fmt.Errorf("save: %w", grid.ErrNotEditable)).Code == "GRD002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	return Message(errorCode(err))
}

func errorCode(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
			return "DB001"
		}
		if code, ok := sqlStates[pgErr.Code]; ok {
			return code
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return "DB004"
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "DB006"
	}

	text := strings.ToLower(err.Error())
	for _, p := range patterns {
		for _, t := range p.texts {
			if strings.Contains(text, t) {
				return p.code
			}
		}
	}
	return "ERR000"
}

// FormatUserError is MapError(err).String().
func FormatUserError(err error) string {
	return MapError(err).String()
}
