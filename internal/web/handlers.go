package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/web/templates"
)

// MaxBodySize bounds JSON request bodies.
const MaxBodySize = 1 << 20

// gridResponse is the JSON answer to a grid operation: the operation's own
// result and the grid as it stands afterwards.
type gridResponse struct {
	Result any      `json:"result,omitempty"`
	Grid   gridJSON `json:"grid"`
}

// handleDashboard renders the start page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	templates.Dashboard(s.groups()).Render(r.Context(), w)
}

// groups builds the dashboard sections in registry order.
func (s *Server) groups() []templates.GridGroup {
	byGroup := s.service.ListGridsByGroup()
	var groups []templates.GridGroup
	for _, name := range core.Groups() {
		groups = append(groups, templates.GridGroup{Name: name, Grids: byGroup[name]})
	}
	return groups
}

// handleListGrids returns all grids organized by group.
func (s *Server) handleListGrids(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListGridsByGroup())
}

// handleLimiterStatus reports batch delete slot usage.
func (s *Server) handleLimiterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Limiter().Status())
}

// handleGridPage renders a grid page, or only its fragment when the grid
// script asks.
func (s *Server) handleGridPage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "gridKey")
	v, err := s.service.View(r.Context(), key, r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if isPartial(r) {
		templates.GridPartial(v).Render(r.Context(), w)
		return
	}
	templates.GridPage(templates.SidebarParams{Groups: s.groups()}, v).Render(r.Context(), w)
}

// handleGridView returns the grid as JSON.
func (s *Server) handleGridView(w http.ResponseWriter, r *http.Request) {
	s.respondGrid(w, r, nil)
}

// respondGrid answers a grid operation with the current grid.
func (s *Server) respondGrid(w http.ResponseWriter, r *http.Request, result any) {
	key := chi.URLParam(r, "gridKey")
	v, err := s.service.View(r.Context(), key, r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if isPartial(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		templates.GridPartial(v).Render(r.Context(), w)
		return
	}
	writeJSON(w, gridResponse{Result: result, Grid: newGridJSON(v)})
}

// handleClick routes a click on a grid element.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var target grid.Target
	if err := decodeJSON(w, r, &target); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	outcome, err := s.service.Click(r.Context(), chi.URLParam(r, "gridKey"), target)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if outcome.Href != "" {
		w.Header().Set("X-Grid-Href", outcome.Href)
	}
	if outcome.Message != "" {
		w.Header().Set("X-Grid-Message", outcome.Message)
	}
	s.respondGrid(w, r, outcome)
}

// handleEdit opens a row for editing.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	s.rowOp(w, r, func(key string, row int) (any, error) {
		return nil, s.service.Edit(r.Context(), key, row)
	})
}

// handleInput stages typed text in an open cell.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	field := chi.URLParam(r, "field")
	s.rowOp(w, r, func(key string, row int) (any, error) {
		return s.service.Input(r.Context(), key, row, field, req.Text)
	})
}

// handleSave validates and persists an edited row. A failed validation is
// not an error: the row stays open with its messages.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.rowOp(w, r, func(key string, row int) (any, error) {
		return s.service.Save(r.Context(), key, row)
	})
}

// handleCancel closes a row without saving.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.rowOp(w, r, func(key string, row int) (any, error) {
		return nil, s.service.Cancel(r.Context(), key, row)
	})
}

// handlePin pins or releases a row.
func (s *Server) handlePin(pinned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.rowOp(w, r, func(key string, row int) (any, error) {
			return nil, s.service.Pin(r.Context(), key, row, pinned)
		})
	}
}

// handleCreate adds a draft row.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	row, err := s.service.Create(r.Context(), chi.URLParam(r, "gridKey"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondGrid(w, r, map[string]int{"row": row})
}

// handleOrder replaces the sort order.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []grid.SortKey `json:"order"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if err := s.service.Order(r.Context(), chi.URLParam(r, "gridKey"), req.Order); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondGrid(w, r, nil)
}

// handleReload drops the grid session so the next view reads the table again.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.service.Reload(chi.URLParam(r, "gridKey"))
	s.respondGrid(w, r, nil)
}

// handleDelete deletes rows by grid index and reports per row.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows []int `json:"rows"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if len(req.Rows) == 0 {
		s.respondError(w, r, badRequest("no rows specified"), http.StatusBadRequest)
		return
	}

	summary, err := s.service.Delete(r.Context(), chi.URLParam(r, "gridKey"), req.Rows)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondGrid(w, r, summary)
}

// rowOp parses the row index and runs fn against the grid in the URL.
func (s *Server) rowOp(w http.ResponseWriter, r *http.Request, fn func(key string, row int) (any, error)) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || row < 0 {
		s.respondError(w, r, badRequest("invalid row index"), http.StatusBadRequest)
		return
	}
	result, err := fn(chi.URLParam(r, "gridKey"), row)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondGrid(w, r, result)
}

// decodeJSON reads a bounded JSON body. An empty body leaves v unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid request body")
	}
	return nil
}
