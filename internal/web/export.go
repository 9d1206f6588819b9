package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gridview/internal/logging"
)

// exportFlushInterval is how many rows are written between flushes.
const exportFlushInterval = 1000

// handleExport downloads the visible rows as CSV, in display order and
// filtered by ?q= like the page.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "gridKey")
	info, snap, err := s.service.Snapshot(r.Context(), key, r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.csv", info.Key, timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	csvWriter := csv.NewWriter(w)
	header := make([]string, len(snap.Columns))
	for i, c := range snap.Columns {
		header[i] = c.Title
	}
	if err := csvWriter.Write(header); err != nil {
		// Can't change status code after writing, just log and return
		logging.FromContext(r.Context()).Warn("export aborted", "grid", key, "error", err)
		return
	}

	for n, row := range snap.Rows {
		record := make([]string, len(snap.Columns))
		for i, c := range snap.Columns {
			record[i] = row.Cells[c.Code].Text
		}
		if err := csvWriter.Write(record); err != nil {
			logging.FromContext(r.Context()).Warn("export aborted", "grid", key, "rows", n, "error", err)
			return
		}
		if (n+1)%exportFlushInterval == 0 {
			csvWriter.Flush()
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		logging.FromContext(r.Context()).Warn("export aborted", "grid", key, "error", err)
	}
}
