// Package middleware holds the HTTP middleware shared by the page and API
// routes.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/gridview/internal/logging"
)

// Logger writes one structured line per request once it completes:
// method, path, status, bytes, duration_ms and ip, tagged with the request
// id. Grid requests also carry the grid key. Server errors log at error
// level and client errors at warn.
//
// It expects TrustedRealIP to have run, so RemoteAddr is the client.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
		}
		if key := gridKey(r.URL.Path); key != "" {
			attrs = append(attrs, "grid", key)
		}
		if r.Header.Get("X-Grid-Partial") != "" {
			attrs = append(attrs, "partial", true)
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logging.FromContext(r.Context()).Log(r.Context(), level, "request", attrs...)
	})
}

// gridKey pulls the key out of /grid/{key}/... and /api/grid/{key}/...
// Route params are not available here since chi resolves them below this
// middleware.
func gridKey(path string) string {
	path = strings.TrimPrefix(path, "/api")
	rest, ok := strings.CutPrefix(path, "/grid/")
	if !ok {
		return ""
	}
	key, _, _ := strings.Cut(rest, "/")
	return key
}
