package middleware

import (
	"net/http"
	"net/url"

	"github.com/JonMunkholm/gridview/internal/config"
)

// SameOrigin guards the browser routes that change a grid. Safe methods
// pass. A browser request must come from this host, judged by
// Sec-Fetch-Site or else Origin. A request carrying neither is not from a
// browser, so it needs an API key whenever the API requires one.
func SameOrigin(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keyed := APIKeyAuth(cfg)
	return func(next http.Handler) http.Handler {
		withKey := keyed(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if site := r.Header.Get("Sec-Fetch-Site"); site != "" {
				if site == "same-origin" || site == "none" {
					next.ServeHTTP(w, r)
					return
				}
				deny(w, r, http.StatusForbidden, "cross-origin request", "AUTH003")
				return
			}
			if origin := r.Header.Get("Origin"); origin != "" {
				if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
					next.ServeHTTP(w, r)
					return
				}
				deny(w, r, http.StatusForbidden, "cross-origin request", "AUTH003")
				return
			}
			withKey.ServeHTTP(w, r)
		})
	}
}
