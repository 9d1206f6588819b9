package web

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/gridview/internal/core"
)

// requestMetadata records the client on every request context so the
// service can log who changed which row. TrustedRealIP has already
// rewritten RemoteAddr.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := core.WithActor(r.Context(), core.Actor{IP: ip, UserAgent: r.UserAgent()})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
