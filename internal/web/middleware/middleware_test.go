package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/gridview/internal/config"
)

func remoteAddrAfter(t *testing.T, trusted []string, remote string, headers map[string]string) string {
	t.Helper()
	var got string
	h := TrustedRealIP(trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.RemoteAddr
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestTrustedRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", " 192.168.1.5 ", "not-an-ip", ""}

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted peer keeps its address", "203.0.113.9:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9:4000"},
		{"trusted cidr uses X-Real-IP", "10.1.2.3:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"bare trusted address", "192.168.1.5:80", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"first forwarded hop", "10.1.2.3:4000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"X-Real-IP wins over forwarded", "10.1.2.3:4000", map[string]string{"X-Real-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"}, "1.2.3.4"},
		{"garbage header ignored", "10.1.2.3:4000", map[string]string{"X-Real-IP": "<script>"}, "10.1.2.3:4000"},
		{"no headers", "10.1.2.3:4000", nil, "10.1.2.3:4000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, remoteAddrAfter(t, trusted, tt.remote, tt.headers))
		})
	}
}

func TestTrustedRealIP_NoProxies(t *testing.T) {
	got := remoteAddrAfter(t, nil, "10.1.2.3:4000", map[string]string{"X-Real-IP": "1.2.3.4"})
	assert.Equal(t, "10.1.2.3:4000", got)
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		cfg     config.SecurityConfig
		headers map[string]string
		status  int
		code    string
	}{
		{"disabled", config.SecurityConfig{}, nil, http.StatusNoContent, ""},
		{"missing", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, nil, http.StatusUnauthorized, "AUTH001"},
		{"wrong", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, map[string]string{"X-API-Key": "k2"}, http.StatusForbidden, "AUTH002"},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, map[string]string{"X-API-Key": "k1"}, http.StatusForbidden, "AUTH002"},
		{"header key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, map[string]string{"X-API-Key": "k2"}, http.StatusNoContent, ""},
		{"bearer key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, map[string]string{"Authorization": "Bearer k1"}, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/grids", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(&tt.cfg)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestSameOrigin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	open := config.SecurityConfig{}
	keyed := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}

	tests := []struct {
		name    string
		cfg     config.SecurityConfig
		method  string
		headers map[string]string
		status  int
		code    string
	}{
		{"get passes", keyed, http.MethodGet, map[string]string{"Origin": "https://evil.example"}, http.StatusNoContent, ""},
		{"same site fetch", keyed, http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusNoContent, ""},
		{"cross site fetch", open, http.MethodPost, map[string]string{"Sec-Fetch-Site": "cross-site"}, http.StatusForbidden, "AUTH003"},
		{"matching origin", keyed, http.MethodPost, map[string]string{"Origin": "http://example.com"}, http.StatusNoContent, ""},
		{"foreign origin", open, http.MethodPost, map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden, "AUTH003"},
		{"no browser headers, keys off", open, http.MethodPost, nil, http.StatusNoContent, ""},
		{"no browser headers, no key", keyed, http.MethodPost, nil, http.StatusUnauthorized, "AUTH001"},
		{"no browser headers, with key", keyed, http.MethodPost, map[string]string{"X-API-Key": "k1"}, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/grid/customers/delete", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			SameOrigin(&tt.cfg)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/grid/customers/save/3", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=4", "grid=customers", "method=POST"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestGridKey(t *testing.T) {
	assert.Equal(t, "orders", gridKey("/grid/orders"))
	assert.Equal(t, "orders", gridKey("/api/grid/orders/click"))
	assert.Equal(t, "", gridKey("/api/grids"))
	assert.Equal(t, "", gridKey("/static/grid.js"))
}
