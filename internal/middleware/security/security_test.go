package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "plain http")

	req := httptest.NewRequest(http.MethodGet, "/categories/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersSkipEmptyValues(t *testing.T) {
	h := NewHeadersMiddleware(HeadersConfig{XFrameOptions: "SAMEORIGIN"}).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	_, ok := rec.Header()["Content-Security-Policy"]
	assert.False(t, ok)
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*http.Request)
		target string
		method string
		want   bool
	}{
		{name: "clean", target: "/transactions/?search=food", want: false},
		{name: "traversal", target: "/static/../../etc/passwd", want: true},
		{name: "query injection", target: "/transactions/?search=1%27+union+select", want: true},
		{name: "scanner agent", target: "/", setup: func(r *http.Request) { r.Header.Set("User-Agent", "sqlmap/1.7") }, want: true},
		{name: "curl is fine", target: "/", setup: func(r *http.Request) { r.Header.Set("User-Agent", "curl/8.0") }, want: false},
		{name: "trace method", target: "/", method: "TRACE", want: true},
		{name: "long url", target: "/?q=" + strings.Repeat("a", 2100), want: true},
		{name: "proxy chain", target: "/", setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "1,2,3,4,5,6,7") }, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, "http://example.com/", nil)
			u, err := req.URL.Parse(tt.target)
			require.NoError(t, err)
			req.URL = u
			if tt.setup != nil {
				tt.setup(req)
			}
			d := NewDetector()
			assert.Equal(t, tt.want, d.DetectSuspiciousRequest(req) != "")
			if tt.want {
				assert.Equal(t, int64(1), d.GetMetrics().SuspiciousRequests)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{name: "direct", remote: "203.0.113.5:4000", want: "203.0.113.5"},
		{name: "untrusted peer ignores header", remote: "203.0.113.5:4000", xff: "198.51.100.1", want: "203.0.113.5"},
		{name: "trusted proxy", remote: "10.0.0.2:4000", xff: "198.51.100.1, 10.0.0.2", want: "198.51.100.1"},
		{name: "real ip fallback", remote: "127.0.0.1:4000", xri: "198.51.100.2", want: "198.51.100.2"},
		{name: "garbage header", remote: "192.168.1.1:4000", xff: "nope", want: "192.168.1.1"},
		{name: "no port", remote: "198.51.100.3", want: "198.51.100.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, NewDetector().ExtractClientIP(req))
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	require.Error(t, d.AddTrustedProxy("bogus"))
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:1"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", d.ExtractClientIP(req))
}

func TestMiddlewareNeverBlocks(t *testing.T) {
	called := false
	h := NewDetector().Middleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	assert.True(t, called)
}
