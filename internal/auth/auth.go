// Package auth resolves the caller's identity for an HTTP request.
package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// DefaultHeader is the identity header used when none is configured.
const DefaultHeader = "X-User-ID"

// Provider resolves the authenticated identity of a request. It returns an
// error matching core.ErrUnauthenticated when the request carries none.
type Provider interface {
	Identity(r *http.Request) (core.UserID, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(r *http.Request) (core.UserID, error)

func (f ProviderFunc) Identity(r *http.Request) (core.UserID, error) { return f(r) }

// HeaderProvider trusts a numeric user id placed in a header by the gateway
// that authenticated the request. The header must be stripped from client
// traffic upstream.
type HeaderProvider struct {
	header string
}

func NewHeaderProvider(header string) *HeaderProvider {
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderProvider{header: http.CanonicalHeaderKey(header)}
}

func (p *HeaderProvider) Header() string { return p.header }

func (p *HeaderProvider) Identity(r *http.Request) (core.UserID, error) {
	raw := strings.TrimSpace(r.Header.Get(p.header))
	if raw == "" {
		return 0, core.ErrUnauthenticated
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed %s header", core.ErrUnauthenticated, p.header)
	}
	return core.UserID(id), nil
}
