package resolver

import (
	"net/http"
	"strings"
)

const (
	// SessionCookie carries the browser session the last_transfer entry is keyed by.
	SessionCookie = "sid"
	// SessionHeader is accepted for clients that cannot send cookies.
	SessionHeader = "X-Session-ID"
)

// SessionFromRequest returns the session cookie, or the session header.
func SessionFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

// RequestFromHTTP builds a Request from the query string and session of r.
// A non-empty ref overrides the "ref" query parameter.
func RequestFromHTTP(r *http.Request, ref string) Request {
	return Request{
		Ref:     ref,
		Query:   r.URL.Query(),
		Session: SessionFromRequest(r),
	}
}
