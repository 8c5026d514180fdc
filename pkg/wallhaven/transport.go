package wallhaven

import (
	"net/http"
	"time"
)

// UserAgentTransport wraps an http.RoundTripper and sets the User-Agent header.
type UserAgentTransport struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip sets the User-Agent on a clone of req and delegates to the wrapped transport.
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.RoundTripper
	if base == nil {
		base = http.DefaultTransport
	}
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", t.UserAgent)
	return base.RoundTrip(clonedReq)
}

// NewHTTPClient returns an HTTP client that identifies itself with userAgent.
func NewHTTPClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &UserAgentTransport{RoundTripper: http.DefaultTransport, UserAgent: userAgent},
	}
}
