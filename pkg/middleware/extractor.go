package middleware

import (
	"net"
	"net/http"
	"strings"
)

// DefaultFallbackKey is the shared partition key for requests whose client
// identity cannot be derived. Such requests are limited as one aggregate
// client rather than admitted unchecked.
const DefaultFallbackKey = "global"

// KeyExtractor derives the admission partition key from a request.
// Extraction is total: implementations fall back to a shared key instead
// of failing.
type KeyExtractor interface {
	Key(r *http.Request) string
}

// RemoteAddrExtractor keys requests by the caller's network address,
// stripped of its port so a client keeps one key across connections.
type RemoteAddrExtractor struct {
	// Fallback is used when no address can be derived.
	// Empty means DefaultFallbackKey.
	Fallback string
}

// Key returns the caller's host portion, or the fallback key.
func (e RemoteAddrExtractor) Key(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// Not host:port; some test servers and unix sockets hand over a
		// bare address.
		host = r.RemoteAddr
	}
	if host == "" {
		return e.fallback()
	}
	return host
}

func (e RemoteAddrExtractor) fallback() string {
	if e.Fallback != "" {
		return e.Fallback
	}
	return DefaultFallbackKey
}

// HeaderExtractor keys requests by a header value, typically an API key or
// tenant ID assigned by an upstream gateway.
type HeaderExtractor struct {
	// Header is the header to read. Required.
	Header string

	// Fallback is used when the header is absent or empty.
	// Empty means DefaultFallbackKey.
	Fallback string
}

// Key returns the header value, joining repeated headers with "-", or the
// fallback key when the header is missing.
func (e HeaderExtractor) Key(r *http.Request) string {
	values := r.Header.Values(e.Header)
	key := strings.Join(values, "-")
	if key == "" {
		return e.fallback()
	}
	return key
}

func (e HeaderExtractor) fallback() string {
	if e.Fallback != "" {
		return e.Fallback
	}
	return DefaultFallbackKey
}
