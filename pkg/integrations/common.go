package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// ServerTimeout bounds topology server API calls.
	ServerTimeout = 30 * time.Second

	// SymbolTimeout bounds raw symbol downloads from the topology server.
	SymbolTimeout = 10 * time.Second

	// MirrorTimeout bounds icon mirror downloads.
	MirrorTimeout = 15 * time.Second
)

var (
	// ErrNotFound is returned when a project, file, or symbol doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-2xx responses).
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// NewHTTPClient creates an HTTP client with the given request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// JoinURL appends escaped path segments to base. Slashes inside a segment are
// escaped, so each segment stays one path element.
func JoinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// EscapePath escapes each slash-separated part of p and keeps the slashes.
// GNS3 routes symbol ids with a greedy path pattern, so ":/symbols/router.svg"
// must reach the server with its slashes intact.
func EscapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
