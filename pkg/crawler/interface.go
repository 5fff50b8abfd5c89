package crawler

import (
	"context"
	"time"
)

// Client defines the HTTP operations the sitemap and extraction stages need
type Client interface {
	// Head issues a header-only request and returns the status code
	Head(ctx context.Context, rawURL string) (int, error)

	// Get fetches a document; non-2xx statuses are reported as *StatusError
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// Options contains configuration for the fetcher
type Options struct {
	Timeout      time.Duration // Per-request timeout
	UserAgent    string        // User agent string
	MaxIdleConns int           // Idle connection pool size
	MaxRedirects int           // Redirects followed before giving up
	MaxBodyBytes int64         // Response bodies are truncated past this size
}

// Response is a fully read HTTP response
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}
