// Package engine fetches upstream pages for the scrape backend.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Engine fetches one page.
type Engine interface {
	// Name returns the engine identifier, e.g. "chrome-tls" or "plain".
	Name() string

	// Fetch retrieves the page at req.URL. A non-HTML or >= 400 response is
	// reported as *UpstreamError.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest describes one upstream fetch.
type FetchRequest struct {
	URL string

	// Headers are set on the upstream request after the browser defaults.
	Headers map[string]string

	// Timeout bounds the whole fetch; zero means the caller's context only.
	Timeout time.Duration
}

// FetchResult is a successfully fetched HTML page.
type FetchResult struct {
	HTML        string
	StatusCode  int
	ContentType string
	FinalURL    string
	EngineName  string
}

// UpstreamError reports a response the backend cannot scrape.
type UpstreamError struct {
	URL         string
	StatusCode  int
	ContentType string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("engine: %s returned status %d (content-type: %s)", e.URL, e.StatusCode, e.ContentType)
}

// IsTimeout reports whether err came from a fetch deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// withTimeout derives the fetch context for req.
func withTimeout(ctx context.Context, req *FetchRequest) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithCancel(ctx)
}
