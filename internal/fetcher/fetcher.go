// Package fetcher downloads documents from the SEC EDGAR archive under the
// archive's fair-access rules: a shared request-rate ceiling and mandatory
// requester identification headers.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Fetch performs a rate-limited GET and returns the response body.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)

	// FetchJSON performs a rate-limited GET and decodes the body as JSON into v.
	FetchJSON(ctx context.Context, url string, v any) error
}
