package fetcher

import "fmt"

// RemoteFetchError reports a non-success HTTP status from the archive.
// The request reached the server; retrying is a caller decision.
type RemoteFetchError struct {
	URL    string
	Status int
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// TransportError reports a failure below HTTP: timeout, DNS, connection
// reset, or an exhausted rate-limiter wait budget.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
