package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the HTTP fetcher. Company, Contact, and Email are
// required: EDGAR rejects unidentified clients.
type Options struct {
	Company string
	Contact string
	Email   string

	// RatePerSec is the request ceiling shared by every caller of this
	// fetcher. EDGAR's published maximum is 10 requests per second.
	RatePerSec float64

	Timeout time.Duration

	// MaxWait bounds how long a caller may block waiting for a limiter
	// slot. Zero means wait indefinitely.
	MaxWait time.Duration
}

// HTTPFetcher implements Fetcher using net/http behind a single shared
// rate limiter. Construct one per process and pass it to every component
// that talks to the archive; the limiter state is what enforces the
// process-wide ceiling.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxWait   time.Duration
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	if opts.Company == "" || opts.Contact == "" || opts.Email == "" {
		return nil, eris.New("fetcher: requester identification (company, contact, email) is required")
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 10
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		userAgent: fmt.Sprintf("%s %s %s", opts.Company, opts.Contact, opts.Email),
		maxWait:   opts.MaxWait,
	}, nil
}

// Fetch performs a rate-limited GET and returns the response body.
// Non-2xx statuses yield a *RemoteFetchError; transport failures and an
// exhausted wait budget yield a *TransportError. No retry is attempted
// here; retry policy belongs to the caller.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}

	if err := f.wait(ctx); err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	// The archive requires the Host header to match the endpoint family
	// (www.sec.gov for archives, data.sec.gov for the data API).
	req.Host = u.Host

	resp, err := f.client.Do(req)
	if err != nil {
		zap.L().Warn("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		zap.L().Warn("fetch rejected",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &RemoteFetchError{URL: rawURL, Status: resp.StatusCode}
	}

	zap.L().Debug("fetch ok", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))

	// Setting Accept-Encoding ourselves turns off the transport's
	// transparent decompression, so decode here when the archive
	// compressed the response.
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, &TransportError{URL: rawURL, Err: err}
		}
		return &gzipBody{gz: gz, body: resp.Body}, nil
	}
	return resp.Body, nil
}

// gzipBody decodes a gzip response body and closes both readers.
type gzipBody struct {
	gz   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipBody) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipBody) Close() error {
	err := g.gz.Close()
	if cerr := g.body.Close(); err == nil {
		err = cerr
	}
	return err
}

// FetchJSON performs a rate-limited GET and decodes the body as JSON into v.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, rawURL string, v any) error {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close() //nolint:errcheck

	if err := DecodeJSON(body, v); err != nil {
		return eris.Wrapf(err, "fetcher: decode %s", rawURL)
	}
	return nil
}

// wait blocks until the shared limiter grants a slot, bounded by MaxWait
// when one is configured.
func (f *HTTPFetcher) wait(ctx context.Context) error {
	if f.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.maxWait)
		defer cancel()
	}
	return f.limiter.Wait(ctx)
}
