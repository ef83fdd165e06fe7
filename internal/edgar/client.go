// Package edgar resolves companies and filing histories against the SEC
// EDGAR archive.
package edgar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-sync/internal/fetcher"
)

// Default endpoint families. The data API and the web archive are distinct
// hosts with distinct access rules.
const (
	defaultDataBaseURL      = "https://data.sec.gov"
	defaultWebBaseURL       = "https://www.sec.gov"
	defaultDirectoryBaseURL = "https://www.sec.gov/Archives/edgar/data"

	companyTickersPath = "/files/company_tickers.json"
	sicListPath        = "/corpfin/division-of-corporation-finance-standard-industrial-classification-sic-code-list"
)

// ClientOptions overrides the archive endpoints, mainly for tests.
type ClientOptions struct {
	DataBaseURL      string
	WebBaseURL       string
	DirectoryBaseURL string
}

// Client is the filing locator: it resolves tickers to CIKs and retrieves
// normalized filing histories. It holds a Fetcher rather than extending
// one; all archive access goes through the shared rate-limited fetcher.
type Client struct {
	f fetcher.Fetcher

	dataBaseURL      string
	webBaseURL       string
	directoryBaseURL string

	mu      sync.Mutex
	tickers map[string]string // upper-cased ticker -> zero-padded CIK
}

// NewClient creates a locator backed by the given fetcher.
func NewClient(f fetcher.Fetcher, opts ...ClientOptions) *Client {
	c := &Client{
		f:                f,
		dataBaseURL:      defaultDataBaseURL,
		webBaseURL:       defaultWebBaseURL,
		directoryBaseURL: defaultDirectoryBaseURL,
	}
	if len(opts) > 0 {
		o := opts[0]
		if o.DataBaseURL != "" {
			c.dataBaseURL = o.DataBaseURL
		}
		if o.WebBaseURL != "" {
			c.webBaseURL = o.WebBaseURL
		}
		if o.DirectoryBaseURL != "" {
			c.directoryBaseURL = o.DirectoryBaseURL
		}
	}
	return c
}

// companyTickerEntry is one row of the company_tickers.json directory.
type companyTickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Resolve looks up a ticker in the company directory, case-insensitively,
// and returns the 10-digit zero-padded CIK. The directory is fetched once
// and cached for the process lifetime.
func (c *Client) Resolve(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tickers == nil {
		var dir map[string]companyTickerEntry
		url := c.webBaseURL + companyTickersPath
		if err := c.f.FetchJSON(ctx, url, &dir); err != nil {
			return "", eris.Wrap(err, "edgar: fetch company directory")
		}
		c.tickers = make(map[string]string, len(dir))
		for _, e := range dir {
			c.tickers[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010d", e.CIK)
		}
		zap.L().Info("company directory loaded", zap.Int("tickers", len(c.tickers)))
	}

	cik, ok := c.tickers[strings.ToUpper(ticker)]
	if !ok {
		return "", &UnknownTickerError{Ticker: ticker}
	}
	return cik, nil
}

// Submissions holds the company-level metadata and raw filing pages
// retrieved from the submissions endpoint.
type Submissions struct {
	CIK            string
	Name           string
	SIC            string
	SICDescription string
	Tickers        []string
	Exchanges      []string

	recent filingPage
	files  []auxiliaryFile
}

type submissionsJSON struct {
	Name           string   `json:"name"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sicDescription"`
	Tickers        []string `json:"tickers"`
	Exchanges      []string `json:"exchanges"`
	Filings        struct {
		Recent filingPage      `json:"recent"`
		Files  []auxiliaryFile `json:"files"`
	} `json:"filings"`
}

type auxiliaryFile struct {
	Name string `json:"name"`
}

// filingPage is one page of the filing history: a set of parallel arrays,
// one entry per filing across all of them.
type filingPage struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	Size            []int    `json:"size"`
	IsXBRL          []int    `json:"isXBRL"`
}

// append concatenates another page column-wise.
func (p *filingPage) append(q filingPage) {
	p.AccessionNumber = append(p.AccessionNumber, q.AccessionNumber...)
	p.FilingDate = append(p.FilingDate, q.FilingDate...)
	p.ReportDate = append(p.ReportDate, q.ReportDate...)
	p.Form = append(p.Form, q.Form...)
	p.PrimaryDocument = append(p.PrimaryDocument, q.PrimaryDocument...)
	p.Size = append(p.Size, q.Size...)
	p.IsXBRL = append(p.IsXBRL, q.IsXBRL...)
}

// Submissions fetches the submissions record for a CIK.
func (c *Client) Submissions(ctx context.Context, cik string) (*Submissions, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, cik)

	var raw submissionsJSON
	if err := c.f.FetchJSON(ctx, url, &raw); err != nil {
		return nil, eris.Wrapf(err, "edgar: fetch submissions for CIK %s", cik)
	}

	return &Submissions{
		CIK:            cik,
		Name:           raw.Name,
		SIC:            raw.SIC,
		SICDescription: raw.SICDescription,
		Tickers:        raw.Tickers,
		Exchanges:      raw.Exchanges,
		recent:         raw.Filings.Recent,
		files:          raw.Filings.Files,
	}, nil
}

// Filings converts a submissions record into row-oriented Filing records.
// The recent page and every auxiliary history page are concatenated
// column-wise first; filings without a reporting-period end date are
// administrative and dropped. The result is ordered filing-date
// descending.
func (c *Client) Filings(ctx context.Context, sub *Submissions) ([]Filing, error) {
	page := sub.recent

	for _, file := range sub.files {
		url := fmt.Sprintf("%s/submissions/%s", c.dataBaseURL, file.Name)
		var extra filingPage
		if err := c.f.FetchJSON(ctx, url, &extra); err != nil {
			return nil, eris.Wrapf(err, "edgar: fetch history page %s", file.Name)
		}
		page.append(extra)
		zap.L().Debug("history page appended",
			zap.String("cik", sub.CIK),
			zap.String("page", file.Name),
		)
	}

	filings := make([]Filing, 0, len(page.AccessionNumber))
	for i, accession := range page.AccessionNumber {
		if accession == "" {
			continue
		}
		reportDate := parseDate(safeIndex(page.ReportDate, i))
		if reportDate.IsZero() {
			continue
		}

		folderURL := fmt.Sprintf("%s/%s/%s",
			c.directoryBaseURL, sub.CIK, strings.ReplaceAll(accession, "-", ""))

		filings = append(filings, Filing{
			AccessionNumber: accession,
			CIK:             sub.CIK,
			Form:            safeIndex(page.Form, i),
			FilingDate:      parseDate(safeIndex(page.FilingDate, i)),
			ReportDate:      reportDate,
			PrimaryDocument: safeIndex(page.PrimaryDocument, i),
			Size:            safeIntIndex(page.Size, i),
			IsXBRL:          safeIntIndex(page.IsXBRL, i) == 1,
			FolderURL:       folderURL,
			DocumentURL:     folderURL + "/" + accession + ".txt",
		})
	}

	sortByFilingDateDesc(filings)
	return filings, nil
}

// ListFilings fetches the submissions record and returns the normalized
// filing history in one call.
func (c *Client) ListFilings(ctx context.Context, cik string) ([]Filing, error) {
	sub, err := c.Submissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	return c.Filings(ctx, sub)
}

// IndexItem is one entry of a filing folder's directory index.
type IndexItem struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	LastModified string `json:"last-modified"`
}

type folderIndexJSON struct {
	Directory struct {
		Item []IndexItem `json:"item"`
		Name string      `json:"name"`
	} `json:"directory"`
}

// FolderIndex retrieves the directory index for a filing folder. Every
// folder on the archive exposes an index.json alongside the documents.
func (c *Client) FolderIndex(ctx context.Context, folderURL string) ([]IndexItem, error) {
	var idx folderIndexJSON
	if err := c.f.FetchJSON(ctx, folderURL+"/index.json", &idx); err != nil {
		return nil, eris.Wrapf(err, "edgar: fetch folder index %s", folderURL)
	}
	return idx.Directory.Item, nil
}

// parseDate parses an archive date (YYYY-MM-DD), returning the zero time
// on empty or malformed input.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// safeIndex returns the string at index i, or empty string if out of bounds.
func safeIndex(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// safeIntIndex returns the int at index i, or 0 if out of bounds.
func safeIntIndex(s []int, i int) int {
	if i < len(s) {
		return s[i]
	}
	return 0
}
