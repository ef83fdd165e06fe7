// Package store persists companies, filings, reconciled facts, and the
// run log.
package store

import (
	"context"
	"strconv"
	"time"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/reconcile"
)

// Company is the company-level record kept alongside its filings.
type Company struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sic_description"`
	Tickers        []string `json:"tickers"`
	Exchanges      []string `json:"exchanges"`
}

// Run is one entry of the scrape run log.
type Run struct {
	ID          string     `json:"id"`
	Ticker      string     `json:"ticker"`
	CIK         string     `json:"cik"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RowsStored  int64      `json:"rows_stored"`
	Failures    int        `json:"failures"`
	Error       string     `json:"error,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// FactRecord is a stored reconciled fact as read back for queries.
type FactRecord struct {
	AccessionNumber string   `json:"accession_number"`
	FactName        string   `json:"fact_name"`
	LabelText       string   `json:"label_text"`
	StandardName    string   `json:"standard_name"`
	SegmentAxis     string   `json:"segment_axis,omitempty"`
	SegmentValue    string   `json:"segment_value,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	Instant         string   `json:"instant,omitempty"`
	MonthsEnded     string   `json:"months_ended,omitempty"`
	Value           string   `json:"value"`
	Numeric         *float64 `json:"numeric,omitempty"`
	UnitRef         string   `json:"unit_ref,omitempty"`
}

// Store is the persistence interface for the sync pipeline. All upserts
// are idempotent on their natural keys: companies by CIK, filings by
// accession number, facts by accession number plus fact ID.
type Store interface {
	UpsertCompany(ctx context.Context, company Company) error
	UpsertFilings(ctx context.Context, filings []edgar.Filing) (int64, error)
	UpsertFacts(ctx context.Context, cik string, rows []reconcile.Row) (int64, error)

	// Run log
	StartRun(ctx context.Context, ticker, cik string) (string, error)
	CompleteRun(ctx context.Context, runID string, rowsStored int64, failures int) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Reads for the query API
	GetCompany(ctx context.Context, ticker string) (*Company, error)
	ListFacts(ctx context.Context, cik string, limit int) ([]FactRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// factKey dedupes facts on their upsert key within one batch so a single
// INSERT cannot touch the same row twice.
type factKey struct {
	accession string
	factID    string
}

// dedupeFactRows keeps the last row per (accession, fact ID), assigning
// positional IDs to facts the filer left unidentified. Position is
// stable for a given document, so re-runs produce the same keys.
func dedupeFactRows(rows []reconcile.Row) []reconcile.Row {
	ids := make([]string, len(rows))
	perAccession := make(map[string]int, 8)
	for i, r := range rows {
		ids[i] = r.FactID
		if ids[i] == "" {
			n := perAccession[r.AccessionNumber]
			ids[i] = "pos-" + strconv.Itoa(n)
			perAccession[r.AccessionNumber] = n + 1
		}
	}

	last := make(map[factKey]int, len(rows))
	for i, r := range rows {
		last[factKey{r.AccessionNumber, ids[i]}] = i
	}

	out := make([]reconcile.Row, 0, len(last))
	for i, r := range rows {
		if last[factKey{r.AccessionNumber, ids[i]}] != i {
			continue
		}
		r.FactID = ids[i]
		out = append(out, r)
	}
	return out
}
