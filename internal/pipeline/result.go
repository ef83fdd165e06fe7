package pipeline

import (
	"time"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/reconcile"
	"github.com/sells-group/edgar-sync/internal/xbrl"
)

// Failure records one filing the run could not fully process.
type Failure struct {
	AccessionNumber string
	FolderURL       string
	FilingDate      time.Time
	Err             error
}

// Counts summarizes what the run touched.
type Counts struct {
	FilingsProcessed int
	FilingsNoData    int
	FactsExtracted   int
	RowsUnlabeled    int
	RowsFinal        int
}

// Result is the full outcome of one run: the reconciled rows, the split
// views, everything extracted along the way, and the failures. Partial
// output and the failed-items list always come back together.
type Result struct {
	Ticker      string
	CIK         string
	Submissions *edgar.Submissions
	Filings     []edgar.Filing

	Rows      []reconcile.Row
	Durations []reconcile.Row
	Instants  []reconcile.Row
	Unlabeled []reconcile.Row

	Arcs      []xbrl.Arc
	MetaLinks []xbrl.MetaLink

	Failures []Failure
	Counts   Counts
}

func (r *Result) fail(filing edgar.Filing, err error) {
	r.Failures = append(r.Failures, Failure{
		AccessionNumber: filing.AccessionNumber,
		FolderURL:       filing.FolderURL,
		FilingDate:      filing.FilingDate,
		Err:             err,
	})
}
