// Package pipeline orchestrates the per-filing scrape: locate filings,
// extract, reconcile, and accumulate results with a failed-items list.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/mapping"
	"github.com/sells-group/edgar-sync/internal/reconcile"
	"github.com/sells-group/edgar-sync/internal/xbrl"
)

// ErrNoData reports that no filing in the selection produced any facts.
var ErrNoData = eris.New("pipeline: no data extracted")

// Locator resolves companies and filing histories. Satisfied by
// *edgar.Client.
type Locator interface {
	Resolve(ctx context.Context, ticker string) (string, error)
	Submissions(ctx context.Context, cik string) (*edgar.Submissions, error)
	Filings(ctx context.Context, sub *edgar.Submissions) ([]edgar.Filing, error)
}

// Extractor loads filing documents and their linkbases. Satisfied by
// *xbrl.Extractor.
type Extractor interface {
	Load(ctx context.Context, filing edgar.Filing) (*xbrl.Document, error)
	ExtractLabels(ctx context.Context, folderURL string) ([]xbrl.Label, error)
	ExtractArcs(ctx context.Context, folderURL string, kind xbrl.ArcKind) ([]xbrl.Arc, error)
	ExtractMetaLinks(ctx context.Context, folderURL string) ([]xbrl.MetaLink, error)
}

// Runner drives the scrape for one company at a time. Filings are
// processed strictly sequentially; the shared fetcher's rate limit is
// the throughput ceiling either way.
type Runner struct {
	locator   Locator
	extractor Extractor
	mapping   mapping.Table
}

// NewRunner assembles a Runner. A nil mapping table selects the built-in
// default vocabulary.
func NewRunner(locator Locator, extractor Extractor, table mapping.Table) *Runner {
	if table == nil {
		table = mapping.Default()
	}
	return &Runner{locator: locator, extractor: extractor, mapping: table}
}

// RunOpts selects which filings to process.
type RunOpts struct {
	Form  string
	Start time.Time
	End   time.Time
	// MinFilingDate drops filings older than the archive's reliable
	// XBRL coverage. Zero means no floor.
	MinFilingDate time.Time
	// Limit caps the number of filings processed, newest first. Zero
	// means all.
	Limit int
}

// Run locates the company's filings and processes each one. Per-filing
// errors land in Result.Failures and the loop continues; only failures
// before the loop (unknown ticker, unreachable directory) propagate.
func (r *Runner) Run(ctx context.Context, ticker string, opts RunOpts) (*Result, error) {
	cik, err := r.locator.Resolve(ctx, ticker)
	if err != nil {
		return nil, err
	}

	sub, err := r.locator.Submissions(ctx, cik)
	if err != nil {
		return nil, err
	}

	filings, err := r.locator.Filings(ctx, sub)
	if err != nil {
		return nil, err
	}

	selected := edgar.Search(filings, edgar.SearchOpts{
		Form:  opts.Form,
		Start: opts.Start,
		End:   opts.End,
	})
	if !opts.MinFilingDate.IsZero() {
		var recent []edgar.Filing
		for _, f := range selected {
			if f.FilingDate.Before(opts.MinFilingDate) {
				continue
			}
			recent = append(recent, f)
		}
		selected = recent
	}
	if opts.Limit > 0 && len(selected) > opts.Limit {
		selected = selected[:opts.Limit]
	}

	result := &Result{Ticker: ticker, CIK: cik, Submissions: sub, Filings: selected}

	var merged []reconcile.Row
	var allLabels []xbrl.Label

	for _, filing := range selected {
		rows, labels := r.processFiling(ctx, filing, result)
		merged = append(merged, rows...)
		allLabels = append(allLabels, labels...)
	}

	if len(merged) == 0 {
		if len(result.Failures) > 0 {
			// Partial output and the failed-items list travel together,
			// even when the output half is empty.
			return result, nil
		}
		return result, ErrNoData
	}

	kept, dropped := reconcile.FilterLabeled(merged)
	result.Counts.RowsUnlabeled = len(dropped)
	result.Unlabeled = dropped

	kept = reconcile.ResolveSegments(kept, allLabels)
	kept = reconcile.CleanValues(kept)
	kept = reconcile.DerivePeriod(kept)
	kept = reconcile.Standardize(kept, r.mapping.Invert())
	kept = reconcile.Deduplicate(kept)

	result.Rows = kept
	result.Durations, result.Instants = reconcile.SplitByShape(kept)
	result.Counts.RowsFinal = len(kept)

	zap.L().Info("run complete",
		zap.String("ticker", ticker),
		zap.String("cik", cik),
		zap.Int("filings", len(selected)),
		zap.Int("rows", len(kept)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

// processFiling extracts and merges one filing. Errors are recorded on
// the result; the return values feed the accumulation in Run.
func (r *Runner) processFiling(ctx context.Context, filing edgar.Filing, result *Result) ([]reconcile.Row, []xbrl.Label) {
	log := zap.L().With(
		zap.String("accession", filing.AccessionNumber),
		zap.String("folder", filing.FolderURL),
	)

	doc, err := r.extractor.Load(ctx, filing)
	if err != nil {
		log.Warn("document load failed", zap.Error(err))
		result.fail(filing, err)
		return nil, nil
	}

	facts := xbrl.ExtractFacts(doc)
	if len(facts) == 0 {
		log.Info("no facts in filing, skipping")
		result.Counts.FilingsNoData++
		return nil, nil
	}
	result.Counts.FactsExtracted += len(facts)

	contexts := xbrl.ExtractContexts(doc)

	labels, err := r.extractor.ExtractLabels(ctx, filing.FolderURL)
	if err != nil {
		log.Warn("label extraction failed", zap.Error(err))
		result.fail(filing, err)
		return nil, nil
	}

	// Arcs and metalinks enrich the result but are not required for the
	// merge; their failures are recorded without skipping the filing.
	for _, kind := range []xbrl.ArcKind{xbrl.CalculationArcs, xbrl.DefinitionArcs} {
		arcs, err := r.extractor.ExtractArcs(ctx, filing.FolderURL, kind)
		if err != nil {
			log.Warn("arc extraction failed", zap.String("kind", string(kind)), zap.Error(err))
			result.fail(filing, err)
			continue
		}
		result.Arcs = append(result.Arcs, arcs...)
	}

	metalinks, err := r.extractor.ExtractMetaLinks(ctx, filing.FolderURL)
	if err != nil {
		log.Warn("metalinks extraction failed", zap.Error(err))
		result.fail(filing, err)
	} else {
		result.MetaLinks = append(result.MetaLinks, metalinks...)
	}

	rows, err := reconcile.Merge(filing.AccessionNumber, facts, contexts, labels)
	if err != nil {
		log.Warn("merge failed", zap.Error(err))
		result.fail(filing, err)
		return nil, nil
	}

	result.Counts.FilingsProcessed++
	return rows, labels
}
