package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-sync/internal/store"
)

// Sync runs the pipeline for one ticker and persists everything it
// produced: the company record, the filing history, and the reconciled
// facts, bracketed by a run-log entry. A run whose filings all failed
// still completes; only errors that prevent any output fail the run.
func (r *Runner) Sync(ctx context.Context, st store.Store, ticker string, opts RunOpts) (*Result, error) {
	result, err := r.Run(ctx, ticker, opts)
	if err != nil {
		// Without a resolved CIK there is nothing to log the run against.
		if result == nil {
			return nil, err
		}
		runID, startErr := st.StartRun(ctx, ticker, result.CIK)
		if startErr != nil {
			return result, eris.Wrap(startErr, "starting run log entry")
		}
		if failErr := st.FailRun(ctx, runID, err.Error()); failErr != nil {
			zap.L().Warn("recording run failure", zap.Error(failErr))
		}
		return result, err
	}

	runID, err := st.StartRun(ctx, ticker, result.CIK)
	if err != nil {
		return result, eris.Wrap(err, "starting run log entry")
	}

	stored, err := r.persist(ctx, st, result)
	if err != nil {
		if failErr := st.FailRun(ctx, runID, err.Error()); failErr != nil {
			zap.L().Warn("recording run failure", zap.Error(failErr))
		}
		return result, err
	}

	if err := st.CompleteRun(ctx, runID, stored, len(result.Failures)); err != nil {
		return result, eris.Wrap(err, "completing run log entry")
	}
	return result, nil
}

func (r *Runner) persist(ctx context.Context, st store.Store, result *Result) (int64, error) {
	sub := result.Submissions
	if err := st.UpsertCompany(ctx, store.Company{
		CIK:            result.CIK,
		Name:           sub.Name,
		SIC:            sub.SIC,
		SICDescription: sub.SICDescription,
		Tickers:        sub.Tickers,
		Exchanges:      sub.Exchanges,
	}); err != nil {
		return 0, eris.Wrap(err, "storing company")
	}

	if len(result.Filings) > 0 {
		if _, err := st.UpsertFilings(ctx, result.Filings); err != nil {
			return 0, eris.Wrap(err, "storing filings")
		}
	}

	if len(result.Rows) == 0 {
		return 0, nil
	}
	stored, err := st.UpsertFacts(ctx, result.CIK, result.Rows)
	if err != nil {
		return 0, eris.Wrap(err, "storing facts")
	}
	return stored, nil
}
