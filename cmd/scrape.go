package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-sync/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <ticker>...",
	Short: "Run the full extraction pipeline and store the results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runner, err := initRunner()
		if err != nil {
			return err
		}

		opts, err := scrapeRunOpts(cmd)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			for _, ticker := range args {
				result, err := runner.Run(ctx, ticker, opts)
				if err != nil {
					return err
				}
				printRunSummary(result)
			}
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		// One bad ticker should not abandon the rest of the batch.
		var failed int
		for _, ticker := range args {
			result, err := runner.Sync(ctx, st, ticker, opts)
			if err != nil {
				zap.L().Error("scrape failed",
					zap.String("ticker", ticker),
					zap.Error(err),
				)
				failed++
				continue
			}
			printRunSummary(result)
		}
		if failed == len(args) {
			return eris.New("every ticker failed")
		}
		return nil
	},
}

func scrapeRunOpts(cmd *cobra.Command) (pipeline.RunOpts, error) {
	searchOpts, err := filingsSearchOpts(cmd)
	if err != nil {
		return pipeline.RunOpts{}, err
	}

	floor, err := minFilingDate()
	if err != nil {
		return pipeline.RunOpts{}, err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	return pipeline.RunOpts{
		Form:          searchOpts.Form,
		Start:         searchOpts.Start,
		End:           searchOpts.End,
		MinFilingDate: floor,
		Limit:         limit,
	}, nil
}

func printRunSummary(result *pipeline.Result) {
	summary := map[string]any{
		"ticker":    result.Ticker,
		"cik":       result.CIK,
		"filings":   len(result.Filings),
		"processed": result.Counts.FilingsProcessed,
		"no_data":   result.Counts.FilingsNoData,
		"facts":     result.Counts.FactsExtracted,
		"unlabeled": result.Counts.RowsUnlabeled,
		"rows":      result.Counts.RowsFinal,
		"durations": len(result.Durations),
		"instants":  len(result.Instants),
	}
	if len(result.Failures) > 0 {
		failures := make([]map[string]string, len(result.Failures))
		for i, f := range result.Failures {
			failures[i] = map[string]string{
				"accession": f.AccessionNumber,
				"error":     f.Err.Error(),
			}
		}
		summary["failures"] = failures
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
}

func init() {
	scrapeCmd.Flags().String("form", "10-K", "form type to scrape")
	scrapeCmd.Flags().String("from", "", "earliest filing date (YYYY-MM-DD)")
	scrapeCmd.Flags().String("to", "", "latest filing date (YYYY-MM-DD)")
	scrapeCmd.Flags().Int("limit", 0, "max filings per ticker, newest first (0 = all)")
	scrapeCmd.Flags().Bool("dry-run", false, "run the pipeline without storing anything")
	rootCmd.AddCommand(scrapeCmd)
}
