package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/edgar-sync/internal/config"
	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/fetcher"
	"github.com/sells-group/edgar-sync/internal/mapping"
	"github.com/sells-group/edgar-sync/internal/pipeline"
	"github.com/sells-group/edgar-sync/internal/store"
	"github.com/sells-group/edgar-sync/internal/xbrl"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "edgar-sync",
	Short: "SEC EDGAR XBRL retrieval and reconciliation pipeline",
	Long:  "Resolves tickers, retrieves filing histories from the EDGAR archive, extracts XBRL facts, reconciles them into labeled reporting rows, and stores the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initClient builds the shared fetcher and the archive client over it.
func initClient() (*edgar.Client, fetcher.Fetcher, error) {
	f, err := fetcher.NewHTTPFetcher(fetcher.Options{
		Company:    cfg.EDGAR.Company,
		Contact:    cfg.EDGAR.Contact,
		Email:      cfg.EDGAR.Email,
		RatePerSec: cfg.EDGAR.RatePerSec,
		Timeout:    time.Duration(cfg.EDGAR.TimeoutSecs) * time.Second,
		MaxWait:    time.Duration(cfg.EDGAR.MaxWaitSecs) * time.Second,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "init fetcher")
	}
	return edgar.NewClient(f), f, nil
}

// initRunner wires the full pipeline: client, extractor, mapping table.
func initRunner() (*pipeline.Runner, error) {
	client, f, err := initClient()
	if err != nil {
		return nil, err
	}

	table, err := mapping.Load(cfg.Mapping.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load mapping table")
	}

	extractor := xbrl.NewExtractor(f, client, cfg.EDGAR.Taxonomy)
	return pipeline.NewRunner(client, extractor, table), nil
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// minFilingDate parses the configured coverage floor. A bad value is a
// config error, not something to silently ignore.
func minFilingDate() (time.Time, error) {
	if cfg.EDGAR.MinFilingYMD == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", cfg.EDGAR.MinFilingYMD)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "parse edgar.min_filing_date")
	}
	return t, nil
}
