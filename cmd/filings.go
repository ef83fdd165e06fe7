package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/edgar-sync/internal/edgar"
)

var filingsCmd = &cobra.Command{
	Use:   "filings <ticker>",
	Short: "List a company's filings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, _, err := initClient()
		if err != nil {
			return err
		}

		cik, err := client.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		filings, err := client.ListFilings(ctx, cik)
		if err != nil {
			return err
		}

		opts, err := filingsSearchOpts(cmd)
		if err != nil {
			return err
		}

		latest, _ := cmd.Flags().GetBool("latest")
		if latest {
			f, ok := edgar.Latest(filings, opts)
			if !ok {
				fmt.Fprintln(os.Stderr, "No filings match.")
				return nil
			}
			formatFilings(os.Stdout, []edgar.Filing{f})
			return nil
		}

		matches := edgar.Search(filings, opts)
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "No filings match.")
			return nil
		}
		formatFilings(os.Stdout, matches)
		return nil
	},
}

func filingsSearchOpts(cmd *cobra.Command) (edgar.SearchOpts, error) {
	var opts edgar.SearchOpts
	opts.Form, _ = cmd.Flags().GetString("form")

	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return opts, eris.Wrap(err, "parse --from")
		}
		opts.Start = t
	}

	to, _ := cmd.Flags().GetString("to")
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return opts, eris.Wrap(err, "parse --to")
		}
		opts.End = t
	}

	return opts, nil
}

func formatFilings(out io.Writer, filings []edgar.Filing) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ACCESSION\tFORM\tFILED\tREPORT\tXBRL")
	_, _ = fmt.Fprintln(w, "---------\t----\t-----\t------\t----")
	for _, f := range filings {
		xbrlFlag := ""
		if f.IsXBRL {
			xbrlFlag = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			f.AccessionNumber,
			f.Form,
			f.FilingDate.Format("2006-01-02"),
			f.ReportDate.Format("2006-01-02"),
			xbrlFlag,
		)
	}
	_ = w.Flush()
}

func init() {
	filingsCmd.Flags().String("form", "", "filter by form type (e.g. 10-K)")
	filingsCmd.Flags().String("from", "", "earliest filing date (YYYY-MM-DD)")
	filingsCmd.Flags().String("to", "", "latest filing date (YYYY-MM-DD)")
	filingsCmd.Flags().Bool("latest", false, "show only the most recent match")
	rootCmd.AddCommand(filingsCmd)
}
