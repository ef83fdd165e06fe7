package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/edgar-sync/internal/edgar"
)

var sicCmd = &cobra.Command{
	Use:   "sic",
	Short: "List SIC codes from the archive's directory page",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := initClient()
		if err != nil {
			return err
		}

		codes, err := client.SICList(cmd.Context())
		if err != nil {
			return err
		}

		formatSICCodes(os.Stdout, codes)
		return nil
	},
}

func formatSICCodes(out io.Writer, codes []edgar.SICCode) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tOFFICE\tTITLE")
	_, _ = fmt.Fprintln(w, "----\t------\t-----")
	for _, c := range codes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Code, c.Office, c.Title)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(sicCmd)
}
