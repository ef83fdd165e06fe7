package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <ticker>",
	Short: "Resolve a ticker to its CIK and company metadata",
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

		sub, err := client.Submissions(ctx, cik)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"cik":             cik,
			"name":            sub.Name,
			"sic":             sub.SIC,
			"sic_description": sub.SICDescription,
			"tickers":         sub.Tickers,
			"exchanges":       sub.Exchanges,
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
