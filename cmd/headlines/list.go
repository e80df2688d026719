package main

import (
	"fmt"

	"github.com/pevans/headlines/dashboard"
	"github.com/pevans/headlines/store"
	"github.com/spf13/cobra"
)

var (
	listSearch string
	listDate   string
	listFormat string
)

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only headlines containing this text (case-insensitive)")
	listCmd.Flags().StringVar(&listDate, "date", "", "Only headlines scraped on this day (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format: table, json or csv")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [--search <text>] [--date <YYYY-MM-DD>] [--format table|json|csv]",
	Short: "Print stored headlines, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer, ok := listPrinters[listFormat]
		if !ok {
			return fmt.Errorf("invalid format %q: must be table, json or csv", listFormat)
		}

		date, err := dashboard.ParseDate(listDate)
		if err != nil {
			return err
		}

		cfg, _, err := setup()
		if err != nil {
			return err
		}

		rows, err := store.Load(cmd.Context(), cfg.DBPath)
		if err != nil {
			return err
		}

		filter := dashboard.Filter{Search: listSearch, Date: date}
		return printer(cmd.OutOrStdout(), filter.Apply(rows))
	},
}
