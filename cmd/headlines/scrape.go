package main

import (
	"errors"
	"fmt"

	"github.com/pevans/headlines/pipeline"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every source once and save the batch.",
	Args:  cobra.NoArgs,
	RunE:  runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	result, err := pipeline.NewFromConfig(cfg, logger).Run(cmd.Context())
	if errors.Is(err, pipeline.ErrNothingScraped) {
		fmt.Fprintln(cmd.OutOrStdout(), "No headlines scraped")
		return nil
	}
	if err != nil {
		return err
	}

	printScrapeSummary(cmd.OutOrStdout(), result)
	return nil
}
