package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/ehrkpi/internal/dataset"
	"github.com/jgoulah/ehrkpi/internal/fetcher"
	"github.com/spf13/cobra"
)

var (
	fetchVisible bool
	fetchOut     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the dataset from the ONC dashboard",
	Long: `Opens the dataset documentation page in headless Chrome, clicks the
REC_KPI_County.csv link and saves the download to the configured dataset path.
The file is loaded afterwards to confirm it parses.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchVisible, "visible", false, "Show browser window (for debugging)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "Destination file (default is the configured dataset path)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	slog.Info("fetch started", "at", time.Now().Format("2006-01-02 15:04:05 MST"))

	dest := fetchOut
	if dest == "" {
		dest = cfg.GetDatasetPath()
	}

	d := fetcher.New(cfg.GetPageURL(), dataset.DefaultPath, fetchVisible, cfg.GetFetchTimeout())
	size, err := d.Download(context.Background(), dest)
	if err != nil {
		return fmt.Errorf("downloading dataset: %w", err)
	}

	records, err := dataset.LoadFile(dest)
	if err != nil {
		return fmt.Errorf("verifying download: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s (%s, %s records)\n",
		dest, humanize.Bytes(uint64(size)), humanize.Comma(int64(len(records))))
	return nil
}
