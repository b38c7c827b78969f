package main

import (
	"log/slog"

	"github.com/jgoulah/ehrkpi/internal/dataset"
	"github.com/jgoulah/ehrkpi/internal/report"
	"github.com/spf13/cobra"
)

var reportSort bool

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Print the record count and distinct states of a dataset",
	Long: `Loads the KPI CSV and prints the total number of records followed by one
(state, state code, state FIPS) line per distinct state. States appear in the
order they are first seen unless --sort is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportSort, "sort", false, "Sort states by state code")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	path := getDatasetPath(args)

	records, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	slog.Info("dataset loaded", "path", path, "records", len(records))

	return report.Write(cmd.OutOrStdout(), records, report.Options{Sort: reportSort})
}
