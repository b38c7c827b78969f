package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/ehrkpi/internal/dataset"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Store dataset records in the local SQLite catalogue",
	Long: `Loads the KPI CSV and stores every record in the SQLite catalogue under a new
import run. Records already stored for the same county FIPS and period are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := getDatasetPath(args)

	records, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	slog.Info("dataset loaded", "path", path, "records", len(records))

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	run, err := db.ImportRecords(path, records)
	if err != nil {
		return fmt.Errorf("importing records: %w", err)
	}
	slog.Info("import complete", "run_id", run.ID, "inserted", run.Inserted, "total", run.Total)

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s of %s records (run %s, duplicates skipped)\n",
		humanize.Comma(int64(run.Inserted)), humanize.Comma(int64(run.Total)), run.ID)
	return nil
}
