package main

import (
	"fmt"

	"github.com/jgoulah/ehrkpi/internal/report"
	"github.com/spf13/cobra"
)

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "Print the distinct states stored in the catalogue",
	Long:  `Prints the stored record count and every distinct (state, state code, state FIPS) triple in the catalogue, sorted by state code.`,
	Args:  cobra.NoArgs,
	RunE:  runStates,
}

func init() {
	rootCmd.AddCommand(statesCmd)
}

func runStates(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	count, err := db.CountRecords()
	if err != nil {
		return err
	}
	states, err := db.ListStates()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.WriteCount(out, count); err != nil {
		return err
	}
	return report.WriteStates(out, states)
}
