package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/ehrkpi/internal/database"
	"github.com/jgoulah/ehrkpi/pkg/models"
	"github.com/spf13/cobra"
)

var (
	listState  string
	listPeriod string
	listLimit  int
	listRuns   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored KPI records",
	Long:  `Displays KPI records stored in the catalogue by 'ehrkpi import'. Absent counts print as NA.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listState, "state", "", "Filter by state code (e.g. OH)")
	listCmd.Flags().StringVar(&listPeriod, "period", "", "Filter by reporting period (e.g. 2013-01)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Limit number of records shown (0 = no limit)")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "List import runs instead of records")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if listRuns {
		runs, err := db.ListRuns()
		if err != nil {
			return fmt.Errorf("listing import runs: %w", err)
		}
		printRuns(out, runs)
		return nil
	}

	records, err := db.ListRecords(database.RecordFilter{StateCode: listState, Period: listPeriod})
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}

	total := len(records)
	if listLimit > 0 && total > listLimit {
		records = records[:listLimit]
	}

	printRecords(out, records)
	fmt.Fprintf(out, "Showing %s of %s records\n", humanize.Comma(int64(len(records))), humanize.Comma(int64(total)))
	return nil
}

const recordRow = "%-5s %-24s %-6s %-8s %8s %8s %8s %8s %8s %8s\n"

func printRecords(w io.Writer, records []models.KPIRecord) {
	fmt.Fprintf(w, recordRow, "State", "County", "FIPS", "Period", "Signed", "PC Sign", "Live", "PC Live", "MU", "PC MU")
	fmt.Fprintln(w, "--------------------------------------------------------------------------------------------------")
	for _, r := range records {
		fmt.Fprintf(w, recordRow,
			r.StateCode, truncate(r.CountyName, 24), r.FIPS, r.Period,
			formatCount(r.NumProvidersSignedUp),
			formatCount(r.NumPrimaryCareProvidersSignedUp),
			formatCount(r.NumProvidersGoLive),
			formatCount(r.NumPrimaryCareProvidersGoLive),
			formatCount(r.NumProvidersMeaningfulUse),
			formatCount(r.NumPrimaryCareProvidersMeaningfulUse),
		)
	}
	fmt.Fprintln(w, "--------------------------------------------------------------------------------------------------")
}

func printRuns(w io.Writer, runs []database.ImportRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No import runs found")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %s  %s/%s inserted\n",
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.ID, run.Source,
			humanize.Comma(int64(run.Inserted)), humanize.Comma(int64(run.Total)))
	}
}

// formatCount renders an absent count the way the dataset does.
func formatCount(n *int) string {
	if n == nil {
		return "NA"
	}
	return strconv.Itoa(*n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
