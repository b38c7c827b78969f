package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgoulah/ehrkpi/internal/config"
	"github.com/jgoulah/ehrkpi/internal/database"
	"github.com/jgoulah/ehrkpi/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	dbPath    string
	logLevel  string
	logFormat string

	// cfg is loaded once per invocation before any command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ehrkpi [file]",
	Short: "Load the ONC REC EHR adoption KPI dataset by county",
	Long: `ehrkpi reads the Office of the National Coordinator (ONC) Regional Extension
Center KPI dataset (REC_KPI_County.csv), which counts providers signed up, live
on an EHR, and demonstrating meaningful use, per county and reporting period.

Run without a subcommand it prints the record count and every distinct
(state, state code, state FIPS) triple in the dataset.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runReport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./ehrkpi.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text, json, auto")
	rootCmd.Flags().BoolVar(&reportSort, "sort", false, "Sort states by state code")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config file and installs the logger. Flags win over config.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	format := cfg.Log.Format
	if logFormat != "" {
		format = logFormat
	}
	logging.Setup(level, format, cmd.ErrOrStderr())

	return nil
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.GetDatabasePath()
}

// getDatasetPath returns the CSV named on the command line or in config
func getDatasetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.GetDatasetPath()
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}
