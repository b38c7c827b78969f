package main

import (
	"fmt"
	"log/slog"

	"github.com/jgoulah/ehrkpi/internal/dataset"
	"github.com/jgoulah/ehrkpi/internal/publisher"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Publish the dataset summary to MQTT",
	Long: `Loads the KPI CSV and publishes the record count and every distinct state as
retained JSON messages on <prefix>/summary and <prefix>/states/<state_code>_<state_fips>.
MQTT must be enabled in config.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	path := getDatasetPath(args)
	records, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	slog.Info("dataset loaded", "path", path, "records", len(records))

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	n, err := pub.Publish(path, records)
	if err != nil {
		return fmt.Errorf("published %d messages before failing: %w", n, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Published %d messages to %s/\n", n, cfg.MQTT.GetTopicPrefix())
	return nil
}
