package main

import (
	"fmt"
	"os"

	"github.com/jgoulah/ehrkpi/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long:  `Writes config.yaml (or the file named by --config) with every setting filled in from its default, ready for editing.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	out := &config.Config{
		Dataset: config.DatasetConfig{
			Path:                cfg.GetDatasetPath(),
			PageURL:             cfg.GetPageURL(),
			FetchTimeoutSeconds: int(cfg.GetFetchTimeout().Seconds()),
		},
		Database: config.DatabaseConfig{Path: cfg.GetDatabasePath()},
		MQTT: config.MQTTConfig{
			Enabled:     cfg.MQTT.Enabled,
			Broker:      cfg.MQTT.Broker,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.GetTopicPrefix(),
			ClientID:    cfg.MQTT.GetClientID(),
		},
		Log: cfg.Log,
	}
	if err := config.Save(path, out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
