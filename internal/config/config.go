package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDatasetPath  = "REC_KPI_County.csv"
	defaultPageURL      = "https://dashboard.healthit.gov/datadashboard/documentation/ONC-REC-kpi-county-data-documentation.php"
	defaultFetchTimeout = 3 * time.Minute
	defaultDatabasePath = "ehrkpi.db"
	defaultTopicPrefix  = "ehr_kpi"
	defaultClientID     = "ehrkpi"
)

// Config holds the application configuration
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	MQTT     MQTTConfig     `yaml:"mqtt,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// DatasetConfig locates the KPI CSV on disk and on the ONC dashboard
type DatasetConfig struct {
	Path                string `yaml:"path,omitempty"`                  // local CSV (fallback: REC_KPI_County.csv)
	PageURL             string `yaml:"page_url,omitempty"`              // dashboard page linking the CSV
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds,omitempty"` // fallback: 180
}

// DatabaseConfig holds the SQLite catalogue settings
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MQTTConfig holds MQTT broker settings for publishing state summaries
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // host:port, e.g. "localhost:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: ehr_kpi
	ClientID    string `yaml:"client_id,omitempty"`    // fallback: ehrkpi
}

// LogConfig selects the slog level and output format
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text, json, auto
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// 0600: the file may carry broker credentials
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetDatasetPath returns the dataset location, defaulting to REC_KPI_County.csv
func (c *Config) GetDatasetPath() string {
	if c.Dataset.Path == "" {
		return defaultDatasetPath
	}
	return c.Dataset.Path
}

// GetPageURL returns the dashboard page the dataset is downloaded from
func (c *Config) GetPageURL() string {
	if c.Dataset.PageURL == "" {
		return defaultPageURL
	}
	return c.Dataset.PageURL
}

// GetFetchTimeout returns how long a download may take
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Dataset.FetchTimeoutSeconds <= 0 {
		return defaultFetchTimeout
	}
	return time.Duration(c.Dataset.FetchTimeoutSeconds) * time.Second
}

// GetDatabasePath returns the SQLite file path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return defaultDatabasePath
	}
	return c.Database.Path
}

// GetTopicPrefix returns the MQTT topic prefix
func (m MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix == "" {
		return defaultTopicPrefix
	}
	return m.TopicPrefix
}

// GetClientID returns the MQTT client identifier
func (m MQTTConfig) GetClientID() string {
	if m.ClientID == "" {
		return defaultClientID
	}
	return m.ClientID
}
