package config

import (
	"fmt"
	"os"

	"github.com/pevans/headlines/scraper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when HEADLINES_CONFIG
// is not set.
const DefaultConfigFile = "headlines.yaml"

// FileConfig represents the structure of headlines.yaml. Every field is
// optional; empty values keep the defaults.
type FileConfig struct {
	DataDir string           `yaml:"data_dir"`
	Storage StorageConfig    `yaml:"storage"`
	Output  OutputConfig     `yaml:"output"`
	Server  ServerConfig     `yaml:"server"`
	Logging LoggingConfig    `yaml:"logging"`
	Sources []scraper.Source `yaml:"sources"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DSN string `yaml:"dsn"`
}

// OutputConfig locates the flat-file sinks.
type OutputConfig struct {
	CSV  string `yaml:"csv"`
	JSON string `yaml:"json"`
}

// ServerConfig configures the dashboard listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfigFile loads configuration from path. Returns nil if the file
// doesn't exist (not an error). Returns error if the file exists but cannot
// be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
