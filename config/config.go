// Package config resolves where headlines are stored, which sources are
// scraped and how the dashboard listens.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pevans/headlines/scraper"
)

// Configuration validation errors.
var (
	ErrNoSources       = errors.New("at least one source is required")
	ErrMissingAddr     = errors.New("server address is required")
	ErrInvalidLogLevel = errors.New("log level must be one of: debug, info, warn, error")
)

// Environment variables that override file and default values.
const (
	EnvConfigFile = "HEADLINES_CONFIG"
	EnvDataDir    = "HEADLINES_DATA_DIR"
	EnvDB         = "HEADLINES_DB"
	EnvCSV        = "HEADLINES_CSV"
	EnvJSON       = "HEADLINES_JSON"
	EnvAddr       = "HEADLINES_ADDR"
	EnvLogLevel   = "HEADLINES_LOG_LEVEL"
)

// Config is the resolved configuration. It is passed explicitly to every
// component that touches storage.
type Config struct {
	DataDir  string
	DBPath   string
	CSVPath  string
	JSONPath string
	Addr     string
	LogLevel string
	Sources  []scraper.Source
}

// Paths are the three sinks a batch is written to.
type Paths struct {
	DB   string
	CSV  string
	JSON string
}

// Paths returns the sink locations.
func (c *Config) Paths() Paths {
	return Paths{DB: c.DBPath, CSV: c.CSVPath, JSON: c.JSONPath}
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg := defaults()
	cfg.Sources = scraper.DefaultSources()
	cfg.resolvePaths()
	return cfg
}

func defaults() *Config {
	return &Config{
		DataDir:  "data",
		Addr:     "localhost:8501",
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the YAML config file, a .env
// file in the working directory and the environment, in that order.
func Load() (*Config, error) {
	// A missing .env is fine; variables may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	path := getEnv(EnvConfigFile, DefaultConfigFile)
	fileCfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	cfg.applyFile(fileCfg)
	cfg.applyEnv()
	if len(cfg.Sources) == 0 {
		cfg.Sources = scraper.DefaultSources()
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(f *FileConfig) {
	if f == nil {
		return
	}

	setIfNotEmpty(&c.DataDir, f.DataDir)
	setIfNotEmpty(&c.DBPath, f.Storage.DSN)
	setIfNotEmpty(&c.CSVPath, f.Output.CSV)
	setIfNotEmpty(&c.JSONPath, f.Output.JSON)
	setIfNotEmpty(&c.Addr, f.Server.Addr)
	setIfNotEmpty(&c.LogLevel, f.Logging.Level)

	if len(f.Sources) > 0 {
		c.Sources = f.Sources
	}
}

func (c *Config) applyEnv() {
	setIfNotEmpty(&c.DataDir, os.Getenv(EnvDataDir))
	setIfNotEmpty(&c.DBPath, os.Getenv(EnvDB))
	setIfNotEmpty(&c.CSVPath, os.Getenv(EnvCSV))
	setIfNotEmpty(&c.JSONPath, os.Getenv(EnvJSON))
	setIfNotEmpty(&c.Addr, os.Getenv(EnvAddr))
	setIfNotEmpty(&c.LogLevel, os.Getenv(EnvLogLevel))
}

// resolvePaths fills sink paths that were not set explicitly from DataDir.
func (c *Config) resolvePaths() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "news.db")
	}
	if c.CSVPath == "" {
		c.CSVPath = filepath.Join(c.DataDir, "headlines.csv")
	}
	if c.JSONPath == "" {
		c.JSONPath = filepath.Join(c.DataDir, "headlines.json")
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	for _, src := range c.Sources {
		if err := src.Validate(); err != nil {
			return fmt.Errorf("invalid source: %w", err)
		}
	}

	if c.Addr == "" {
		return ErrMissingAddr
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
