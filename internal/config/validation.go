package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alfariiizi/vpkg-template/internal/logging"
	"github.com/alfariiizi/vpkg-template/internal/report"
)

// MaxWorkers bounds validate.workers.
const MaxWorkers = 256

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateCatalogConfig(&config.Catalog); err != nil {
		return fmt.Errorf("catalog config: %w", err)
	}

	if err := validateValidateConfig(&config.Validate); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: debounce %s cannot be negative", config.Watch.Debounce)
	}

	// Every pattern must compile before a run starts.
	if _, err := config.Rules.Compile(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	return nil
}

func validateCatalogConfig(config *CatalogConfig) error {
	if strings.ContainsRune(config.Path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}
	if filepath.Clean(config.Path) == "." {
		return fmt.Errorf("path %q does not name a file", config.Path)
	}
	return nil
}

func validateValidateConfig(config *ValidateConfig) error {
	if config.Workers < 0 || config.Workers > MaxWorkers {
		return fmt.Errorf("workers %d is not in valid range 0-%d", config.Workers, MaxWorkers)
	}

	if _, err := report.ParseFormat(config.Format); err != nil {
		return err
	}

	if config.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size %d cannot be negative", config.MaxFileSize)
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout %s cannot be negative", config.Timeout)
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		return err
	}

	switch config.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("log format %q is not one of text, json", config.Format)
	}
}

// LoggerConfig converts the log section. The level was checked by Load.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.Format = c.Log.Format
	return lc
}
