package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/example/aspen/internal/db"
)

// Environment overrides
const (
	EnvDriver = "ASPEN_DB_DRIVER"
	EnvDSN    = "ASPEN_DB_DSN"
)

// Export sink drivers
const (
	ExportFS     = "fs"
	ExportS3     = "s3"
	ExportMemory = "memory"
)

// Config represents the aspen configuration
type Config struct {
	Driver    string        `json:"driver"`
	DSN       string        `json:"dsn,omitempty"`
	LogLevel  string        `json:"log_level,omitempty"`  // debug, info, warn, error
	LogFormat string        `json:"log_format,omitempty"` // text or json
	User      string        `json:"user,omitempty"`       // recorded in the audit log
	Export    ExportConfig  `json:"export"`
	Metrics   MetricsConfig `json:"metrics"`
}

// ExportConfig selects where export files are written.
type ExportConfig struct {
	Driver string   `json:"driver"`
	Root   string   `json:"root,omitempty"`
	S3     S3Config `json:"s3,omitempty"`
}

// S3Config configures the S3 export sink.
type S3Config struct {
	Bucket    string `json:"bucket,omitempty"`
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	PathStyle bool   `json:"path_style,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
}

// MetricsConfig toggles the prometheus registry.
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	path, err := db.DefaultPath()
	if err != nil {
		return nil, err
	}
	return &Config{
		Driver:    db.DriverSQLite3,
		DSN:       path,
		LogLevel:  "info",
		LogFormat: "text",
		Export:    ExportConfig{Driver: ExportFS, Root: filepath.Join(filepath.Dir(path), "export")},
	}, nil
}

// LoadConfig reads .aspen/config.json from the specified directory and
// applies environment overrides. A missing file yields the defaults.
func LoadConfig(dir string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, ".aspen", "config.json")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.DSN = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have a fixed set of values.
func (c *Config) Validate() error {
	if _, err := db.DialectFor(c.Driver); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("config: dsn is required for driver %q", c.Driver)
	}
	switch c.Export.Driver {
	case "", ExportFS, ExportMemory:
	case ExportS3:
		if c.Export.S3.Bucket == "" {
			return fmt.Errorf("config: export.s3.bucket is required")
		}
	default:
		return fmt.Errorf("config: unknown export driver %q", c.Export.Driver)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	aspenDir := filepath.Join(dir, ".aspen")
	if err := os.MkdirAll(aspenDir, 0755); err != nil {
		return fmt.Errorf("failed to create .aspen dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(aspenDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
