package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client settings loaded from ~/.tusty/config.yaml
type Config struct {
	ServerURL      string        `yaml:"server_url"`
	Database       string        `yaml:"database"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty"`
}

// DefaultConfigDir returns ~/.tusty
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tusty"), nil
}

// DefaultConfig returns the built-in settings rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		ServerURL:      "http://localhost:8000",
		Database:       filepath.Join(dir, "tusty.db"),
		LogLevel:       "info",
		LogFormat:      "console",
		RequestTimeout: 60 * time.Second,
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
// TUSTY_SERVER_URL and TUSTY_DATABASE override the file.
func LoadConfig(path string) (Config, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig(dir)
	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		LogDebug("No config file at %s, using defaults", path)
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ParseError{Source: "config", Key: path, Err: err}
		}
	}

	if v := os.Getenv("TUSTY_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("TUSTY_DATABASE"); v != "" {
		cfg.Database = v
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return cfg, nil
}
