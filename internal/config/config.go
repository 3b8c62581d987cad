// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogDir holds extra definition files loaded after the built-in ones.
	// A file whose key matches a built-in test replaces it.
	CatalogDir string `koanf:"catalog_dir"`

	// ShareBaseURL is the page share links point at.
	ShareBaseURL string `koanf:"share_base_url"`

	// ShareCacheSize bounds the reopened-share cache.
	ShareCacheSize int `koanf:"share_cache_size"`

	// BatchWorkers caps concurrent scoring inside one batch request.
	BatchWorkers int `koanf:"batch_workers"`

	// MaxBatchSize caps submissions per batch request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// AllowPartialAnswers accepts submissions with unanswered questions.
	AllowPartialAnswers bool `koanf:"allow_partial_answers"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		ShareBaseURL:   "http://localhost:9080/",
		ShareCacheSize: 4096,
		BatchWorkers:   runtime.NumCPU(),
		MaxBatchSize:   500,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ShareCacheSize <= 0:
		return fmt.Errorf("%w: share_cache_size must be positive, got %d", ErrInvalidConfig, c.ShareCacheSize)
	case c.BatchWorkers <= 0:
		return fmt.Errorf("%w: batch_workers must be positive, got %d", ErrInvalidConfig, c.BatchWorkers)
	case c.MaxBatchSize <= 0:
		return fmt.Errorf("%w: max_batch_size must be positive, got %d", ErrInvalidConfig, c.MaxBatchSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
