// Package loadtest drives a running assessment service with generated
// submissions and checks that every issued share token reopens to the
// same result.
package loadtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/assess/pkg/logger"
)

// Defaults for a load run.
const (
	DefaultSubmissions = 1000
	DefaultTimeout     = 10 * time.Second
)

// ErrInvalidConfig marks a load configuration that cannot run.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	TestKey     string        // Test to submit answers for
	Submissions int           // Number of submissions to generate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Seed of the answer generator
	Verify      bool          // Reopen every token and compare results
	Logger      logger.Logger // Defaults to the global "loadtest" logger
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.TestKey == "":
		return fmt.Errorf("%w: test key is required", ErrInvalidConfig)
	case c.Submissions <= 0:
		return fmt.Errorf("%w: submissions must be positive, got %d", ErrInvalidConfig, c.Submissions)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Submitted  int            `json:"submitted"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Reopened   int            `json:"reopened"`
	Mismatched int            `json:"mismatched"`
	Codes      map[string]int `json:"codes"`
	Duration   time.Duration  `json:"duration"`
}

// PerSecond is the submission throughput of the run.
func (s *Stats) PerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}
