package config

import (
	"errors"
)

// Sentinel error kinds for configuration. Loader and validation errors wrap
// one of them.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
