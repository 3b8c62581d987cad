package catalog

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidDefinition = errors.New("invalid test definition")
	ErrLoadDefinition    = errors.New("load test definition failed")
	ErrUnknownTest       = errors.New("unknown test")
	ErrDuplicateTest     = errors.New("duplicate test key")
)
