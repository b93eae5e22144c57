package correlation

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateInput is returned when a sample cannot be normalized
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInvalidConfiguration is the sentinel wrapped by InvalidConfigurationError
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoSubLength reports that no dimension of a sample yielded a sub-series length
	ErrNoSubLength = errors.New("no sub-series length could be estimated")
)

// DegenerateInputError reports a constant sample (max == min).
type DegenerateInputError struct {
	Value float64
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("series is constant at %g and cannot be normalized", e.Value)
}

func (e *DegenerateInputError) Unwrap() error {
	return ErrDegenerateInput
}

// InvalidConfigurationError reports a configuration value rejected at construction time.
type InvalidConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// ErrInvalidInput reports samples and event sequences that do not fit together
var ErrInvalidInput = errors.New("invalid input")
