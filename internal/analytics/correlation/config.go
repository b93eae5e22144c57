package correlation

import (
	"runtime"
)

// Config holds the parameters of the correlation testers and the engine.
type Config struct {
	// SubLength fixes the sub-series length k; 0 estimates it per dimension
	SubLength int

	// TsRatio uses the first 1/TsRatio of each series for length estimation
	TsRatio float64

	// AcfRatio limits the autocorrelation to the first 1/AcfRatio lags
	AcfRatio float64

	// AdfRatio feeds the first 1/AdfRatio of the series to the unit-root test
	AdfRatio float64

	// WidthRatio divides the unit-root lag to obtain the minimum peak width
	WidthRatio float64

	SubLenMax int
	SubLenMin int

	// R is the number of nearest neighbours counted per pooled point
	R int

	// Alpha is the decision threshold of the z statistic and the effect t statistic
	Alpha float64

	// NNDisThreshold treats all neighbours as equidistant when the normalized
	// spread of DTW distances falls below it
	NNDisThreshold float64

	// PearsonThreshold is the absolute coefficient above which the Pearson
	// tester reports a correlation
	PearsonThreshold float64

	// Workers bounds concurrent (dimension, event) tests; 0 uses GOMAXPROCS
	Workers int

	// Seed drives the reference sampling; runs with the same seed are reproducible
	Seed uint64
}

// DefaultConfig returns default correlation configuration
func DefaultConfig() Config {
	return Config{
		SubLength:        0,
		TsRatio:          1,
		AcfRatio:         16,
		AdfRatio:         64,
		WidthRatio:       0.5,
		SubLenMax:        100,
		SubLenMin:        20,
		R:                3,
		Alpha:            1.96,
		NNDisThreshold:   0.0025,
		PearsonThreshold: 0.1,
		Workers:          0,
		Seed:             1,
	}
}

// Validate checks every parameter and returns an *InvalidConfigurationError
// for the first one out of range
func (c Config) Validate() error {
	switch {
	case c.SubLength < 0:
		return &InvalidConfigurationError{Field: "sub_length", Value: c.SubLength, Reason: "must be positive or 0 for auto-detection"}
	case c.TsRatio < 1:
		return &InvalidConfigurationError{Field: "ts_ratio", Value: c.TsRatio, Reason: "must be at least 1"}
	case c.AcfRatio < 1:
		return &InvalidConfigurationError{Field: "acf_ratio", Value: c.AcfRatio, Reason: "must be at least 1"}
	case c.AdfRatio < 1:
		return &InvalidConfigurationError{Field: "adf_ratio", Value: c.AdfRatio, Reason: "must be at least 1"}
	case c.WidthRatio <= 0:
		return &InvalidConfigurationError{Field: "width_ratio", Value: c.WidthRatio, Reason: "must be positive"}
	case c.SubLenMin < 1:
		return &InvalidConfigurationError{Field: "sub_len_min", Value: c.SubLenMin, Reason: "must be at least 1"}
	case c.SubLenMax < c.SubLenMin:
		return &InvalidConfigurationError{Field: "sub_len_max", Value: c.SubLenMax, Reason: "must not be below sub_len_min"}
	case c.R < 1:
		return &InvalidConfigurationError{Field: "r", Value: c.R, Reason: "must be at least 1"}
	case c.NNDisThreshold < 0:
		return &InvalidConfigurationError{Field: "nn_dis_threshold", Value: c.NNDisThreshold, Reason: "must not be negative"}
	case c.PearsonThreshold < 0:
		return &InvalidConfigurationError{Field: "pearson_threshold", Value: c.PearsonThreshold, Reason: "must not be negative"}
	case c.Workers < 0:
		return &InvalidConfigurationError{Field: "workers", Value: c.Workers, Reason: "must not be negative"}
	}
	return nil
}

// workers resolves the effective worker count
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
