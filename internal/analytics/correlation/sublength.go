package correlation

import (
	"context"
	"fmt"

	"github.com/soltixdb/cets/internal/analytics"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/stats"
)

// SubLength is an estimated window length; Found is false when the
// autocorrelation showed no usable peak.
type SubLength struct {
	K     int
	Found bool
}

// SubLengthEstimator picks a window length per dimension from the first
// peak of the circular autocorrelation.
type SubLengthEstimator struct {
	cfg    Config
	logger *logging.Logger
}

// NewSubLengthEstimator creates an estimator; a nil logger uses the global one
func NewSubLengthEstimator(cfg Config, logger *logging.Logger) *SubLengthEstimator {
	if logger == nil {
		logger = logging.Global()
	}
	return &SubLengthEstimator{cfg: cfg, logger: logger}
}

// Estimate returns the clamped first ACF peak of a single dimension
func (e *SubLengthEstimator) Estimate(series []float64) SubLength {
	n := len(series)
	acf := stats.CircularACF(series, int(float64(n)/e.cfg.AcfRatio))
	if len(acf) == 0 {
		return SubLength{}
	}

	peaks := stats.FindPeaks(acf, e.peakWidth(series))
	if len(peaks) == 0 {
		return SubLength{}
	}

	k := peaks[0].Index
	if k > e.cfg.SubLenMax {
		k = e.cfg.SubLenMax
	}
	if k < e.cfg.SubLenMin {
		k = e.cfg.SubLenMin
	}
	return SubLength{K: k, Found: true}
}

// peakWidth derives the minimum peak width from the ADF lag order; any
// failure of the unit-root test falls back to 0
func (e *SubLengthEstimator) peakWidth(series []float64) float64 {
	head := series[:int(float64(len(series))/e.cfg.AdfRatio)]
	result, err := stats.ADF(head, stats.RegressionConstantTrend)
	if err != nil {
		e.logger.Debug("ADF failed, using zero peak width", "points", len(head), "error", err.Error())
		return 0
	}
	return float64(result.UsedLag) / e.cfg.WidthRatio
}

// BuildSubLengths estimates one window length per dimension of a normalized
// sample. Dimensions without a peak take the integer average of the found
// ones. When no dimension has a peak all lengths are 0 and ErrNoSubLength
// is returned.
func (e *SubLengthEstimator) BuildSubLengths(ctx context.Context, sample analytics.Series) ([]int, error) {
	head := sample.Head(int(float64(sample.Len()) / e.cfg.TsRatio))
	dims := sample.Dims()

	raw := make([]SubLength, dims)
	sum, found := 0, 0
	for d := 0; d < dims; d++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw[d] = e.Estimate(head.Dimension(d))
		if raw[d].Found {
			sum += raw[d].K
			found++
		}
	}

	lengths := make([]int, dims)
	if found == 0 {
		return lengths, fmt.Errorf("%d dimensions: %w", dims, ErrNoSubLength)
	}

	avg := sum / found
	for d, sl := range raw {
		if sl.Found {
			lengths[d] = sl.K
		} else {
			lengths[d] = avg
		}
	}
	return lengths, nil
}
