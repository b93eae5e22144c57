package correlation

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/cets/internal/logging"
)

// TesterPearson is the registry name of the Pearson baseline tester
const TesterPearson = "pearson"

func init() {
	RegisterTester(TesterPearson, func(cfg Config, logger *logging.Logger) (CorrelationTester, error) {
		return NewPearsonTester(cfg)
	})
}

// PearsonTester correlates a dimension with the 0/1 event indicator series.
// A positive coefficient above the threshold reports TypeEventToSeriesRise,
// a negative one TypeEventToSeriesFall, anything else is uncorrelated with
// type TypeEventToSeries.
type PearsonTester struct {
	threshold float64
}

// NewPearsonTester creates a Pearson tester
func NewPearsonTester(cfg Config) (*PearsonTester, error) {
	if cfg.PearsonThreshold < 0 {
		return nil, &InvalidConfigurationError{Field: "pearson_threshold", Value: cfg.PearsonThreshold, Reason: "must not be negative"}
	}
	return &PearsonTester{threshold: cfg.PearsonThreshold}, nil
}

// Name returns the tester name
func (p *PearsonTester) Name() string {
	return TesterPearson
}

// Coefficient returns the sample covariance of series and indicator divided
// by their population standard deviations; 0 when either is constant
func Coefficient(series, indicator []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	_, v0 := stat.PopMeanVariance(series, nil)
	_, v1 := stat.PopMeanVariance(indicator, nil)
	if v0 == 0 || v1 == 0 {
		return 0
	}
	return stat.Covariance(series, indicator, nil) / math.Sqrt(v0*v1)
}

// Test computes the coefficient for one dimension
func (p *PearsonTester) Test(ctx context.Context, in TestInput) (TestResult, error) {
	if err := ctx.Err(); err != nil {
		return Uncorrelated, err
	}

	coef := Coefficient(in.Series, in.Events.Indicator(len(in.Series)))
	switch {
	case coef > p.threshold:
		return TestResult{Correlated: true, Type: TypeEventToSeriesRise}, nil
	case coef < -p.threshold:
		return TestResult{Correlated: true, Type: TypeEventToSeriesFall}, nil
	default:
		return TestResult{Correlated: false, Type: TypeEventToSeries}, nil
	}
}
