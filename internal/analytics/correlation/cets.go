package correlation

import (
	"context"
	"fmt"

	"github.com/soltixdb/cets/internal/analytics"
	"github.com/soltixdb/cets/internal/logging"
)

// TesterCETS is the registry name of the NN two-sample tester
const TesterCETS = "cets"

func init() {
	RegisterTester(TesterCETS, func(cfg Config, logger *logging.Logger) (CorrelationTester, error) {
		return NewCETSTester(cfg, logger)
	})
}

// CETSTester compares the windows before and after each event with windows
// drawn at random from the whole series.
type CETSTester struct {
	cfg       Config
	nn        NNTwoSampleTest
	estimator *SubLengthEstimator
}

// NewCETSTester validates the configuration and creates the tester
func NewCETSTester(cfg Config, logger *logging.Logger) (*CETSTester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CETSTester{
		cfg: cfg,
		nn: NNTwoSampleTest{
			R:              cfg.R,
			Alpha:          cfg.Alpha,
			NNDisThreshold: cfg.NNDisThreshold,
		},
		estimator: NewSubLengthEstimator(cfg, logger),
	}, nil
}

// Name returns the tester name
func (c *CETSTester) Name() string {
	return TesterCETS
}

// SubLengths returns the window length of every dimension of a normalized
// sample, fixed by configuration or estimated
func (c *CETSTester) SubLengths(ctx context.Context, sample analytics.Series) ([]int, error) {
	if c.cfg.SubLength > 0 {
		lengths := make([]int, sample.Dims())
		for d := range lengths {
			lengths[d] = c.cfg.SubLength
		}
		return lengths, nil
	}
	return c.estimator.BuildSubLengths(ctx, sample)
}

// PreprocessEvents drops the first event when it has no full window before
// it and the last event when it has no full window after it. The input is
// not modified.
func PreprocessEvents(events analytics.EventSequence, k, seriesLen int) analytics.EventSequence {
	out := events.Clone()
	if len(out) > 0 && out[0] < k {
		out = out[1:]
	}
	if len(out) > 0 && out[len(out)-1]+k >= seriesLen {
		out = out[:len(out)-1]
	}
	return out
}

// Windows extracts the front, rear and reference windows of every event that
// has k points on both sides
func Windows(series []float64, events analytics.EventSequence, k int, rng RandomSource) (front, rear, random [][]float64) {
	n := len(series)
	for _, e := range events {
		if e-k < 0 || e+k+1 > n {
			continue
		}
		front = append(front, append([]float64(nil), series[e-k:e]...))
		rear = append(rear, append([]float64(nil), series[e+1:e+k+1]...))
		random = append(random, SampleWithoutReplacement(series, k, rng))
	}
	return front, rear, random
}

// Test runs the front and rear NN tests for one dimension and classifies the
// correlation
func (c *CETSTester) Test(ctx context.Context, in TestInput) (TestResult, error) {
	k := in.SubLength
	if k <= 0 || len(in.Events) == 0 {
		return Uncorrelated, nil
	}

	rng := in.Random
	if rng == nil {
		rng = NewRandomSource(c.cfg.Seed, 0)
	}

	events := PreprocessEvents(in.Events, k, len(in.Series))
	front, rear, random := Windows(in.Series, events, k, rng)
	if len(front) < 2 {
		return Uncorrelated, nil
	}

	nn := c.nn
	nn.Workers = in.Workers
	df, err := nn.Run(ctx, front, random)
	if err != nil {
		return Uncorrelated, fmt.Errorf("front test: %w", err)
	}
	dr, err := nn.Run(ctx, rear, random)
	if err != nil {
		return Uncorrelated, fmt.Errorf("rear test: %w", err)
	}

	result := TestResult{Front: df.Different, Rear: dr.Different, Type: TypeNone}
	switch {
	case df.Different:
		result.Correlated = true
		result.Type = CorrelationType(ClassifyEffect(front, rear, c.cfg.Alpha)) + seriesToEventOffset
	case dr.Different:
		result.Correlated = true
		result.Type = CorrelationType(ClassifyEffect(front, rear, c.cfg.Alpha))
	}
	return result, nil
}
