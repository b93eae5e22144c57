package correlation

import (
	"github.com/soltixdb/cets/internal/analytics"
)

// Normalize rescales every value of the sample to [0, 1] using the minimum and
// maximum over all of its dimensions. A constant sample yields a
// *DegenerateInputError. The input is not modified.
func Normalize(sample analytics.Series) (analytics.Series, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	lo, hi := sample[0][0], sample[0][0]
	for _, row := range sample {
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	if hi == lo {
		return nil, &DegenerateInputError{Value: lo}
	}

	span := hi - lo
	out := make(analytics.Series, len(sample))
	for t, row := range sample {
		scaled := make([]float64, len(row))
		for d, v := range row {
			scaled[d] = (v - lo) / span
		}
		out[t] = scaled
	}

	return out, nil
}
