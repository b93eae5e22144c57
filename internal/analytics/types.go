// Package analytics provides the shared data types of the correlation
// analytics: multivariate series and event sequences.
package analytics

import (
	"fmt"
)

// Series is a multivariate time series stored as rows of time steps, each
// row holding one value per dimension.
type Series [][]float64

// Len returns the number of time steps
func (s Series) Len() int {
	return len(s)
}

// Dims returns the number of dimensions (0 for an empty series)
func (s Series) Dims() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Dimension extracts one dimension as a new slice
func (s Series) Dimension(d int) []float64 {
	values := make([]float64, len(s))
	for t, row := range s {
		values[t] = row[d]
	}
	return values
}

// Head returns the first n time steps (the whole series when n exceeds its length)
func (s Series) Head(n int) Series {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	return s[:n]
}

// Clone returns a deep copy of the series
func (s Series) Clone() Series {
	out := make(Series, len(s))
	for t, row := range s {
		out[t] = append([]float64(nil), row...)
	}
	return out
}

// Validate checks that every row has the same, non-zero number of dimensions
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("series is empty")
	}
	dims := len(s[0])
	if dims == 0 {
		return fmt.Errorf("series has no dimensions")
	}
	for t, row := range s {
		if len(row) != dims {
			return fmt.Errorf("row %d has %d dimensions, expected %d", t, len(row), dims)
		}
	}
	return nil
}

// EventSequence is the ascending list of time steps at which an event starts.
type EventSequence []int

// Clone returns a copy of the sequence
func (e EventSequence) Clone() EventSequence {
	if e == nil {
		return nil
	}
	out := make(EventSequence, len(e))
	copy(out, e)
	return out
}

// Validate checks that indices are non-negative, strictly ascending and
// inside a series of the given length
func (e EventSequence) Validate(seriesLen int) error {
	for i, idx := range e {
		if idx < 0 || idx >= seriesLen {
			return fmt.Errorf("event %d at index %d outside series of length %d", i, idx, seriesLen)
		}
		if i > 0 && idx <= e[i-1] {
			return fmt.Errorf("event %d at index %d is not after previous index %d", i, idx, e[i-1])
		}
	}
	return nil
}

// Indicator converts the sequence into a 0/1 series of the given length
func (e EventSequence) Indicator(length int) []float64 {
	ind := make([]float64, length)
	for _, idx := range e {
		if idx >= 0 && idx < length {
			ind[idx] = 1
		}
	}
	return ind
}
