// Package stats provides the statistical primitives used by the correlation
// engine: autocorrelation, the augmented Dickey-Fuller unit-root test and
// peak detection over one-dimensional sequences.
package stats

import (
	"gonum.org/v1/gonum/floats"
)

// CircularACF returns the raw (non-centered) autocorrelation of values for
// lags 0..maxLag-1. The series wraps around, so lag k compares values[t] with
// values[(t-k) mod n] and every lag averages over all n points.
func CircularACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if n == 0 || maxLag <= 0 {
		return nil
	}

	acf := make([]float64, maxLag)
	rolled := make([]float64, n)
	for k := 0; k < maxLag; k++ {
		shift := k % n
		copy(rolled[shift:], values[:n-shift])
		copy(rolled[:shift], values[n-shift:])
		acf[k] = floats.Dot(values, rolled) / float64(n)
	}

	return acf
}
