package correlation

import (
	"math"
)

// DTWDistance returns the unconstrained dynamic time warping distance between
// a and b with absolute-difference local cost.
//
// The cumulative cost follows the symmetric step pattern: a diagonal step
// adds twice the local cost, horizontal and vertical steps add it once.
// Only two rows of the cost matrix are kept.
func DTWDistance(a, b []float64) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0
	}

	prev := make([]float64, m)
	curr := make([]float64, m)

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			cost := math.Abs(a[i] - b[j])
			switch {
			case i == 0 && j == 0:
				curr[j] = cost
			case i == 0:
				curr[j] = curr[j-1] + cost
			case j == 0:
				curr[j] = prev[j] + cost
			default:
				best := prev[j-1] + 2*cost
				if v := prev[j] + cost; v < best {
					best = v
				}
				if v := curr[j-1] + cost; v < best {
					best = v
				}
				curr[j] = best
			}
		}
		prev, curr = curr, prev
	}

	return prev[m-1]
}
