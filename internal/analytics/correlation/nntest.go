package correlation

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// NNTwoSampleTest is the nearest-neighbour two-sample test over DTW distances.
// For every pooled window it counts how many of its R nearest neighbours
// come from the same sample and compares the pooled proportion with its
// expectation under the null hypothesis.
type NNTwoSampleTest struct {
	R              int
	Alpha          float64
	NNDisThreshold float64

	// Workers bounds the goroutines filling the distance matrix; <= 1 runs inline
	Workers int
}

// NNTestResult holds the decision and the statistics behind it.
type NNTestResult struct {
	Different bool
	Z         float64
	T         float64
	PValue    float64 // upper-tail normal probability of Z
	Pooled    int
}

// Run tests whether sample0 and sample1 come from different distributions.
// The decision is one-sided: the samples differ when Z > Alpha.
func (nt NNTwoSampleTest) Run(ctx context.Context, sample0, sample1 [][]float64) (NNTestResult, error) {
	n0, n1 := len(sample0), len(sample1)
	p := n0 + n1
	result := NNTestResult{Pooled: p, PValue: 1}
	if n0 == 0 || n1 == 0 || p < nt.R+1 {
		return result, nil
	}

	pooled := make([][]float64, 0, p)
	pooled = append(pooled, sample0...)
	pooled = append(pooled, sample1...)

	dist, err := nt.distanceMatrix(ctx, pooled)
	if err != nil {
		return result, err
	}

	l0 := float64(n0) / float64(p)
	l1 := float64(n1) / float64(p)
	meanR := l0*l0 + l1*l1
	varR := l0*l1 + 4*l0*l0*l1*l1

	r := float64(nt.R)
	var total float64
	order := make([]int, 0, p-1)
	for i := 0; i < p; i++ {
		total += nt.indicator(i, n0, dist[i], len(pooled[i]), order[:0])
	}

	result.T = total / (r * float64(p))
	result.Z = math.Sqrt(r*float64(p)) * (result.T - meanR) / varR
	result.PValue = 1 - distuv.UnitNormal.CDF(result.Z)
	result.Different = result.Z > nt.Alpha
	return result, nil
}

// indicator counts same-group neighbours of pooled point i among its R nearest
func (nt NNTwoSampleTest) indicator(i, n0 int, row []float64, width int, order []int) float64 {
	for j := range row {
		if j != i {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return row[order[a]] < row[order[b]]
	})

	spread := row[order[len(order)-1]] - row[order[0]]
	if width > 0 && spread/2/float64(width) < nt.NNDisThreshold {
		return 0.5 * float64(nt.R)
	}

	var count float64
	inFirst := i < n0
	for _, j := range order[:min(nt.R, len(order))] {
		if (j < n0) == inFirst {
			count++
		}
	}
	return count
}

// distanceMatrix computes the symmetric DTW distance matrix of the pooled
// windows. Each row's upper triangle is written by exactly one goroutine.
func (nt NNTwoSampleTest) distanceMatrix(ctx context.Context, pooled [][]float64) ([][]float64, error) {
	p := len(pooled)
	dist := make([][]float64, p)
	for i := range dist {
		dist[i] = make([]float64, p)
	}

	fill := func(i int) {
		for j := i + 1; j < p; j++ {
			dist[i][j] = DTWDistance(pooled[i], pooled[j])
		}
	}

	if nt.Workers <= 1 {
		for i := 0; i < p; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fill(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(nt.Workers)
		for i := 0; i < p; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				fill(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			dist[j][i] = dist[i][j]
		}
	}
	return dist, nil
}
