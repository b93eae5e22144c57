package correlation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Effect is the level change between two sample sets.
type Effect int

const (
	EffectNone Effect = 0 // no significant change
	EffectRise Effect = 1 // sample0 mean significantly lower than sample1
	EffectFall Effect = 2 // sample0 mean significantly higher than sample1
)

// EffectStatistic computes t = (m0-m1)/sqrt((v0²+v1²)/n) over all values of
// each sample set, with population variances and n = len(sample0).
// Zero combined variance gives 0.
func EffectStatistic(sample0, sample1 [][]float64) float64 {
	if len(sample0) == 0 {
		return 0
	}
	m0, v0 := stat.PopMeanVariance(flatten(sample0), nil)
	m1, v1 := stat.PopMeanVariance(flatten(sample1), nil)

	if v0+v1 <= 0 {
		return 0
	}
	return (m0 - m1) / math.Sqrt((v0*v0+v1*v1)/float64(len(sample0)))
}

// ClassifyEffect classifies the level change from sample0 to sample1
func ClassifyEffect(sample0, sample1 [][]float64, alpha float64) Effect {
	t := EffectStatistic(sample0, sample1)
	switch {
	case t > alpha:
		return EffectFall
	case t < -alpha:
		return EffectRise
	default:
		return EffectNone
	}
}

func flatten(windows [][]float64) []float64 {
	size := 0
	for _, w := range windows {
		size += len(w)
	}
	out := make([]float64, 0, size)
	for _, w := range windows {
		out = append(out, w...)
	}
	return out
}
