// Package scoring compares correlation results with ground-truth labels.
package scoring

import (
	"fmt"

	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/dataset"
)

// Mode selects how much of a correlated result must match the ground truth.
type Mode string

const (
	// ModeExist counts a labelled dimension as found whenever it is correlated
	ModeExist Mode = "exist"

	// ModeDirection additionally requires the direction to match
	ModeDirection Mode = "dir"

	// ModeEffect requires the exact correlation type to match
	ModeEffect Mode = "effect"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeExist, ModeDirection, ModeEffect:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown scoring mode %q (exist, dir, effect)", s)
	}
}

// Score holds the confusion counts of a run.
type Score struct {
	TruePositive  int `json:"tp" yaml:"tp"`
	FalsePositive int `json:"fp" yaml:"fp"`
	FalseNegative int `json:"fn" yaml:"fn"`
}

// Precision is tp/(tp+fp), 0 when nothing was reported
func (s Score) Precision() float64 {
	return ratio(s.TruePositive, s.TruePositive+s.FalsePositive)
}

// Recall is tp/(tp+fn), 0 when nothing was labelled
func (s Score) Recall() float64 {
	return ratio(s.TruePositive, s.TruePositive+s.FalseNegative)
}

// F1 is 2tp/(2tp+fp+fn)
func (s Score) F1() float64 {
	return ratio(2*s.TruePositive, 2*s.TruePositive+s.FalsePositive+s.FalseNegative)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Evaluate scores results indexed [sample][dimension][event group] against
// labels indexed [sample][event group]. Label dimensions are 1-based.
//
// A correlated dimension missing from the label is a false positive, an
// uncorrelated labelled dimension a false negative. A correlated labelled
// dimension is a true positive when it satisfies the mode; ground-truth type
// 6 only requires existence. A correlated labelled dimension that fails the
// mode is counted nowhere.
func Evaluate(results correlation.Results, labels [][]dataset.GroupLabel, mode Mode, tester string) (Score, error) {
	if len(labels) != len(results) {
		return Score{}, fmt.Errorf("%d label samples for %d result samples", len(labels), len(results))
	}

	match := matcher(mode, tester)
	var score Score
	for i, dims := range results {
		for d, events := range dims {
			for g, r := range events {
				if g >= len(labels[i]) {
					return Score{}, fmt.Errorf("sample %d: no label for event group %d", i, g)
				}
				truth, labelled := labels[i][g].TypeOf(d + 1)
				switch {
				case !labelled:
					if r.Correlated {
						score.FalsePositive++
					}
				case !r.Correlated:
					score.FalseNegative++
				case correlation.CorrelationType(truth) == correlation.TypeEitherDirection || match(truth, r.Type):
					score.TruePositive++
				}
			}
		}
	}
	return score, nil
}

func matcher(mode Mode, tester string) func(truth int, got correlation.CorrelationType) bool {
	switch mode {
	case ModeDirection:
		return func(truth int, got correlation.CorrelationType) bool {
			return (truth < 3 && got < 3) || (truth >= 3 && got >= 3)
		}
	case ModeEffect:
		if tester == correlation.TesterPearson {
			// the baseline has no direction, so only the effect sign is compared
			return func(truth int, got correlation.CorrelationType) bool {
				switch truth {
				case 1, 4:
					return got == correlation.TypeEventToSeriesRise
				case 2, 5:
					return got == correlation.TypeEventToSeriesFall
				}
				return false
			}
		}
		return func(truth int, got correlation.CorrelationType) bool {
			return correlation.CorrelationType(truth) == got
		}
	default:
		return func(int, correlation.CorrelationType) bool { return true }
	}
}
