package services

import (
	"github.com/soltixdb/cets/internal/analytics"
	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/models"
)

var testEvents = analytics.EventSequence{10, 40, 70}

// pearsonSample has an uncorrelated first dimension and a second dimension
// that spikes at testEvents
func pearsonSample() [][]float64 {
	indicator := testEvents.Indicator(100)
	rows := make([][]float64, 100)
	for i := range rows {
		rows[i] = []float64{float64(i%3) / 2, indicator[i]}
	}
	return rows
}

func pearsonRequest() *models.CorrelateRequest {
	return &models.CorrelateRequest{
		Tester:  correlation.TesterPearson,
		Samples: [][][]float64{pearsonSample()},
		Events:  [][][]int{{[]int(testEvents)}},
	}
}

func newTestCorrelationService(observer correlation.Observer) *CorrelationService {
	return NewCorrelationService(logging.NewNop(), correlation.DefaultConfig(), observer)
}
