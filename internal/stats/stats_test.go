package stats

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestCircularACF_KnownValues(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	acf := CircularACF(values, 4)
	if len(acf) != 4 {
		t.Fatalf("Expected 4 lags, got %d", len(acf))
	}

	// lag 0: (1+4+9+16)/4
	if math.Abs(acf[0]-7.5) > 1e-12 {
		t.Errorf("Expected acf[0]=7.5, got %f", acf[0])
	}
	// lag 1: 1*4 + 2*1 + 3*2 + 4*3 = 24
	if math.Abs(acf[1]-6.0) > 1e-12 {
		t.Errorf("Expected acf[1]=6.0, got %f", acf[1])
	}
	// lag 2: 1*3 + 2*4 + 3*1 + 4*2 = 22
	if math.Abs(acf[2]-5.5) > 1e-12 {
		t.Errorf("Expected acf[2]=5.5, got %f", acf[2])
	}
}

func TestCircularACF_Empty(t *testing.T) {
	if acf := CircularACF(nil, 5); acf != nil {
		t.Errorf("Expected nil for empty series, got %v", acf)
	}
	if acf := CircularACF([]float64{1, 2}, 0); acf != nil {
		t.Errorf("Expected nil for zero lags, got %v", acf)
	}
}

func TestCircularACF_PeriodicPeakAtPeriod(t *testing.T) {
	period := 30
	values := make([]float64, period*8)
	for i := range values {
		values[i] = 0.5 + 0.5*math.Sin(2*math.Pi*float64(i%period)/float64(period))
	}

	acf := CircularACF(values, 2*period)
	if acf[period] != acf[0] {
		t.Errorf("Expected acf at the period to equal lag 0, got %f vs %f", acf[period], acf[0])
	}
	if acf[period-1] >= acf[period] || acf[period+1] >= acf[period] {
		t.Error("Expected a strict local maximum at the period")
	}
}

func TestFindPeaks_Simple(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0}

	peaks := FindPeaks(x, 0)
	if len(peaks) != 2 {
		t.Fatalf("Expected 2 peaks, got %d", len(peaks))
	}
	if peaks[0].Index != 1 || peaks[1].Index != 3 {
		t.Errorf("Expected peaks at 1 and 3, got %d and %d", peaks[0].Index, peaks[1].Index)
	}
	if peaks[1].Prominence != 2 {
		t.Errorf("Expected prominence 2, got %f", peaks[1].Prominence)
	}
	if math.Abs(peaks[1].Width-1) > 1e-12 {
		t.Errorf("Expected width 1, got %f", peaks[1].Width)
	}
}

func TestFindPeaks_Plateau(t *testing.T) {
	x := []float64{0, 1, 3, 3, 3, 1, 0}

	peaks := FindPeaks(x, 0)
	if len(peaks) != 1 {
		t.Fatalf("Expected 1 peak, got %d", len(peaks))
	}
	if peaks[0].Index != 3 {
		t.Errorf("Expected plateau midpoint 3, got %d", peaks[0].Index)
	}
}

func TestFindPeaks_EndpointsIgnored(t *testing.T) {
	x := []float64{5, 1, 2, 1, 5}

	peaks := FindPeaks(x, 0)
	if len(peaks) != 1 || peaks[0].Index != 2 {
		t.Fatalf("Expected only the interior peak at 2, got %+v", peaks)
	}
}

func TestFindPeaks_WidthFilter(t *testing.T) {
	// narrow spike followed by a broad hump
	x := []float64{0, 0, 4, 0, 0, 1, 2, 3, 4, 3, 2, 1, 0}

	all := FindPeaks(x, 0)
	if len(all) != 2 {
		t.Fatalf("Expected 2 peaks without width filter, got %d", len(all))
	}

	wide := FindPeaks(x, 3)
	if len(wide) != 1 {
		t.Fatalf("Expected 1 wide peak, got %d", len(wide))
	}
	if wide[0].Index != 8 {
		t.Errorf("Expected broad peak at 8, got %d", wide[0].Index)
	}
}

func TestADF_WhiteNoiseIsStationary(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	values := make([]float64, 300)
	for i := range values {
		values[i] = rng.NormFloat64()
	}

	result, err := ADF(values, RegressionConstantTrend)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	if result.Statistic >= result.CriticalVals["1%"] {
		t.Errorf("Expected statistic below 1%% critical value, got %f", result.Statistic)
	}
	maxLag := int(math.Ceil(12 * math.Pow(3, 0.25)))
	if result.UsedLag < 0 || result.UsedLag > maxLag {
		t.Errorf("UsedLag %d outside [0, %d]", result.UsedLag, maxLag)
	}
	if result.NObs != len(values)-1-result.UsedLag {
		t.Errorf("Expected NObs %d, got %d", len(values)-1-result.UsedLag, result.NObs)
	}
}

func TestADF_RandomWalkHasUnitRoot(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	values := make([]float64, 300)
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + rng.NormFloat64()
	}

	result, err := ADF(values, RegressionConstant)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	if result.Statistic < result.CriticalVals["1%"] {
		t.Errorf("Random walk should not reject the unit root at 1%%, got %f", result.Statistic)
	}
}

func TestADF_Errors(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		regression Regression
		wantErr    error
	}{
		{"constant", []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, RegressionConstantTrend, ErrConstantSeries},
		{"too short", []float64{1, 2, 3}, RegressionConstantTrend, ErrSeriesTooShort},
		{"too short for trend", []float64{1, 3, 2, 5}, RegressionConstantTrend, ErrSeriesTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ADF(tt.values, tt.regression)
			if err != tt.wantErr {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestADF_UnknownRegression(t *testing.T) {
	if _, err := ADF([]float64{1, 2, 3, 4, 5, 6}, "quadratic"); err == nil {
		t.Error("Expected error for unknown regression")
	}
}
