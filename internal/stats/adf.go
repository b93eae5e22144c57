package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Regression selects the deterministic terms of the ADF test regression.
type Regression string

const (
	RegressionNone          Regression = "n"  // no constant, no trend
	RegressionConstant      Regression = "c"  // constant only
	RegressionConstantTrend Regression = "ct" // constant and linear trend
)

var (
	ErrSeriesTooShort   = errors.New("series too short for the selected regression")
	ErrConstantSeries   = errors.New("series is constant")
	ErrRegressionFailed = errors.New("no lag order produced a solvable regression")
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	UsedLag      int
	NObs         int
	ICBest       float64
	CriticalVals map[string]float64
}

// ADF performs the Augmented Dickey-Fuller test for a unit root with the lag
// order chosen by minimising the Akaike information criterion.
//
// The maximum lag is ceil(12*(n/100)^(1/4)), capped so that the regression keeps
// enough observations. All candidate lags are fitted on the same sample; the
// winning lag is then refitted on the largest sample it allows.
func ADF(values []float64, regression Regression) (*ADFResult, error) {
	nobs := len(values)
	ntrend, err := trendTerms(regression)
	if err != nil {
		return nil, err
	}
	if nobs < 4 {
		return nil, ErrSeriesTooShort
	}
	if floats.Max(values) == floats.Min(values) {
		return nil, ErrConstantSeries
	}

	maxLag := int(math.Ceil(12 * math.Pow(float64(nobs)/100, 0.25)))
	if limit := nobs/2 - ntrend - 1; limit < maxLag {
		maxLag = limit
	}
	if maxLag < 0 {
		return nil, ErrSeriesTooShort
	}

	diff := make([]float64, nobs-1)
	for i := range diff {
		diff[i] = values[i+1] - values[i]
	}

	bestLag := -1
	bestAIC := math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		x, y := adfDesign(values, diff, maxLag, lag, regression)
		fit, err := ols(x, y)
		if err != nil {
			continue
		}
		if bestLag < 0 || fit.aic < bestAIC {
			bestLag = lag
			bestAIC = fit.aic
		}
	}
	if bestLag < 0 {
		return nil, ErrRegressionFailed
	}

	x, y := adfDesign(values, diff, bestLag, bestLag, regression)
	fit, err := ols(x, y)
	if err != nil {
		return nil, fmt.Errorf("refit with lag %d: %w", bestLag, err)
	}

	// column 0 holds the lagged level
	return &ADFResult{
		Statistic:    fit.beta[0] / fit.stdErr[0],
		UsedLag:      bestLag,
		NObs:         len(y),
		ICBest:       bestAIC,
		CriticalVals: criticalValues(regression),
	}, nil
}

func trendTerms(regression Regression) (int, error) {
	switch regression {
	case RegressionNone:
		return 0, nil
	case RegressionConstant:
		return 1, nil
	case RegressionConstantTrend:
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown regression %q", regression)
	}
}

// adfDesign builds the regression of diff[t] on the lagged level, `lag` lagged
// differences and the deterministic terms. sampleLag fixes the first usable
// observation so that different lag orders can share one sample.
func adfDesign(values, diff []float64, sampleLag, lag int, regression Regression) ([][]float64, []float64) {
	rows := len(diff) - sampleLag
	x := make([][]float64, rows)
	y := make([]float64, rows)

	for r := 0; r < rows; r++ {
		t := r + sampleLag
		y[r] = diff[t]

		row := make([]float64, 0, 3+lag)
		row = append(row, values[t])
		for j := 1; j <= lag; j++ {
			row = append(row, diff[t-j])
		}
		switch regression {
		case RegressionConstant:
			row = append(row, 1)
		case RegressionConstantTrend:
			row = append(row, 1, float64(r+1))
		}
		x[r] = row
	}

	return x, y
}

type olsFit struct {
	beta   []float64
	stdErr []float64
	ssr    float64
	aic    float64
}

// ols fits y = X*beta by the normal equations.
func ols(x [][]float64, y []float64) (*olsFit, error) {
	n := len(y)
	if n == 0 {
		return nil, ErrSeriesTooShort
	}
	k := len(x[0])
	if n <= k {
		return nil, ErrSeriesTooShort
	}

	data := make([]float64, 0, n*k)
	for _, row := range x {
		data = append(data, row...)
	}
	design := mat.NewDense(n, k, data)
	target := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("invert normal matrix: %w", err)
	}

	var xty, beta, fitted, resid mat.VecDense
	xty.MulVec(design.T(), target)
	beta.MulVec(&inv, &xty)
	fitted.MulVec(design, &beta)
	resid.SubVec(target, &fitted)
	ssr := mat.Dot(&resid, &resid)

	s2 := ssr / float64(n-k)
	stdErr := make([]float64, k)
	for i := range stdErr {
		stdErr[i] = math.Sqrt(s2 * inv.At(i, i))
	}

	nf := float64(n)
	llf := -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)

	return &olsFit{
		beta:   mat.Col(nil, 0, &beta),
		stdErr: stdErr,
		ssr:    ssr,
		aic:    -2*llf + 2*float64(k),
	}, nil
}

// criticalValues returns the asymptotic MacKinnon critical values.
func criticalValues(regression Regression) map[string]float64 {
	switch regression {
	case RegressionConstantTrend:
		return map[string]float64{"1%": -3.96, "5%": -3.41, "10%": -3.13}
	case RegressionConstant:
		return map[string]float64{"1%": -3.43, "5%": -2.86, "10%": -2.57}
	default:
		return map[string]float64{"1%": -2.56, "5%": -1.94, "10%": -1.62}
	}
}
