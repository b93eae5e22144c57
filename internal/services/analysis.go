package services

import (
	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/config"
)

// AnalysisConfig converts the analysis and pearson sections into the
// correlation engine configuration
func AnalysisConfig(cfg *config.Config) correlation.Config {
	a := cfg.Analysis
	return correlation.Config{
		SubLength:        a.SubLength,
		TsRatio:          a.TsRatio,
		AcfRatio:         a.AcfRatio,
		AdfRatio:         a.AdfRatio,
		WidthRatio:       a.WidthRatio,
		SubLenMax:        a.SubLenMax,
		SubLenMin:        a.SubLenMin,
		R:                a.R,
		Alpha:            a.Alpha,
		NNDisThreshold:   a.NNDisThreshold,
		PearsonThreshold: cfg.Pearson.Threshold,
		Workers:          a.Workers,
		Seed:             a.Seed,
	}
}
