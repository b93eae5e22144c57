package models

import (
	"fmt"
	"time"

	"github.com/soltixdb/cets/internal/analytics/correlation"
)

// AnalysisParams overrides server analysis settings for one request.
// Nil fields keep the configured value.
type AnalysisParams struct {
	SubLength        *int     `json:"sub_length,omitempty"`
	TsRatio          *float64 `json:"ts_ratio,omitempty"`
	AcfRatio         *float64 `json:"acf_ratio,omitempty"`
	AdfRatio         *float64 `json:"adf_ratio,omitempty"`
	WidthRatio       *float64 `json:"width_ratio,omitempty"`
	SubLenMin        *int     `json:"sub_len_min,omitempty"`
	SubLenMax        *int     `json:"sub_len_max,omitempty"`
	R                *int     `json:"r,omitempty"`
	Alpha            *float64 `json:"alpha,omitempty"`
	NNDisThreshold   *float64 `json:"nn_dis_threshold,omitempty"`
	PearsonThreshold *float64 `json:"pearson_threshold,omitempty"`
	Seed             *uint64  `json:"seed,omitempty"`
}

// Apply returns base with the non-nil overrides applied
func (p AnalysisParams) Apply(base correlation.Config) correlation.Config {
	if p.SubLength != nil {
		base.SubLength = *p.SubLength
	}
	if p.TsRatio != nil {
		base.TsRatio = *p.TsRatio
	}
	if p.AcfRatio != nil {
		base.AcfRatio = *p.AcfRatio
	}
	if p.AdfRatio != nil {
		base.AdfRatio = *p.AdfRatio
	}
	if p.WidthRatio != nil {
		base.WidthRatio = *p.WidthRatio
	}
	if p.SubLenMin != nil {
		base.SubLenMin = *p.SubLenMin
	}
	if p.SubLenMax != nil {
		base.SubLenMax = *p.SubLenMax
	}
	if p.R != nil {
		base.R = *p.R
	}
	if p.Alpha != nil {
		base.Alpha = *p.Alpha
	}
	if p.NNDisThreshold != nil {
		base.NNDisThreshold = *p.NNDisThreshold
	}
	if p.PearsonThreshold != nil {
		base.PearsonThreshold = *p.PearsonThreshold
	}
	if p.Seed != nil {
		base.Seed = *p.Seed
	}
	return base
}

// CorrelateRequest carries one analysis.
//
// Samples is indexed [sample][time][dimension]. Each sample's event sequences
// come either from Events, indexed [sample][group][k] with strictly
// increasing time indices, or from Labels, a 0/1 indicator per time step
// whose rising edges become a single event sequence.
type CorrelateRequest struct {
	Tester  string          `json:"tester"`
	Samples [][][]float64   `json:"samples"`
	Events  [][][]int       `json:"events,omitempty"`
	Labels  [][]float64     `json:"labels,omitempty"`
	Params  *AnalysisParams `json:"params,omitempty"`
}

// Validate checks the request shape; per-value checks happen in the engine
func (r *CorrelateRequest) Validate(maxSamples int) error {
	if len(r.Samples) == 0 {
		return fmt.Errorf("samples is required")
	}
	if maxSamples > 0 && len(r.Samples) > maxSamples {
		return fmt.Errorf("too many samples: %d (max %d)", len(r.Samples), maxSamples)
	}

	switch {
	case len(r.Events) > 0 && len(r.Labels) > 0:
		return fmt.Errorf("provide either events or labels, not both")
	case len(r.Events) > 0:
		if len(r.Events) != len(r.Samples) {
			return fmt.Errorf("events has %d entries for %d samples", len(r.Events), len(r.Samples))
		}
	case len(r.Labels) > 0:
		if len(r.Labels) != len(r.Samples) {
			return fmt.Errorf("labels has %d entries for %d samples", len(r.Labels), len(r.Samples))
		}
		for i, l := range r.Labels {
			if len(l) != len(r.Samples[i]) {
				return fmt.Errorf("labels[%d] has %d steps for %d time points", i, len(l), len(r.Samples[i]))
			}
		}
	default:
		return fmt.Errorf("events or labels is required")
	}

	return nil
}

// JobStatus is the lifecycle state of an asynchronous analysis
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is the queue payload published for a worker
type Job struct {
	ID          string           `json:"id"`
	RequestID   string           `json:"request_id,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Request     CorrelateRequest `json:"request"`
}

// JobResult is the queue payload a worker publishes when a job ends
type JobResult struct {
	JobID       string              `json:"job_id"`
	Status      JobStatus           `json:"status"`
	Error       string              `json:"error,omitempty"`
	CompletedAt time.Time           `json:"completed_at"`
	Report      *correlation.Report `json:"report,omitempty"`
}
