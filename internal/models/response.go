package models

import (
	"github.com/soltixdb/cets/internal/analytics/correlation"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Version   string      `json:"version"`
	Testers   []string    `json:"testers,omitempty"`
	Jobs      *JobsHealth `json:"jobs,omitempty"`
}

// JobsHealth reports the asynchronous job surface of the router
type JobsHealth struct {
	Queue   string `json:"queue"`   // enabled or disabled
	Tracked int    `json:"tracked"` // jobs held in the status store
}

// TestersResponse lists the registered correlation testers
type TestersResponse struct {
	Testers []string `json:"testers"`
	Default string   `json:"default"`
}

// CorrelateResponse is the report of a synchronous analysis
type CorrelateResponse struct {
	RequestID string              `json:"request_id,omitempty"`
	Report    *correlation.Report `json:"report"`
}

// JobAcceptedResponse is returned when a job is queued
type JobAcceptedResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// JobResponse describes the current state of a job
type JobResponse struct {
	JobID       string              `json:"job_id"`
	Status      JobStatus           `json:"status"`
	Tester      string              `json:"tester"`
	SubmittedAt string              `json:"submitted_at"`
	CompletedAt string              `json:"completed_at,omitempty"`
	Error       string              `json:"error,omitempty"`
	Report      *correlation.Report `json:"report,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
