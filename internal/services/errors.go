// Package services provides the business logic layer between the HTTP
// handlers, the correlation engine and the job queue.
package services

// Service error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidTester    = "INVALID_TESTER"
	CodeInvalidParams    = "INVALID_PARAMS"
	CodeDegenerateInput  = "DEGENERATE_INPUT"
	CodeAnalysisFailed   = "ANALYSIS_FAILED"
	CodeAnalysisTimeout  = "ANALYSIS_TIMEOUT"
	CodeJobNotFound      = "JOB_NOT_FOUND"
	CodeQueueUnavailable = "QUEUE_UNAVAILABLE"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
