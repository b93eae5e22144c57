package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/cets/internal/compression"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/metrics"
	"github.com/soltixdb/cets/internal/models"
	"github.com/soltixdb/cets/internal/queue"
	"github.com/soltixdb/cets/internal/utils"
)

// JobService publishes asynchronous analyses and tracks their results
type JobService struct {
	logger        *logging.Logger
	queue         queue.Queue
	codec         *compression.Codec
	store         *JobStore
	correlation   *CorrelationService
	metrics       *metrics.Registry
	jobSubject    string
	resultSubject string
}

// Tracked returns the number of jobs whose status is kept
func (s *JobService) Tracked() int {
	return s.store.Len()
}

// NewJobService creates a new JobService. reg may be nil.
func NewJobService(
	logger *logging.Logger,
	q queue.Queue,
	codec *compression.Codec,
	store *JobStore,
	correlation *CorrelationService,
	reg *metrics.Registry,
	jobSubject, resultSubject string,
) *JobService {
	return &JobService{
		logger:        logger,
		queue:         q,
		codec:         codec,
		store:         store,
		correlation:   correlation,
		metrics:       reg,
		jobSubject:    jobSubject,
		resultSubject: resultSubject,
	}
}

// Start subscribes to worker results
func (s *JobService) Start() error {
	if err := s.queue.Subscribe(s.resultSubject, s.HandleResult); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.resultSubject, err)
	}
	s.logger.Info("Listening for job results", "subject", s.resultSubject)
	return nil
}

// Stop stops consuming results
func (s *JobService) Stop() error {
	return s.queue.Unsubscribe(s.resultSubject)
}

// Submit validates the request and publishes it as a job
func (s *JobService) Submit(ctx context.Context, req *models.CorrelateRequest, requestID string) (*models.Job, error) {
	if err := req.Validate(utils.MaxSamplesPerRequest); err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}
	if req.Tester == "" {
		req.Tester = s.correlation.DefaultTester()
	}
	if !s.correlation.known(req.Tester) {
		return nil, NewServiceErrorWithDetails(CodeInvalidTester,
			fmt.Sprintf("unknown correlation tester: %s", req.Tester),
			map[string]interface{}{"available": s.correlation.Testers()})
	}
	if req.Params != nil {
		if err := req.Params.Apply(s.correlation.base).Validate(); err != nil {
			return nil, paramsError(err)
		}
	}

	job := &models.Job{
		ID:          uuid.New().String(),
		RequestID:   requestID,
		SubmittedAt: time.Now().UTC(),
		Request:     *req,
	}

	data, err := s.codec.Marshal(job)
	if err != nil {
		return nil, NewServiceError(CodeInvalidRequest, fmt.Sprintf("failed to encode job: %v", err))
	}

	// Track before publishing so a fast worker result is not lost
	s.store.Add(job)

	pubCtx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()
	if err := s.queue.Publish(pubCtx, s.jobSubject, data); err != nil {
		s.store.Remove(job.ID)
		s.logger.Error("Failed to publish job", "job_id", job.ID, "error", err)
		return nil, NewServiceError(CodeQueueUnavailable, fmt.Sprintf("failed to queue job: %v", err))
	}

	if s.metrics != nil {
		s.metrics.ObserveJob(metrics.JobQueued)
	}
	s.logger.Info("Job queued",
		"job_id", job.ID,
		"tester", req.Tester,
		"samples", len(req.Samples),
		"bytes", len(data))

	return job, nil
}

// Get returns the state of a job
func (s *JobService) Get(id string) (*models.JobResponse, error) {
	resp, ok := s.store.Get(id)
	if !ok {
		return nil, NewServiceErrorWithDetails(CodeJobNotFound, "job not found",
			map[string]interface{}{"job_id": id})
	}
	return resp, nil
}

// HandleResult applies a worker result. Malformed payloads are dropped.
func (s *JobService) HandleResult(ctx context.Context, data []byte) error {
	var result models.JobResult
	if err := s.codec.Unmarshal(data, &result); err != nil {
		s.logger.Warn("Dropping malformed job result", "error", err)
		return nil
	}

	if !s.store.Complete(&result) {
		s.logger.Debug("Result for unknown job", "job_id", result.JobID)
		return nil
	}
	s.logger.Info("Job finished", "job_id", result.JobID, "status", string(result.Status))
	return nil
}
