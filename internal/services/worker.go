package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soltixdb/cets/internal/compression"
	"github.com/soltixdb/cets/internal/logging"
	"github.com/soltixdb/cets/internal/metrics"
	"github.com/soltixdb/cets/internal/models"
	"github.com/soltixdb/cets/internal/queue"
	"github.com/soltixdb/cets/internal/utils"
)

// WorkerOptions configures a JobWorker
type WorkerOptions struct {
	JobSubject    string
	ResultSubject string
	Concurrency   int
	JobTimeout    time.Duration
}

// JobWorker consumes analysis jobs, runs them and publishes their results.
// A job is acknowledged once a slot is free; at most Concurrency jobs run
// at once.
type JobWorker struct {
	logger      *logging.Logger
	queue       queue.Queue
	codec       *compression.Codec
	correlation *CorrelationService
	metrics     *metrics.Registry
	opts        WorkerOptions

	slots   chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// ErrWorkerStopped is returned for jobs delivered after Stop
var ErrWorkerStopped = errors.New("worker stopped")

// NewJobWorker creates a new JobWorker. reg may be nil.
func NewJobWorker(
	logger *logging.Logger,
	q queue.Queue,
	codec *compression.Codec,
	correlation *CorrelationService,
	reg *metrics.Registry,
	opts WorkerOptions,
) *JobWorker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobWorker{
		logger:      logger,
		queue:       q,
		codec:       codec,
		correlation: correlation,
		metrics:     reg,
		opts:        opts,
		slots:       make(chan struct{}, opts.Concurrency),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start subscribes to the job subject
func (w *JobWorker) Start() error {
	if err := w.queue.Subscribe(w.opts.JobSubject, w.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.opts.JobSubject, err)
	}
	w.logger.Info("Worker started",
		"subject", w.opts.JobSubject,
		"concurrency", w.opts.Concurrency,
		"job_timeout", w.opts.JobTimeout.String())
	return nil
}

// Stop unsubscribes and waits for running jobs. When ctx expires first the
// running analyses are cancelled and reported as failed.
func (w *JobWorker) Stop(ctx context.Context) error {
	if err := w.queue.Unsubscribe(w.opts.JobSubject); err != nil {
		w.logger.Warn("Failed to unsubscribe", "subject", w.opts.JobSubject, "error", err)
	}

	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return ctx.Err()
	}
}

func (w *JobWorker) handle(ctx context.Context, data []byte) error {
	var job models.Job
	if err := w.codec.Unmarshal(data, &job); err != nil {
		w.logger.Error("Dropping malformed job", "error", err)
		return nil
	}

	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.ctx.Done():
		return w.ctx.Err()
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.slots
		return ErrWorkerStopped
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		defer func() { <-w.slots }()
		w.process(&job)
	}()
	return nil
}

func (w *JobWorker) process(job *models.Job) {
	start := time.Now()

	ctx := w.ctx
	if w.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.JobTimeout)
		defer cancel()
	}
	ctx = logging.WithLogger(ctx, w.logger)
	ctx = logging.WithJobID(logging.WithRequestID(ctx, job.RequestID), job.ID)

	result := models.JobResult{JobID: job.ID}
	report, err := w.correlation.Execute(ctx, &job.Request)
	result.CompletedAt = time.Now().UTC()
	if err != nil {
		result.Status = models.JobFailed
		result.Error = err.Error()
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			result.Error = fmt.Sprintf("%s: %s", svcErr.Code, svcErr.Message)
		}
		logging.WarnCtx(ctx, "Job failed", "error", result.Error)
	} else {
		result.Status = models.JobCompleted
		result.Report = report
		logging.InfoCtx(ctx, "Job completed",
			"findings", len(report.Findings),
			"duration", time.Since(start).String())
	}

	if w.metrics != nil {
		w.metrics.ObserveJob(string(result.Status))
	}

	if err := w.publish(&result); err != nil {
		logging.ErrorCtx(ctx, "Failed to publish job result", "error", err)
	}
}

// publish retries with backoff; results are published even after Stop
func (w *JobWorker) publish(result *models.JobResult) error {
	data, err := w.codec.Marshal(result)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), utils.PublishTimeout)
		err = w.queue.Publish(ctx, w.opts.ResultSubject, data)
		cancel()
		if err == nil || errors.Is(err, queue.ErrClosed) || attempt+1 >= utils.DefaultMaxRetries {
			return err
		}
		time.Sleep(utils.Backoff(attempt))
	}
}
