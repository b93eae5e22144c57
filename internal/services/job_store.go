package services

import (
	"sync"
	"time"

	"github.com/soltixdb/cets/internal/analytics/correlation"
	"github.com/soltixdb/cets/internal/models"
)

// DefaultJobStoreCapacity is the number of jobs remembered by the API
const DefaultJobStoreCapacity = 1024

type jobRecord struct {
	id          string
	tester      string
	status      models.JobStatus
	submittedAt time.Time
	completedAt time.Time
	err         string
	report      *correlation.Report
}

// JobStore tracks submitted jobs in memory. When full the oldest job is
// evicted, finished or not.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]*jobRecord
	order    []string
	capacity int
}

// NewJobStore creates a store; capacity <= 0 uses DefaultJobStoreCapacity
func NewJobStore(capacity int) *JobStore {
	if capacity <= 0 {
		capacity = DefaultJobStoreCapacity
	}
	return &JobStore{
		jobs:     make(map[string]*jobRecord),
		capacity: capacity,
	}
}

// Add records a queued job
func (s *JobStore) Add(job *models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return
	}
	for len(s.order) >= s.capacity {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}

	s.jobs[job.ID] = &jobRecord{
		id:          job.ID,
		tester:      job.Request.Tester,
		status:      models.JobQueued,
		submittedAt: job.SubmittedAt,
	}
	s.order = append(s.order, job.ID)
}

// Remove forgets a job
func (s *JobStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; !exists {
		return
	}
	delete(s.jobs, id)
	for i, jobID := range s.order {
		if jobID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Complete applies a worker result; false when the job is unknown
func (s *JobStore) Complete(result *models.JobResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.jobs[result.JobID]
	if !exists {
		return false
	}
	rec.status = result.Status
	rec.completedAt = result.CompletedAt
	rec.err = result.Error
	rec.report = result.Report
	return true
}

// Get returns the job state
func (s *JobStore) Get(id string) (*models.JobResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.jobs[id]
	if !exists {
		return nil, false
	}

	resp := &models.JobResponse{
		JobID:       rec.id,
		Status:      rec.status,
		Tester:      rec.tester,
		SubmittedAt: rec.submittedAt.UTC().Format(time.RFC3339),
		Error:       rec.err,
		Report:      rec.report,
	}
	if !rec.completedAt.IsZero() {
		resp.CompletedAt = rec.completedAt.UTC().Format(time.RFC3339)
	}
	return resp, true
}

// Len returns the number of tracked jobs
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
