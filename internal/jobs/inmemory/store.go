package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/treasury/internal/jobs"
)

// Store is an in-memory implementation of JobStore.
// It stores jobs in memory and is safe for concurrent use.
// Data is lost on service restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.RiskScanJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.RiskScanJob),
	}
}

func copyJob(job *jobs.RiskScanJob) *jobs.RiskScanJob {
	c := *job
	if job.Result != nil {
		r := *job.Result
		c.Result = &r
	}
	return &c
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.RiskScanJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.JobID] = copyJob(job)
	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.RiskScanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return copyJob(job), nil
}

// ListJobs implements the JobStore interface.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.RiskScanJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.RiskScanJob{}
	for _, job := range s.jobs {
		if filter.Trigger != "" && job.Trigger != filter.Trigger {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		result = append(result, copyJob(job))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Sequence > result[j].Sequence
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.RiskScanJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// UpdateJobStatus implements the JobStore interface.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
