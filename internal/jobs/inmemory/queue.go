package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/treasury/internal/jobs"
)

const (
	defaultWorkers    = 5
	defaultMaxRetries = 3
)

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// It suits single-instance deployments and tests.
type Queue struct {
	jobChan   chan *jobs.RiskScanJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	closed    bool

	workers      int
	retryBackoff time.Duration
}

// NewQueue creates a new in-memory job queue.
// bufferSize determines how many jobs can be queued before PublishRiskScan blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		jobChan:      make(chan *jobs.RiskScanJob, bufferSize),
		closeChan:    make(chan struct{}),
		store:        store,
		workers:      defaultWorkers,
		retryBackoff: time.Second,
	}
}

// WithWorkers sets the number of concurrent workers started by Start.
func (q *Queue) WithWorkers(n int) *Queue {
	if n > 0 {
		q.workers = n
	}
	return q
}

// WithRetryBackoff sets the base delay between retries. The n-th retry
// waits n times the base delay.
func (q *Queue) WithRetryBackoff(d time.Duration) *Queue {
	q.retryBackoff = d
	return q
}

// PublishRiskScan implements the Publisher interface.
func (q *Queue) PublishRiskScan(ctx context.Context, job *jobs.RiskScanJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = defaultMaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	// workers own the queued copy; the caller keeps job as published
	queued := *job
	select {
	case q.jobChan <- &queued:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements the Consumer interface.
// The handler is called concurrently, up to the configured worker count.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}

	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.RiskScanJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying

			backoff := time.Duration(job.RetryCount) * q.retryBackoff
			retry := *job
			time.AfterFunc(backoff, func() {
				retry.Status = jobs.JobStatusPending
				retry.StartedAt = nil
				retry.CompletedAt = nil
				_ = q.PublishRiskScan(ctx, &retry)
			})
		} else {
			job.Status = jobs.JobStatusFailed
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
