package jobs

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeRiskScan represents a liquidity risk scan.
	JobTypeRiskScan JobType = "risk_scan"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// Trigger records who requested a scan.
type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// ScanResult is the outcome of a completed scan.
type ScanResult struct {
	TotalAccounts int `json:"total_accounts"`
	AtRiskCount   int `json:"at_risk_count"`

	// Accepted is false when a newer scan was requested before this one
	// finished; its summary was then discarded.
	Accepted bool `json:"accepted"`

	// AlertsSynced tells whether at-risk accounts were published.
	AlertsSynced bool `json:"alerts_synced"`
}

// RiskScanJob represents a request to project balances and summarize
// liquidity risk.
type RiskScanJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// AsOf is the day balances are projected from.
	AsOf civil.Date `json:"as_of"`

	// HorizonDays is the number of days projected.
	HorizonDays int `json:"horizon_days"`

	// RiskOnly restricts the result to at-risk accounts.
	RiskOnly bool `json:"risk_only"`

	// Trigger is who requested the scan.
	Trigger Trigger `json:"trigger"`

	// Sequence orders scan requests; only the latest one is kept.
	Sequence uint64 `json:"sequence"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`

	// Result is set once the job completed.
	Result *ScanResult `json:"result,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *RiskScanJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *RiskScanJob) GetType() JobType {
	return JobTypeRiskScan
}

// GetStatus implements the Job interface.
func (j *RiskScanJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishRiskScan publishes a risk scan job.
	PublishRiskScan(ctx context.Context, job *RiskScanJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *RiskScanJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*RiskScanJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*RiskScanJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Trigger filters jobs by requester.
	Trigger Trigger

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
