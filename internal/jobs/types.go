package jobs

import (
	"context"
	"time"
)

// Kind identifies what a job does to its statement import.
type Kind string

const (
	// KindParseStatement extracts transactions from the uploaded PDF.
	KindParseStatement Kind = "parse_statement"
	// KindCategorize suggests categories and flags duplicates.
	KindCategorize Kind = "categorize"
)

// Status is the lifecycle state of a job. Failed jobs are not retried
// automatically; the client re-triggers the pipeline stage instead.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ImportJob is one unit of asynchronous pipeline work.
type ImportJob struct {
	JobID    string `json:"job_id"`
	Kind     Kind   `json:"kind"`
	ImportID string `json:"import_id"`
	UserID   string `json:"user_id"`

	// Password unlocks an encrypted statement during parse. It lives only
	// in process memory for the lifetime of the job.
	Password string `json:"-"`

	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Publisher enqueues jobs for asynchronous processing.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	// Publish enqueues a job.
	Publish(ctx context.Context, job *ImportJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer pulls jobs off the queue and runs them.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// Handler processes one job. A returned error marks the job failed.
type Handler func(ctx context.Context, job *ImportJob) error

// Store tracks job state so clients can poll job progress.
type Store interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ImportJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ImportJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter Filter) ([]*ImportJob, error)
}

// Filter defines filtering criteria for listing jobs.
type Filter struct {
	// UserID restricts results to one user's jobs.
	UserID string

	// ImportID filters jobs by statement import.
	ImportID string

	// Status filters jobs by status.
	Status Status

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
