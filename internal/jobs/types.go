package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

// JobTypeBackfillCSV pushes an archived CSV upload into a warehouse table.
const JobTypeBackfillCSV JobType = "backfill_csv"

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// BackfillCSVJob parses an archived CSV from GCS and streams its rows into
// the target alerter output table. Backfills run in the background and never
// touch live review sessions.
type BackfillCSVJob struct {
	JobID string `json:"job_id"`

	GCSURI string `json:"gcs_uri"`
	Table  string `json:"table"`

	Status JobStatus `json:"status"`

	// RowCount is the number of rows inserted, set on completion.
	RowCount int `json:"row_count,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// GetID returns the unique job identifier.
func (j *BackfillCSVJob) GetID() string { return j.JobID }

// GetType returns the job type.
func (j *BackfillCSVJob) GetType() JobType { return JobTypeBackfillCSV }

// GetStatus returns the current job status.
func (j *BackfillCSVJob) GetStatus() JobStatus { return j.Status }

// Job is the generic interface over job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// Publisher enqueues jobs. The abstraction keeps the door open for Cloud
// Tasks or Pub/Sub; the in-memory queue is enough for a single instance.
type Publisher interface {
	PublishBackfill(ctx context.Context, job *BackfillCSVJob) error
	Close() error
}

// Consumer drains jobs from a queue.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state for the jobs API.
type JobStore interface {
	SaveJob(ctx context.Context, job *BackfillCSVJob) error
	GetJob(ctx context.Context, jobID string) (*BackfillCSVJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*BackfillCSVJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Table  string
	Status JobStatus
	Limit  int
	Offset int
}
