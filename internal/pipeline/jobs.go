package pipeline

import (
	"errors"
	"sync"
	"time"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
	StatusDuplicate  JobStatus = "duplicate"
)

var ErrQueueFull = errors.New("job queue is full")

// JobInput is what a job analyzes: inline text, a URL, or uploaded bytes.
type JobInput struct {
	Text     string
	URL      string
	Filename string
	Data     []byte
}

// Source describes the input for logs and stored results.
func (in JobInput) Source() string {
	switch {
	case in.URL != "":
		return "url:" + in.URL
	case in.Data != nil:
		return "upload:" + in.Filename
	default:
		return "text"
	}
}

// Job tracks the state of a single queued analysis.
type Job struct {
	mu sync.Mutex

	ID      string
	Status  JobStatus
	Phase   string
	Options Options

	CreatedAt time.Time
	UpdatedAt time.Time

	input  JobInput
	result *Result
	errors []string
}

func NewJob(input JobInput, opts Options) *Job {
	now := time.Now()
	opts.Source = input.Source()
	return &Job{
		ID:        newID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
		input:     input,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Fail records msg and marks the job failed in phase.
func (j *Job) Fail(phase, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, msg)
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Finish attaches res and derives the final status from its stages.
func (j *Job) Finish(res *Result) JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.Status = res.Status()
	if res.Cached {
		j.Status = StatusDuplicate
	}
	for stage, msg := range res.StageErrors() {
		j.errors = append(j.errors, stage+": "+msg)
	}
	j.Phase = "done"
	j.UpdatedAt = time.Now()
	return j.Status
}

// Input returns what the job analyzes.
func (j *Job) Input() JobInput {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.input
}

// releaseInput drops uploaded bytes once text has been extracted.
func (j *Job) releaseInput() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.input.Data = nil
	j.input.Text = ""
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Source    string    `json:"source"`
	Errors    []string  `json:"errors"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Source:    j.Options.Source,
		Errors:    errs,
		Result:    j.result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
