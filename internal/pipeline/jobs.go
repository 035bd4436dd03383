package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pitchforge/internal/screenplay"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusFailed    JobStatus = "failed"
	StatusSucceeded JobStatus = "succeeded"
)

// StepState is the state of one named step within a job.
type StepState string

const (
	StepPending StepState = "pending"
	StepRunning StepState = "running"
	StepDone    StepState = "done"
	StepFailed  StepState = "failed"
)

// Step records a job's progress through one stage.
type Step struct {
	Name  string    `json:"name"`
	State StepState `json:"status"`
	Error string    `json:"error,omitempty"`
}

// Job tracks one uploaded script through extraction, parsing, and the
// generative pipeline. Mutations go through methods so API handlers
// can snapshot concurrently with the worker.
type Job struct {
	mu sync.Mutex

	ID       string
	Filename string
	MimeType string

	Status JobStatus
	Error  string
	Steps  []Step

	Overrides Overrides

	CreatedAt time.Time
	UpdatedAt time.Time

	// Working state, populated as the job advances.
	fileData  []byte
	warnings  []string
	doc       *screenplay.ScriptDocument
	std       *screenplay.Standardized
	result    *Result
	packageID string
}

// NewJob builds a queued job with every step pending.
func NewJob(filename, mimeType string, data []byte, ov Overrides) *Job {
	steps := make([]Step, len(JobSteps))
	for i, name := range JobSteps {
		steps[i] = Step{Name: name, State: StepPending}
	}
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Filename:  filename,
		MimeType:  mimeType,
		Status:    StatusQueued,
		Steps:     steps,
		Overrides: ov,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// AdvanceTo marks the named step running and every step before it
// done. Steps run strictly in order, so reaching one means all its
// predecessors succeeded.
func (j *Job) AdvanceTo(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusRunning
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			j.Steps[i].State = StepRunning
			break
		}
		if j.Steps[i].State == StepPending || j.Steps[i].State == StepRunning {
			j.Steps[i].State = StepDone
		}
	}
	j.UpdatedAt = time.Now()
}

// Fail marks the named step and the whole job failed.
func (j *Job) Fail(name string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Error = err.Error()
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			j.Steps[i].State = StepFailed
			j.Steps[i].Error = err.Error()
			break
		}
	}
	j.UpdatedAt = time.Now()
}

// MarkFailed fails the job without blaming any step. Used for
// failures outside the step sequence, like a full queue.
func (j *Job) MarkFailed(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Error = msg
	j.UpdatedAt = time.Now()
}

// Complete marks all remaining steps done and the job succeeded.
func (j *Job) Complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusSucceeded
	for i := range j.Steps {
		if j.Steps[i].State == StepRunning || j.Steps[i].State == StepPending {
			j.Steps[i].State = StepDone
		}
	}
	j.UpdatedAt = time.Now()
}

// SetScript stores the parsed script and its flattened form.
func (j *Job) SetScript(doc *screenplay.ScriptDocument, std *screenplay.Standardized) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.doc = doc
	j.std = std
	j.UpdatedAt = time.Now()
}

// AddWarnings appends extraction warnings.
func (j *Job) AddWarnings(ws ...string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.warnings = append(j.warnings, ws...)
	j.UpdatedAt = time.Now()
}

// SetResult stores the finished pipeline result.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.UpdatedAt = time.Now()
}

// SetPackageID records the persisted package's id.
func (j *Job) SetPackageID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.packageID = id
	j.UpdatedAt = time.Now()
}

// FileData returns the raw uploaded bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Script returns the parsed script, or nil before parsing.
func (j *Job) Script() *screenplay.ScriptDocument {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.doc
}

// Standardized returns the flattened script, or nil before parsing.
func (j *Job) Standardized() *screenplay.Standardized {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.std
}

// Result returns the pipeline result, or nil before completion.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// PackageID returns the persisted package id, or "" before storage.
func (j *Job) PackageID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.packageID
}

// Warnings returns accumulated warnings.
func (j *Job) Warnings() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.warnings))
	copy(out, j.warnings)
	return out
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Progress  float64   `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Steps     []Step    `json:"steps"`
	Warnings  []string  `json:"warnings"`
	PackageID string    `json:"package_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	steps := make([]Step, len(j.Steps))
	copy(steps, j.Steps)
	done := 0
	for _, st := range steps {
		if st.State == StepDone {
			done++
		}
	}
	progress := 0.0
	if len(steps) > 0 {
		progress = float64(done) / float64(len(steps))
	}
	warnings := j.warnings
	if warnings == nil {
		warnings = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    j.Status,
		Progress:  progress,
		Error:     j.Error,
		Steps:     steps,
		Warnings:  warnings,
		PackageID: j.packageID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
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

// Cleanup removes jobs idle longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		job.mu.Unlock()
		if idle > s.ttl {
			delete(s.jobs, id)
		}
	}
}
