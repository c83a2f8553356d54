package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a report job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusLoading    JobStatus = "loading"
	StatusRendering  JobStatus = "rendering"
	StatusInspecting JobStatus = "inspecting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single report generation.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	pdfData []byte
	errors  []string
}

// Progress tracks what the job has produced so far.
type Progress struct {
	Attempts    int      `json:"attempts"`
	Pages       int      `json:"pages"`
	Bytes       int      `json:"bytes"`
	RenderMs    int64    `json:"render_ms"`
	ChartsDrawn int      `json:"charts_drawn"`
	Errors      []string `json:"errors"`
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

// Len returns the number of tracked jobs.
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
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
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
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one plan load attempt.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// SetResult records the rendered PDF and its measurements.
func (j *Job) SetResult(data []byte, pages, charts int, renderMs int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pdfData = data
	j.ContentHash = ContentHashHex(data)
	j.Progress.Pages = pages
	j.Progress.Bytes = len(data)
	j.Progress.ChartsDrawn = charts
	j.Progress.RenderMs = renderMs
	j.UpdatedAt = time.Now()
}

// PDFData returns the rendered PDF, or nil before completion.
func (j *Job) PDFData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pdfData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	PlanID      string    `json:"plan_id"`
	UserID      string    `json:"user_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		PlanID:      j.PlanID,
		UserID:      j.UserID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Progress:    p,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
