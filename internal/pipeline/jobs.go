package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/coursemap/internal/coursetree"
)

// JobStatus represents the state of a mapping job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusResolving JobStatus = "resolving"
	StatusCrawling  JobStatus = "crawling"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single course mapping.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	CourseID string `json:"course_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	CourseKey string `json:"course_key,omitempty"`
	Label     string `json:"label,omitempty"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Artifacts: not serialized.
	tree     *coursetree.Tree
	html     string
	markdown string
	errors   []string
}

// Progress tracks crawl progress.
type Progress struct {
	Nodes         int      `json:"nodes"`
	EmbeddedFiles int      `json:"embedded_files"`
	ErrorBranches int      `json:"error_branches"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for the given course identifier.
func NewJob(courseID string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
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

// SetCourse records the resolved course key and display label.
func (j *Job) SetCourse(key, label string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.CourseKey = key
	j.Label = label
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

// SetStats records crawl totals.
func (j *Job) SetStats(s coursetree.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Nodes = s.Nodes
	j.Progress.EmbeddedFiles = s.EmbeddedFiles
	j.Progress.ErrorBranches = s.ErrorBranches
	j.UpdatedAt = time.Now()
}

// SetArtifacts stores the finished tree and its renderings.
func (j *Job) SetArtifacts(tree *coursetree.Tree, html, markdown string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tree = tree
	j.html = html
	j.markdown = markdown
	j.UpdatedAt = time.Now()
}

// Tree returns the finished tree, nil until rendering completes.
func (j *Job) Tree() *coursetree.Tree {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tree
}

// HTML returns the standalone viewer document.
func (j *Job) HTML() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.html
}

// Markdown returns the outline rendering.
func (j *Job) Markdown() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.markdown
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	CourseID  string    `json:"course_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	CourseKey string    `json:"course_key,omitempty"`
	Label     string    `json:"label,omitempty"`
	Progress  Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		CourseID:  j.CourseID,
		Status:    j.Status,
		Phase:     j.Phase,
		CourseKey: j.CourseKey,
		Label:     j.Label,
		Progress: Progress{
			Nodes:         j.Progress.Nodes,
			EmbeddedFiles: j.Progress.EmbeddedFiles,
			ErrorBranches: j.Progress.ErrorBranches,
			Errors:        errs,
		},
	}
}
