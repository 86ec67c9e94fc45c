package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/ingest"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	DocID    string `json:"doc_id"`
	DocPath  string `json:"doc_path"`
	Mimetype string `json:"mimetype"`

	Status    JobStatus        `json:"status"`
	Phase     string           `json:"phase"`
	Attempts  int              `json:"attempts"`
	ErrorKind ingest.ErrorKind `json:"error_kind,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages      int      `json:"total_pages"`
	TotalChunks     int      `json:"total_chunks"`
	TableRows       int      `json:"table_rows"`
	EstimatedTokens int      `json:"estimated_tokens"`
	TocFound        bool     `json:"toc_found"`
	Errors          []string `json:"errors"`
}

// NewJob creates a queued job. An empty docID gets a generated one.
func NewJob(docID, docPath, mimetype string) *Job {
	if docID == "" {
		docID = uuid.NewString()
	}
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		DocID:     docID,
		DocPath:   docPath,
		Mimetype:  mimetype,
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if !snap.Status.Finished() {
			continue
		}
		if now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
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

// IncrAttempts counts one more ingestion attempt.
func (j *Job) IncrAttempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
	return j.Attempts
}

// SetErrorKind records the classification of the last failure.
func (j *Job) SetErrorKind(kind ingest.ErrorKind) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ErrorKind = kind
	j.UpdatedAt = time.Now()
}

// SetResult records what a successful ingestion produced.
func (j *Job) SetResult(res ingest.Result, contentHash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = res.TotalPages
	j.Progress.TotalChunks = len(res.Chunks)
	j.Progress.TableRows = res.Summary.TableRows
	j.Progress.EstimatedTokens = res.Summary.EstimatedTokens
	j.Progress.TocFound = len(res.Chunks) > 0 && res.Chunks[0].SectionType == doctree.SectionTOC
	j.ContentHash = contentHash
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string           `json:"job_id"`
	DocID       string           `json:"doc_id"`
	DocPath     string           `json:"doc_path"`
	Mimetype    string           `json:"mimetype,omitempty"`
	Status      JobStatus        `json:"status"`
	Phase       string           `json:"phase"`
	Attempts    int              `json:"attempts"`
	ErrorKind   ingest.ErrorKind `json:"error_kind,omitempty"`
	Progress    Progress         `json:"progress"`
	ContentHash string           `json:"content_hash,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		DocPath:     j.DocPath,
		Mimetype:    j.Mimetype,
		Status:      j.Status,
		Phase:       j.Phase,
		Attempts:    j.Attempts,
		ErrorKind:   j.ErrorKind,
		Progress:    progress,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// ChunksHash fingerprints the chunk texts in order.
func ChunksHash(chunks []doctree.Chunk) string {
	h := sha256.New()
	for _, c := range chunks {
		h.Write([]byte(c.Text))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
