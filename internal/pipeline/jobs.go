package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/templify/internal/score"
)

// JobStatus represents the state of a schema build job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusParsing     JobStatus = "parsing"
	StatusExtracting  JobStatus = "extracting"
	StatusScoring     JobStatus = "scoring"
	StatusMatching    JobStatus = "matching"
	StatusAggregating JobStatus = "aggregating"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusNoDomain    JobStatus = "no_confident_domain"
)

// Job tracks the state of a single schema build.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	SchemaID   string  `json:"schema_id,omitempty"`
	Domain     string  `json:"domain,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	ranking  score.Ranking
	errors   []string
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

// SetResult records the built schema's identity on the job.
func (j *Job) SetResult(schemaID, domain string, confidence float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.SchemaID = schemaID
	j.Domain = domain
	j.Confidence = confidence
	j.UpdatedAt = time.Now()
}

// SetRanking records the scored domain ranking for the snapshot.
func (j *Job) SetRanking(ranking score.Ranking) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ranking = ranking
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// RankingEntry is the JSON view of one scored domain.
type RankingEntry struct {
	Domain  string  `json:"domain"`
	Score   float64 `json:"score"`
	Missing int     `json:"missing_required,omitempty"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string         `json:"job_id"`
	Status     JobStatus      `json:"status"`
	Phase      string         `json:"phase"`
	Filename   string         `json:"filename"`
	SchemaID   string         `json:"schema_id,omitempty"`
	Domain     string         `json:"domain,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Ranking    []RankingEntry `json:"ranking,omitempty"`
	Errors     []string       `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.errors
	if errs == nil {
		errs = []string{}
	}
	var ranking []RankingEntry
	for _, c := range j.ranking {
		ranking = append(ranking, RankingEntry{
			Domain:  c.Domain,
			Score:   c.Score,
			Missing: c.Missing,
		})
	}
	return JobSnapshot{
		ID:         j.ID,
		Status:     j.Status,
		Phase:      j.Phase,
		Filename:   j.Filename,
		SchemaID:   j.SchemaID,
		Domain:     j.Domain,
		Confidence: j.Confidence,
		Ranking:    ranking,
		Errors:     errs,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
