// Package jobstore holds the authoritative-as-known state of every tracked
// job. The in-memory map is the canonical view; an optional SQLite database
// keeps job history across sessions. Only the lifecycle controller writes
// here; consumers read.
package jobstore

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/domain"
)

// Store provides concurrent read access to tracked jobs and their latest
// progress samples.
type Store struct {
	mu          sync.RWMutex
	jobs        map[string]*domain.Job
	progress    map[string]domain.ProgressSample
	suggestions map[string][]domain.Suggestion

	db  *DB
	log zerolog.Logger
}

// New creates a memory-only Store.
func New(log zerolog.Logger) *Store {
	return &Store{
		jobs:        make(map[string]*domain.Job),
		progress:    make(map[string]domain.ProgressSample),
		suggestions: make(map[string][]domain.Suggestion),
		log:         log,
	}
}

// Open creates a Store backed by a SQLite database at dbPath and preloads
// previously tracked jobs.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}

	s := New(log)
	s.db = db

	jobs, err := db.ListJobs()
	if err != nil {
		db.Close()
		return nil, err
	}
	for i := range jobs {
		job := jobs[i]
		s.jobs[job.ID] = &job

		if job.SuggestionCount > 0 {
			suggestions, err := db.ListSuggestions(job.ID)
			if err != nil {
				log.Warn().Err(err).Str("job_id", job.ID).Msg("preloading suggestions failed")
				continue
			}
			s.suggestions[job.ID] = suggestions
		}
	}
	return s, nil
}

// Close releases the persistence layer, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserts or replaces a full job record, typically from a REST response.
// Terminal records are never overwritten with a non-terminal view.
func (s *Store) Put(job domain.Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.jobs[job.ID]; ok && cur.Status.Terminal() && !job.Status.Terminal() {
		return false
	}

	cp := job
	s.jobs[job.ID] = &cp
	s.persist(cp)
	return true
}

// Get returns a copy of the job with the given id.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// List returns all tracked jobs, newest first.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// ListActive returns tracked jobs that have not reached a terminal status.
func (s *Store) ListActive() []domain.Job {
	var active []domain.Job
	for _, job := range s.List() {
		if !job.Status.Terminal() {
			active = append(active, job)
		}
	}
	return active
}

// ApplyStatus transitions a job to the given status, populating the
// transition timestamps and terminal payload. It returns the updated copy
// and whether the transition was applied. Unknown job ids and transitions
// that are not legal progressions (backward moves, repeats, anything out of
// a terminal state, unknown statuses) are rejected.
func (s *Store) ApplyStatus(id string, status domain.JobStatus, errMsg string, output []byte, at time.Time) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	if !job.Status.CanTransitionTo(status) {
		return *job, false
	}

	job.Status = status
	if status == domain.StatusRunning && job.StartedAt == nil {
		t := at
		job.StartedAt = &t
	}
	if status.Terminal() {
		t := at
		job.CompletedAt = &t
		delete(s.progress, id)
	}
	if status == domain.StatusFailed {
		job.ErrorMessage = errMsg
	}
	if status == domain.StatusCompleted && len(output) > 0 {
		job.OutputData = output
	}

	s.persist(*job)
	return *job, true
}

// SetProgress records the latest progress sample for a job. Samples for
// jobs not currently running are dropped.
func (s *Store) SetProgress(sample domain.ProgressSample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[sample.JobID]
	if !ok || job.Status != domain.StatusRunning {
		return false
	}
	s.progress[sample.JobID] = sample
	return true
}

// Progress returns the latest progress sample for a job, if any.
func (s *Store) Progress(id string) (domain.ProgressSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sample, ok := s.progress[id]
	return sample, ok
}

// ClearProgress discards the progress sample for a job.
func (s *Store) ClearProgress(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, id)
}

// SetSuggestionCount caches the number of suggestions loaded for a job.
func (s *Store) SetSuggestionCount(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.SuggestionCount = n
	s.persist(*job)
}

// SaveSuggestions records a loaded or updated suggestion set, persisting it
// when a database is attached.
func (s *Store) SaveSuggestions(suggestions []domain.Suggestion) {
	s.mu.Lock()
	for _, sg := range suggestions {
		existing := s.suggestions[sg.JobID]
		replaced := false
		for i := range existing {
			if existing[i].ID == sg.ID {
				existing[i] = sg
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, sg)
		}
		s.suggestions[sg.JobID] = existing
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}
	for _, sg := range suggestions {
		if err := s.db.UpsertSuggestion(sg); err != nil {
			s.log.Warn().Err(err).Str("suggestion_id", sg.ID).Msg("persisting suggestion failed")
		}
	}
}

// Suggestions returns the known suggestion set for a job.
func (s *Store) Suggestions(jobID string) []domain.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Suggestion, len(s.suggestions[jobID]))
	copy(out, s.suggestions[jobID])
	return out
}

// AllSuggestions returns every known suggestion, grouped by job with the
// newest job first.
func (s *Store) AllSuggestions() []domain.Suggestion {
	var all []domain.Suggestion
	for _, job := range s.List() {
		all = append(all, s.Suggestions(job.ID)...)
	}
	return all
}

func (s *Store) persist(job domain.Job) {
	if s.db == nil {
		return
	}
	if err := s.db.UpsertJob(job); err != nil {
		s.log.Warn().Err(err).Str("job_id", job.ID).Msg("persisting job failed")
	}
}
