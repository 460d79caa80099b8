package services

import (
	"sync"
	"time"

	"bert-gateway/models"
)

// JobStore is the in-memory job table. It hands out copies, so a Job read
// from the store is never mutated behind the caller's back.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
	now  func() time.Time
}

// NewJobStore creates an empty store. now defaults to time.Now.
func NewJobStore(now func() time.Time) *JobStore {
	if now == nil {
		now = time.Now
	}
	return &JobStore{jobs: make(map[string]*models.Job), now: now}
}

// Create stores a new job in the queued state
func (s *JobStore) Create(job *models.Job) *models.Job {
	stored := copyJob(job)
	stored.Status = models.JobQueued
	stored.Progress = 0
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	s.mu.Lock()
	s.jobs[stored.ID] = stored
	s.mu.Unlock()
	return copyJob(stored)
}

func (s *JobStore) Get(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, newError(KindJobNotFound, "Job no encontrado")
	}
	return copyJob(job), nil
}

// Update applies fn to a copy of the job and stores the result. Terminal jobs
// are left untouched, progress never moves backwards and a job entering a
// terminal state gets its completion time stamped.
func (s *JobStore) Update(id string, fn func(job *models.Job)) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return nil, newError(KindJobNotFound, "Job no encontrado")
	}
	if current.IsTerminal() {
		return copyJob(current), nil
	}

	next := copyJob(current)
	fn(next)

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	if next.Progress < current.Progress {
		next.Progress = current.Progress
	}
	if next.Progress > 100 {
		next.Progress = 100
	}
	if next.IsTerminal() && next.CompletedAt == nil {
		t := s.now()
		next.CompletedAt = &t
	}

	s.jobs[id] = next
	return copyJob(next), nil
}

// Sweep removes every job created before cutoff and returns how many went
func (s *JobStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func copyJob(job *models.Job) *models.Job {
	c := *job
	if job.Parameters != nil {
		c.Parameters = append([]models.TypedValue{}, job.Parameters...)
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
