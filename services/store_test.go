package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bert-gateway/models"
)

func TestJobStoreLifecycle(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewJobStore(clock.Now)

	job := store.Create(&models.Job{ID: "j1", Status: models.JobRunning, Progress: 50})
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, clock.Now(), job.CreatedAt)

	job, err := store.Update("j1", func(j *models.Job) {
		j.Status = models.JobRunning
		j.Progress = 40
	})
	require.NoError(t, err)
	assert.Equal(t, 40, job.Progress)

	// progress never moves backwards
	job, err = store.Update("j1", func(j *models.Job) { j.Progress = 20 })
	require.NoError(t, err)
	assert.Equal(t, 40, job.Progress)

	clock.Advance(time.Minute)
	job, err = store.Update("j1", func(j *models.Job) {
		j.Status = models.JobCompleted
		j.Progress = 100
	})
	require.NoError(t, err)
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, clock.Now(), *job.CompletedAt)

	// terminal jobs are immutable
	job, err = store.Update("j1", func(j *models.Job) {
		j.Status = models.JobFailed
		j.Error = "late"
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Empty(t, job.Error)
}

func TestJobStoreReturnsCopies(t *testing.T) {
	store := NewJobStore(nil)
	store.Create(&models.Job{ID: "j1"})

	job, err := store.Get("j1")
	require.NoError(t, err)
	job.Status = models.JobFailed

	again, err := store.Get("j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, again.Status)
}

func TestJobStoreNotFound(t *testing.T) {
	store := NewJobStore(nil)

	_, err := store.Get("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
	assert.EqualError(t, err, "Job no encontrado")

	_, err = store.Update("missing", func(*models.Job) {})
	assert.True(t, errors.Is(err, ErrJobNotFound))
	assert.Equal(t, 0, store.Len())
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(nil)

	data, err := store.Put(ctx, models.SessionPayload{
		Kind: "data",
		Data: [][]string{{"x", "y"}, {"1", "2"}},
	}, "table.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, data.ID)
	assert.Equal(t, "table.csv", data.FileName)

	got, err := store.Get(ctx, data.ID)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x", "y"}, {"1", "2"}}, got.Data)

	script, err := store.Put(ctx, models.SessionPayload{Kind: "SCRIPT", Script: "f <- function(d) 1"}, "f.R")
	require.NoError(t, err)
	assert.Equal(t, models.SessionScript, script.Kind)
	assert.NotEqual(t, data.ID, script.ID)

	_, err = store.Get(ctx, "nope")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestMemorySessionStoreRejectsBadPayload(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(nil)

	for _, p := range []models.SessionPayload{
		{Kind: "data"},
		{Kind: "script", Script: "  "},
		{Kind: "image"},
	} {
		_, err := store.Put(ctx, p, "f")
		assert.True(t, errors.Is(err, ErrValidation), p.Kind)
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	sessions := NewMemorySessionStore(clock.Now)
	jobs := NewJobStore(clock.Now)

	session, err := sessions.Put(ctx, models.SessionPayload{Kind: "script", Script: "1"}, "s.R")
	require.NoError(t, err)
	jobs.Create(&models.Job{ID: "old"})

	sweeper := NewSweeper(sessions, jobs, time.Hour, time.Hour, nil)
	sweeper.now = clock.Now

	clock.Advance(59 * time.Minute)
	removedSessions, removedJobs := sweeper.SweepOnce(ctx)
	assert.Equal(t, 0, removedSessions)
	assert.Equal(t, 0, removedJobs)
	_, err = sessions.Get(ctx, session.ID)
	require.NoError(t, err)

	jobs.Create(&models.Job{ID: "fresh"})

	clock.Advance(2 * time.Minute)
	removedSessions, removedJobs = sweeper.SweepOnce(ctx)
	assert.Equal(t, 1, removedSessions)
	assert.Equal(t, 1, removedJobs)

	_, err = sessions.Get(ctx, session.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = jobs.Get("old")
	assert.True(t, errors.Is(err, ErrJobNotFound))
	_, err = jobs.Get("fresh")
	assert.NoError(t, err)
}

func TestSweeperStartStop(t *testing.T) {
	sweeper := NewSweeper(NewMemorySessionStore(nil), NewJobStore(nil), 10*time.Millisecond, time.Hour, nil)
	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop()
}
