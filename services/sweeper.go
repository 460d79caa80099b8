package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultSweepInterval = time.Hour
	DefaultMaxAge        = time.Hour
)

// Sweeper periodically expires sessions and jobs older than maxAge
type Sweeper struct {
	sessions SessionStore
	jobs     *JobStore
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	logger   *logrus.Entry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSweeper(sessions SessionStore, jobs *JobStore, interval, maxAge time.Duration, logger *logrus.Entry) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Sweeper{
		sessions: sessions,
		jobs:     jobs,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		logger:   logger.WithField("component", "sweeper"),
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.SweepOnce(context.Background())
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// SweepOnce removes everything older than maxAge and reports the counts
func (s *Sweeper) SweepOnce(ctx context.Context) (sessions, jobs int) {
	cutoff := s.now().Add(-s.maxAge)

	if s.sessions != nil {
		n, err := s.sessions.Sweep(ctx, cutoff)
		if err != nil {
			s.logger.WithError(err).Warn("session sweep failed")
		}
		sessions = n
	}
	if s.jobs != nil {
		jobs = s.jobs.Sweep(cutoff)
	}

	if sessions > 0 || jobs > 0 {
		s.logger.WithFields(logrus.Fields{"sessions": sessions, "jobs": jobs}).Info("expired entries removed")
	}
	return sessions, jobs
}
