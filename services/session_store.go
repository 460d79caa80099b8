package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bert-gateway/models"
)

// SessionStore holds uploaded data and scripts by id. Sessions are immutable
// once stored; expiry (Sweep or backend TTL) is the only way they go away.
type SessionStore interface {
	Put(ctx context.Context, payload models.SessionPayload, fileName string) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

func errSessionNotFound(id string) error {
	return newError(KindSessionNotFound, "session %q not found or expired", id)
}

// newSession validates payload and builds the session stored for it
func newSession(payload models.SessionPayload, fileName string, now time.Time) (*models.Session, error) {
	s := &models.Session{
		ID:         uuid.New().String(),
		Kind:       strings.ToLower(strings.TrimSpace(payload.Kind)),
		FileName:   fileName,
		UploadTime: now,
	}
	switch s.Kind {
	case models.SessionData:
		if len(payload.Data) == 0 {
			return nil, newError(KindValidation, "data session requires at least a header row")
		}
		s.Data = make([][]string, len(payload.Data))
		for i, row := range payload.Data {
			s.Data[i] = append([]string{}, row...)
		}
	case models.SessionScript:
		if strings.TrimSpace(payload.Script) == "" {
			return nil, newError(KindValidation, "script session requires script text")
		}
		s.Script = payload.Script
	default:
		return nil, newError(KindValidation, "session kind must be %q or %q", models.SessionData, models.SessionScript)
	}
	return s, nil
}

// MemorySessionStore keeps sessions in process memory
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewMemorySessionStore creates an empty store. now defaults to time.Now.
func NewMemorySessionStore(now func() time.Time) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{sessions: make(map[string]*models.Session), now: now}
}

func (s *MemorySessionStore) Put(ctx context.Context, payload models.SessionPayload, fileName string) (*models.Session, error) {
	session, err := newSession(payload, fileName, s.now())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session, nil
}

// Get returns the stored session. Callers must not modify it.
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound(id)
	}
	return session, nil
}

func (s *MemorySessionStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.UploadTime.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
