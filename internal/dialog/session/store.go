// Package session keeps dialog sessions for the lifetime of the process.
package session

import (
	"context"
	"sync"
	"time"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/models"

	"github.com/google/uuid"
)

// Store is the session repository used by the coordinator.
type Store interface {
	Create(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
	Len() int
}

// IDGenerator returns a new unique session id.
type IDGenerator func() string

// MemoryStore is a map of sessions. The mutex protects the map itself only:
// two requests for the same id may interleave and the last Update wins.
// Sessions are never expired; the timeout is carried for reporting.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	newID    IDGenerator
	now      func() time.Time
	timeout  time.Duration
}

type Option func(*MemoryStore)

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *MemoryStore) { s.newID = gen }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(timeout time.Duration, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*models.Session),
		newID:    uuid.NewString,
		now:      time.Now,
		timeout:  timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeout returns the configured session timeout. It is not enforced.
func (s *MemoryStore) Timeout() time.Duration {
	return s.timeout
}

func (s *MemoryStore) Create(_ context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for {
		if _, taken := s.sessions[id]; !taken {
			break
		}
		id = s.newID()
	}

	sess := models.NewSession(id, s.now())
	s.sessions[id] = sess
	return sess.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	return sess.Clone(), nil
}

// Update replaces the stored session. The session must exist.
func (s *MemoryStore) Update(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		return apperrors.NewSessionNotFoundError(sess.ID)
	}

	stored := sess.Clone()
	stored.UpdatedAt = s.now()
	s.sessions[sess.ID] = stored
	return nil
}

// Delete is a no-op for unknown ids.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
