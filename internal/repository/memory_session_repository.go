package repository

import (
	"context"
	"sync"
	"time"

	"ctchen222/solo-tictactoe/internal/gameplay"
)

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*gameplay.Session
	now      func() time.Time
}

// NewMemorySessionRepository creates a process-local SessionRepository.
// Sessions do not expire.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]*gameplay.Session),
		now:      time.Now,
	}
}

func (r *memorySessionRepository) Create(_ context.Context, s *gameplay.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return ErrSessionExists
	}
	s.UpdatedAt = r.now().UTC()
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *memorySessionRepository) FindByID(_ context.Context, id string) (*gameplay.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Update holds the repository lock while fn runs.
func (r *memorySessionRepository) Update(_ context.Context, id string, fn func(*gameplay.Session) error) (*gameplay.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := stored.Clone()
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = r.now().UTC()
	r.sessions[id] = s.Clone()
	return s, nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
