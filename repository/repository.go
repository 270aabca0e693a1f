package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"harmonychain/models"
)

// MemoryRepository keeps sessions for the lifetime of the process.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]models.Session)}
}

func (r *MemoryRepository) CreateSession(
	ctx context.Context,
	s models.Session,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepository) GetSession(
	ctx context.Context,
	id string,
) (models.Session, error) {
	if err := ctx.Err(); err != nil {
		return models.Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// UpdateSession runs fn on a copy of the session under the store lock and
// saves the copy only if fn succeeds. A result with a negative balance is
// discarded.
func (r *MemoryRepository) UpdateSession(
	ctx context.Context,
	id string,
	fn func(*models.Session) error,
) (models.Session, error) {
	if err := ctx.Err(); err != nil {
		return models.Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.sessions[id]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return models.Session{}, err
	}
	if next.State.Balance < 0 {
		return models.Session{}, models.ErrInsufficientBalance
	}
	next.ID = cur.ID
	r.sessions[id] = next
	return next.Clone(), nil
}

func (r *MemoryRepository) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return models.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// ExpireSessions drops every session last seen before the cutoff.
func (r *MemoryRepository) ExpireSessions(
	ctx context.Context,
	before time.Time,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastSeen.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountSessions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions), nil
}
