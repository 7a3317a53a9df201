package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/widget"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepo keeps live widget sessions in memory. Nothing is persisted: an
// evicted or restarted session starts with an empty transcript.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*widget.Session
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[uuid.UUID]*widget.Session)}
}

func (r *SessionRepo) Add(_ context.Context, s *widget.Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

func (r *SessionRepo) Get(_ context.Context, id uuid.UUID) (*widget.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRepo) Delete(_ context.Context, id uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *SessionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle drops sessions idle for longer than ttl. Sessions with a send in
// flight are kept until it settles.
func (r *SessionRepo) EvictIdle(_ context.Context, now time.Time, ttl time.Duration) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []uuid.UUID
	for id, s := range r.sessions {
		if s.InFlight() {
			continue
		}
		if now.Sub(s.LastActive()) > ttl {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
