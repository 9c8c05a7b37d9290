package repository

import (
	"sync"
	"time"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
)

// SessionRepository holds browser sessions in memory. Tokens never leave
// the process.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]db.Session
	now      func() time.Time
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]db.Session), now: time.Now}
}

func (r *SessionRepository) Create(s db.Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
}

// Get returns the session, dropping it when expired.
func (r *SessionRepository) Get(id string) (db.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return db.Session{}, apperrors.New(apperrors.KindUnauthorized, "session not found")
	}
	if s.Expired(r.now()) {
		r.Delete(id)
		return db.Session{}, apperrors.New(apperrors.KindUnauthorized, "session expired")
	}
	return s, nil
}

func (r *SessionRepository) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// PurgeExpired removes expired sessions and returns how many were dropped.
func (r *SessionRepository) PurgeExpired() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
