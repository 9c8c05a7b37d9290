package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (db.Session, error)
	Logout(sessionID string)
	Session(sessionID string) (db.Session, error)
}

type AuthRemote interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	remote   AuthRemote
	retrier  *remote.Retrier
	sessions *repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(client AuthRemote, retrier *remote.Retrier, sessions *repository.SessionRepository, ttl time.Duration) AuthService {
	return &authService{remote: client, retrier: retrier, sessions: sessions, ttl: ttl, now: time.Now}
}

// Login forwards the credentials to the remote backend and opens a session
// holding the token it returns.
func (s *authService) Login(ctx context.Context, username, password string) (db.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return db.Session{}, apperrors.Validation("username and password are required")
	}

	token, err := remote.Retry(ctx, s.retrier, "login", func(ctx context.Context) (string, error) {
		return s.remote.Login(ctx, username, password)
	})
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindBadRequest, apperrors.KindUnauthorized, apperrors.KindForbidden:
			logger.Warn("login rejected by remote backend", "username", username)
			return db.Session{}, apperrors.Wrap(apperrors.KindUnauthorized, "invalid credentials", err)
		}
		return db.Session{}, err
	}

	now := s.now()
	session := db.Session{
		ID:        uuid.NewString(),
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions.Create(session)
	logger.Info("owner logged in", "username", username, "session_expires_at", session.ExpiresAt)
	return session, nil
}

func (s *authService) Logout(sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *authService) Session(sessionID string) (db.Session, error) {
	return s.sessions.Get(sessionID)
}
