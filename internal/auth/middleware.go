package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/logger"
)

type contextKey int

const sessionKey contextKey = 0

// SessionResolver looks up an open session by id.
type SessionResolver interface {
	Session(sessionID string) (db.Session, error)
}

// SessionMiddleware puts the remote bearer token of the caller in the
// request context. The token comes from the session cookie, or from an
// Authorization: Bearer header when there is no valid cookie.
func SessionMiddleware(manager *SessionManager, sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := manager.SessionIDFromRequest(r); err == nil {
				session, err := sessions.Session(id)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
					return
				}
				logger.Debug("session cookie rejected", "error", err)
			}

			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
				session := db.Session{Token: strings.TrimSpace(token)}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
		})
	}
}

func WithSession(ctx context.Context, session db.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the session set by SessionMiddleware. Callers
// authenticated by a bearer header get a session holding only the token.
func SessionFromContext(ctx context.Context) (db.Session, bool) {
	session, ok := ctx.Value(sessionKey).(db.Session)
	return session, ok
}

// TokenFromContext returns the remote bearer token of the caller.
func TokenFromContext(ctx context.Context) string {
	session, _ := SessionFromContext(ctx)
	return session.Token
}

func UsernameFromContext(ctx context.Context) string {
	session, _ := SessionFromContext(ctx)
	return session.Username
}
