package api

import (
	"net/http"
	"time"

	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/service"
)

type AuthHandler struct {
	service  service.AuthService
	sessions *auth.SessionManager
}

func NewAuthHandler(svc service.AuthService, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{service: svc, sessions: sessions}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	req := entities.LoginRequest{}
	req.Username, _ = payload["username"].(string)
	req.Password, _ = payload["password"].(string)

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	value, err := h.sessions.Issue(session.ID, session.ExpiresAt)
	if err != nil {
		h.service.Logout(session.ID)
		writeError(w, apperrors.Internal("could not open session", err))
		return
	}
	h.sessions.SetCookie(w, value, session.ExpiresAt)
	writeJSON(w, http.StatusOK, entities.SessionInfo{Username: session.Username, ExpiresAt: session.ExpiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, err := h.sessions.SessionIDFromRequest(r); err == nil {
		h.service.Logout(id)
	}
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Session reports who is logged in.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	info := entities.SessionInfo{Username: session.Username}
	if !session.ExpiresAt.IsZero() {
		info.ExpiresAt = session.ExpiresAt.UTC().Truncate(time.Second)
	}
	writeJSON(w, http.StatusOK, info)
}
