package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/repository"
)

func TestLoginOpensSession(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		writeJSON(w, http.StatusOK, `{"access": "jwt-from-django"}`)
	})
	sessions := repository.NewSessionRepository()
	svc := NewAuthService(fb.client(), remote.NewRetrierWithWait((&recordedWaits{}).wait), sessions, time.Hour)

	s, err := svc.Login(context.Background(), " owner ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "owner", s.Username)
	assert.Equal(t, "jwt-from-django", s.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, 5*time.Second)

	got, err := svc.Session(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)

	svc.Logout(s.ID)
	_, err = svc.Session(s.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		writeJSON(w, http.StatusBadRequest, `{"non_field_errors":["Unable to log in"]}`)
	})
	svc := NewAuthService(fb.client(), remote.NewRetrierWithWait((&recordedWaits{}).wait), repository.NewSessionRepository(), time.Hour)

	_, err := svc.Login(context.Background(), "owner", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, "invalid credentials", err.Error())
	assert.Equal(t, 1, fb.total())

	_, err = svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 1, fb.total())
}
