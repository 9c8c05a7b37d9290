package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/repository"
)

type stubHealth struct {
	err error
}

func (s *stubHealth) Health(ctx context.Context) error {
	return s.err
}

func TestCheckRemoteHealthTracksState(t *testing.T) {
	h := &stubHealth{}
	jobs := NewJobService(h, repository.NewSessionRepository())

	_, known := jobs.RemoteUp()
	assert.False(t, known)

	require.NoError(t, jobs.CheckRemoteHealth(context.Background()))
	up, known := jobs.RemoteUp()
	assert.True(t, known)
	assert.True(t, up)

	h.err = errors.New("connection refused")
	assert.Error(t, jobs.CheckRemoteHealth(context.Background()))
	up, _ = jobs.RemoteUp()
	assert.False(t, up)
}

func TestPurgeExpiredSessions(t *testing.T) {
	sessions := repository.NewSessionRepository()
	sessions.Create(db.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	sessions.Create(db.Session{ID: "new", ExpiresAt: time.Now().Add(time.Hour)})

	assert.Equal(t, 1, NewJobService(&stubHealth{}, sessions).PurgeExpiredSessions())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	jobs := NewJobService(&stubHealth{}, repository.NewSessionRepository())

	_, err := jobs.Start("not a schedule")
	assert.Error(t, err)

	c, err := jobs.Start("@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
	c.Stop()

	c, err = jobs.Start("")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	c.Stop()
}
