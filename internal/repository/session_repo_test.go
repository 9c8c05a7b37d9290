package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
)

func TestSessionRepositoryExpiry(t *testing.T) {
	repo := NewSessionRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	repo.Create(db.Session{ID: "live", Token: "t1", ExpiresAt: now.Add(time.Hour)})
	repo.Create(db.Session{ID: "dead", Token: "t2", ExpiresAt: now.Add(-time.Second)})

	s, err := repo.Get("live")
	require.NoError(t, err)
	assert.Equal(t, "t1", s.Token)

	_, err = repo.Get("dead")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, repo.PurgeExpired())
	_, err = repo.Get("live")
	assert.Error(t, err)
}

func TestSettingsRepositoryDefaultsAndCopies(t *testing.T) {
	repo := NewSettingsRepository()
	cfg := repo.Get()
	assert.Equal(t, "Mi Estacionamiento", cfg.Name)
	assert.Equal(t, 50, cfg.TotalSpaces)
	assert.Equal(t, 3.50, cfg.HourlyRate)

	cfg.Services = []string{"Techado"}
	repo.Save(cfg)
	cfg.Services[0] = "mutated"
	assert.Equal(t, []string{"Techado"}, repo.Get().Services)

	_, err := repo.Update(func(p *db.ParkingConfig) error {
		p.IsVisible = false
		return nil
	})
	require.NoError(t, err)
	assert.False(t, repo.Get().IsVisible)
}
