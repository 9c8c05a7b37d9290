package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/repository"
)

func newRegistrationService(fb *fakeBackend) (*RegistrationService, *repository.SettingsRepository, *repository.MemoryApprovalRepository) {
	settings, settingsRepo := newSettingsService(fb)
	approvals, approvalRepo := newApprovalService(fb, &recordedWaits{}, nil)
	return NewRegistrationService(settings, approvals), settingsRepo, approvalRepo
}

func TestSaveAndRegisterSubmitsSavedSettings(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		writeJSON(w, http.StatusCreated, `{"id": 42}`)
	})
	svc, settingsRepo, _ := newRegistrationService(fb)

	saved, rec, err := svc.SaveAndRegister(context.Background(), "tok", map[string]any{
		"name":        "Lot A",
		"address":     "123 St",
		"totalSpaces": "20",
		"hourlyRate":  "5",
	})
	require.NoError(t, err)

	assert.Equal(t, "Lot A", saved.Settings.Name)
	assert.Equal(t, 20, settingsRepo.Get().TotalSpaces)
	assert.Equal(t, 20, settingsRepo.Get().AvailableSpaces)
	assert.Equal(t, db.StageCreated, rec.Stage)
	assert.Equal(t, "42", rec.RemoteID)

	require.Len(t, fb.bodies, 1)
	sent := fb.bodies[0]
	assert.Equal(t, "123 St", sent["direccion"])
	assert.Equal(t, 20.0, sent["total_plazas"])
	assert.Equal(t, 20.0, sent["plazas_disponibles"])
	assert.Equal(t, 5.0, sent["tarifa_hora"])
	assert.Equal(t, testPanelID, sent["panel_local_id"])
}

func TestSaveAndRegisterInvalidSavesNothing(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {})
	svc, settingsRepo, approvalRepo := newRegistrationService(fb)

	saved, rec, err := svc.SaveAndRegister(context.Background(), "tok", map[string]any{"name": "Lot A", "totalSpaces": 5})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, saved)
	assert.Nil(t, rec)

	assert.Equal(t, repository.DefaultSettings(), settingsRepo.Get())
	list, _ := approvalRepo.List(context.Background())
	assert.Empty(t, list)
	assert.Equal(t, 0, fb.total())
}

func TestSaveAndRegisterKeepsSettingsWhenRemoteDown(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request, call int) {
		writeJSON(w, http.StatusServiceUnavailable, ``)
	})
	svc, settingsRepo, _ := newRegistrationService(fb)

	saved, rec, err := svc.SaveAndRegister(context.Background(), "tok", map[string]any{
		"name": "Lot A", "address": "123 St", "totalSpaces": 20,
	})
	assert.ErrorIs(t, err, apperrors.ErrExhaustedRetries)
	require.NotNil(t, saved)
	require.NotNil(t, rec)
	assert.Equal(t, db.StageErrorLocal, rec.Stage)
	assert.Equal(t, "123 St", settingsRepo.Get().Address)
	assert.Equal(t, remote.MaxAttempts, fb.count("POST /approval-requests/"))
}
