package service

import (
	"context"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/utils"
)

// RegistrationService saves the panel settings and submits them for
// approval in one step.
type RegistrationService struct {
	Settings  *SettingsService
	Approvals *ApprovalService
}

func NewRegistrationService(settings *SettingsService, approvals *ApprovalService) *RegistrationService {
	return &RegistrationService{Settings: settings, Approvals: approvals}
}

// SaveAndRegister validates payload as a submission, saves it as the local
// settings and submits the saved settings. Invalid input saves nothing. The
// returned settings and record are set whenever saving succeeded, even if
// the submission failed.
func (s *RegistrationService) SaveAndRegister(ctx context.Context, token string, payload map[string]any) (*entities.SettingsResult, *db.ApprovalRequest, error) {
	draft := utils.DraftFromPayload(payload)
	if err := validateParking(draft.Parking, draft.HasTotalSpaces); err != nil {
		return nil, nil, err
	}

	// A new registration starts with every space available unless told
	// otherwise.
	merged := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	if _, ok := merged["availableSpaces"]; !ok {
		merged["availableSpaces"] = draft.Parking.AvailableSpaces
	}

	saved, err := s.Settings.SaveSettings(ctx, token, merged)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("settings saved, submitting for approval", "parking", saved.Settings.Name)

	rec, err := s.Approvals.SubmitParking(ctx, token, saved.Settings)
	return saved, rec, err
}
