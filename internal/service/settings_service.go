package service

import (
	"context"
	"strings"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/repository"
	"parkeaya-panel/internal/utils"
)

const (
	sourceLocal  = "local"
	sourceRemote = "remote"
)

// SettingsService keeps this panel's own parking settings, locally and on
// the remote backend when it can be reached.
type SettingsService struct {
	Repo    *repository.SettingsRepository
	Remote  ParkingRemote
	Retrier *remote.Retrier
}

func NewSettingsService(repo *repository.SettingsRepository, client ParkingRemote, retrier *remote.Retrier) *SettingsService {
	return &SettingsService{Repo: repo, Remote: client, Retrier: retrier}
}

// GetSettings prefers the remote record matching the local name, else the
// first remote record. An unreachable backend falls back to the local copy;
// an expired session is reported.
func (s *SettingsService) GetSettings(ctx context.Context, token string) (*entities.SettingsResult, error) {
	local := s.Repo.Get()

	items, err := s.listRemote(ctx, token)
	if apperrors.IsAuth(err) {
		return nil, err
	}
	if err != nil {
		logger.Warn("using local settings, remote backend unavailable", "error", err)
		return &entities.SettingsResult{Settings: local, Source: sourceLocal, Message: err.Error()}, nil
	}
	if len(items) == 0 {
		return &entities.SettingsResult{Settings: local, Source: sourceLocal, Message: "no parking registered on the remote backend"}, nil
	}

	match := items[0]
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.Nombre), strings.TrimSpace(local.Name)) {
			match = item
			break
		}
	}

	merged, err := s.Repo.Update(func(cfg *db.ParkingConfig) error {
		remoteCfg := utils.FromRemoteParking(match)
		remoteCfg.AdminNotes = cfg.AdminNotes
		*cfg = remoteCfg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entities.SettingsResult{Settings: merged, RemoteSynced: true, Source: sourceRemote}, nil
}

// SaveSettings stores the settings locally, then tries to push them to the
// remote record. Failing to push is reported, not returned as an error.
func (s *SettingsService) SaveSettings(ctx context.Context, token string, payload map[string]any) (*entities.SettingsResult, error) {
	draft := utils.MergePayload(s.Repo.Get(), payload)
	if strings.TrimSpace(draft.Parking.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	if err := validateCapacity(draft.Parking); err != nil {
		return nil, err
	}
	s.Repo.Save(draft.Parking)

	result := &entities.SettingsResult{Settings: draft.Parking, Source: sourceLocal, Warnings: draft.Warnings()}
	if draft.Parking.ID == "" {
		result.Message = "saved locally; this panel is not linked to a remote parking yet"
		return result, nil
	}

	body := utils.ToRemoteParking(draft.Parking)
	_, err := remote.Retry(ctx, s.Retrier, "update_parking", func(ctx context.Context) (*entities.RemoteParking, error) {
		return s.Remote.UpdateParking(ctx, token, draft.Parking.ID, body)
	})
	if err != nil {
		logger.Warn("settings saved locally but not on remote backend", "parking_id", draft.Parking.ID, "error", err)
		result.Message = "saved locally; remote update failed: " + err.Error()
		return result, nil
	}
	result.RemoteSynced = true
	result.Source = sourceRemote
	return result, nil
}

func (s *SettingsService) UpdateVisibility(ctx context.Context, token string, visible bool) (*entities.SettingsResult, error) {
	return s.SaveSettings(ctx, token, map[string]any{"isVisible": visible})
}

// TestConnection checks the remote backend with the session token.
func (s *SettingsService) TestConnection(ctx context.Context, token string) entities.ConnectionStatus {
	items, err := s.listRemote(ctx, token)
	switch {
	case err == nil:
		return entities.ConnectionStatus{Connected: true, Authenticated: true, ParkingCount: len(items), Message: "connected to remote backend"}
	case apperrors.IsAuth(err):
		return entities.ConnectionStatus{Connected: true, Message: "remote backend rejected the session token"}
	default:
		return entities.ConnectionStatus{Message: err.Error()}
	}
}

func (s *SettingsService) listRemote(ctx context.Context, token string) ([]entities.RemoteParking, error) {
	return remote.Retry(ctx, s.Retrier, "list_parkings", func(ctx context.Context) ([]entities.RemoteParking, error) {
		return s.Remote.ListParkings(ctx, token)
	})
}
