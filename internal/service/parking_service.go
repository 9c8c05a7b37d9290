package service

import (
	"context"
	"strings"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/utils"
)

type ParkingRemote interface {
	ListParkings(ctx context.Context, token string) ([]entities.RemoteParking, error)
	GetParking(ctx context.Context, token, id string) (*entities.RemoteParking, error)
	CreateParking(ctx context.Context, token string, p entities.RemoteParking) (*entities.RemoteParking, error)
	UpdateParking(ctx context.Context, token, id string, p entities.RemoteParking) (*entities.RemoteParking, error)
	DeleteParking(ctx context.Context, token, id string) error
	UploadParkingImage(ctx context.Context, token, id string, img remote.ImageUpload) error
}

// ParkingService manages the owner's parking lots on the remote backend.
type ParkingService struct {
	Remote  ParkingRemote
	Retrier *remote.Retrier
	OwnerID int64
}

func NewParkingService(client ParkingRemote, retrier *remote.Retrier, ownerID int64) *ParkingService {
	return &ParkingService{Remote: client, Retrier: retrier, OwnerID: ownerID}
}

// ListOwnerParkings returns the lots visible to the token, limited to the
// configured owner when one is set.
func (s *ParkingService) ListOwnerParkings(ctx context.Context, token string) ([]db.ParkingConfig, error) {
	items, err := remote.Retry(ctx, s.Retrier, "list_parkings", func(ctx context.Context) ([]entities.RemoteParking, error) {
		return s.Remote.ListParkings(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	out := make([]db.ParkingConfig, 0, len(items))
	for _, item := range items {
		if s.OwnerID != 0 && item.Dueno != 0 && int64(item.Dueno) != s.OwnerID {
			continue
		}
		out = append(out, utils.FromRemoteParking(item))
	}
	return out, nil
}

func (s *ParkingService) GetParking(ctx context.Context, token, id string) (*db.ParkingConfig, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("parking id is required")
	}
	item, err := remote.Retry(ctx, s.Retrier, "get_parking", func(ctx context.Context) (*entities.RemoteParking, error) {
		return s.Remote.GetParking(ctx, token, id)
	})
	if err != nil {
		return nil, err
	}
	p := utils.FromRemoteParking(*item)
	return &p, nil
}

// CreateParking registers a new lot. Name and coordinates are required.
func (s *ParkingService) CreateParking(ctx context.Context, token string, payload map[string]any) (*db.ParkingConfig, error) {
	draft := utils.DraftFromPayload(payload)
	p := draft.Parking
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	if strings.TrimSpace(p.Coordinates) == "" {
		return nil, apperrors.Validation("coordinates are required")
	}
	if err := validateCapacity(p); err != nil {
		return nil, err
	}
	if p.Owner == 0 {
		p.Owner = s.OwnerID
	}
	p.ID = ""

	body := utils.ToRemoteParking(p)
	created, err := remote.Retry(ctx, s.Retrier, "create_parking", func(ctx context.Context) (*entities.RemoteParking, error) {
		return s.Remote.CreateParking(ctx, token, body)
	})
	if err != nil {
		return nil, err
	}
	result := utils.FromRemoteParking(*created)
	logger.Info("parking created", "parking_id", result.ID, "name", result.Name)
	return &result, nil
}

// UpdateParking applies the fields present in payload over the current
// remote record.
func (s *ParkingService) UpdateParking(ctx context.Context, token, id string, payload map[string]any) (*db.ParkingConfig, error) {
	current, err := s.GetParking(ctx, token, id)
	if err != nil {
		return nil, err
	}
	draft := utils.MergePayload(*current, payload)
	if strings.TrimSpace(draft.Parking.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	if err := validateCapacity(draft.Parking); err != nil {
		return nil, err
	}
	return s.put(ctx, token, id, draft.Parking)
}

// UpdateAvailability sets the free spaces of a lot. The value must lie
// between zero and the lot's capacity.
func (s *ParkingService) UpdateAvailability(ctx context.Context, token, id string, available int) (*db.ParkingConfig, error) {
	if available < 0 {
		return nil, apperrors.Validation("availableSpaces must be zero or more")
	}
	current, err := s.GetParking(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if available > current.TotalSpaces {
		return nil, apperrors.Validation("availableSpaces cannot exceed totalSpaces")
	}
	current.AvailableSpaces = available
	return s.put(ctx, token, id, *current)
}

func (s *ParkingService) put(ctx context.Context, token, id string, p db.ParkingConfig) (*db.ParkingConfig, error) {
	p.ID = id
	body := utils.ToRemoteParking(p)
	updated, err := remote.Retry(ctx, s.Retrier, "update_parking", func(ctx context.Context) (*entities.RemoteParking, error) {
		return s.Remote.UpdateParking(ctx, token, id, body)
	})
	if err != nil {
		return nil, err
	}
	if updated == nil || updated.ID == "" {
		return &p, nil
	}
	result := utils.FromRemoteParking(*updated)
	return &result, nil
}

func (s *ParkingService) DeleteParking(ctx context.Context, token, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("parking id is required")
	}
	err := s.Retrier.Do(ctx, "delete_parking", func(ctx context.Context) error {
		return s.Remote.DeleteParking(ctx, token, id)
	})
	if err == nil {
		logger.Info("parking deleted", "parking_id", id)
	}
	return err
}

// UploadImage forwards an image file for a lot.
func (s *ParkingService) UploadImage(ctx context.Context, token, id string, img remote.ImageUpload) error {
	if len(img.Data) == 0 {
		return apperrors.Validation("image is required")
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return apperrors.Validation("file must be an image")
	}
	return s.Retrier.Do(ctx, "upload_parking_image", func(ctx context.Context) error {
		return s.Remote.UploadParkingImage(ctx, token, id, img)
	})
}
