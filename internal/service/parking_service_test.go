package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/remote"
)

type mockParkingRemote struct {
	mock.Mock
}

func (m *mockParkingRemote) ListParkings(ctx context.Context, token string) ([]entities.RemoteParking, error) {
	args := m.Called(ctx, token)
	items, _ := args.Get(0).([]entities.RemoteParking)
	return items, args.Error(1)
}

func (m *mockParkingRemote) GetParking(ctx context.Context, token, id string) (*entities.RemoteParking, error) {
	args := m.Called(ctx, token, id)
	p, _ := args.Get(0).(*entities.RemoteParking)
	return p, args.Error(1)
}

func (m *mockParkingRemote) CreateParking(ctx context.Context, token string, p entities.RemoteParking) (*entities.RemoteParking, error) {
	args := m.Called(ctx, token, p)
	created, _ := args.Get(0).(*entities.RemoteParking)
	return created, args.Error(1)
}

func (m *mockParkingRemote) UpdateParking(ctx context.Context, token, id string, p entities.RemoteParking) (*entities.RemoteParking, error) {
	args := m.Called(ctx, token, id, p)
	updated, _ := args.Get(0).(*entities.RemoteParking)
	return updated, args.Error(1)
}

func (m *mockParkingRemote) DeleteParking(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

func (m *mockParkingRemote) UploadParkingImage(ctx context.Context, token, id string, img remote.ImageUpload) error {
	return m.Called(ctx, token, id, img).Error(0)
}

func newParkingService(m *mockParkingRemote) *ParkingService {
	return NewParkingService(m, remote.NewRetrierWithWait((&recordedWaits{}).wait), 5)
}

func TestListOwnerParkingsFiltersByOwner(t *testing.T) {
	m := &mockParkingRemote{}
	m.On("ListParkings", mock.Anything, "tok").Return([]entities.RemoteParking{
		{ID: "1", Nombre: "Mine", Dueno: 5, TotalPlazas: 10},
		{ID: "2", Nombre: "Other", Dueno: 6},
		{ID: "3", Nombre: "Unowned"},
	}, nil)

	list, err := newParkingService(m).ListOwnerParkings(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Mine", list[0].Name)
	assert.Equal(t, 10, list[0].TotalSpaces)
	assert.Equal(t, "Unowned", list[1].Name)
}

func TestListOwnerParkingsRetriesUnavailable(t *testing.T) {
	m := &mockParkingRemote{}
	m.On("ListParkings", mock.Anything, "tok").
		Return(nil, apperrors.New(apperrors.KindRemoteUnavailable, "down")).Twice()
	m.On("ListParkings", mock.Anything, "tok").Return([]entities.RemoteParking{}, nil).Once()

	_, err := newParkingService(m).ListOwnerParkings(context.Background(), "tok")
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "ListParkings", 3)
}

func TestCreateParkingRequiresNameAndCoordinates(t *testing.T) {
	m := &mockParkingRemote{}
	svc := newParkingService(m)

	_, err := svc.CreateParking(context.Background(), "tok", map[string]any{"coordinates": "1,2"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateParking(context.Background(), "tok", map[string]any{"name": "Lot"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	m.AssertNotCalled(t, "CreateParking", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateParkingSendsOwner(t *testing.T) {
	m := &mockParkingRemote{}
	m.On("CreateParking", mock.Anything, "tok", mock.MatchedBy(func(p entities.RemoteParking) bool {
		return p.Nombre == "Lot" && p.Dueno == 5 && p.Coordenadas == "1,2" && p.TotalPlazas == 8 && p.PlazasDisponibles == 8
	})).Return(&entities.RemoteParking{ID: "31", Nombre: "Lot", Dueno: 5, TotalPlazas: 8}, nil)

	p, err := newParkingService(m).CreateParking(context.Background(), "tok", map[string]any{
		"name": "Lot", "coordinates": "1,2", "totalSpaces": "8",
	})
	require.NoError(t, err)
	assert.Equal(t, "31", p.ID)
	m.AssertExpectations(t)
}

func TestUpdateAvailabilityBounds(t *testing.T) {
	m := &mockParkingRemote{}
	m.On("GetParking", mock.Anything, "tok", "7").
		Return(&entities.RemoteParking{ID: "7", Nombre: "Lot", TotalPlazas: 10, PlazasDisponibles: 2}, nil)
	m.On("UpdateParking", mock.Anything, "tok", "7", mock.MatchedBy(func(p entities.RemoteParking) bool {
		return p.PlazasDisponibles == 10 && p.TotalPlazas == 10
	})).Return(&entities.RemoteParking{ID: "7", Nombre: "Lot", TotalPlazas: 10, PlazasDisponibles: 10}, nil)

	svc := newParkingService(m)

	_, err := svc.UpdateAvailability(context.Background(), "tok", "7", -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.UpdateAvailability(context.Background(), "tok", "7", 11)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	p, err := svc.UpdateAvailability(context.Background(), "tok", "7", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, p.AvailableSpaces)
	m.AssertNumberOfCalls(t, "UpdateParking", 1)
}

func TestUpdateParkingMergesPayload(t *testing.T) {
	m := &mockParkingRemote{}
	m.On("GetParking", mock.Anything, "tok", "7").
		Return(&entities.RemoteParking{ID: "7", Nombre: "Lot", Direccion: "Old", TotalPlazas: 10, PlazasDisponibles: 4, TarifaHora: 2}, nil)
	m.On("UpdateParking", mock.Anything, "tok", "7", mock.MatchedBy(func(p entities.RemoteParking) bool {
		return p.Direccion == "New" && p.Nombre == "Lot" && p.TotalPlazas == 10 && p.TarifaHora == 2
	})).Return(nil, nil)

	p, err := newParkingService(m).UpdateParking(context.Background(), "tok", "7", map[string]any{"address": "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", p.Address)
	assert.Equal(t, "7", p.ID)

	_, err = newParkingService(m).UpdateParking(context.Background(), "tok", "7", map[string]any{"availableSpaces": 50})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUploadImageChecksContentType(t *testing.T) {
	m := &mockParkingRemote{}
	img := remote.ImageUpload{Filename: "a.png", ContentType: "image/png", Data: []byte{1, 2}}
	m.On("UploadParkingImage", mock.Anything, "tok", "7", img).Return(nil)
	svc := newParkingService(m)

	assert.ErrorIs(t, svc.UploadImage(context.Background(), "tok", "7", remote.ImageUpload{ContentType: "image/png"}), apperrors.ErrValidation)
	assert.ErrorIs(t, svc.UploadImage(context.Background(), "tok", "7", remote.ImageUpload{ContentType: "text/plain", Data: []byte("x")}), apperrors.ErrValidation)
	require.NoError(t, svc.UploadImage(context.Background(), "tok", "7", img))
	m.AssertExpectations(t)
}

func TestDeleteParkingPropagatesNotFound(t *testing.T) {
	m := &mockParkingRemote{}
	m.On("DeleteParking", mock.Anything, "tok", "9").Return(apperrors.NotFound("missing"))

	err := newParkingService(m).DeleteParking(context.Background(), "tok", "9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	m.AssertNumberOfCalls(t, "DeleteParking", 1)
}
