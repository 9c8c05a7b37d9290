package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
)

func newRequest(id string) *db.ApprovalRequest {
	now := time.Now()
	return &db.ApprovalRequest{
		ID:          id,
		Parking:     db.ParkingConfig{Name: "Lot " + id, Address: "X", TotalSpaces: 10, Services: []string{"Vigilancia"}},
		Status:      db.StatusPending,
		Stage:       db.StageSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
}

func TestMemoryApprovalRepositoryListsInInsertionOrder(t *testing.T) {
	repo := NewMemoryApprovalRepository()
	ctx := context.Background()
	for _, id := range []string{"REQ_c", "REQ_a", "REQ_b"} {
		require.NoError(t, repo.Create(ctx, newRequest(id)))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "REQ_c", list[0].ID)
	assert.Equal(t, "REQ_a", list[1].ID)
	assert.Equal(t, "REQ_b", list[2].ID)
}

func TestMemoryApprovalRepositoryRejectsDuplicateID(t *testing.T) {
	repo := NewMemoryApprovalRepository()
	require.NoError(t, repo.Create(context.Background(), newRequest("REQ_1")))
	assert.Error(t, repo.Create(context.Background(), newRequest("REQ_1")))
}

func TestMemoryApprovalRepositoryHandsOutCopies(t *testing.T) {
	repo := NewMemoryApprovalRepository()
	ctx := context.Background()
	req := newRequest("REQ_1")
	require.NoError(t, repo.Create(ctx, req))

	req.Parking.Name = "mutated after create"
	got, err := repo.Get(ctx, "REQ_1")
	require.NoError(t, err)
	assert.Equal(t, "Lot REQ_1", got.Parking.Name)

	got.Parking.Services[0] = "mutated"
	again, err := repo.Get(ctx, "REQ_1")
	require.NoError(t, err)
	assert.Equal(t, "Vigilancia", again.Parking.Services[0])
}

func TestMemoryApprovalRepositoryUpdate(t *testing.T) {
	repo := NewMemoryApprovalRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newRequest("REQ_1")))

	updated, err := repo.Update(ctx, "REQ_1", func(r *db.ApprovalRequest) error {
		r.Stage = db.StageCreated
		r.Status = db.StatusCreatedInDjango
		r.RemoteID = "42"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "42", updated.RemoteID)

	found, err := repo.FindByRemoteID(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "REQ_1", found.ID)

	_, err = repo.FindByRemoteID(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// A failing mutation leaves the record as it was.
	_, err = repo.Update(ctx, "REQ_1", func(r *db.ApprovalRequest) error {
		r.Status = db.StatusRejected
		return apperrors.Validation("nope")
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	got, _ := repo.Get(ctx, "REQ_1")
	assert.Equal(t, db.StatusCreatedInDjango, got.Status)

	_, err = repo.Update(ctx, "REQ_missing", func(r *db.ApprovalRequest) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryApprovalRepositoryConcurrentUpdates(t *testing.T) {
	repo := NewMemoryApprovalRepository()
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Create(ctx, newRequest(fmt.Sprintf("REQ_%d", i))))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		for j := 0; j < 50; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := repo.Update(ctx, id, func(r *db.ApprovalRequest) error {
					r.Parking.TotalSpaces++
					return nil
				})
				assert.NoError(t, err)
			}(fmt.Sprintf("REQ_%d", i))
		}
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = repo.List(ctx)
	}()
	wg.Wait()

	for i := 0; i < 4; i++ {
		got, err := repo.Get(ctx, fmt.Sprintf("REQ_%d", i))
		require.NoError(t, err)
		assert.Equal(t, 60, got.Parking.TotalSpaces)
	}
}
